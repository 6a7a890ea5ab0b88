package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Reaishma/Healthcare-informatics-solution/types"
)

// maxUpdateRetries bounds optimistic-lock retries when concurrent writers touch the same key.
const maxUpdateRetries = 8

// RedisStorage is a Redis-backed implementation of the Storage interface.
// Records are stored as JSON under "<namespace><kind>:<id>"; each kind keeps an
// id sequence and an id set for listing.
type RedisStorage struct {
	client *redis.Client

	users         *redisTable[types.User, *types.User]
	workflows     *redisTable[types.Workflow, *types.Workflow]
	tasks         *redisTable[types.Task, *types.Task]
	stages        *redisTable[types.PatientFlowStage, *types.PatientFlowStage]
	schedules     *redisTable[types.Schedule, *types.Schedule]
	stories       *redisTable[types.UserStory, *types.UserStory]
	notifications *redisTable[types.Notification, *types.Notification]
}

// RedisOptions extends redis.Options with additional configuration.
type RedisOptions struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	IdleTimeout  time.Duration
	Namespace    string
}

// NewRedisStorage creates a new RedisStorage instance with configurable options.
func NewRedisStorage(opts RedisOptions) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		IdleTimeout:  opts.IdleTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStorageWithClient(client, opts.Namespace), nil
}

// NewRedisStorageWithClient builds the storage on an existing client.
func NewRedisStorageWithClient(client *redis.Client, namespace string) *RedisStorage {
	if namespace == "" {
		namespace = "careflow:"
	}
	return &RedisStorage{
		client:        client,
		users:         newRedisTable[types.User](client, namespace+"user"),
		workflows:     newRedisTable[types.Workflow](client, namespace+"workflow"),
		tasks:         newRedisTable[types.Task](client, namespace+"task"),
		stages:        newRedisTable[types.PatientFlowStage](client, namespace+"patient_flow_stage"),
		schedules:     newRedisTable[types.Schedule](client, namespace+"schedule"),
		stories:       newRedisTable[types.UserStory](client, namespace+"user_story"),
		notifications: newRedisTable[types.Notification](client, namespace+"notification"),
	}
}

func (s *RedisStorage) Users() Table[types.User]                 { return s.users }
func (s *RedisStorage) Workflows() Table[types.Workflow]         { return s.workflows }
func (s *RedisStorage) Tasks() Table[types.Task]                 { return s.tasks }
func (s *RedisStorage) Stages() Table[types.PatientFlowStage]    { return s.stages }
func (s *RedisStorage) Schedules() Table[types.Schedule]         { return s.schedules }
func (s *RedisStorage) Stories() Table[types.UserStory]          { return s.stories }
func (s *RedisStorage) Notifications() Table[types.Notification] { return s.notifications }

// Client exposes the underlying connection so the event relay can share it.
func (s *RedisStorage) Client() *redis.Client {
	return s.client
}

// Close closes the Redis client connection.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}

type redisTable[T any, P types.Record[T]] struct {
	client *redis.Client
	prefix string
}

func newRedisTable[T any, P types.Record[T]](client *redis.Client, prefix string) *redisTable[T, P] {
	return &redisTable[T, P]{client: client, prefix: prefix}
}

func (t *redisTable[T, P]) key(id uint64) string {
	return fmt.Sprintf("%s:%d", t.prefix, id)
}

func (t *redisTable[T, P]) idsKey() string { return t.prefix + ":ids" }
func (t *redisTable[T, P]) seqKey() string { return t.prefix + ":seq" }

// uniqueKeyOf maps a natural key to the id that owns it.
func (t *redisTable[T, P]) uniqueKeyOf(key string) string { return t.prefix + ":unique:" + key }

// claim reserves key for id with SETNX. Claiming a key already owned by id succeeds.
func (t *redisTable[T, P]) claim(ctx context.Context, key string, id uint64) error {
	ok, err := t.client.SetNX(ctx, t.uniqueKeyOf(key), id, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve %s %q: %w", t.prefix, key, err)
	}
	if ok {
		return nil
	}
	owner, err := t.client.Get(ctx, t.uniqueKeyOf(key)).Uint64()
	if err == nil && owner == id {
		return nil
	}
	return duplicate(t.prefix, key)
}

// release frees key if id still owns it.
func (t *redisTable[T, P]) release(ctx context.Context, key string, id uint64) {
	owner, err := t.client.Get(ctx, t.uniqueKeyOf(key)).Uint64()
	if err == nil && owner == id {
		t.client.Del(ctx, t.uniqueKeyOf(key))
	}
}

// getFromRedis retrieves and unmarshals a value stored under key.
func getFromRedis[T any](ctx context.Context, c redis.Cmdable, key string) (T, error) {
	return withContext(ctx, func() (T, error) {
		var zero T
		data, err := c.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return zero, fmt.Errorf("%w: key=%s", ErrNotFound, key)
		} else if err != nil {
			return zero, fmt.Errorf("failed to get %s from Redis: %w", key, err)
		}

		var result T
		if err := json.Unmarshal(data, &result); err != nil {
			return zero, fmt.Errorf("failed to unmarshal %s: %w", key, err)
		}
		return result, nil
	})
}

func (t *redisTable[T, P]) List(ctx context.Context) ([]T, error) {
	return withContext(ctx, func() ([]T, error) {
		members, err := t.client.SMembers(ctx, t.idsKey()).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list %s ids: %w", t.prefix, err)
		}
		ids := make([]uint64, 0, len(members))
		for _, m := range members {
			id, err := strconv.ParseUint(m, 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return []T{}, nil
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = t.key(id)
		}
		values, err := t.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to load %s records: %w", t.prefix, err)
		}

		out := make([]T, 0, len(values))
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				// deleted between SMEMBERS and MGET
				continue
			}
			var rec T
			if err := json.Unmarshal([]byte(raw), &rec); err != nil {
				return nil, fmt.Errorf("failed to unmarshal %s: %w", keys[i], err)
			}
			out = append(out, rec)
		}
		return out, nil
	})
}

func (t *redisTable[T, P]) Get(ctx context.Context, id uint64) (T, error) {
	return getFromRedis[T](ctx, t.client, t.key(id))
}

func (t *redisTable[T, P]) Create(ctx context.Context, rec T) (T, error) {
	return withContext(ctx, func() (T, error) {
		var zero T
		id, err := t.client.Incr(ctx, t.seqKey()).Uint64()
		if err != nil {
			return zero, fmt.Errorf("failed to allocate %s id: %w", t.prefix, err)
		}
		P(&rec).SetRecordID(id)

		data, err := json.Marshal(rec)
		if err != nil {
			return zero, fmt.Errorf("failed to marshal %s: %w", t.key(id), err)
		}
		unique, keyed := uniqueKey[T, P](&rec)
		if keyed {
			if err := t.claim(ctx, unique, id); err != nil {
				return zero, err
			}
		}
		_, err = t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, t.key(id), data, 0)
			pipe.SAdd(ctx, t.idsKey(), id)
			return nil
		})
		if err != nil {
			if keyed {
				t.release(ctx, unique, id)
			}
			return zero, fmt.Errorf("failed to store %s: %w", t.key(id), err)
		}
		return rec, nil
	})
}

func (t *redisTable[T, P]) Update(ctx context.Context, id uint64, mutate func(*T) error) (T, error) {
	key := t.key(id)
	var result T
	txf := func(tx *redis.Tx) error {
		rec, err := getFromRedis[T](ctx, tx, key)
		if err != nil {
			return err
		}
		before, keyed := uniqueKey[T, P](&rec)
		if err := mutate(&rec); err != nil {
			return err
		}
		P(&rec).SetRecordID(id)
		after, _ := uniqueKey[T, P](&rec)
		rekeyed := keyed && after != before
		if rekeyed {
			if err := t.claim(ctx, after, id); err != nil {
				return err
			}
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err != nil {
			if rekeyed {
				t.release(ctx, after, id)
			}
			return err
		}
		if rekeyed {
			t.release(ctx, before, id)
		}
		result = rec
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := withContextError(ctx, func() error {
			return t.client.Watch(ctx, txf, key)
		})
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			var zero T
			return zero, err
		}
		return result, nil
	}
	var zero T
	return zero, fmt.Errorf("failed to update %s: too much contention", key)
}

func (t *redisTable[T, P]) Delete(ctx context.Context, id uint64) error {
	return withContextError(ctx, func() error {
		var unique string
		var keyed bool
		if rec, err := getFromRedis[T](ctx, t.client, t.key(id)); err == nil {
			unique, keyed = uniqueKey[T, P](&rec)
		}
		pipe := t.client.TxPipeline()
		del := pipe.Del(ctx, t.key(id))
		pipe.SRem(ctx, t.idsKey(), id)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete %s: %w", t.key(id), err)
		}
		if del.Val() == 0 {
			return fmt.Errorf("%w: key=%s", ErrNotFound, t.key(id))
		}
		if keyed {
			t.release(ctx, unique, id)
		}
		return nil
	})
}
