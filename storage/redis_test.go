package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reaishma/Healthcare-informatics-solution/types"
)

var redisTestOpts = RedisOptions{
	Addr:         "localhost:6379",
	Password:     "",
	DB:           0,
	PoolSize:     10,
	MinIdleConns: 2,
	IdleTimeout:  5 * time.Minute,
}

// newRedisTestStorage connects to a local Redis under a throwaway namespace
// and removes every key it wrote when the test ends.
func newRedisTestStorage(t *testing.T) *RedisStorage {
	t.Helper()
	opts := redisTestOpts
	opts.Namespace = "careflow-test-" + uuid.NewString() + ":"
	store, err := NewRedisStorage(opts)
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		keys, err := store.client.Keys(ctx, opts.Namespace+"*").Result()
		if err == nil && len(keys) > 0 {
			store.client.Del(ctx, keys...)
		}
		_ = store.Close()
	})
	return store
}

func TestRedisStorage(t *testing.T) {
	t.Run("ConnectionFailure", func(t *testing.T) {
		badOpts := redisTestOpts
		badOpts.Addr = "invalid:6379"
		_, err := NewRedisStorage(badOpts)
		assert.Error(t, err)
	})

	t.Run("CreateAndGet", func(t *testing.T) {
		store := newRedisTestStorage(t)
		ctx := context.Background()

		created, err := store.Stages().Create(ctx, newStage("Triage", 10, 5))
		require.NoError(t, err)
		assert.Equal(t, uint64(1), created.ID)

		got, err := store.Stages().Get(ctx, created.ID)
		assert.NoError(t, err)
		assert.Equal(t, created, got)

		_, err = store.Stages().Get(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ListOrdersByID", func(t *testing.T) {
		store := newRedisTestStorage(t)
		ctx := context.Background()
		for i := 0; i < 12; i++ {
			_, err := store.Stories().Create(ctx, types.UserStory{Title: fmt.Sprintf("story-%d", i), Status: types.StoryBacklog})
			require.NoError(t, err)
		}

		list, err := store.Stories().List(ctx)
		assert.NoError(t, err)
		assert.Len(t, list, 12)
		for i, s := range list {
			assert.Equal(t, uint64(i+1), s.ID)
		}
	})

	t.Run("ListEmpty", func(t *testing.T) {
		store := newRedisTestStorage(t)
		list, err := store.Workflows().List(context.Background())
		assert.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("UpdateAndDelete", func(t *testing.T) {
		store := newRedisTestStorage(t)
		ctx := context.Background()
		created, err := store.Tasks().Create(ctx, types.Task{Title: "Draw labs", Status: types.TaskPending})
		require.NoError(t, err)

		updated, err := store.Tasks().Update(ctx, created.ID, func(task *types.Task) error {
			task.Status = types.TaskCompleted
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, types.TaskCompleted, updated.Status)

		assert.NoError(t, store.Tasks().Delete(ctx, created.ID))
		assert.ErrorIs(t, store.Tasks().Delete(ctx, created.ID), ErrNotFound)

		list, err := store.Tasks().List(ctx)
		assert.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("UniqueUsernames", func(t *testing.T) {
		store := newRedisTestStorage(t)
		ctx := context.Background()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners []types.User
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				name := "nurse.joy"
				if n%2 == 1 {
					name = "Nurse.Joy"
				}
				u, err := store.Users().Create(ctx, types.User{Username: name, Role: types.RoleNurse})
				if err != nil {
					assert.ErrorIs(t, err, ErrDuplicate)
					return
				}
				mu.Lock()
				winners = append(winners, u)
				mu.Unlock()
			}(i)
		}
		wg.Wait()
		require.Len(t, winners, 1)

		ben, err := store.Users().Create(ctx, types.User{Username: "ben", Role: types.RoleTechnician})
		require.NoError(t, err)
		_, err = store.Users().Update(ctx, ben.ID, func(u *types.User) error {
			u.Username = "NURSE.JOY"
			return nil
		})
		assert.ErrorIs(t, err, ErrDuplicate)

		renamed, err := store.Users().Update(ctx, ben.ID, func(u *types.User) error {
			u.Username = "benjamin"
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "benjamin", renamed.Username)
		_, err = store.Users().Create(ctx, types.User{Username: "ben", Role: types.RoleTechnician})
		assert.NoError(t, err, "old name is released after a rename")

		require.NoError(t, store.Users().Delete(ctx, winners[0].ID))
		_, err = store.Users().Create(ctx, types.User{Username: "nurse.joy", Role: types.RoleNurse})
		assert.NoError(t, err, "name is released after delete")
	})

	t.Run("ConcurrentUpdates", func(t *testing.T) {
		store := newRedisTestStorage(t)
		ctx := context.Background()
		created, err := store.Stages().Create(ctx, newStage("Triage", 1000, 0))
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Stages().Update(ctx, created.ID, func(s *types.PatientFlowStage) error {
					s.CurrentCount++
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := store.Stages().Get(ctx, created.ID)
		assert.NoError(t, err)
		assert.Equal(t, 5, got.CurrentCount)
	})

	t.Run("ContextCancellation", func(t *testing.T) {
		store := newRedisTestStorage(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := store.Workflows().Create(ctx, types.Workflow{Name: "wf"})
		assert.ErrorIs(t, err, context.Canceled)

		_, err = store.Workflows().Get(ctx, 1)
		assert.ErrorIs(t, err, context.Canceled)

		err = store.Workflows().Delete(ctx, 1)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Close", func(t *testing.T) {
		store, err := NewRedisStorage(redisTestOpts)
		if err != nil {
			t.Skipf("redis not available: %v", err)
		}
		assert.NoError(t, store.Close())

		_, err = store.Workflows().Create(context.Background(), types.Workflow{Name: "wf"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "closed")
	})
}

func TestGetFromRedis(t *testing.T) {
	store := newRedisTestStorage(t)
	ctx := context.Background()

	created, err := store.Workflows().Create(ctx, types.Workflow{Name: "Admission", Status: types.WorkflowActive, CreatedByID: 1})
	require.NoError(t, err)
	key := store.workflows.key(created.ID)

	t.Run("Found", func(t *testing.T) {
		result, err := getFromRedis[types.Workflow](ctx, store.client, key)
		assert.NoError(t, err)
		assert.Equal(t, created, result)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := getFromRedis[types.Workflow](ctx, store.client, store.workflows.key(999))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := getFromRedis[types.Workflow](ctx, store.client, key)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
