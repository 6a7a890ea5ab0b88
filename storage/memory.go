package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Reaishma/Healthcare-informatics-solution/types"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
type MemoryStorage struct {
	users         *memoryTable[types.User, *types.User]
	workflows     *memoryTable[types.Workflow, *types.Workflow]
	tasks         *memoryTable[types.Task, *types.Task]
	stages        *memoryTable[types.PatientFlowStage, *types.PatientFlowStage]
	schedules     *memoryTable[types.Schedule, *types.Schedule]
	stories       *memoryTable[types.UserStory, *types.UserStory]
	notifications *memoryTable[types.Notification, *types.Notification]
}

// NewMemoryStorage creates a new MemoryStorage instance.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:         newMemoryTable[types.User]("user"),
		workflows:     newMemoryTable[types.Workflow]("workflow"),
		tasks:         newMemoryTable[types.Task]("task"),
		stages:        newMemoryTable[types.PatientFlowStage]("patient_flow_stage"),
		schedules:     newMemoryTable[types.Schedule]("schedule"),
		stories:       newMemoryTable[types.UserStory]("user_story"),
		notifications: newMemoryTable[types.Notification]("notification"),
	}
}

func (s *MemoryStorage) Users() Table[types.User]                 { return s.users }
func (s *MemoryStorage) Workflows() Table[types.Workflow]         { return s.workflows }
func (s *MemoryStorage) Tasks() Table[types.Task]                 { return s.tasks }
func (s *MemoryStorage) Stages() Table[types.PatientFlowStage]    { return s.stages }
func (s *MemoryStorage) Schedules() Table[types.Schedule]         { return s.schedules }
func (s *MemoryStorage) Stories() Table[types.UserStory]          { return s.stories }
func (s *MemoryStorage) Notifications() Table[types.Notification] { return s.notifications }
func (s *MemoryStorage) Close() error                             { return nil }

type memoryTable[T any, P types.Record[T]] struct {
	name   string
	rows   map[uint64]T
	nextID uint64
	mu     sync.RWMutex
}

func newMemoryTable[T any, P types.Record[T]](name string) *memoryTable[T, P] {
	return &memoryTable[T, P]{name: name, rows: make(map[uint64]T)}
}

// getItem is a standalone generic helper function.
func getItem[T any](ctx context.Context, m map[uint64]T, name string, id uint64) (T, error) {
	return withContext(ctx, func() (T, error) {
		item, ok := m[id]
		if !ok {
			var zero T
			return zero, fmt.Errorf("%w: %s id=%d", ErrNotFound, name, id)
		}
		return item, nil
	})
}

// checkUnique rejects rec when another row than self holds its key.
// Callers hold the write lock.
func (t *memoryTable[T, P]) checkUnique(self uint64, rec *T) error {
	key, ok := uniqueKey[T, P](rec)
	if !ok {
		return nil
	}
	for id, row := range t.rows {
		if other, _ := uniqueKey[T, P](&row); id != self && other == key {
			return duplicate(t.name, key)
		}
	}
	return nil
}

func (t *memoryTable[T, P]) List(ctx context.Context) ([]T, error) {
	return withContext(ctx, func() ([]T, error) {
		t.mu.RLock()
		defer t.mu.RUnlock()
		ids := make([]uint64, 0, len(t.rows))
		for id := range t.rows {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		out := make([]T, 0, len(ids))
		for _, id := range ids {
			out = append(out, t.rows[id])
		}
		return out, nil
	})
}

func (t *memoryTable[T, P]) Get(ctx context.Context, id uint64) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return getItem(ctx, t.rows, t.name, id)
}

func (t *memoryTable[T, P]) Create(ctx context.Context, rec T) (T, error) {
	return withContext(ctx, func() (T, error) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if err := t.checkUnique(0, &rec); err != nil {
			var zero T
			return zero, err
		}
		t.nextID++
		P(&rec).SetRecordID(t.nextID)
		t.rows[t.nextID] = rec
		return rec, nil
	})
}

func (t *memoryTable[T, P]) Update(ctx context.Context, id uint64, mutate func(*T) error) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, err := getItem(ctx, t.rows, t.name, id)
	if err != nil {
		return rec, err
	}
	if err := mutate(&rec); err != nil {
		var zero T
		return zero, err
	}
	if err := t.checkUnique(id, &rec); err != nil {
		var zero T
		return zero, err
	}
	P(&rec).SetRecordID(id)
	t.rows[id] = rec
	return rec, nil
}

func (t *memoryTable[T, P]) Delete(ctx context.Context, id uint64) error {
	return withContextError(ctx, func() error {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := t.rows[id]; !ok {
			return fmt.Errorf("%w: %s id=%d", ErrNotFound, t.name, id)
		}
		delete(t.rows, id)
		return nil
	})
}
