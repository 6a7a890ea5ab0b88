package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Reaishma/Healthcare-informatics-solution/types"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a record's unique key is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

// Table is a key-indexed record store for one entity kind.
type Table[T any] interface {
	// List returns every record in ascending id order.
	List(ctx context.Context) ([]T, error)

	// Get retrieves a record by id.
	Get(ctx context.Context, id uint64) (T, error)

	// Create assigns a fresh id, stores the record and returns it.
	// Records implementing types.Keyed fail with ErrDuplicate when their key is taken.
	Create(ctx context.Context, rec T) (T, error)

	// Update applies mutate to the stored record atomically and returns the result.
	// An error from mutate aborts the update and is returned unchanged.
	Update(ctx context.Context, id uint64, mutate func(*T) error) (T, error)

	// Delete removes a record.
	Delete(ctx context.Context, id uint64) error
}

// Storage groups the tables of the dashboard.
type Storage interface {
	Users() Table[types.User]
	Workflows() Table[types.Workflow]
	Tasks() Table[types.Task]
	Stages() Table[types.PatientFlowStage]
	Schedules() Table[types.Schedule]
	Stories() Table[types.UserStory]
	Notifications() Table[types.Notification]

	Close() error
}

// uniqueKey returns the natural key of rec when its type has one.
func uniqueKey[T any, P types.Record[T]](rec *T) (string, bool) {
	k, ok := any(P(rec)).(types.Keyed)
	if !ok {
		return "", false
	}
	return k.UniqueKey(), true
}

func duplicate(table, key string) error {
	return fmt.Errorf("%w: %s %q", ErrDuplicate, table, key)
}

// withContext is a standalone generic helper function.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	default:
		return fn()
	}
}

// withContextError handles context cancellation for operations that only return an error.
func withContextError(ctx context.Context, fn func() error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fn()
	}
}
