package dashboard

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/Reaishma/Healthcare-informatics-solution/events"
	"github.com/Reaishma/Healthcare-informatics-solution/rules"
	"github.com/Reaishma/Healthcare-informatics-solution/storage"
	"github.com/Reaishma/Healthcare-informatics-solution/types"
	"github.com/Reaishma/Healthcare-informatics-solution/validation"
)

// Service owns every mutation of the dashboard. A mutation is validated,
// persisted and then announced with exactly one event; a failure at any
// step returns before anything is broadcast.
type Service struct {
	store     storage.Storage
	validate  *validation.Validator
	broadcast events.Broadcaster
	advisor   *rules.Advisor
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAdvisor sets the advisor behind Advisories.
func WithAdvisor(advisor *rules.Advisor) Option {
	return func(s *Service) {
		s.advisor = advisor
	}
}

// NewService creates a Service. A nil store falls back to in-memory storage.
func NewService(store storage.Storage, broadcaster events.Broadcaster, options ...Option) (*Service, error) {
	if broadcaster == nil {
		return nil, errors.New("broadcaster is required")
	}

	if store == nil {
		store = storage.NewMemoryStorage()
	}

	s := &Service{
		store:     store,
		validate:  validation.New(),
		broadcast: broadcaster,
		logger:    zap.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(s)
	}

	if s.advisor == nil {
		advisor, err := rules.NewAdvisor(nil, nil)
		if err != nil {
			return nil, fmt.Errorf("default advisor: %w", err)
		}
		s.advisor = advisor
	}
	return s, nil
}

// publish announces an accepted mutation.
func (s *Service) publish(ctx context.Context, event events.Event) {
	s.logger.Debug("broadcasting change", zap.String("kind", string(event.Kind())))
	s.broadcast.Broadcast(ctx, event)
}

// filter returns the items keep accepts, never nil. A nil keep accepts everything.
func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep == nil || keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// newestFirst orders by key descending with the larger id first on ties.
func newestFirst[T any](items []T, key func(T) time.Time, id func(T) uint64) {
	slices.SortFunc(items, func(a, b T) int {
		if c := key(b).Compare(key(a)); c != 0 {
			return c
		}
		return cmp.Compare(id(b), id(a))
	})
}

// ListWorkflows returns all workflows, newest first.
func (s *Service) ListWorkflows(ctx context.Context) ([]types.Workflow, error) {
	items, err := s.store.Workflows().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	out := filter(items, nil)
	newestFirst(out,
		func(w types.Workflow) time.Time { return w.CreatedAt },
		func(w types.Workflow) uint64 { return w.ID })
	return out, nil
}

// GetWorkflow retrieves a workflow by id.
func (s *Service) GetWorkflow(ctx context.Context, id uint64) (types.Workflow, error) {
	return s.store.Workflows().Get(ctx, id)
}

// CreateWorkflow validates and stores a workflow, then broadcasts workflow_created.
func (s *Service) CreateWorkflow(ctx context.Context, w types.Workflow) (types.Workflow, error) {
	if err := s.validate.Struct(w); err != nil {
		return types.Workflow{}, err
	}
	now := s.now()
	w.CreatedAt, w.UpdatedAt = now, now

	created, err := s.store.Workflows().Create(ctx, w)
	if err != nil {
		return types.Workflow{}, fmt.Errorf("create workflow: %w", err)
	}
	s.publish(ctx, events.WorkflowCreated(created))
	return created, nil
}

// UpdateWorkflow merges patch into the stored workflow, then broadcasts workflow_updated.
func (s *Service) UpdateWorkflow(ctx context.Context, id uint64, patch types.WorkflowPatch) (types.Workflow, error) {
	if err := s.validate.Struct(patch); err != nil {
		return types.Workflow{}, err
	}
	updated, err := s.store.Workflows().Update(ctx, id, func(w *types.Workflow) error {
		patch.Apply(w)
		w.UpdatedAt = s.now()
		return s.validate.Struct(*w)
	})
	if err != nil {
		return types.Workflow{}, err
	}
	s.publish(ctx, events.WorkflowUpdated(updated))
	return updated, nil
}

// DeleteWorkflow removes a workflow, then broadcasts workflow_deleted.
func (s *Service) DeleteWorkflow(ctx context.Context, id uint64) error {
	if err := s.store.Workflows().Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.WorkflowDeleted(id))
	return nil
}

// TaskFilter narrows ListTasks. Nil fields match everything.
type TaskFilter struct {
	Status       *types.TaskStatus
	AssignedToID *uint64
	WorkflowID   *uint64
}

func (f TaskFilter) match(t types.Task) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.AssignedToID != nil && (t.AssignedToID == nil || *t.AssignedToID != *f.AssignedToID) {
		return false
	}
	if f.WorkflowID != nil && (t.WorkflowID == nil || *t.WorkflowID != *f.WorkflowID) {
		return false
	}
	return true
}

// ListTasks returns the tasks matching filter, newest first.
func (s *Service) ListTasks(ctx context.Context, f TaskFilter) ([]types.Task, error) {
	items, err := s.store.Tasks().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := filter(items, f.match)
	newestFirst(out,
		func(t types.Task) time.Time { return t.CreatedAt },
		func(t types.Task) uint64 { return t.ID })
	return out, nil
}

// GetTask retrieves a task by id.
func (s *Service) GetTask(ctx context.Context, id uint64) (types.Task, error) {
	return s.store.Tasks().Get(ctx, id)
}

// CreateTask validates and stores a task, then broadcasts task_created.
func (s *Service) CreateTask(ctx context.Context, t types.Task) (types.Task, error) {
	if err := s.validate.Struct(t); err != nil {
		return types.Task{}, err
	}
	now := s.now()
	t.CreatedAt, t.UpdatedAt = now, now
	t.CompletedAt = nil
	if t.Status == types.TaskCompleted {
		t.CompletedAt = &now
	}

	created, err := s.store.Tasks().Create(ctx, t)
	if err != nil {
		return types.Task{}, fmt.Errorf("create task: %w", err)
	}
	s.publish(ctx, events.TaskCreated(created))
	return created, nil
}

// UpdateTask merges patch into the stored task, then broadcasts task_updated.
// completedAt is stamped when the task enters completed and cleared when it leaves.
func (s *Service) UpdateTask(ctx context.Context, id uint64, patch types.TaskPatch) (types.Task, error) {
	if err := s.validate.Struct(patch); err != nil {
		return types.Task{}, err
	}
	updated, err := s.store.Tasks().Update(ctx, id, func(t *types.Task) error {
		was := t.Status
		patch.Apply(t)
		now := s.now()
		t.UpdatedAt = now
		switch {
		case t.Status != types.TaskCompleted:
			t.CompletedAt = nil
		case was != types.TaskCompleted || t.CompletedAt == nil:
			t.CompletedAt = &now
		}
		return s.validate.Struct(*t)
	})
	if err != nil {
		return types.Task{}, err
	}
	s.publish(ctx, events.TaskUpdated(updated))
	return updated, nil
}

// DeleteTask removes a task, then broadcasts task_deleted.
func (s *Service) DeleteTask(ctx context.Context, id uint64) error {
	if err := s.store.Tasks().Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.TaskDeleted(id))
	return nil
}
