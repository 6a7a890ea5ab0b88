package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Reaishma/Healthcare-informatics-solution/events"
	"github.com/Reaishma/Healthcare-informatics-solution/storage"
	"github.com/Reaishma/Healthcare-informatics-solution/types"
	"github.com/Reaishma/Healthcare-informatics-solution/validation"
)

// ListActiveUsers returns the staff currently marked active.
func (s *Service) ListActiveUsers(ctx context.Context) ([]types.User, error) {
	items, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return filter(items, func(u types.User) bool { return u.IsActive }), nil
}

// ListUsersByRole returns every user holding role, active or not.
func (s *Service) ListUsersByRole(ctx context.Context, role types.Role) ([]types.User, error) {
	items, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return filter(items, func(u types.User) bool { return u.Role == role }), nil
}

func (s *Service) GetUser(ctx context.Context, id uint64) (types.User, error) {
	return s.store.Users().Get(ctx, id)
}

// CreateUser adds a member of staff. Usernames are unique, compared without case.
// No event exists for users, so nothing is broadcast.
func (s *Service) CreateUser(ctx context.Context, u types.User) (types.User, error) {
	if err := s.validate.Struct(u); err != nil {
		return types.User{}, err
	}
	u.CreatedAt = s.now()

	created, err := s.store.Users().Create(ctx, u)
	if errors.Is(err, storage.ErrDuplicate) {
		return types.User{}, validation.Fail("username", "unique", "is already taken")
	}
	if err != nil {
		return types.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// ScheduleFilter narrows ListSchedules.
type ScheduleFilter struct {
	UserID     *uint64
	ActiveOnly bool
}

// ListSchedules returns shifts, latest start first.
func (s *Service) ListSchedules(ctx context.Context, f ScheduleFilter) ([]types.Schedule, error) {
	items, err := s.store.Schedules().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	out := filter(items, func(sc types.Schedule) bool {
		if f.UserID != nil && sc.UserID != *f.UserID {
			return false
		}
		return !f.ActiveOnly || sc.IsActive
	})
	newestFirst(out,
		func(sc types.Schedule) time.Time { return sc.ShiftStart },
		func(sc types.Schedule) uint64 { return sc.ID })
	return out, nil
}

func (s *Service) GetSchedule(ctx context.Context, id uint64) (types.Schedule, error) {
	return s.store.Schedules().Get(ctx, id)
}

// CreateSchedule stores a shift, then broadcasts schedule_created.
func (s *Service) CreateSchedule(ctx context.Context, sc types.Schedule) (types.Schedule, error) {
	if err := s.validate.Struct(sc); err != nil {
		return types.Schedule{}, err
	}
	sc.CreatedAt = s.now()

	created, err := s.store.Schedules().Create(ctx, sc)
	if err != nil {
		return types.Schedule{}, fmt.Errorf("create schedule: %w", err)
	}
	s.publish(ctx, events.ScheduleCreated(created))
	return created, nil
}

// UpdateSchedule merges patch into the stored shift, then broadcasts schedule_updated.
func (s *Service) UpdateSchedule(ctx context.Context, id uint64, patch types.SchedulePatch) (types.Schedule, error) {
	if err := s.validate.Struct(patch); err != nil {
		return types.Schedule{}, err
	}
	updated, err := s.store.Schedules().Update(ctx, id, func(sc *types.Schedule) error {
		patch.Apply(sc)
		return s.validate.Struct(*sc)
	})
	if err != nil {
		return types.Schedule{}, err
	}
	s.publish(ctx, events.ScheduleUpdated(updated))
	return updated, nil
}

// DeleteSchedule removes a shift, then broadcasts schedule_deleted.
func (s *Service) DeleteSchedule(ctx context.Context, id uint64) error {
	if err := s.store.Schedules().Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.ScheduleDeleted(id))
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, userID uint64) ([]types.Notification, error) {
	return s.notifications(ctx, func(n types.Notification) bool { return n.UserID == userID })
}

// ListUnreadNotifications is ListNotifications without the ones already read.
func (s *Service) ListUnreadNotifications(ctx context.Context, userID uint64) ([]types.Notification, error) {
	return s.notifications(ctx, func(n types.Notification) bool { return n.UserID == userID && !n.IsRead })
}

func (s *Service) notifications(ctx context.Context, keep func(types.Notification) bool) ([]types.Notification, error) {
	items, err := s.store.Notifications().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := filter(items, keep)
	newestFirst(out,
		func(n types.Notification) time.Time { return n.CreatedAt },
		func(n types.Notification) uint64 { return n.ID })
	return out, nil
}

// CreateNotification stores an unread notification. Notifications are
// fetched by their recipient, so nothing is broadcast.
func (s *Service) CreateNotification(ctx context.Context, n types.Notification) (types.Notification, error) {
	if err := s.validate.Struct(n); err != nil {
		return types.Notification{}, err
	}
	n.IsRead = false
	n.CreatedAt = s.now()

	created, err := s.store.Notifications().Create(ctx, n)
	if err != nil {
		return types.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return created, nil
}

// MarkNotificationRead flags a notification as read. Marking twice is harmless.
func (s *Service) MarkNotificationRead(ctx context.Context, id uint64) (types.Notification, error) {
	return s.store.Notifications().Update(ctx, id, func(n *types.Notification) error {
		n.IsRead = true
		return nil
	})
}
