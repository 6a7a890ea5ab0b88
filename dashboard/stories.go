package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/Reaishma/Healthcare-informatics-solution/events"
	"github.com/Reaishma/Healthcare-informatics-solution/types"
)

// ListStories returns user stories, newest first, optionally limited to one status.
func (s *Service) ListStories(ctx context.Context, status *types.StoryStatus) ([]types.UserStory, error) {
	items, err := s.store.Stories().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user stories: %w", err)
	}
	out := filter(items, func(st types.UserStory) bool {
		return status == nil || st.Status == *status
	})
	newestFirst(out,
		func(st types.UserStory) time.Time { return st.CreatedAt },
		func(st types.UserStory) uint64 { return st.ID })
	return out, nil
}

func (s *Service) GetStory(ctx context.Context, id uint64) (types.UserStory, error) {
	return s.store.Stories().Get(ctx, id)
}

// CreateStory validates and stores a story, then broadcasts user_story_created.
func (s *Service) CreateStory(ctx context.Context, st types.UserStory) (types.UserStory, error) {
	if err := s.validate.Struct(st); err != nil {
		return types.UserStory{}, err
	}
	now := s.now()
	st.CreatedAt, st.UpdatedAt = now, now

	created, err := s.store.Stories().Create(ctx, st)
	if err != nil {
		return types.UserStory{}, fmt.Errorf("create user story: %w", err)
	}
	s.publish(ctx, events.UserStoryCreated(created))
	return created, nil
}

// UpdateStory merges patch, then broadcasts user_story_updated. Moving a card
// between kanban columns is an update of its status.
func (s *Service) UpdateStory(ctx context.Context, id uint64, patch types.UserStoryPatch) (types.UserStory, error) {
	if err := s.validate.Struct(patch); err != nil {
		return types.UserStory{}, err
	}
	updated, err := s.store.Stories().Update(ctx, id, func(st *types.UserStory) error {
		patch.Apply(st)
		st.UpdatedAt = s.now()
		return s.validate.Struct(*st)
	})
	if err != nil {
		return types.UserStory{}, err
	}
	s.publish(ctx, events.UserStoryUpdated(updated))
	return updated, nil
}

func (s *Service) DeleteStory(ctx context.Context, id uint64) error {
	if err := s.store.Stories().Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.UserStoryDeleted(id))
	return nil
}
