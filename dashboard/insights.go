package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Reaishma/Healthcare-informatics-solution/analytics"
	"github.com/Reaishma/Healthcare-informatics-solution/rules"
	"github.com/Reaishma/Healthcare-informatics-solution/types"
)

type snapshot struct {
	workflows []types.Workflow
	tasks     []types.Task
	users     []types.User
	stages    []types.PatientFlowStage
	stories   []types.UserStory
}

// snapshot loads the tables the aggregates read, concurrently.
func (s *Service) snapshot(ctx context.Context, withStories bool) (snapshot, error) {
	var snap snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.workflows, err = s.store.Workflows().List(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.tasks, err = s.store.Tasks().List(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.users, err = s.store.Users().List(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.stages, err = s.store.Stages().List(ctx)
		return err
	})
	if withStories {
		g.Go(func() (err error) {
			snap.stories, err = s.store.Stories().List(ctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// Stats returns the four headline counters of the dashboard.
func (s *Service) Stats(ctx context.Context) (analytics.Stats, error) {
	snap, err := s.snapshot(ctx, false)
	if err != nil {
		return analytics.Stats{}, err
	}
	return analytics.DashboardStats(snap.workflows, snap.tasks, snap.users, snap.stages), nil
}

// Summary returns the analytics view: counters, rates and per-stage load.
func (s *Service) Summary(ctx context.Context) (analytics.Summary, error) {
	snap, err := s.snapshot(ctx, true)
	if err != nil {
		return analytics.Summary{}, err
	}
	return analytics.Summarize(snap.workflows, snap.tasks, snap.users, snap.stages, snap.stories), nil
}

// Advisories evaluates the stage rules. Stage statuses are left alone.
func (s *Service) Advisories(ctx context.Context) ([]rules.Advisory, error) {
	stages, err := s.store.Stages().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	return s.advisor.Advise(stages)
}
