package dashboard

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/Reaishma/Healthcare-informatics-solution/events"
	"github.com/Reaishma/Healthcare-informatics-solution/types"
)

// ListStages returns the patient-flow stages in journey order.
func (s *Service) ListStages(ctx context.Context) ([]types.PatientFlowStage, error) {
	items, err := s.store.Stages().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	out := filter(items, nil)
	slices.SortFunc(out, func(a, b types.PatientFlowStage) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// GetStage retrieves a stage by id.
func (s *Service) GetStage(ctx context.Context, id uint64) (types.PatientFlowStage, error) {
	return s.store.Stages().Get(ctx, id)
}

// CreateStage stores a stage with its occupancy clamped into [0, capacity],
// then broadcasts patient_flow_stage_created.
func (s *Service) CreateStage(ctx context.Context, st types.PatientFlowStage) (types.PatientFlowStage, error) {
	if err := s.validate.Struct(st); err != nil {
		return types.PatientFlowStage{}, err
	}
	st.ClampCount()
	st.CreatedAt = s.now()

	created, err := s.store.Stages().Create(ctx, st)
	if err != nil {
		return types.PatientFlowStage{}, fmt.Errorf("create stage: %w", err)
	}
	s.publish(ctx, events.PatientFlowStageCreated(created))
	return created, nil
}

// UpdateStage merges patch into the stored stage, then broadcasts
// patient_flow_stage_updated. Lowering the capacity pulls the count down with it.
func (s *Service) UpdateStage(ctx context.Context, id uint64, patch types.PatientFlowStagePatch) (types.PatientFlowStage, error) {
	if err := s.validate.Struct(patch); err != nil {
		return types.PatientFlowStage{}, err
	}
	updated, err := s.store.Stages().Update(ctx, id, func(st *types.PatientFlowStage) error {
		patch.Apply(st)
		return s.validate.Struct(*st)
	})
	if err != nil {
		return types.PatientFlowStage{}, err
	}
	s.publish(ctx, events.PatientFlowStageUpdated(updated))
	return updated, nil
}

// AdjustStageCount moves delta patients into (positive) or out of (negative)
// a stage. The result is clamped, so a full stage absorbs arrivals and an
// empty one absorbs departures. It broadcasts patient_flow_stage_updated.
func (s *Service) AdjustStageCount(ctx context.Context, id uint64, delta int) (types.PatientFlowStage, error) {
	updated, err := s.store.Stages().Update(ctx, id, func(st *types.PatientFlowStage) error {
		st.Admit(delta)
		return nil
	})
	if err != nil {
		return types.PatientFlowStage{}, err
	}
	s.publish(ctx, events.PatientFlowStageUpdated(updated))
	return updated, nil
}

// DeleteStage removes a stage, then broadcasts patient_flow_stage_deleted.
func (s *Service) DeleteStage(ctx context.Context, id uint64) error {
	if err := s.store.Stages().Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.PatientFlowStageDeleted(id))
	return nil
}
