package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/Reaishma/Healthcare-informatics-solution/types"
)

// Seed fills an empty store with a small care unit: staff, a patient journey,
// a few workflows with tasks, shifts and a sprint board. It does nothing when
// any user already exists, so it is safe to run on every start.
func (s *Service) Seed(ctx context.Context) error {
	existing, err := s.store.Users().List(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	staff := make(map[string]types.User)
	for _, u := range []types.User{
		{Username: "admin", Role: types.RoleAdministrator, IsActive: true},
		{Username: "sarah.johnson", Role: types.RoleNurse, IsActive: true},
		{Username: "mike.chen", Role: types.RoleTechnician, IsActive: true},
		{Username: "emily.davis", Role: types.RoleNurse, IsActive: true},
		{Username: "james.wilson", Role: types.RoleNurse, IsActive: false},
	} {
		created, err := s.CreateUser(ctx, u)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		staff[u.Username] = created
	}
	admin := staff["admin"].ID

	for i, st := range []types.PatientFlowStage{
		{Name: "Triage", Capacity: 12, CurrentCount: 7, AverageWaitTime: 8},
		{Name: "Registration", Capacity: 10, CurrentCount: 4, AverageWaitTime: 5},
		{Name: "Assessment", Capacity: 8, CurrentCount: 7, AverageWaitTime: 25, Status: types.StageBottleneck},
		{Name: "Imaging", Capacity: 6, CurrentCount: 6, AverageWaitTime: 40, Status: types.StageCritical},
		{Name: "Treatment", Capacity: 15, CurrentCount: 9, AverageWaitTime: 18},
		{Name: "Discharge", Capacity: 10, CurrentCount: 2, AverageWaitTime: 12},
	} {
		st.Order = i + 1
		if st.Status == "" {
			st.Status = types.StageNormal
		}
		if _, err := s.CreateStage(ctx, st); err != nil {
			return fmt.Errorf("seed stage %s: %w", st.Name, err)
		}
	}

	admission, err := s.CreateWorkflow(ctx, types.Workflow{
		Name: "Patient Admission", Description: "Intake through bed assignment",
		Status: types.WorkflowActive, CreatedByID: admin,
	})
	if err != nil {
		return fmt.Errorf("seed workflow: %w", err)
	}
	discharge, err := s.CreateWorkflow(ctx, types.Workflow{
		Name: "Discharge Planning", Description: "Medication review and follow-up booking",
		Status: types.WorkflowActive, CreatedByID: admin,
	})
	if err != nil {
		return fmt.Errorf("seed workflow: %w", err)
	}
	if _, err := s.CreateWorkflow(ctx, types.Workflow{
		Name: "Equipment Audit", Status: types.WorkflowCompleted, CreatedByID: admin,
	}); err != nil {
		return fmt.Errorf("seed workflow: %w", err)
	}

	sarah, mike, emily := staff["sarah.johnson"].ID, staff["mike.chen"].ID, staff["emily.davis"].ID
	due := s.now().Add(4 * time.Hour)
	for _, t := range []types.Task{
		{Title: "Verify insurance for bed 4", Status: types.TaskPending, Priority: types.PriorityMedium, AssignedToID: &sarah, WorkflowID: &admission.ID, Location: "Front desk"},
		{Title: "Calibrate CT scanner", Status: types.TaskInProgress, Priority: types.PriorityHigh, AssignedToID: &mike, Location: "Imaging", DueDate: &due},
		{Title: "Medication reconciliation, room 12", Status: types.TaskPending, Priority: types.PriorityCritical, AssignedToID: &emily, WorkflowID: &discharge.ID, Location: "Ward B"},
		{Title: "Book follow-up clinic", Status: types.TaskCompleted, Priority: types.PriorityLow, AssignedToID: &emily, WorkflowID: &discharge.ID},
		{Title: "Restock triage supplies", Status: types.TaskOverdue, Priority: types.PriorityMedium, AssignedToID: &sarah, Location: "Triage"},
	} {
		if _, err := s.CreateTask(ctx, t); err != nil {
			return fmt.Errorf("seed task %q: %w", t.Title, err)
		}
	}

	start := s.now().Truncate(time.Hour)
	for _, id := range []uint64{sarah, mike, emily} {
		if _, err := s.CreateSchedule(ctx, types.Schedule{
			UserID: id, ShiftStart: start, ShiftEnd: start.Add(8 * time.Hour), IsActive: true,
		}); err != nil {
			return fmt.Errorf("seed schedule: %w", err)
		}
	}

	sprint := uint64(1)
	for i, st := range []struct {
		title  string
		points int
		status types.StoryStatus
	}{
		{"Bed availability board", 5, types.StoryDone},
		{"Shift handover notes", 3, types.StoryDone},
		{"Triage queue alerts", 8, types.StoryReview},
		{"Discharge checklist", 3, types.StoryInProgress},
		{"Imaging turnaround report", 5, types.StoryBacklog},
		{"Staff roster export", 2, types.StoryBacklog},
	} {
		assignee := []uint64{sarah, mike, emily}[i%3]
		if _, err := s.CreateStory(ctx, types.UserStory{
			Title: st.title, StoryPoints: st.points, Status: st.status,
			AssignedToID: &assignee, SprintID: &sprint,
		}); err != nil {
			return fmt.Errorf("seed story %q: %w", st.title, err)
		}
	}

	if _, err := s.CreateNotification(ctx, types.Notification{
		UserID: sarah, Title: "Imaging at capacity",
		Message: "Imaging is full; hold non-urgent scans.", Type: types.NotificationWarning,
	}); err != nil {
		return fmt.Errorf("seed notification: %w", err)
	}

	s.logger.Info("seeded sample data")
	return nil
}
