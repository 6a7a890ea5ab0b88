package types

import "time"

// Patch types carry partial updates. A nil field leaves the stored value untouched.

type WorkflowPatch struct {
	Name        *string         `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string         `json:"description"`
	Status      *WorkflowStatus `json:"status" validate:"omitempty,oneof=active inactive completed"`
	CreatedByID *uint64         `json:"createdById" validate:"omitempty,gt=0"`
}

func (p WorkflowPatch) Apply(w *Workflow) {
	if p.Name != nil {
		w.Name = *p.Name
	}
	if p.Description != nil {
		w.Description = *p.Description
	}
	if p.Status != nil {
		w.Status = *p.Status
	}
	if p.CreatedByID != nil {
		w.CreatedByID = *p.CreatedByID
	}
}

type TaskPatch struct {
	Title        *string     `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string     `json:"description"`
	Status       *TaskStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed overdue"`
	Priority     *Priority   `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	AssignedToID *uint64     `json:"assignedToId"`
	WorkflowID   *uint64     `json:"workflowId"`
	Location     *string     `json:"location"`
	DueDate      *time.Time  `json:"dueDate"`
}

func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.AssignedToID != nil {
		id := *p.AssignedToID
		t.AssignedToID = &id
	}
	if p.WorkflowID != nil {
		id := *p.WorkflowID
		t.WorkflowID = &id
	}
	if p.Location != nil {
		t.Location = *p.Location
	}
	if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
}

type PatientFlowStagePatch struct {
	Name            *string      `json:"name" validate:"omitempty,min=1,max=200"`
	Description     *string      `json:"description"`
	Capacity        *int         `json:"capacity" validate:"omitempty,gt=0"`
	CurrentCount    *int         `json:"currentCount"`
	AverageWaitTime *int         `json:"averageWaitTime" validate:"omitempty,gte=0"`
	Status          *StageStatus `json:"status" validate:"omitempty,oneof=normal bottleneck critical"`
	Order           *int         `json:"order"`
}

// Apply merges the patch and re-establishes the occupancy bound, so lowering
// the capacity below the current count pulls the count down with it.
func (p PatientFlowStagePatch) Apply(s *PatientFlowStage) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Capacity != nil {
		s.Capacity = *p.Capacity
	}
	if p.CurrentCount != nil {
		s.CurrentCount = *p.CurrentCount
	}
	if p.AverageWaitTime != nil {
		s.AverageWaitTime = *p.AverageWaitTime
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Order != nil {
		s.Order = *p.Order
	}
	s.ClampCount()
}

type UserStoryPatch struct {
	Title        *string      `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string      `json:"description"`
	StoryPoints  *int         `json:"storyPoints" validate:"omitempty,gte=0"`
	Status       *StoryStatus `json:"status" validate:"omitempty,oneof=backlog in_progress review done"`
	AssignedToID *uint64      `json:"assignedToId"`
	SprintID     *uint64      `json:"sprintId"`
}

func (p UserStoryPatch) Apply(s *UserStory) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.StoryPoints != nil {
		s.StoryPoints = *p.StoryPoints
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.AssignedToID != nil {
		id := *p.AssignedToID
		s.AssignedToID = &id
	}
	if p.SprintID != nil {
		id := *p.SprintID
		s.SprintID = &id
	}
}

// SchedulePatch moves or toggles a shift. The merged shift must still end after it starts.
type SchedulePatch struct {
	UserID     *uint64    `json:"userId" validate:"omitempty,gt=0"`
	ShiftStart *time.Time `json:"shiftStart"`
	ShiftEnd   *time.Time `json:"shiftEnd"`
	IsActive   *bool      `json:"isActive"`
}

func (p SchedulePatch) Apply(s *Schedule) {
	if p.UserID != nil {
		s.UserID = *p.UserID
	}
	if p.ShiftStart != nil {
		s.ShiftStart = *p.ShiftStart
	}
	if p.ShiftEnd != nil {
		s.ShiftEnd = *p.ShiftEnd
	}
	if p.IsActive != nil {
		s.IsActive = *p.IsActive
	}
}
