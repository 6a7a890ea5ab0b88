package types

import (
	"strings"
	"time"
)

// Role groups staff on the dashboard.
type Role string

const (
	RoleNurse         Role = "nurse"
	RoleTechnician    Role = "technician"
	RoleAdministrator Role = "administrator"
)

// WorkflowStatus is the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowActive    WorkflowStatus = "active"
	WorkflowInactive  WorkflowStatus = "inactive"
	WorkflowCompleted WorkflowStatus = "completed"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskOverdue    TaskStatus = "overdue"
)

// Priority of a task.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// StageStatus flags elevated or severe load on a patient-flow stage.
// It is set by staff, never derived.
type StageStatus string

const (
	StageNormal     StageStatus = "normal"
	StageBottleneck StageStatus = "bottleneck"
	StageCritical   StageStatus = "critical"
)

// StoryStatus doubles as the kanban column of a user story.
type StoryStatus string

const (
	StoryBacklog    StoryStatus = "backlog"
	StoryInProgress StoryStatus = "in_progress"
	StoryReview     StoryStatus = "review"
	StoryDone       StoryStatus = "done"
)

// NotificationType controls how a notification is rendered.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Record is satisfied by a pointer to any entity so storage backends can read and stamp ids.
type Record[T any] interface {
	*T
	RecordID() uint64
	SetRecordID(id uint64)
}

// Keyed records carry a natural key that must be unique within their table.
// Storage backends reject a second record with the same key.
type Keyed interface {
	UniqueKey() string
}

// User is a member of staff. Usernames are unique regardless of case.
type User struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username" validate:"required,max=64"`
	Role      Role      `json:"role" validate:"required,oneof=nurse technician administrator"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Workflow is a named care process.
type Workflow struct {
	ID          uint64         `json:"id"`
	Name        string         `json:"name" validate:"required,max=200"`
	Description string         `json:"description,omitempty"`
	Status      WorkflowStatus `json:"status" validate:"required,oneof=active inactive completed"`
	CreatedByID uint64         `json:"createdById" validate:"required"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Task is a unit of work, optionally assigned and optionally part of a workflow.
type Task struct {
	ID           uint64     `json:"id"`
	Title        string     `json:"title" validate:"required,max=200"`
	Description  string     `json:"description,omitempty"`
	Status       TaskStatus `json:"status" validate:"required,oneof=pending in_progress completed overdue"`
	Priority     Priority   `json:"priority" validate:"required,oneof=low medium high critical"`
	AssignedToID *uint64    `json:"assignedToId"`
	WorkflowID   *uint64    `json:"workflowId"`
	Location     string     `json:"location,omitempty"`
	DueDate      *time.Time `json:"dueDate"`
	CompletedAt  *time.Time `json:"completedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// PatientFlowStage is one step of the patient journey (triage, imaging, ...).
// CurrentCount is kept within [0, Capacity].
type PatientFlowStage struct {
	ID              uint64      `json:"id"`
	Name            string      `json:"name" validate:"required,max=200"`
	Description     string      `json:"description,omitempty"`
	Capacity        int         `json:"capacity" validate:"gt=0"`
	CurrentCount    int         `json:"currentCount"`
	AverageWaitTime int         `json:"averageWaitTime" validate:"gte=0"`
	Status          StageStatus `json:"status" validate:"required,oneof=normal bottleneck critical"`
	Order           int         `json:"order"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// Schedule is one shift of a staff member.
type Schedule struct {
	ID         uint64    `json:"id"`
	UserID     uint64    `json:"userId" validate:"required"`
	ShiftStart time.Time `json:"shiftStart" validate:"required"`
	ShiftEnd   time.Time `json:"shiftEnd" validate:"required,gtfield=ShiftStart"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserStory is a kanban card.
type UserStory struct {
	ID           uint64      `json:"id"`
	Title        string      `json:"title" validate:"required,max=200"`
	Description  string      `json:"description,omitempty"`
	StoryPoints  int         `json:"storyPoints" validate:"gte=0"`
	Status       StoryStatus `json:"status" validate:"required,oneof=backlog in_progress review done"`
	AssignedToID *uint64     `json:"assignedToId"`
	SprintID     *uint64     `json:"sprintId"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Notification is a message addressed to one user.
type Notification struct {
	ID        uint64           `json:"id"`
	UserID    uint64           `json:"userId" validate:"required"`
	Title     string           `json:"title" validate:"required,max=200"`
	Message   string           `json:"message" validate:"required"`
	Type      NotificationType `json:"type" validate:"required,oneof=info success warning error"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NewUser returns a user carrying the defaults applied when a field is omitted on create.
func NewUser() User { return User{Role: RoleNurse, IsActive: true} }

func NewWorkflow() Workflow { return Workflow{Status: WorkflowActive} }

func NewTask() Task { return Task{Status: TaskPending, Priority: PriorityMedium} }

func NewPatientFlowStage() PatientFlowStage {
	return PatientFlowStage{Capacity: 10, Status: StageNormal}
}

func NewSchedule() Schedule { return Schedule{IsActive: true} }

func NewUserStory() UserStory { return UserStory{StoryPoints: 1, Status: StoryBacklog} }

func NewNotification() Notification { return Notification{Type: NotificationInfo} }

// ClampCount pulls CurrentCount back into [0, Capacity].
func (s *PatientFlowStage) ClampCount() {
	if s.CurrentCount > s.Capacity {
		s.CurrentCount = s.Capacity
	}
	if s.CurrentCount < 0 {
		s.CurrentCount = 0
	}
}

// Admit moves delta patients in (positive) or out (negative), saturating at
// 0 and Capacity without ever computing CurrentCount+delta directly.
func (s *PatientFlowStage) Admit(delta int) {
	s.ClampCount()
	switch {
	case delta > s.Capacity-s.CurrentCount:
		s.CurrentCount = s.Capacity
	case delta < -s.CurrentCount:
		s.CurrentCount = 0
	default:
		s.CurrentCount += delta
	}
}

func (u *User) UniqueKey() string { return strings.ToLower(u.Username) }

func (u *User) RecordID() uint64      { return u.ID }
func (u *User) SetRecordID(id uint64) { u.ID = id }

func (w *Workflow) RecordID() uint64      { return w.ID }
func (w *Workflow) SetRecordID(id uint64) { w.ID = id }

func (t *Task) RecordID() uint64      { return t.ID }
func (t *Task) SetRecordID(id uint64) { t.ID = id }

func (s *PatientFlowStage) RecordID() uint64      { return s.ID }
func (s *PatientFlowStage) SetRecordID(id uint64) { s.ID = id }

func (s *Schedule) RecordID() uint64      { return s.ID }
func (s *Schedule) SetRecordID(id uint64) { s.ID = id }

func (s *UserStory) RecordID() uint64      { return s.ID }
func (s *UserStory) SetRecordID(id uint64) { s.ID = id }

func (n *Notification) RecordID() uint64      { return n.ID }
func (n *Notification) SetRecordID(id uint64) { n.ID = id }
