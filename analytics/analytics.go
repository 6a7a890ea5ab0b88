// Package analytics derives dashboard aggregates from entity snapshots.
// Every function is pure and independent of input order.
package analytics

import (
	"sort"

	"github.com/Reaishma/Healthcare-informatics-solution/types"
)

// Stats are the four headline counters of the dashboard. PatientQueue is the
// number of patient-flow stages, not the number of patients waiting in them.
type Stats struct {
	ActiveWorkflows int `json:"activeWorkflows"`
	PendingTasks    int `json:"pendingTasks"`
	StaffOnDuty     int `json:"staffOnDuty"`
	PatientQueue    int `json:"patientQueue"`
}

// DashboardStats counts active workflows, pending tasks, active staff and stages.
func DashboardStats(workflows []types.Workflow, tasks []types.Task, users []types.User, stages []types.PatientFlowStage) Stats {
	return Stats{
		ActiveWorkflows: count(workflows, func(w types.Workflow) bool { return w.Status == types.WorkflowActive }),
		PendingTasks:    count(tasks, func(t types.Task) bool { return t.Status == types.TaskPending }),
		StaffOnDuty:     count(users, func(u types.User) bool { return u.IsActive }),
		PatientQueue:    len(stages),
	}
}

// Percent returns round(100*num/den) with halves rounded up, or 0 when den <= 0.
// num is expected to be non-negative.
func Percent(num, den int) int {
	if den <= 0 {
		return 0
	}
	return (200*num + den) / (2 * den)
}

// Utilization of a stage in whole percent. A stage without capacity reports 0.
func Utilization(stage types.PatientFlowStage) int {
	return Percent(stage.CurrentCount, stage.Capacity)
}

func TaskCompletionRate(tasks []types.Task) int {
	done := count(tasks, func(t types.Task) bool { return t.Status == types.TaskCompleted })
	return Percent(done, len(tasks))
}

func WorkflowEfficiency(workflows []types.Workflow) int {
	done := count(workflows, func(w types.Workflow) bool { return w.Status == types.WorkflowCompleted })
	return Percent(done, len(workflows))
}

func SprintCompletion(stories []types.UserStory) int {
	done := count(stories, func(s types.UserStory) bool { return s.Status == types.StoryDone })
	return Percent(done, len(stories))
}

// AverageWaitTime is the mean stage wait in minutes, 0 with no stages.
func AverageWaitTime(stages []types.PatientFlowStage) float64 {
	if len(stages) == 0 {
		return 0
	}
	total := 0
	for _, s := range stages {
		total += s.AverageWaitTime
	}
	return float64(total) / float64(len(stages))
}

// StageLoad is the utilization view of one stage.
type StageLoad struct {
	StageID         uint64            `json:"stageId"`
	Name            string            `json:"name"`
	Order           int               `json:"order"`
	Capacity        int               `json:"capacity"`
	CurrentCount    int               `json:"currentCount"`
	AverageWaitTime int               `json:"averageWaitTime"`
	Utilization     int               `json:"utilization"`
	Status          types.StageStatus `json:"status"`
}

// StageLoads lists every stage with its utilization, sorted by order then id.
func StageLoads(stages []types.PatientFlowStage) []StageLoad {
	loads := make([]StageLoad, 0, len(stages))
	for _, s := range stages {
		loads = append(loads, StageLoad{
			StageID:         s.ID,
			Name:            s.Name,
			Order:           s.Order,
			Capacity:        s.Capacity,
			CurrentCount:    s.CurrentCount,
			AverageWaitTime: s.AverageWaitTime,
			Utilization:     Utilization(s),
			Status:          s.Status,
		})
	}
	sort.Slice(loads, func(i, j int) bool {
		if loads[i].Order != loads[j].Order {
			return loads[i].Order < loads[j].Order
		}
		return loads[i].StageID < loads[j].StageID
	})
	return loads
}

type TaskBreakdown struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Overdue    int `json:"overdue"`
}

type WorkflowBreakdown struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

// PatientFlowBreakdown.Utilization is taken over all stages combined.
type PatientFlowBreakdown struct {
	TotalPatients int `json:"totalPatients"`
	TotalCapacity int `json:"totalCapacity"`
	Utilization   int `json:"utilization"`
	Bottlenecks   int `json:"bottlenecks"`
	Critical      int `json:"critical"`
}

type StoryBreakdown struct {
	Total           int `json:"total"`
	Done            int `json:"done"`
	InProgress      int `json:"inProgress"`
	StoryPoints     int `json:"storyPoints"`
	CompletedPoints int `json:"completedPoints"`
}

// Summary backs the analytics page.
type Summary struct {
	Stats              Stats                `json:"stats"`
	TaskCompletionRate int                  `json:"taskCompletionRate"`
	WorkflowEfficiency int                  `json:"workflowEfficiency"`
	SprintCompletion   int                  `json:"sprintCompletion"`
	AverageWaitTime    float64              `json:"averageWaitTime"`
	Tasks              TaskBreakdown        `json:"tasks"`
	Workflows          WorkflowBreakdown    `json:"workflows"`
	PatientFlow        PatientFlowBreakdown `json:"patientFlow"`
	Stories            StoryBreakdown       `json:"stories"`
	Stages             []StageLoad          `json:"stages"`
}

func Summarize(
	workflows []types.Workflow,
	tasks []types.Task,
	users []types.User,
	stages []types.PatientFlowStage,
	stories []types.UserStory,
) Summary {
	sum := Summary{
		Stats:              DashboardStats(workflows, tasks, users, stages),
		TaskCompletionRate: TaskCompletionRate(tasks),
		WorkflowEfficiency: WorkflowEfficiency(workflows),
		SprintCompletion:   SprintCompletion(stories),
		AverageWaitTime:    AverageWaitTime(stages),
		Stages:             StageLoads(stages),
	}

	sum.Tasks.Total = len(tasks)
	for _, t := range tasks {
		switch t.Status {
		case types.TaskCompleted:
			sum.Tasks.Completed++
		case types.TaskPending:
			sum.Tasks.Pending++
		case types.TaskInProgress:
			sum.Tasks.InProgress++
		case types.TaskOverdue:
			sum.Tasks.Overdue++
		}
	}

	sum.Workflows.Total = len(workflows)
	for _, w := range workflows {
		switch w.Status {
		case types.WorkflowActive:
			sum.Workflows.Active++
		case types.WorkflowCompleted:
			sum.Workflows.Completed++
		}
	}

	for _, s := range stages {
		sum.PatientFlow.TotalPatients += s.CurrentCount
		sum.PatientFlow.TotalCapacity += s.Capacity
		switch s.Status {
		case types.StageBottleneck:
			sum.PatientFlow.Bottlenecks++
		case types.StageCritical:
			sum.PatientFlow.Critical++
		}
	}
	sum.PatientFlow.Utilization = Percent(sum.PatientFlow.TotalPatients, sum.PatientFlow.TotalCapacity)

	sum.Stories.Total = len(stories)
	for _, s := range stories {
		sum.Stories.StoryPoints += s.StoryPoints
		switch s.Status {
		case types.StoryDone:
			sum.Stories.Done++
			sum.Stories.CompletedPoints += s.StoryPoints
		case types.StoryInProgress:
			sum.Stories.InProgress++
		}
	}
	return sum
}

func count[T any](items []T, pred func(T) bool) int {
	n := 0
	for _, it := range items {
		if pred(it) {
			n++
		}
	}
	return n
}
