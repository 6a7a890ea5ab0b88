package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Reaishma/Healthcare-informatics-solution/dashboard"
	"github.com/Reaishma/Healthcare-informatics-solution/types"
	"github.com/Reaishma/Healthcare-informatics-solution/validation"
)

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err, "dashboard stats", "fetch dashboard stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context())
	if err != nil {
		h.fail(w, r, err, "analytics", "fetch analytics")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *handler) advisories(w http.ResponseWriter, r *http.Request) {
	advisories, err := h.svc.Advisories(r.Context())
	if err != nil {
		h.fail(w, r, err, "advisory", "evaluate advisories")
		return
	}
	writeJSON(w, http.StatusOK, advisories)
}

// Workflows

func (h *handler) listWorkflows(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListWorkflows(r.Context())
	if err != nil {
		h.fail(w, r, err, "workflow", "fetch workflows")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "workflow", "fetch workflow")
		return
	}
	wf, err := h.svc.GetWorkflow(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "workflow", "fetch workflow")
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (h *handler) createWorkflow(w http.ResponseWriter, r *http.Request) {
	wf := types.NewWorkflow()
	if err := decodeJSON(w, r, &wf); err != nil {
		h.fail(w, r, err, "workflow", "create workflow")
		return
	}
	created, err := h.svc.CreateWorkflow(r.Context(), wf)
	if err != nil {
		h.fail(w, r, err, "workflow", "create workflow")
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (h *handler) updateWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "workflow", "update workflow")
		return
	}
	var patch types.WorkflowPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.fail(w, r, err, "workflow", "update workflow")
		return
	}
	updated, err := h.svc.UpdateWorkflow(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err, "workflow", "update workflow")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err == nil {
		err = h.svc.DeleteWorkflow(r.Context(), id)
	}
	if err != nil {
		h.fail(w, r, err, "workflow", "delete workflow")
		return
	}
	writeJSON(w, http.StatusOK, success)
}

// Tasks

func (h *handler) listTasks(w http.ResponseWriter, r *http.Request) {
	var f dashboard.TaskFilter
	if s := r.URL.Query().Get("status"); s != "" {
		status := types.TaskStatus(s)
		f.Status = &status
	}
	var err error
	if f.AssignedToID, err = queryID(r, "assignee"); err != nil {
		h.fail(w, r, err, "task", "fetch tasks")
		return
	}
	if f.WorkflowID, err = queryID(r, "workflow"); err != nil {
		h.fail(w, r, err, "task", "fetch tasks")
		return
	}

	list, err := h.svc.ListTasks(r.Context(), f)
	if err != nil {
		h.fail(w, r, err, "task", "fetch tasks")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "task", "fetch task")
		return
	}
	task, err := h.svc.GetTask(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "task", "fetch task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *handler) createTask(w http.ResponseWriter, r *http.Request) {
	task := types.NewTask()
	if err := decodeJSON(w, r, &task); err != nil {
		h.fail(w, r, err, "task", "create task")
		return
	}
	created, err := h.svc.CreateTask(r.Context(), task)
	if err != nil {
		h.fail(w, r, err, "task", "create task")
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (h *handler) updateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "task", "update task")
		return
	}
	var patch types.TaskPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.fail(w, r, err, "task", "update task")
		return
	}
	updated, err := h.svc.UpdateTask(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err, "task", "update task")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err == nil {
		err = h.svc.DeleteTask(r.Context(), id)
	}
	if err != nil {
		h.fail(w, r, err, "task", "delete task")
		return
	}
	writeJSON(w, http.StatusOK, success)
}

// Patient-flow stages

func (h *handler) listStages(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListStages(r.Context())
	if err != nil {
		h.fail(w, r, err, "patient flow stage", "fetch patient flow stages")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getStage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "patient flow stage", "fetch patient flow stage")
		return
	}
	stage, err := h.svc.GetStage(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "patient flow stage", "fetch patient flow stage")
		return
	}
	writeJSON(w, http.StatusOK, stage)
}

func (h *handler) createStage(w http.ResponseWriter, r *http.Request) {
	stage := types.NewPatientFlowStage()
	if err := decodeJSON(w, r, &stage); err != nil {
		h.fail(w, r, err, "patient flow stage", "create patient flow stage")
		return
	}
	created, err := h.svc.CreateStage(r.Context(), stage)
	if err != nil {
		h.fail(w, r, err, "patient flow stage", "create patient flow stage")
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (h *handler) updateStage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "patient flow stage", "update patient flow stage")
		return
	}
	var patch types.PatientFlowStagePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.fail(w, r, err, "patient flow stage", "update patient flow stage")
		return
	}
	updated, err := h.svc.UpdateStage(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err, "patient flow stage", "update patient flow stage")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type adjustRequest struct {
	Delta *int `json:"delta"`
}

func (h *handler) adjustStage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "patient flow stage", "adjust patient flow stage")
		return
	}
	var req adjustRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err, "patient flow stage", "adjust patient flow stage")
		return
	}
	if req.Delta == nil {
		h.fail(w, r, validation.Fail("delta", "required", "is required"), "patient flow stage", "adjust patient flow stage")
		return
	}
	updated, err := h.svc.AdjustStageCount(r.Context(), id, *req.Delta)
	if err != nil {
		h.fail(w, r, err, "patient flow stage", "adjust patient flow stage")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteStage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err == nil {
		err = h.svc.DeleteStage(r.Context(), id)
	}
	if err != nil {
		h.fail(w, r, err, "patient flow stage", "delete patient flow stage")
		return
	}
	writeJSON(w, http.StatusOK, success)
}

// User stories

func (h *handler) listStories(w http.ResponseWriter, r *http.Request) {
	var status *types.StoryStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := types.StoryStatus(s)
		status = &st
	}
	list, err := h.svc.ListStories(r.Context(), status)
	if err != nil {
		h.fail(w, r, err, "user story", "fetch user stories")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getStory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "user story", "fetch user story")
		return
	}
	story, err := h.svc.GetStory(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "user story", "fetch user story")
		return
	}
	writeJSON(w, http.StatusOK, story)
}

func (h *handler) createStory(w http.ResponseWriter, r *http.Request) {
	story := types.NewUserStory()
	if err := decodeJSON(w, r, &story); err != nil {
		h.fail(w, r, err, "user story", "create user story")
		return
	}
	created, err := h.svc.CreateStory(r.Context(), story)
	if err != nil {
		h.fail(w, r, err, "user story", "create user story")
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (h *handler) updateStory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "user story", "update user story")
		return
	}
	var patch types.UserStoryPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.fail(w, r, err, "user story", "update user story")
		return
	}
	updated, err := h.svc.UpdateStory(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err, "user story", "update user story")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteStory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err == nil {
		err = h.svc.DeleteStory(r.Context(), id)
	}
	if err != nil {
		h.fail(w, r, err, "user story", "delete user story")
		return
	}
	writeJSON(w, http.StatusOK, success)
}

// Schedules

func (h *handler) listSchedules(w http.ResponseWriter, r *http.Request) {
	var f dashboard.ScheduleFilter
	var err error
	if f.UserID, err = queryID(r, "user"); err != nil {
		h.fail(w, r, err, "schedule", "fetch schedules")
		return
	}
	f.ActiveOnly = r.URL.Query().Get("active") == "true"

	list, err := h.svc.ListSchedules(r.Context(), f)
	if err != nil {
		h.fail(w, r, err, "schedule", "fetch schedules")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "schedule", "fetch schedule")
		return
	}
	schedule, err := h.svc.GetSchedule(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "schedule", "fetch schedule")
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

func (h *handler) createSchedule(w http.ResponseWriter, r *http.Request) {
	schedule := types.NewSchedule()
	if err := decodeJSON(w, r, &schedule); err != nil {
		h.fail(w, r, err, "schedule", "create schedule")
		return
	}
	created, err := h.svc.CreateSchedule(r.Context(), schedule)
	if err != nil {
		h.fail(w, r, err, "schedule", "create schedule")
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (h *handler) updateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "schedule", "update schedule")
		return
	}
	var patch types.SchedulePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.fail(w, r, err, "schedule", "update schedule")
		return
	}
	updated, err := h.svc.UpdateSchedule(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err, "schedule", "update schedule")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err == nil {
		err = h.svc.DeleteSchedule(r.Context(), id)
	}
	if err != nil {
		h.fail(w, r, err, "schedule", "delete schedule")
		return
	}
	writeJSON(w, http.StatusOK, success)
}

// Users and notifications

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListActiveUsers(r.Context())
	if err != nil {
		h.fail(w, r, err, "user", "fetch users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *handler) listUsersByRole(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsersByRole(r.Context(), types.Role(chi.URLParam(r, "role")))
	if err != nil {
		h.fail(w, r, err, "user", "fetch users by role")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "notification", "fetch notifications")
		return
	}
	list, err := h.svc.ListNotifications(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err, "notification", "fetch notifications")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) listUnreadNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "notification", "fetch unread notifications")
		return
	}
	list, err := h.svc.ListUnreadNotifications(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err, "notification", "fetch unread notifications")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) createNotification(w http.ResponseWriter, r *http.Request) {
	n := types.NewNotification()
	if err := decodeJSON(w, r, &n); err != nil {
		h.fail(w, r, err, "notification", "create notification")
		return
	}
	created, err := h.svc.CreateNotification(r.Context(), n)
	if err != nil {
		h.fail(w, r, err, "notification", "create notification")
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (h *handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err == nil {
		_, err = h.svc.MarkNotificationRead(r.Context(), id)
	}
	if err != nil {
		h.fail(w, r, err, "notification", "mark notification as read")
		return
	}
	writeJSON(w, http.StatusOK, success)
}
