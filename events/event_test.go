package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reaishma/Healthcare-informatics-solution/types"
)

func TestEventEnvelope(t *testing.T) {
	t.Run("CreatedCarriesFullRecord", func(t *testing.T) {
		stage := types.PatientFlowStage{ID: 4, Name: "Triage", Capacity: 10, CurrentCount: 5, Status: types.StageNormal}
		raw, err := json.Marshal(PatientFlowStageUpdated(stage))
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "patient_flow_stage_updated", got["type"])
		data, ok := got["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(4), data["id"])
		assert.Equal(t, float64(5), data["currentCount"])
		assert.Equal(t, "Triage", data["name"])
	})

	t.Run("DeletedCarriesOnlyID", func(t *testing.T) {
		for _, ev := range []Event{WorkflowDeleted(12), TaskDeleted(12), PatientFlowStageDeleted(12), UserStoryDeleted(12), ScheduleDeleted(12)} {
			raw, err := json.Marshal(ev)
			require.NoError(t, err)
			assert.JSONEq(t, `{"type":"`+string(ev.Kind())+`","data":{"id":12}}`, string(raw))
		}
	})

	t.Run("ZeroEventIsRejected", func(t *testing.T) {
		_, err := json.Marshal(Event{})
		assert.Error(t, err)
	})

	t.Run("ConstructorsUseKnownKinds", func(t *testing.T) {
		evs := []Event{
			WorkflowCreated(types.Workflow{}), WorkflowUpdated(types.Workflow{}), WorkflowDeleted(1),
			TaskCreated(types.Task{}), TaskUpdated(types.Task{}), TaskDeleted(1),
			PatientFlowStageCreated(types.PatientFlowStage{}), PatientFlowStageUpdated(types.PatientFlowStage{}),
			PatientFlowStageDeleted(1),
			UserStoryCreated(types.UserStory{}), UserStoryUpdated(types.UserStory{}), UserStoryDeleted(1),
			ScheduleCreated(types.Schedule{}), ScheduleUpdated(types.Schedule{}), ScheduleDeleted(1),
		}
		seen := map[Kind]bool{}
		for _, ev := range evs {
			assert.True(t, ev.Kind().Known(), ev.Kind())
			seen[ev.Kind()] = true
		}
		assert.Len(t, seen, len(allKinds))
	})
}

func TestDecode(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		due := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		task := types.Task{ID: 9, Title: "Transfer patient", Status: types.TaskInProgress, Priority: types.PriorityHigh, DueDate: &due}
		raw, err := json.Marshal(TaskCreated(task))
		require.NoError(t, err)

		env, err := Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, TaskCreatedKind, env.Type)
		assert.True(t, env.Known())

		payload, err := env.Payload()
		require.NoError(t, err)
		got, ok := payload.(types.Task)
		require.True(t, ok)
		assert.Equal(t, task.ID, got.ID)
		assert.Equal(t, task.Title, got.Title)
		require.NotNil(t, got.DueDate)
		assert.True(t, due.Equal(*got.DueDate))
	})

	t.Run("DeletedPayload", func(t *testing.T) {
		env, err := Decode([]byte(`{"type":"user_story_deleted","data":{"id":3}}`))
		require.NoError(t, err)
		payload, err := env.Payload()
		require.NoError(t, err)
		assert.Equal(t, Deleted{ID: 3}, payload)
	})

	t.Run("SchedulePayloads", func(t *testing.T) {
		start := time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)
		raw, err := json.Marshal(ScheduleUpdated(types.Schedule{ID: 2, UserID: 4, ShiftStart: start, ShiftEnd: start.Add(8 * time.Hour)}))
		require.NoError(t, err)
		env, err := Decode(raw)
		require.NoError(t, err)
		payload, err := env.Payload()
		require.NoError(t, err)
		got, ok := payload.(types.Schedule)
		require.True(t, ok)
		assert.Equal(t, uint64(4), got.UserID)

		env, err = Decode([]byte(`{"type":"schedule_deleted","data":{"id":2}}`))
		require.NoError(t, err)
		payload, err = env.Payload()
		require.NoError(t, err)
		assert.Equal(t, Deleted{ID: 2}, payload)
	})

	t.Run("UnknownKindIsIgnorable", func(t *testing.T) {
		env, err := Decode([]byte(`{"type":"bed_assigned","data":{"bed":4}}`))
		require.NoError(t, err)
		assert.False(t, env.Known())

		_, err = env.Payload()
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":`))
		assert.Error(t, err)
	})

	t.Run("MissingType", func(t *testing.T) {
		_, err := Decode([]byte(`{"data":{}}`))
		assert.Error(t, err)
	})

	t.Run("PayloadTypeMismatch", func(t *testing.T) {
		env, err := Decode([]byte(`{"type":"task_deleted","data":{"id":"seven"}}`))
		require.NoError(t, err)
		_, err = env.Payload()
		assert.Error(t, err)
	})
}
