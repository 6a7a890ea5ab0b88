package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/Reaishma/Healthcare-informatics-solution/types"
)

// ErrUnknownKind is returned when an envelope names a kind this build does not know.
var ErrUnknownKind = errors.New("unknown event kind")

// Kind names a change notification on the wire.
type Kind string

const (
	WorkflowCreatedKind         Kind = "workflow_created"
	WorkflowUpdatedKind         Kind = "workflow_updated"
	WorkflowDeletedKind         Kind = "workflow_deleted"
	TaskCreatedKind             Kind = "task_created"
	TaskUpdatedKind             Kind = "task_updated"
	TaskDeletedKind             Kind = "task_deleted"
	PatientFlowStageCreatedKind Kind = "patient_flow_stage_created"
	PatientFlowStageUpdatedKind Kind = "patient_flow_stage_updated"
	PatientFlowStageDeletedKind Kind = "patient_flow_stage_deleted"
	UserStoryCreatedKind        Kind = "user_story_created"
	UserStoryUpdatedKind        Kind = "user_story_updated"
	UserStoryDeletedKind        Kind = "user_story_deleted"
	ScheduleCreatedKind         Kind = "schedule_created"
	ScheduleUpdatedKind         Kind = "schedule_updated"
	ScheduleDeletedKind         Kind = "schedule_deleted"
)

var allKinds = []Kind{
	WorkflowCreatedKind,
	WorkflowUpdatedKind,
	WorkflowDeletedKind,
	TaskCreatedKind,
	TaskUpdatedKind,
	TaskDeletedKind,
	PatientFlowStageCreatedKind,
	PatientFlowStageUpdatedKind,
	PatientFlowStageDeletedKind,
	UserStoryCreatedKind,
	UserStoryUpdatedKind,
	UserStoryDeletedKind,
	ScheduleCreatedKind,
	ScheduleUpdatedKind,
	ScheduleDeletedKind,
}

// Known reports whether k is one of the kinds above.
func (k Kind) Known() bool {
	return slices.Contains(allKinds, k)
}

// Deleted is the payload of every *_deleted event.
type Deleted struct {
	ID uint64 `json:"id"`
}

// Event is a change notification. Build one with the per-kind constructors;
// the zero value is not broadcastable.
type Event struct {
	kind Kind
	data any
}

func (e Event) Kind() Kind { return e.kind }
func (e Event) Data() any  { return e.data }

// MarshalJSON renders the wire envelope {"type": ..., "data": ...}.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.kind == "" {
		return nil, errors.New("events: zero Event")
	}
	return json.Marshal(struct {
		Type Kind `json:"type"`
		Data any  `json:"data"`
	}{e.kind, e.data})
}

func WorkflowCreated(w types.Workflow) Event { return Event{WorkflowCreatedKind, w} }
func WorkflowUpdated(w types.Workflow) Event { return Event{WorkflowUpdatedKind, w} }
func WorkflowDeleted(id uint64) Event        { return Event{WorkflowDeletedKind, Deleted{id}} }

func TaskCreated(t types.Task) Event { return Event{TaskCreatedKind, t} }
func TaskUpdated(t types.Task) Event { return Event{TaskUpdatedKind, t} }
func TaskDeleted(id uint64) Event    { return Event{TaskDeletedKind, Deleted{id}} }

func PatientFlowStageCreated(s types.PatientFlowStage) Event {
	return Event{PatientFlowStageCreatedKind, s}
}

func PatientFlowStageUpdated(s types.PatientFlowStage) Event {
	return Event{PatientFlowStageUpdatedKind, s}
}

func PatientFlowStageDeleted(id uint64) Event {
	return Event{PatientFlowStageDeletedKind, Deleted{id}}
}

func UserStoryCreated(s types.UserStory) Event { return Event{UserStoryCreatedKind, s} }
func UserStoryUpdated(s types.UserStory) Event { return Event{UserStoryUpdatedKind, s} }
func UserStoryDeleted(id uint64) Event         { return Event{UserStoryDeletedKind, Deleted{id}} }

func ScheduleCreated(s types.Schedule) Event { return Event{ScheduleCreatedKind, s} }
func ScheduleUpdated(s types.Schedule) Event { return Event{ScheduleUpdatedKind, s} }
func ScheduleDeleted(id uint64) Event        { return Event{ScheduleDeletedKind, Deleted{id}} }

// Envelope is a received message with its payload still encoded.
type Envelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Known reports whether the envelope carries a kind this build understands.
// Unknown envelopes are meant to be ignored, not treated as errors.
func (e Envelope) Known() bool { return e.Type.Known() }

// Decode parses a wire message. Only malformed JSON or a missing type is an error;
// an unrecognised type decodes fine and reports Known() == false.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, errors.New("failed to decode event: missing type")
	}
	return env, nil
}

// Payload decodes Data into the record type matching the kind: a types entity
// for created/updated kinds and Deleted for deletions.
func (e Envelope) Payload() (any, error) {
	switch e.Type {
	case WorkflowCreatedKind, WorkflowUpdatedKind:
		return decodePayload[types.Workflow](e)
	case TaskCreatedKind, TaskUpdatedKind:
		return decodePayload[types.Task](e)
	case PatientFlowStageCreatedKind, PatientFlowStageUpdatedKind:
		return decodePayload[types.PatientFlowStage](e)
	case UserStoryCreatedKind, UserStoryUpdatedKind:
		return decodePayload[types.UserStory](e)
	case ScheduleCreatedKind, ScheduleUpdatedKind:
		return decodePayload[types.Schedule](e)
	case WorkflowDeletedKind, TaskDeletedKind, PatientFlowStageDeletedKind, UserStoryDeletedKind, ScheduleDeletedKind:
		return decodePayload[Deleted](e)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, e.Type)
	}
}

func decodePayload[T any](e Envelope) (T, error) {
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return v, fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return v, nil
}
