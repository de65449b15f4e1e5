package events

import "time"

// Event type constants for background task events.
const (
	TypeTaskStarted      = "task_started"
	TypeTaskCompleted    = "task_completed"
	TypeTaskFailed       = "task_failed"
	TypeRefinementFailed = "refinement_failed"
)

// TaskStartedEvent is emitted when a background task begins.
type TaskStartedEvent struct {
	BaseEvent
	TaskID string `json:"task_id"`
	Kind   string `json:"kind"`
}

// NewTaskStartedEvent creates a new task started event.
func NewTaskStartedEvent(issueID, taskID, kind string) TaskStartedEvent {
	return TaskStartedEvent{
		BaseEvent: NewBaseEvent(TypeTaskStarted, issueID),
		TaskID:    taskID,
		Kind:      kind,
	}
}

// TaskCompletedEvent is emitted when a task finishes successfully.
type TaskCompletedEvent struct {
	BaseEvent
	TaskID   string        `json:"task_id"`
	Kind     string        `json:"kind"`
	Duration time.Duration `json:"duration"`
}

// NewTaskCompletedEvent creates a new task completed event.
func NewTaskCompletedEvent(issueID, taskID, kind string, duration time.Duration) TaskCompletedEvent {
	return TaskCompletedEvent{
		BaseEvent: NewBaseEvent(TypeTaskCompleted, issueID),
		TaskID:    taskID,
		Kind:      kind,
		Duration:  duration,
	}
}

// TaskFailedEvent is emitted when a task returns an error or panics.
type TaskFailedEvent struct {
	BaseEvent
	TaskID    string        `json:"task_id"`
	Kind      string        `json:"kind"`
	Error     string        `json:"error"`
	Category  string        `json:"category,omitempty"`
	Retryable bool          `json:"retryable"`
	Duration  time.Duration `json:"duration"`
}

// NewTaskFailedEvent creates a new task failed event.
func NewTaskFailedEvent(issueID, taskID, kind string, err error, category string, retryable bool, duration time.Duration) TaskFailedEvent {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return TaskFailedEvent{
		BaseEvent: NewBaseEvent(TypeTaskFailed, issueID),
		TaskID:    taskID,
		Kind:      kind,
		Error:     msg,
		Category:  category,
		Retryable: retryable,
		Duration:  duration,
	}
}

// RefinementFailedEvent is emitted when the model call for an incoming issue
// fails and no update is scheduled.
type RefinementFailedEvent struct {
	BaseEvent
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
}

// NewRefinementFailedEvent creates a new refinement failed event.
func NewRefinementFailedEvent(issueID string, err error, category string) RefinementFailedEvent {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return RefinementFailedEvent{
		BaseEvent: NewBaseEvent(TypeRefinementFailed, issueID),
		Error:     msg,
		Category:  category,
	}
}
