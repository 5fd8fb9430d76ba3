package services

import "errors"

var (
	// ErrWorkflowNotExecutable is returned when a run is requested for a
	// workflow that is not published.
	ErrWorkflowNotExecutable = errors.New("workflow is not published")

	// ErrWorkflowNotEditable is returned when an update targets a workflow
	// that is not in draft state.
	ErrWorkflowNotEditable = errors.New("workflow is not editable")

	// ErrInvalidStateTransition is returned when a pause, resume or cancel
	// does not apply to the item's current state.
	ErrInvalidStateTransition = errors.New("invalid state transition")
)
