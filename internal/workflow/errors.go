package workflow

import "errors"

var (
	// ErrEmptyQuery rejects a turn before any step runs.
	ErrEmptyQuery = errors.New("query is required")
	// ErrEmptyPlan rejects a resume whose edited plan is blank.
	ErrEmptyPlan = errors.New("research_plan is required")
	// ErrConversationNotFound is returned when resuming an unknown id.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrNotSuspended is returned when a resume is requested but no plan
	// approval is pending for the conversation.
	ErrNotSuspended = errors.New("no plan approval pending for conversation")
)
