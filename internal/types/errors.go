package types

import (
	"errors"
	"fmt"
)

var (
	// ErrModelUnavailable means the language-model call failed outright after retries.
	ErrModelUnavailable = errors.New("language model unavailable")
	// ErrMalformedModelOutput means the model replied with something that is not a tool call.
	// The dispatcher treats it as a direct answer.
	ErrMalformedModelOutput = errors.New("malformed model output")
	// ErrUnknownTool means the model proposed a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrToolExecution means a tool threw or returned unusable data.
	ErrToolExecution = errors.New("tool execution failed")
	// ErrToolUnavailable is a transient tool failure that may be retried.
	ErrToolUnavailable = errors.New("tool temporarily unavailable")
	// ErrEmptyResult means the tool succeeded but found nothing.
	ErrEmptyResult = errors.New("empty tool result")
	// ErrInvalidArguments means a tool call is missing a required argument or has one of the wrong shape.
	ErrInvalidArguments = errors.New("invalid tool arguments")

	ErrSessionNotFound = errors.New("chat session not found")
	ErrEmptyQuery      = errors.New("query must not be empty")
)

// ToolError ties a failure to the tool that produced it.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
