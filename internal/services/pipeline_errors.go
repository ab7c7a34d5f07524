package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SchemaError reports a document that lacks the fields its artifact kind requires.
type SchemaError struct {
	Kind    string
	Missing []string
	Detail  string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema error: ")
	b.WriteString(e.Kind)
	if len(e.Missing) > 0 {
		b.WriteString(": missing ")
		b.WriteString(strings.Join(e.Missing, ", "))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return ErrValidation }

// MissingDependencyError names the first unmet prerequisite of a stage.
type MissingDependencyError struct {
	Stage       string
	Requirement string
	Path        string
	Reason      string
	Hint        string
}

func (e *MissingDependencyError) Error() string {
	msg := fmt.Sprintf("stage %s: missing dependency %s", e.Stage, e.Requirement)
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Hint != "" {
		msg += "; " + e.Hint
	}
	return msg
}

func (e *MissingDependencyError) Unwrap() error { return ErrNotFound }

// ContextBudgetExceeded reports that the scene's own directives do not fit the
// budget. Required is the smallest packet that carries Ring A; RingA is Ring A
// on its own.
type ContextBudgetExceeded struct {
	SceneID  int
	Budget   int
	Required int
	RingA    int
}

func (e *ContextBudgetExceeded) Error() string {
	return fmt.Sprintf("context budget exceeded for scene %d: packet needs %d tokens (ring A %d), budget is %d",
		e.SceneID, e.Required, e.RingA, e.Budget)
}

func (e *ContextBudgetExceeded) Unwrap() error { return ErrValidation }

// GenerationError wraps a failed call to the generation backend.
type GenerationError struct {
	Backend string
	Op      string
	Err     error
}

func (e *GenerationError) Error() string {
	label := "generation failed"
	if e.Backend != "" {
		label = e.Backend + " generation failed"
	}
	if e.Op != "" {
		label = e.Op + ": " + label
	}
	if e.Err != nil {
		return label + ": " + e.Err.Error()
	}
	return label
}

func (e *GenerationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExternalTool}
	}
	return []error{ErrExternalTool, e.Err}
}

// TimeoutError is a GenerationError raised when the call deadline passed.
type TimeoutError struct {
	GenerationError
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s (deadline %s)", e.GenerationError.Error(), e.Timeout)
}

func (e *TimeoutError) Unwrap() []error {
	return append([]error{ErrTimeout, &e.GenerationError}, e.GenerationError.Unwrap()...)
}

// AsGenerationError reports whether err carries a GenerationError, including
// the one embedded in a TimeoutError.
func AsGenerationError(err error) (*GenerationError, bool) {
	var timeout *TimeoutError
	if errors.As(err, &timeout) {
		return &timeout.GenerationError, true
	}
	var gen *GenerationError
	if errors.As(err, &gen) {
		return gen, true
	}
	return nil, false
}
