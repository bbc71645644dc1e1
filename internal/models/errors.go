package models

import (
	"fmt"
	"strings"
)

// ValidationError reports a missing reference or a violated precondition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// CircularReferenceError reports a finished good that contains itself.
// Path lists the goods being expanded when the cycle closed, outermost first.
type CircularReferenceError struct {
	FinishedGoodID string
	Path           []string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular reference: finished good %s already on path %s",
		e.FinishedGoodID, strings.Join(e.Path, " -> "))
}

// MaxDepthError reports nesting deeper than the decomposition limit.
type MaxDepthError struct {
	FinishedGoodID string
	Depth          int
	Limit          int
}

func (e *MaxDepthError) Error() string {
	return fmt.Sprintf("finished good %s nested at depth %d exceeds limit %d",
		e.FinishedGoodID, e.Depth, e.Limit)
}

// InsufficientInventoryError aborts a production or assembly run. It lists
// every short item, not just the first one found.
type InsufficientInventoryError struct {
	Operation  string
	Shortfalls []Shortfall
}

func (e *InsufficientInventoryError) Error() string {
	parts := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		name := s.ItemName
		if name == "" {
			name = s.ItemID
		}
		parts[i] = fmt.Sprintf("%s short %s (need %s, have %s)",
			name, s.Shortfall.String(), s.Needed.String(), s.Available.String())
	}
	return fmt.Sprintf("insufficient inventory for %s: %s", e.Operation, strings.Join(parts, "; "))
}
