package planning

import "time"

// CreateEventInput contains data for creating an event.
type CreateEventInput struct {
	Name      string
	EventDate time.Time
	Notes     string
}

// BatchDecisionInput commits to a number of batches for a finished unit.
type BatchDecisionInput struct {
	FinishedUnitID string
	Batches        int
}
