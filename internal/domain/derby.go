package domain

import (
	"time"

	"github.com/google/uuid"
)

// DerbyStatus tracks the lifecycle of a scheduled derby (a betting event
// hosting a card of fights).
type DerbyStatus string

const (
	DerbyStatusScheduled DerbyStatus = "scheduled"
	DerbyStatusActive    DerbyStatus = "active"
	DerbyStatusCompleted DerbyStatus = "completed"
	DerbyStatusCancelled DerbyStatus = "cancelled"
)

// Derby represents a derbies row. Fights belong to exactly one derby and all
// fight-control operations are authorized against its assigned operator.
type Derby struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	Status          DerbyStatus `json:"status"`
	OperatorID      uuid.UUID   `json:"operator_id"`
	ScheduledAt     time.Time   `json:"scheduled_at"`
	TotalFights     int         `json:"total_fights"`
	CompletedFights int         `json:"completed_fights"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// IsActive reports whether the derby is currently in progress. Betting can
// only open on fights whose derby is active.
func (d *Derby) IsActive() bool {
	return d.Status == DerbyStatusActive
}

// AcceptsFights reports whether new fights may still be added to the card.
func (d *Derby) AcceptsFights() bool {
	return d.Status == DerbyStatusScheduled || d.Status == DerbyStatusActive
}
