package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// FightStatus tracks the lifecycle of a fight.
type FightStatus string

const (
	FightStatusUpcoming  FightStatus = "upcoming"
	FightStatusBetting   FightStatus = "betting"
	FightStatusLive      FightStatus = "live"
	FightStatusCompleted FightStatus = "completed"
	FightStatusCancelled FightStatus = "cancelled"
)

// FightResult is the declared outcome of a completed fight.
type FightResult string

const (
	FightResultRed       FightResult = "red"
	FightResultBlue      FightResult = "blue"
	FightResultDraw      FightResult = "draw"
	FightResultCancelled FightResult = "cancelled"
)

// fightTransitions is the full transition table. Anything not listed here is
// rejected; cancelled is reachable from every non-terminal state.
var fightTransitions = map[FightStatus][]FightStatus{
	FightStatusUpcoming: {FightStatusBetting, FightStatusCancelled},
	FightStatusBetting:  {FightStatusLive, FightStatusCancelled},
	FightStatusLive:     {FightStatusCompleted, FightStatusCancelled},
}

// CanTransitionTo reports whether the status machine permits moving to next.
func (s FightStatus) CanTransitionTo(next FightStatus) bool {
	for _, allowed := range fightTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s FightStatus) IsTerminal() bool {
	return s == FightStatusCompleted || s == FightStatusCancelled
}

// ValidFightResult reports whether r is one of the declarable results.
func ValidFightResult(r FightResult) bool {
	switch r {
	case FightResultRed, FightResultBlue, FightResultDraw, FightResultCancelled:
		return true
	}
	return false
}

// Fight represents a fights row. Status, result and the lifecycle timestamps
// are mutated exclusively through the fight service once betting has opened.
type Fight struct {
	ID              uuid.UUID    `json:"id"`
	DerbyID         uuid.UUID    `json:"derby_id"`
	Number          int          `json:"number"`
	RedCorner       string       `json:"red_corner"`
	BlueCorner      string       `json:"blue_corner"`
	WeightGrams     int          `json:"weight_grams"`
	Notes           string       `json:"notes,omitempty"`
	Status          FightStatus  `json:"status"`
	Result          *FightResult `json:"result,omitempty"`
	BettingOpenedAt *time.Time   `json:"betting_opened_at,omitempty"`
	BettingClosedAt *time.Time   `json:"betting_closed_at,omitempty"`
	StartedAt       *time.Time   `json:"started_at,omitempty"`
	EndedAt         *time.Time   `json:"ended_at,omitempty"`
	TotalBets       int64        `json:"total_bets"`
	TotalAmount     int64        `json:"total_amount"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// AcceptsBets reports whether the betting window is open.
func (f *Fight) AcceptsBets() bool {
	return f.Status == FightStatusBetting
}

// CornersDiffer reports whether the two corner names differ, compared
// case-insensitively.
func (f *Fight) CornersDiffer() bool {
	return !strings.EqualFold(strings.TrimSpace(f.RedCorner), strings.TrimSpace(f.BlueCorner))
}
