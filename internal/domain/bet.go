package domain

import (
	"time"

	"github.com/google/uuid"
)

// BetSide is the chosen corner.
type BetSide string

const (
	BetSideRed  BetSide = "red"
	BetSideBlue BetSide = "blue"
)

// Opposite returns the other corner.
func (s BetSide) Opposite() BetSide {
	if s == BetSideRed {
		return BetSideBlue
	}
	return BetSideRed
}

// ValidBetSide reports whether s is a playable side.
func ValidBetSide(s BetSide) bool {
	return s == BetSideRed || s == BetSideBlue
}

// BetStatus tracks the lifecycle of a bet.
//
// `proposed` is the sub-state of a PAGO/DOY counter-offer that has not been
// accepted yet: the row exists so the offer survives restarts, but it holds no
// funds, which keeps the frozen-amount invariant over pending+active stakes.
type BetStatus string

const (
	BetStatusPending   BetStatus = "pending"
	BetStatusProposed  BetStatus = "proposed"
	BetStatusActive    BetStatus = "active"
	BetStatusCompleted BetStatus = "completed"
	BetStatusCancelled BetStatus = "cancelled"
)

// IsFundHolding reports whether a bet in this status has its stake frozen.
func (s BetStatus) IsFundHolding() bool {
	return s == BetStatusPending || s == BetStatusActive
}

// BetOutcome is the settlement outcome of an individual bet.
type BetOutcome string

const (
	BetOutcomeWin       BetOutcome = "win"
	BetOutcomeLoss      BetOutcome = "loss"
	BetOutcomeDraw      BetOutcome = "draw"
	BetOutcomeCancelled BetOutcome = "cancelled"
)

// ProposalStatus is the negotiation sub-state carried by both the parent bet
// and its counter-offer child while a PAGO/DOY proposal is outstanding.
type ProposalStatus string

const (
	ProposalStatusOffered  ProposalStatus = "offered"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusRejected ProposalStatus = "rejected"
)

// Bet represents a bets row. Cancelled bets are retained, never deleted.
type Bet struct {
	ID             uuid.UUID       `json:"id"`
	FightID        uuid.UUID       `json:"fight_id"`
	UserID         uuid.UUID       `json:"user_id"`
	Side           BetSide         `json:"side"`
	Amount         int64           `json:"amount"`
	PotentialWin   int64           `json:"potential_win"`
	Status         BetStatus       `json:"status"`
	Outcome        *BetOutcome     `json:"outcome,omitempty"`
	ParentBetID    *uuid.UUID      `json:"parent_bet_id,omitempty"`
	ProposalStatus *ProposalStatus `json:"proposal_status,omitempty"`
	ProposedAmount *int64          `json:"proposed_amount,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// EvenMoneyWin is the payout for a fully matched side bet: stake returned plus
// an equal amount from the counter-party.
func EvenMoneyWin(stake int64) int64 {
	return 2 * stake
}

// IsCounterOffer reports whether the bet is a PAGO/DOY child referencing a
// parent bet.
func (b *Bet) IsCounterOffer() bool {
	return b.ParentBetID != nil
}

// HasOpenProposal reports whether a counter-offer is outstanding against this
// bet and must be resolved before the bet can be cancelled or re-proposed.
func (b *Bet) HasOpenProposal() bool {
	return b.ProposalStatus != nil && *b.ProposalStatus == ProposalStatusOffered
}

// Restake rewrites the stake and payout, used when an accepted proposal
// adjusts the committed amount.
func (b *Bet) Restake(amount int64) {
	b.Amount = amount
	b.PotentialWin = EvenMoneyWin(amount)
}
