package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NewFightEvent creates a fight lifecycle event. The payload carries the derby
// reference so downstream fan-out can route per derby.
func NewFightEvent(eventType EventType, fight *Fight) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"fight_id":     fight.ID.String(),
		"derby_id":     fight.DerbyID.String(),
		"number":       fight.Number,
		"status":       fight.Status,
		"result":       fight.Result,
		"total_bets":   fight.TotalBets,
		"total_amount": fight.TotalAmount,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateFight,
		AggregateID:   fight.ID.String(),
		EventType:     eventType,
		PartitionKey:  fight.ID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewBetEvent creates a bet lifecycle event.
func NewBetEvent(eventType EventType, bet *Bet) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"bet_id":        bet.ID.String(),
		"fight_id":      bet.FightID.String(),
		"user_id":       bet.UserID.String(),
		"side":          bet.Side,
		"amount":        bet.Amount,
		"potential_win": bet.PotentialWin,
		"status":        bet.Status,
		"outcome":       bet.Outcome,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateBet,
		AggregateID:   bet.ID.String(),
		EventType:     eventType,
		PartitionKey:  bet.FightID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewBetMatchedEvent creates the pairing event for two mutually committed bets.
func NewBetMatchedEvent(a, b *Bet) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"fight_id":   a.FightID.String(),
		"bet_id":     a.ID.String(),
		"counter_id": b.ID.String(),
		"amount":     a.Amount,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateBet,
		AggregateID:   a.ID.String(),
		EventType:     EventBetMatched,
		PartitionKey:  a.FightID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewWalletEntryPostedEvent creates the standard wallet event for a ledger
// entry.
func NewWalletEntryPostedEvent(entry *Transaction) OutboxDraft {
	payload, _ := json.Marshal(entry)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateWallet,
		AggregateID:   entry.WalletID.String(),
		EventType:     EventWalletEntryPosted,
		PartitionKey:  entry.WalletID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}
