package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types emitted by the engine.
type EventType string

const (
	EventFightCreated       EventType = "sabong.fight.created"
	EventFightBettingOpened EventType = "sabong.fight.betting_opened"
	EventFightBettingClosed EventType = "sabong.fight.betting_closed"
	EventFightCompleted     EventType = "sabong.fight.completed"
	EventFightCancelled     EventType = "sabong.fight.cancelled"

	EventBetPlaced           EventType = "sabong.bet.placed"
	EventBetMatched          EventType = "sabong.bet.matched"
	EventBetCancelled        EventType = "sabong.bet.cancelled"
	EventBetSettled          EventType = "sabong.bet.settled"
	EventBetProposalOffered  EventType = "sabong.bet.proposal_offered"
	EventBetProposalAccepted EventType = "sabong.bet.proposal_accepted"
	EventBetProposalRejected EventType = "sabong.bet.proposal_rejected"

	EventWalletEntryPosted EventType = "sabong.wallet.entry_posted"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateDerby  AggregateType = "derby"
	AggregateFight  AggregateType = "fight"
	AggregateBet    AggregateType = "bet"
	AggregateWallet AggregateType = "wallet"
)

// OutboxDraft is the payload written to the event_outbox table inside the same
// transaction as the state change it describes. The relay delivers drafts to
// downstream consumers; the engine itself only emits.
type OutboxDraft struct {
	SeqID         int64           `json:"-"`
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	PartitionKey  string          `json:"partition_key"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
