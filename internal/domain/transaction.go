package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TransactionType enumerates all wallet transaction types.
type TransactionType string

const (
	TxDeposit    TransactionType = "deposit"
	TxWithdrawal TransactionType = "withdrawal"

	// Bet fund movements. Freeze/release are the bookkeeping entries for
	// stake commitment; the bet_* settlement entries are one-per-bet.
	TxBetFreeze  TransactionType = "bet_freeze"
	TxBetRelease TransactionType = "bet_release"
	TxBetWin     TransactionType = "bet_win"
	TxBetLoss    TransactionType = "bet_loss"
	TxBetRefund  TransactionType = "bet_refund"
)

// IsSettlementType reports whether the type records a bet settlement outcome.
func (t TransactionType) IsSettlementType() bool {
	return t == TxBetWin || t == TxBetLoss || t == TxBetRefund
}

// String returns the string representation of the transaction type.
func (t TransactionType) String() string { return string(t) }

// Transaction represents a wallet_transactions row: an append-only ledger
// entry with the post-update balance snapshot. Never mutated after insert.
type Transaction struct {
	ID             uuid.UUID       `json:"id"`
	WalletID       uuid.UUID       `json:"wallet_id"`
	Type           TransactionType `json:"type"`
	Amount         int64           `json:"amount"`
	AvailableAfter int64           `json:"available_after"`
	FrozenAfter    int64           `json:"frozen_after"`
	ReferenceKey   *string         `json:"reference_key,omitempty"`
	BetID          *uuid.UUID      `json:"bet_id,omitempty"`
	FightID        *uuid.UUID      `json:"fight_id,omitempty"`
	Description    string          `json:"description"`
	Metadata       json.RawMessage `json:"metadata"`
	CreatedAt      time.Time       `json:"created_at"`
}
