package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Wallet represents a wallets row. Amounts are integer centavos.
// Available is spendable; Frozen is committed to outstanding bets and leaves
// only through settlement or release. Both columns carry >= 0 CHECKs.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Available int64     `json:"available_balance"`
	Frozen    int64     `json:"frozen_amount"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanCover reports whether the available balance covers amount.
func (w *Wallet) CanCover(amount int64) bool {
	return w.Available >= amount
}

// Total returns available plus frozen funds.
func (w *Wallet) Total() int64 {
	return w.Available + w.Frozen
}

// BalanceUpdate describes which wallet columns to update and by how much.
// Used by PostLedgerEntry to build the dynamic UPDATE statement, so a combined
// move (e.g. settle-win: frozen down, available up) is one row write.
type BalanceUpdate struct {
	Available int64 // delta for available_balance
	Frozen    int64 // delta for frozen_amount
}

// HasAvailableDelta returns true if the available balance changes.
func (u BalanceUpdate) HasAvailableDelta() bool { return u.Available != 0 }

// HasFrozenDelta returns true if the frozen amount changes.
func (u BalanceUpdate) HasFrozenDelta() bool { return u.Frozen != 0 }

// PostLedgerEntryParams is the input to the atomic PostLedgerEntry operation.
type PostLedgerEntryParams struct {
	WalletID     uuid.UUID
	Type         TransactionType
	Amount       int64
	Update       BalanceUpdate
	ReferenceKey *string
	BetID        *uuid.UUID
	FightID      *uuid.UUID
	Description  string
	Metadata     json.RawMessage
}

// CommandResult is the return value of every wallet command.
type CommandResult struct {
	Entry      *Transaction
	Wallet     *Wallet
	Idempotent bool // true if a duplicate reference key returned the existing entry
}

// FreezeParams holds the input for ExecuteFreeze.
type FreezeParams struct {
	UserID       uuid.UUID
	Amount       int64
	BetID        uuid.UUID
	FightID      uuid.UUID
	ReferenceKey string
	Metadata     json.RawMessage
}

// ReleaseParams holds the input for ExecuteRelease.
type ReleaseParams struct {
	UserID       uuid.UUID
	Amount       int64
	BetID        uuid.UUID
	FightID      uuid.UUID
	ReferenceKey string
	Metadata     json.RawMessage
}

// SettleParams holds the input for the three settlement commands. Stake is the
// frozen amount leaving the frozen pool; Payout is what lands on the available
// balance (potential win, refunded stake, or zero for a loss).
type SettleParams struct {
	UserID       uuid.UUID
	Stake        int64
	Payout       int64
	BetID        uuid.UUID
	FightID      uuid.UUID
	ReferenceKey string
	Metadata     json.RawMessage
}

// DepositParams holds the input for ExecuteDeposit.
type DepositParams struct {
	UserID       uuid.UUID
	Amount       int64
	ReferenceKey string
	Description  string
	Metadata     json.RawMessage
}

// WithdrawParams holds the input for ExecuteWithdraw. Withdrawals only ever
// touch the available balance; frozen funds are not withdrawable.
type WithdrawParams struct {
	UserID       uuid.UUID
	Amount       int64
	ReferenceKey string
	Description  string
	Metadata     json.RawMessage
}
