package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sabong/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// TxStarter opens transactions. Satisfied by *pgxpool.Pool.
type TxStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DerbyRepository provides access to derbies.
type DerbyRepository interface {
	// FindByID returns a derby by ID, or nil if absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Derby, error)

	// Create inserts a new derby.
	Create(ctx context.Context, db DBTX, derby *domain.Derby) error

	// UpdateStatus moves the derby to a new status.
	UpdateStatus(ctx context.Context, db DBTX, id uuid.UUID, status domain.DerbyStatus) error

	// IncrementTotalFights bumps the scheduled fight counter.
	IncrementTotalFights(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// IncrementCompletedFights bumps the finished fight counter.
	IncrementCompletedFights(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// FightRepository provides access to fights.
type FightRepository interface {
	// FindByID returns a fight by ID, or nil if absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Fight, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and returns
	// the fight. Every fight mutation and every bet operation locks the fight
	// row first, so state checks and writes are serialized per fight.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Fight, error)

	// FindByDerbyAndNumber returns the fight holding a derby-local number.
	FindByDerbyAndNumber(ctx context.Context, db DBTX, derbyID uuid.UUID, number int) (*domain.Fight, error)

	// Create inserts a new fight.
	Create(ctx context.Context, db DBTX, fight *domain.Fight) error

	// UpdateState persists status, result and lifecycle timestamps.
	UpdateState(ctx context.Context, tx pgx.Tx, fight *domain.Fight) error

	// AddAggregates adjusts the denormalized bet counters using server-side
	// arithmetic.
	AddAggregates(ctx context.Context, tx pgx.Tx, id uuid.UUID, betsDelta int, amountDelta int64) error

	// ListByDerby returns a derby's fights ordered by fight number.
	ListByDerby(ctx context.Context, db DBTX, derbyID uuid.UUID) ([]domain.Fight, error)
}

// BetRepository provides access to bets.
type BetRepository interface {
	// FindByID returns a bet by ID, or nil if absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Bet, error)

	// Create inserts a new bet.
	Create(ctx context.Context, db DBTX, bet *domain.Bet) error

	// Update persists status, outcome, amounts and proposal fields.
	Update(ctx context.Context, tx pgx.Tx, bet *domain.Bet) error

	// ListByFightAndStatuses returns a fight's bets in the given statuses,
	// oldest first.
	ListByFightAndStatuses(ctx context.Context, db DBTX, fightID uuid.UUID, statuses []domain.BetStatus) ([]domain.Bet, error)

	// FindOldestPendingMatch returns the oldest pending bet on the given side
	// and amount placed by a different user with no open counter-offer, or nil.
	FindOldestPendingMatch(ctx context.Context, tx pgx.Tx, fightID uuid.UUID, side domain.BetSide, amount int64, excludeUser uuid.UUID) (*domain.Bet, error)

	// FindProposalChild returns the open counter-offer targeting a parent bet,
	// or nil.
	FindProposalChild(ctx context.Context, db DBTX, parentID uuid.UUID) (*domain.Bet, error)

	// ListByUser returns a user's bets, newest first.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.Bet, error)
}

// WalletRepository provides access to wallets.
type WalletRepository interface {
	// FindByUser returns the wallet owned by a user, or nil if absent.
	FindByUser(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.Wallet, error)

	// LockForUpdateByUser acquires a row-level lock (SELECT FOR UPDATE) on the
	// user's wallet and returns it.
	LockForUpdateByUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error)

	// Create inserts a new wallet.
	Create(ctx context.Context, db DBTX, wallet *domain.Wallet) error

	// UpdateBalances atomically updates balance columns using server-side
	// arithmetic with dynamic SET clauses.
	UpdateBalances(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, delta domain.BalanceUpdate) (*domain.Wallet, error)
}

// TransactionRepository provides access to wallet_transactions.
type TransactionRepository interface {
	// FindByReference checks the idempotency index for a duplicate entry.
	FindByReference(ctx context.Context, db DBTX, walletID uuid.UUID, referenceKey string) (*domain.Transaction, error)

	// Insert creates a new ledger entry with the post-update balance snapshot.
	// Returns the inserted row.
	Insert(ctx context.Context, db DBTX, params domain.PostLedgerEntryParams, wallet *domain.Wallet) (*domain.Transaction, error)

	// FindByID returns a transaction by ID.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Transaction, error)

	// ListByWallet returns a wallet's entries, newest first. Supports
	// cursor-based pagination.
	ListByWallet(ctx context.Context, db DBTX, walletID uuid.UUID, cursor *string, limit int) ([]domain.Transaction, error)

	// ListByBet returns all entries referencing a bet, oldest first.
	ListByBet(ctx context.Context, db DBTX, betID uuid.UUID) ([]domain.Transaction, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event within the same transaction as the state
	// change it describes.
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events for the outbox poller,
	// oldest first.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxDraft, error)

	// MarkPublished stamps events as delivered.
	MarkPublished(ctx context.Context, db DBTX, ids []int64) error
}
