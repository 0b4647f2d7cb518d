package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sabong/platform/internal/domain"
	"github.com/sabong/platform/internal/repository"
)

// Engine provides the 3 foundational wallet operations:
//  1. LockWalletForUpdate — row-level pessimistic lock
//  2. FindExistingEntry — idempotency check
//  3. PostLedgerEntry — atomic balance update + append-only insert + outbox event
type Engine struct {
	wallets repository.WalletRepository
	entries repository.TransactionRepository
	outbox  repository.OutboxRepository
}

// NewEngine creates a wallet engine with the given repositories.
func NewEngine(
	wallets repository.WalletRepository,
	entries repository.TransactionRepository,
	outbox repository.OutboxRepository,
) *Engine {
	return &Engine{
		wallets: wallets,
		entries: entries,
		outbox:  outbox,
	}
}

// LockWalletForUpdate acquires a row-level lock on the user's wallet and
// returns it. Must be called within a transaction.
func (e *Engine) LockWalletForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := e.wallets.LockForUpdateByUser(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	if wallet == nil {
		return nil, domain.ErrNotFound("wallet for user", userID.String())
	}
	return wallet, nil
}

// FindExistingEntry checks whether a ledger entry with the same reference key
// already exists on a wallet. Returns nil if no duplicate is found.
func (e *Engine) FindExistingEntry(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, referenceKey string) (*domain.Transaction, error) {
	existing, err := e.entries.FindByReference(ctx, tx, walletID, referenceKey)
	if err != nil {
		return nil, fmt.Errorf("find existing entry: %w", err)
	}
	return existing, nil
}

// PostLedgerEntry atomically updates wallet balances and inserts a ledger
// entry. This is the core write primitive; every command delegates to it.
//
// Steps:
//  1. Update wallet balances using server-side arithmetic (dynamic SET clauses)
//  2. Insert transaction with the post-update balance snapshot
//  3. Insert outbox event
//
// All 3 steps run within the caller's transaction, so a failure anywhere
// rolls back everything and neither balances nor the ledger drift.
func (e *Engine) PostLedgerEntry(ctx context.Context, tx pgx.Tx, params domain.PostLedgerEntryParams) (*domain.Transaction, *domain.Wallet, error) {
	updatedWallet, err := e.wallets.UpdateBalances(ctx, tx, params.WalletID, params.Update)
	if err != nil {
		return nil, nil, fmt.Errorf("update balances: %w", err)
	}

	entry, err := e.entries.Insert(ctx, tx, params, updatedWallet)
	if err != nil {
		return nil, nil, fmt.Errorf("insert transaction: %w", err)
	}

	event := domain.NewWalletEntryPostedEvent(entry)
	if err := e.outbox.Insert(ctx, tx, event); err != nil {
		return nil, nil, fmt.Errorf("insert outbox event: %w", err)
	}

	return entry, updatedWallet, nil
}
