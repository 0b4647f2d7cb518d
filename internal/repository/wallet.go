package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sabong/platform/internal/domain"
)

type walletRepo struct{}

// NewWalletRepository returns a pgx-backed WalletRepository.
func NewWalletRepository() WalletRepository {
	return &walletRepo{}
}

func (r *walletRepo) FindByUser(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.Wallet, error) {
	row := db.QueryRow(ctx, `
		SELECT id, user_id, available_balance, frozen_amount, created_at, updated_at
		FROM wallets WHERE user_id = $1`, userID)
	return scanWallet(row)
}

func (r *walletRepo) LockForUpdateByUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, user_id, available_balance, frozen_amount, created_at, updated_at
		FROM wallets WHERE user_id = $1 FOR UPDATE`, userID)
	return scanWallet(row)
}

func (r *walletRepo) Create(ctx context.Context, db DBTX, wallet *domain.Wallet) error {
	_, err := db.Exec(ctx, `
		INSERT INTO wallets (id, user_id, available_balance, frozen_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		wallet.ID,
		wallet.UserID,
		wallet.Available,
		wallet.Frozen,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// UpdateBalances uses server-side arithmetic with dynamic SET clauses. The
// >= 0 CHECK constraints are the last line of defense against races the
// row lock should already have excluded.
func (r *walletRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, delta domain.BalanceUpdate) (*domain.Wallet, error) {
	setClauses := []string{"updated_at = now()"}
	args := []interface{}{}
	argIdx := 1

	if delta.HasAvailableDelta() {
		setClauses = append(setClauses, fmt.Sprintf("available_balance = available_balance + $%d", argIdx))
		args = append(args, delta.Available)
		argIdx++
	}
	if delta.HasFrozenDelta() {
		setClauses = append(setClauses, fmt.Sprintf("frozen_amount = frozen_amount + $%d", argIdx))
		args = append(args, delta.Frozen)
		argIdx++
	}

	args = append(args, walletID)
	query := fmt.Sprintf(`
		UPDATE wallets SET %s
		WHERE id = $%d
		RETURNING id, user_id, available_balance, frozen_amount, created_at, updated_at`,
		strings.Join(setClauses, ", "), argIdx)

	row := tx.QueryRow(ctx, query, args...)
	return scanWallet(row)
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.Available, &w.Frozen, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	return &w, nil
}
