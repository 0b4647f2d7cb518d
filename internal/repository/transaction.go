package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sabong/platform/internal/domain"
)

const transactionColumns = `id, wallet_id, type, amount, available_after, frozen_after,
	       reference_key, bet_id, fight_id, description, metadata, created_at`

type transactionRepo struct{}

// NewTransactionRepository returns a pgx-backed TransactionRepository.
func NewTransactionRepository() TransactionRepository {
	return &transactionRepo{}
}

func (r *transactionRepo) FindByReference(ctx context.Context, db DBTX, walletID uuid.UUID, referenceKey string) (*domain.Transaction, error) {
	row := db.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM wallet_transactions
		WHERE wallet_id = $1 AND reference_key = $2`, walletID, referenceKey)
	return scanTransaction(row)
}

func (r *transactionRepo) Insert(ctx context.Context, db DBTX, params domain.PostLedgerEntryParams, wallet *domain.Wallet) (*domain.Transaction, error) {
	meta := params.Metadata
	if meta == nil {
		meta = json.RawMessage(`{}`)
	}

	row := db.QueryRow(ctx, `
		INSERT INTO wallet_transactions
		  (wallet_id, type, amount, available_after, frozen_after,
		   reference_key, bet_id, fight_id, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+transactionColumns,
		params.WalletID,
		string(params.Type),
		params.Amount,
		wallet.Available,
		wallet.Frozen,
		params.ReferenceKey,
		params.BetID,
		params.FightID,
		params.Description,
		meta,
	)
	return scanTransaction(row)
}

func (r *transactionRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Transaction, error) {
	row := db.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM wallet_transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

func (r *transactionRepo) ListByWallet(ctx context.Context, db DBTX, walletID uuid.UUID, cursor *string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	if cursor != nil {
		rows, err = db.Query(ctx, `
			SELECT `+transactionColumns+`
			FROM wallet_transactions
			WHERE wallet_id = $1
			  AND (created_at, id) <= ((SELECT created_at, id FROM wallet_transactions WHERE id = $2))
			ORDER BY created_at DESC, id DESC
			LIMIT $3`, walletID, *cursor, limit)
	} else {
		rows, err = db.Query(ctx, `
			SELECT `+transactionColumns+`
			FROM wallet_transactions
			WHERE wallet_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`, walletID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func (r *transactionRepo) ListByBet(ctx context.Context, db DBTX, betID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM wallet_transactions
		WHERE bet_id = $1
		ORDER BY created_at ASC`, betID)
	if err != nil {
		return nil, fmt.Errorf("query bet transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := row.Scan(
		&tx.ID, &tx.WalletID, &tx.Type, &tx.Amount, &tx.AvailableAfter, &tx.FrozenAfter,
		&tx.ReferenceKey, &tx.BetID, &tx.FightID, &tx.Description, &tx.Metadata, &tx.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return &tx, nil
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		err := rows.Scan(
			&tx.ID, &tx.WalletID, &tx.Type, &tx.Amount, &tx.AvailableAfter, &tx.FrozenAfter,
			&tx.ReferenceKey, &tx.BetID, &tx.FightID, &tx.Description, &tx.Metadata, &tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
