package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sabong/platform/internal/domain"
)

// ExecuteDeposit credits the wallet's available balance.
// Pattern: Lock → Idempotency → PostLedgerEntry
func (e *Engine) ExecuteDeposit(ctx context.Context, tx pgx.Tx, params domain.DepositParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}

	wallet, err := e.LockWalletForUpdate(ctx, tx, params.UserID)
	if err != nil {
		return nil, fmt.Errorf("deposit: %w", err)
	}

	if params.ReferenceKey != "" {
		existing, err := e.FindExistingEntry(ctx, tx, wallet.ID, params.ReferenceKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &domain.CommandResult{Entry: existing, Wallet: wallet, Idempotent: true}, nil
		}
	}

	description := params.Description
	if description == "" {
		description = "deposit"
	}

	entry, updatedWallet, err := e.PostLedgerEntry(ctx, tx, domain.PostLedgerEntryParams{
		WalletID:     wallet.ID,
		Type:         domain.TxDeposit,
		Amount:       params.Amount,
		Update:       domain.BalanceUpdate{Available: params.Amount},
		ReferenceKey: strPtr(params.ReferenceKey),
		Description:  description,
		Metadata:     ensureJSON(params.Metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("deposit post: %w", err)
	}

	return &domain.CommandResult{Entry: entry, Wallet: updatedWallet}, nil
}
