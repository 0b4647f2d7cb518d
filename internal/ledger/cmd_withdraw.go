package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sabong/platform/internal/domain"
)

// ExecuteWithdraw debits the wallet's available balance. Frozen funds are
// committed to open bets and never withdrawable.
func (e *Engine) ExecuteWithdraw(ctx context.Context, tx pgx.Tx, params domain.WithdrawParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}

	wallet, err := e.LockWalletForUpdate(ctx, tx, params.UserID)
	if err != nil {
		return nil, fmt.Errorf("withdraw: %w", err)
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

	if !wallet.CanCover(params.Amount) {
		return nil, domain.ErrInsufficientFunds()
	}

	description := params.Description
	if description == "" {
		description = "withdrawal"
	}

	entry, updatedWallet, err := e.PostLedgerEntry(ctx, tx, domain.PostLedgerEntryParams{
		WalletID:     wallet.ID,
		Type:         domain.TxWithdrawal,
		Amount:       -params.Amount,
		Update:       domain.BalanceUpdate{Available: -params.Amount},
		ReferenceKey: strPtr(params.ReferenceKey),
		Description:  description,
		Metadata:     ensureJSON(params.Metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("withdraw post: %w", err)
	}

	return &domain.CommandResult{Entry: entry, Wallet: updatedWallet}, nil
}
