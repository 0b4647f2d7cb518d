package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sabong/platform/internal/domain"
)

// ExecuteFreeze moves a bet stake from available to frozen.
// Pattern: Lock → Idempotency → Balance check → PostLedgerEntry
func (e *Engine) ExecuteFreeze(ctx context.Context, tx pgx.Tx, params domain.FreezeParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}

	wallet, err := e.LockWalletForUpdate(ctx, tx, params.UserID)
	if err != nil {
		return nil, fmt.Errorf("freeze: %w", err)
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

	betID := params.BetID
	fightID := params.FightID
	entry, updatedWallet, err := e.PostLedgerEntry(ctx, tx, domain.PostLedgerEntryParams{
		WalletID:     wallet.ID,
		Type:         domain.TxBetFreeze,
		Amount:       params.Amount,
		Update:       domain.BalanceUpdate{Available: -params.Amount, Frozen: params.Amount},
		ReferenceKey: strPtr(params.ReferenceKey),
		BetID:        &betID,
		FightID:      &fightID,
		Description:  "stake frozen for bet",
		Metadata:     ensureJSON(params.Metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("freeze post: %w", err)
	}

	return &domain.CommandResult{Entry: entry, Wallet: updatedWallet}, nil
}
