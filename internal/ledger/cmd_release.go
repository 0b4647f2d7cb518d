package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sabong/platform/internal/domain"
)

// ExecuteRelease returns a frozen stake to the available balance without a
// settlement outcome: the bet was cancelled, its window closed unmatched, or
// an accepted proposal committed less than the parent had frozen.
func (e *Engine) ExecuteRelease(ctx context.Context, tx pgx.Tx, params domain.ReleaseParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}

	wallet, err := e.LockWalletForUpdate(ctx, tx, params.UserID)
	if err != nil {
		return nil, fmt.Errorf("release: %w", err)
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

	if wallet.Frozen < params.Amount {
		return nil, domain.ErrConflict(fmt.Sprintf(
			"release %d exceeds frozen amount %d", params.Amount, wallet.Frozen))
	}

	betID := params.BetID
	fightID := params.FightID
	entry, updatedWallet, err := e.PostLedgerEntry(ctx, tx, domain.PostLedgerEntryParams{
		WalletID:     wallet.ID,
		Type:         domain.TxBetRelease,
		Amount:       params.Amount,
		Update:       domain.BalanceUpdate{Available: params.Amount, Frozen: -params.Amount},
		ReferenceKey: strPtr(params.ReferenceKey),
		BetID:        &betID,
		FightID:      &fightID,
		Description:  "stake released",
		Metadata:     ensureJSON(params.Metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("release post: %w", err)
	}

	return &domain.CommandResult{Entry: entry, Wallet: updatedWallet}, nil
}
