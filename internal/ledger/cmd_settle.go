package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sabong/platform/internal/domain"
)

// Settlement commands write exactly one ledger entry per bet. The frozen stake
// leaves the frozen pool and the payout (if any) lands on the available
// balance in the same balance update, so the snapshot on the entry reflects
// the whole settlement.

// ExecuteSettleWin settles a winning bet: stake leaves frozen, the full
// potential win is credited to available.
func (e *Engine) ExecuteSettleWin(ctx context.Context, tx pgx.Tx, params domain.SettleParams) (*domain.CommandResult, error) {
	return e.settle(ctx, tx, domain.TxBetWin, "bet won", params)
}

// ExecuteSettleLoss settles a losing bet: the stake leaves frozen and nothing
// comes back.
func (e *Engine) ExecuteSettleLoss(ctx context.Context, tx pgx.Tx, params domain.SettleParams) (*domain.CommandResult, error) {
	params.Payout = 0
	return e.settle(ctx, tx, domain.TxBetLoss, "bet lost", params)
}

// ExecuteSettleRefund settles a draw or cancelled-fight bet: the stake leaves
// frozen and comes straight back to available.
func (e *Engine) ExecuteSettleRefund(ctx context.Context, tx pgx.Tx, params domain.SettleParams) (*domain.CommandResult, error) {
	params.Payout = params.Stake
	return e.settle(ctx, tx, domain.TxBetRefund, "bet refunded", params)
}

func (e *Engine) settle(ctx context.Context, tx pgx.Tx, txType domain.TransactionType, description string, params domain.SettleParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Stake); err != nil {
		return nil, err
	}
	if params.Payout < 0 {
		return nil, domain.ErrValidation(fmt.Sprintf("payout must not be negative, got %d", params.Payout))
	}

	wallet, err := e.LockWalletForUpdate(ctx, tx, params.UserID)
	if err != nil {
		return nil, fmt.Errorf("settle %s: %w", txType, err)
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

	if wallet.Frozen < params.Stake {
		return nil, domain.ErrConflict(fmt.Sprintf(
			"settlement stake %d exceeds frozen amount %d", params.Stake, wallet.Frozen))
	}

	// Entry amount is the net effect on the wallet total.
	amount := params.Payout - params.Stake

	betID := params.BetID
	fightID := params.FightID
	entry, updatedWallet, err := e.PostLedgerEntry(ctx, tx, domain.PostLedgerEntryParams{
		WalletID:     wallet.ID,
		Type:         txType,
		Amount:       amount,
		Update:       domain.BalanceUpdate{Available: params.Payout, Frozen: -params.Stake},
		ReferenceKey: strPtr(params.ReferenceKey),
		BetID:        &betID,
		FightID:      &fightID,
		Description:  description,
		Metadata: mergeMeta(params.Metadata, map[string]interface{}{
			"stake":  params.Stake,
			"payout": params.Payout,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("settle %s post: %w", txType, err)
	}

	return &domain.CommandResult{Entry: entry, Wallet: updatedWallet}, nil
}
