package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sabong/platform/internal/domain"
	"github.com/sabong/platform/internal/repository"
)

// ReplayResult holds the outcome of a deterministic replay run.
type ReplayResult struct {
	UserID     uuid.UUID
	EntryCount int
	Available  int64
	Frozen     int64
	Invariants []InvariantCheck
	AllPassed  bool
}

// InvariantCheck records a single invariant validation.
type InvariantCheck struct {
	Name   string
	Passed bool
	Detail string
}

// ReplayCommand is a single command in a replay sequence.
type ReplayCommand struct {
	Type   string // "deposit", "withdraw", "freeze", "release", "settle_win", "settle_loss", "settle_refund"
	Params interface{}
}

// ReplayHarness executes a deterministic sequence of wallet commands and
// validates invariants against the final state.
//
// Invariants:
//  1. Balance non-negativity: available >= 0 and frozen >= 0
//  2. Ledger parity: last entry snapshot matches the wallet row
//  3. Total conservation: final total equals the sum of all entry amounts
type ReplayHarness struct {
	engine  *Engine
	pool    *pgxpool.Pool
	entries repository.TransactionRepository
}

// NewReplayHarness creates a replay harness.
func NewReplayHarness(engine *Engine, pool *pgxpool.Pool, entries repository.TransactionRepository) *ReplayHarness {
	return &ReplayHarness{engine: engine, pool: pool, entries: entries}
}

// Execute runs a sequence of commands against a user's wallet and validates
// the invariants.
func (h *ReplayHarness) Execute(ctx context.Context, userID uuid.UUID, commands []ReplayCommand) (*ReplayResult, error) {
	var entryCount int
	var netAmount int64

	for i, cmd := range commands {
		err := h.executeCommand(ctx, userID, cmd, &entryCount, &netAmount)
		if err != nil {
			return nil, fmt.Errorf("replay command %d (%s): %w", i, cmd.Type, err)
		}
	}

	var finalWallet *domain.Wallet
	var lastEntry *domain.Transaction
	err := pgx.BeginTxFunc(ctx, h.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		var err error
		finalWallet, err = h.engine.LockWalletForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		entries, err := h.entries.ListByWallet(ctx, tx, finalWallet.ID, nil, 1)
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			lastEntry = &entries[0]
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("replay fetch final state: %w", err)
	}

	invariants := h.validateInvariants(finalWallet, lastEntry, netAmount)
	allPassed := true
	for _, inv := range invariants {
		if !inv.Passed {
			allPassed = false
		}
	}

	return &ReplayResult{
		UserID:     userID,
		EntryCount: entryCount,
		Available:  finalWallet.Available,
		Frozen:     finalWallet.Frozen,
		Invariants: invariants,
		AllPassed:  allPassed,
	}, nil
}

func (h *ReplayHarness) executeCommand(ctx context.Context, userID uuid.UUID, cmd ReplayCommand, entryCount *int, netAmount *int64) error {
	return pgx.BeginTxFunc(ctx, h.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		var result *domain.CommandResult
		var err error

		switch cmd.Type {
		case "deposit":
			p := cmd.Params.(domain.DepositParams)
			p.UserID = userID
			result, err = h.engine.ExecuteDeposit(ctx, tx, p)
		case "withdraw":
			p := cmd.Params.(domain.WithdrawParams)
			p.UserID = userID
			result, err = h.engine.ExecuteWithdraw(ctx, tx, p)
		case "freeze":
			p := cmd.Params.(domain.FreezeParams)
			p.UserID = userID
			result, err = h.engine.ExecuteFreeze(ctx, tx, p)
		case "release":
			p := cmd.Params.(domain.ReleaseParams)
			p.UserID = userID
			result, err = h.engine.ExecuteRelease(ctx, tx, p)
		case "settle_win":
			p := cmd.Params.(domain.SettleParams)
			p.UserID = userID
			result, err = h.engine.ExecuteSettleWin(ctx, tx, p)
		case "settle_loss":
			p := cmd.Params.(domain.SettleParams)
			p.UserID = userID
			result, err = h.engine.ExecuteSettleLoss(ctx, tx, p)
		case "settle_refund":
			p := cmd.Params.(domain.SettleParams)
			p.UserID = userID
			result, err = h.engine.ExecuteSettleRefund(ctx, tx, p)
		default:
			return fmt.Errorf("unknown command type: %s", cmd.Type)
		}

		if err != nil {
			return err
		}

		if !result.Idempotent {
			*entryCount++
			// Freeze and release move funds between the two pools; their
			// entry amount records the moved stake, not a change in total.
			if t := result.Entry.Type; t != domain.TxBetFreeze && t != domain.TxBetRelease {
				*netAmount += result.Entry.Amount
			}
		}
		return nil
	})
}

func (h *ReplayHarness) validateInvariants(wallet *domain.Wallet, lastEntry *domain.Transaction, netAmount int64) []InvariantCheck {
	checks := make([]InvariantCheck, 0, 3)

	balPass := wallet.Available >= 0 && wallet.Frozen >= 0
	checks = append(checks, InvariantCheck{
		Name:   "balance_non_negative",
		Passed: balPass,
		Detail: fmt.Sprintf("available=%d frozen=%d", wallet.Available, wallet.Frozen),
	})

	if lastEntry != nil {
		parityPass := lastEntry.AvailableAfter == wallet.Available &&
			lastEntry.FrozenAfter == wallet.Frozen
		checks = append(checks, InvariantCheck{
			Name:   "ledger_parity",
			Passed: parityPass,
			Detail: fmt.Sprintf("wallet=[%d,%d] lastEntry=[%d,%d]",
				wallet.Available, wallet.Frozen,
				lastEntry.AvailableAfter, lastEntry.FrozenAfter),
		})
	} else {
		checks = append(checks, InvariantCheck{
			Name:   "ledger_parity",
			Passed: true,
			Detail: "no entries (empty ledger)",
		})
	}

	// Excluding pool-to-pool moves, the running sum of entry amounts must
	// equal the wallet total.
	checks = append(checks, InvariantCheck{
		Name:   "total_conservation",
		Passed: wallet.Total() == netAmount,
		Detail: fmt.Sprintf("total=%d net=%d", wallet.Total(), netAmount),
	})

	return checks
}
