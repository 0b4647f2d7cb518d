//go:build integration

package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sabong/platform/internal/domain"
	"github.com/sabong/platform/internal/policy"
	"github.com/sabong/platform/internal/service"
)

// Staff returns an operator caller authorized to run fight control.
func Staff() policy.Caller {
	return policy.Caller{ID: uuid.New(), Role: policy.RoleOperator}
}

// SeedDerby inserts an active derby run by the given operator.
func (env *TestEnv) SeedDerby(operatorID uuid.UUID) *domain.Derby {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	derby := &domain.Derby{
		ID:          uuid.New(),
		Name:        "Test Derby",
		Status:      domain.DerbyStatusActive,
		OperatorID:  operatorID,
		ScheduledAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := env.App.Derbies.Create(ctx, env.Pool, derby); err != nil {
		env.t.Fatalf("SeedDerby: %v", err)
	}
	return derby
}

// Fund deposits into a user's wallet, creating it on first use.
func (env *TestEnv) Fund(userID uuid.UUID, amount int64) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.App.WalletService.Deposit(ctx, userID, service.DepositInput{
		Amount:       amount,
		ReferenceKey: "fund-" + uuid.NewString(),
		Description:  "test funding",
	})
	if err != nil {
		env.t.Fatalf("Fund: %v", err)
	}
}

// AssertWallet queries the wallets table and asserts both balances.
func AssertWallet(t *testing.T, env *TestEnv, userID uuid.UUID, available, frozen int64) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var avail, froz int64
	err := env.Pool.QueryRow(ctx,
		"SELECT available_balance, frozen_amount FROM wallets WHERE user_id = $1",
		userID).Scan(&avail, &froz)
	if err != nil {
		t.Fatalf("AssertWallet: query: %v", err)
	}
	if avail != available {
		t.Errorf("available_balance: expected %d, got %d", available, avail)
	}
	if froz != frozen {
		t.Errorf("frozen_amount: expected %d, got %d", frozen, froz)
	}
}

// BetRow holds the columns tests assert on directly.
type BetRow struct {
	Status       string
	Outcome      *string
	Amount       int64
	PotentialWin int64
}

// FetchBet reads a bet's settlement-relevant columns.
func FetchBet(t *testing.T, env *TestEnv, betID uuid.UUID) BetRow {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var row BetRow
	err := env.Pool.QueryRow(ctx,
		"SELECT status, outcome, amount, potential_win FROM bets WHERE id = $1",
		betID).Scan(&row.Status, &row.Outcome, &row.Amount, &row.PotentialWin)
	if err != nil {
		t.Fatalf("FetchBet: query: %v", err)
	}
	return row
}

// CountOutboxEvents returns the number of outbox rows for an aggregate.
func CountOutboxEvents(t *testing.T, env *TestEnv, aggregateID string) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM event_outbox WHERE aggregate_id = $1", aggregateID).Scan(&count)
	if err != nil {
		t.Fatalf("CountOutboxEvents: %v", err)
	}
	return count
}

// CountUnpublished returns the number of outbox rows the relay has not
// marked published yet.
func CountUnpublished(t *testing.T, env *TestEnv) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM event_outbox WHERE published_at IS NULL").Scan(&count)
	if err != nil {
		t.Fatalf("CountUnpublished: %v", err)
	}
	return count
}
