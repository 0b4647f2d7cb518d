//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabong/platform/internal/domain"
	"github.com/sabong/platform/internal/service"
	"github.com/sabong/platform/test/integration/testutil"
)

func TestWallet_DepositReplaySameReference(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	first, err := env.App.WalletService.Deposit(ctx, user, service.DepositInput{
		Amount:       10_000,
		ReferenceKey: "dep-abc",
	})
	require.NoError(t, err)
	assert.False(t, first.Idempotent)
	assert.Equal(t, int64(10_000), first.Wallet.Available)

	replay, err := env.App.WalletService.Deposit(ctx, user, service.DepositInput{
		Amount:       10_000,
		ReferenceKey: "dep-abc",
	})
	require.NoError(t, err)
	assert.True(t, replay.Idempotent)
	assert.Equal(t, first.Entry.ID, replay.Entry.ID)

	testutil.AssertWallet(t, env, user, 10_000, 0)
}

func TestWallet_WithdrawInsufficientFunds(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	env.Fund(user, 5_000)

	_, err := env.App.WalletService.Withdraw(ctx, user, service.WithdrawInput{
		Amount:       10_000,
		ReferenceKey: "wd-1",
	})
	require.Error(t, err)
	var appErr *domain.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INSUFFICIENT_FUNDS", appErr.Code)

	testutil.AssertWallet(t, env, user, 5_000, 0)
}

func TestWallet_ConcurrentDepositsSerialize(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	env.Fund(user, 1_000)

	const deposits = 10
	errs := make(chan error, deposits)
	for i := 0; i < deposits; i++ {
		go func(n int) {
			_, err := env.App.WalletService.Deposit(ctx, user, service.DepositInput{
				Amount:       1_000,
				ReferenceKey: fmt.Sprintf("dep-%d", n),
			})
			errs <- err
		}(i)
	}
	for i := 0; i < deposits; i++ {
		require.NoError(t, <-errs)
	}

	testutil.AssertWallet(t, env, user, 11_000, 0)

	var count int
	require.NoError(t, env.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM wallet_transactions wt
		 JOIN wallets w ON w.id = wt.wallet_id
		 WHERE w.user_id = $1`, user).Scan(&count))
	assert.Equal(t, deposits+1, count)
}
