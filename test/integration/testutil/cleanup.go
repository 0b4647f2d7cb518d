//go:build integration

package testutil

import (
	"context"
	"time"
)

// CleanAll truncates every table so each test starts from an empty database.
func (env *TestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tables := []string{
		"event_outbox",
		"wallet_transactions",
		"bets",
		"fights",
		"derbies",
		"wallets",
	}

	for _, table := range tables {
		if _, err := env.Pool.Exec(ctx, "TRUNCATE TABLE "+table+" RESTART IDENTITY CASCADE"); err != nil {
			env.t.Fatalf("CleanAll: truncate %s: %v", table, err)
		}
	}
}
