package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/sabong/platform/internal/domain"
	"github.com/sabong/platform/internal/ledger"
	"github.com/sabong/platform/internal/policy"
	"github.com/sabong/platform/internal/settlement"
	"github.com/sabong/platform/internal/testutil"
)

// fixture wires the fight and bet services to an in-memory store, with an
// active derby and one fight open for betting.
type fixture struct {
	store  *testutil.Store
	engine *ledger.Engine
	logger *slog.Logger
	fights *FightService
	bets   *BetService
	admin  policy.Caller
	derby  *domain.Derby
	fight  *domain.Fight
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine := ledger.NewEngine(store.Wallets, store.Transactions, store.Outbox)
	settler := settlement.NewFightSettler(engine, store.Bets, store.Fights, store.Outbox)

	f := &fixture{
		store:  store,
		engine: engine,
		logger: logger,
		fights: NewFightService(store, store.Derbies, store.Fights, store.Outbox, settler, logger),
		bets:   NewBetService(store, store.Fights, store.Bets, engine, store.Outbox, policy.DefaultBetLimits(), nil, logger),
		admin:  policy.Caller{ID: uuid.New(), Role: policy.RoleAdmin},
	}
	f.derby = store.SeedDerby(domain.DerbyStatusActive, uuid.New())
	f.fight = store.SeedFight(f.derby.ID, 1, domain.FightStatusBetting)
	return f
}

// fund seeds a wallet for a fresh user and returns the user ID.
func (f *fixture) fund(available int64) uuid.UUID {
	userID := uuid.New()
	f.store.SeedWallet(userID, available, 0)
	return userID
}
