package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabong/platform/internal/domain"
	"github.com/sabong/platform/internal/policy"
)

func TestCreateFight(t *testing.T) {
	ctx := context.Background()

	t.Run("adds an upcoming fight to the derby card", func(t *testing.T) {
		f := newFixture(t)

		fight, err := f.fights.CreateFight(ctx, f.admin, CreateFightInput{
			DerbyID:     f.derby.ID,
			Number:      2,
			RedCorner:   "Lakay",
			BlueCorner:  "Bulik",
			WeightGrams: 2150,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.FightStatusUpcoming, fight.Status)
		assert.Nil(t, fight.BettingOpenedAt)

		derby := f.store.Derby(f.derby.ID)
		assert.Equal(t, 2, derby.TotalFights)
		assert.Len(t, f.store.OutboxEventsOfType(domain.EventFightCreated), 1)
	})

	t.Run("rejects a duplicate fight number", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.fights.CreateFight(ctx, f.admin, CreateFightInput{
			DerbyID: f.derby.ID, Number: 1, RedCorner: "Lakay", BlueCorner: "Bulik",
		})
		require.Error(t, err)
		assert.True(t, domain.HasCode(err, "CONFLICT"))
	})

	t.Run("rejects identical corners", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.fights.CreateFight(ctx, f.admin, CreateFightInput{
			DerbyID: f.derby.ID, Number: 2, RedCorner: "Lakay", BlueCorner: "Lakay",
		})
		require.Error(t, err)
		assert.True(t, domain.HasCode(err, "VALIDATION_ERROR"))
	})

	t.Run("operator can only manage their own derby", func(t *testing.T) {
		f := newFixture(t)
		outsider := policy.Caller{ID: uuid.New(), Role: policy.RoleOperator}

		_, err := f.fights.CreateFight(ctx, outsider, CreateFightInput{
			DerbyID: f.derby.ID, Number: 2, RedCorner: "Lakay", BlueCorner: "Bulik",
		})
		require.Error(t, err)
		assert.True(t, domain.HasCode(err, "UNAUTHORIZED"))
	})
}

func TestOpenBetting(t *testing.T) {
	ctx := context.Background()

	t.Run("moves an upcoming fight to betting", func(t *testing.T) {
		f := newFixture(t)
		upcoming := f.store.SeedFight(f.derby.ID, 2, domain.FightStatusUpcoming)

		fight, err := f.fights.OpenBetting(ctx, f.admin, upcoming.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.FightStatusBetting, fight.Status)
		assert.NotNil(t, fight.BettingOpenedAt)
		assert.Len(t, f.store.OutboxEventsOfType(domain.EventFightBettingOpened), 1)
	})

	t.Run("requires an active derby", func(t *testing.T) {
		f := newFixture(t)
		scheduled := f.store.SeedDerby(domain.DerbyStatusScheduled, uuid.New())
		upcoming := f.store.SeedFight(scheduled.ID, 1, domain.FightStatusUpcoming)

		_, err := f.fights.OpenBetting(ctx, f.admin, upcoming.ID)
		require.Error(t, err)
		assert.True(t, domain.HasCode(err, "INVALID_STATE_TRANSITION"))
	})

	t.Run("rejects reopening a live fight", func(t *testing.T) {
		f := newFixture(t)
		live := f.store.SeedFight(f.derby.ID, 2, domain.FightStatusLive)

		_, err := f.fights.OpenBetting(ctx, f.admin, live.ID)
		require.Error(t, err)
		assert.True(t, domain.HasCode(err, "INVALID_STATE_TRANSITION"))
	})
}

func TestCloseBetting(t *testing.T) {
	ctx := context.Background()

	t.Run("sweeps unmatched bets and keeps matched pairs", func(t *testing.T) {
		f := newFixture(t)
		alice := f.fund(50_000)
		bob := f.fund(50_000)
		carol := f.fund(50_000)

		matched, err := f.bets.PlaceBet(ctx, alice, PlaceBetInput{FightID: f.fight.ID, Side: domain.BetSideRed, Amount: 10_000})
		require.NoError(t, err)
		_, err = f.bets.PlaceBet(ctx, bob, PlaceBetInput{FightID: f.fight.ID, Side: domain.BetSideBlue, Amount: 10_000})
		require.NoError(t, err)
		unmatched, err := f.bets.PlaceBet(ctx, carol, PlaceBetInput{FightID: f.fight.ID, Side: domain.BetSideRed, Amount: 4_000})
		require.NoError(t, err)

		fight, err := f.fights.CloseBetting(ctx, f.admin, f.fight.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.FightStatusLive, fight.Status)
		assert.NotNil(t, fight.BettingClosedAt)
		assert.NotNil(t, fight.StartedAt)

		assert.Equal(t, domain.BetStatusActive, f.store.Bet(matched.ID).Status)
		assert.Equal(t, domain.BetStatusCancelled, f.store.Bet(unmatched.ID).Status)

		carolWallet := f.store.Wallet(carol)
		assert.Equal(t, int64(50_000), carolWallet.Available)
		assert.Equal(t, int64(0), carolWallet.Frozen)

		got := f.store.Fight(f.fight.ID)
		assert.Equal(t, int64(2), got.TotalBets)
		assert.Equal(t, int64(20_000), got.TotalAmount)
	})

	t.Run("voids open counter-offers before sweeping", func(t *testing.T) {
		f := newFixture(t)
		alice := f.fund(50_000)
		bob := f.fund(50_000)

		parent, err := f.bets.PlaceBet(ctx, alice, PlaceBetInput{FightID: f.fight.ID, Side: domain.BetSideRed, Amount: 10_000})
		require.NoError(t, err)
		child, err := f.bets.ProposeCounter(ctx, bob, ProposeCounterInput{ParentBetID: parent.ID, Amount: 6_000})
		require.NoError(t, err)

		_, err = f.fights.CloseBetting(ctx, f.admin, f.fight.ID)
		require.NoError(t, err)

		// The offer is voided and the unmatched parent is swept with it.
		assert.Equal(t, domain.BetStatusCancelled, f.store.Bet(child.ID).Status)
		assert.Equal(t, domain.BetStatusCancelled, f.store.Bet(parent.ID).Status)
		assert.Empty(t, f.store.EntriesForBet(child.ID))

		aliceWallet := f.store.Wallet(alice)
		assert.Equal(t, int64(50_000), aliceWallet.Available)
		assert.Equal(t, int64(0), aliceWallet.Frozen)

		got := f.store.Fight(f.fight.ID)
		assert.Equal(t, int64(0), got.TotalBets)
		assert.Equal(t, int64(0), got.TotalAmount)
	})
}

func TestRecordResult(t *testing.T) {
	ctx := context.Background()

	// seedMatchedPair places an equal matched pair and returns the bet IDs.
	seedMatchedPair := func(t *testing.T, f *fixture, red, blue uuid.UUID, amount int64) (uuid.UUID, uuid.UUID) {
		t.Helper()
		redBet, err := f.bets.PlaceBet(ctx, red, PlaceBetInput{FightID: f.fight.ID, Side: domain.BetSideRed, Amount: amount})
		require.NoError(t, err)
		blueBet, err := f.bets.PlaceBet(ctx, blue, PlaceBetInput{FightID: f.fight.ID, Side: domain.BetSideBlue, Amount: amount})
		require.NoError(t, err)
		return redBet.ID, blueBet.ID
	}

	t.Run("pays winners from losers and conserves total funds", func(t *testing.T) {
		f := newFixture(t)
		alice := f.fund(50_000)
		bob := f.fund(50_000)
		carol := f.fund(50_000)
		dave := f.fund(50_000)

		redA, blueB := seedMatchedPair(t, f, alice, bob, 10_000)
		redC, blueD := seedMatchedPair(t, f, carol, dave, 5_000)
		_, err := f.fights.CloseBetting(ctx, f.admin, f.fight.ID)
		require.NoError(t, err)

		fight, err := f.fights.RecordResult(ctx, f.admin, f.fight.ID, domain.FightResultRed)
		require.NoError(t, err)
		assert.Equal(t, domain.FightStatusCompleted, fight.Status)
		require.NotNil(t, fight.Result)
		assert.Equal(t, domain.FightResultRed, *fight.Result)
		assert.NotNil(t, fight.EndedAt)

		// Red side wins even money, blue side loses its stake.
		assert.Equal(t, int64(60_000), f.store.Wallet(alice).Available)
		assert.Equal(t, int64(40_000), f.store.Wallet(bob).Available)
		assert.Equal(t, int64(55_000), f.store.Wallet(carol).Available)
		assert.Equal(t, int64(45_000), f.store.Wallet(dave).Available)
		for _, u := range []uuid.UUID{alice, bob, carol, dave} {
			assert.Equal(t, int64(0), f.store.Wallet(u).Frozen)
		}

		// Winners' gains equal losers' losses.
		var total int64
		for _, u := range []uuid.UUID{alice, bob, carol, dave} {
			total += f.store.Wallet(u).Total()
		}
		assert.Equal(t, int64(200_000), total)

		for id, want := range map[uuid.UUID]domain.BetOutcome{
			redA: domain.BetOutcomeWin, blueB: domain.BetOutcomeLoss,
			redC: domain.BetOutcomeWin, blueD: domain.BetOutcomeLoss,
		} {
			bet := f.store.Bet(id)
			assert.Equal(t, domain.BetStatusCompleted, bet.Status)
			require.NotNil(t, bet.Outcome)
			assert.Equal(t, want, *bet.Outcome)
		}

		derby := f.store.Derby(f.derby.ID)
		assert.Equal(t, 1, derby.CompletedFights)
		assert.Len(t, f.store.OutboxEventsOfType(domain.EventBetSettled), 4)
		assert.Len(t, f.store.OutboxEventsOfType(domain.EventFightCompleted), 1)
	})

	t.Run("draw refunds both sides", func(t *testing.T) {
		f := newFixture(t)
		alice := f.fund(50_000)
		bob := f.fund(50_000)

		redBet, blueBet := seedMatchedPair(t, f, alice, bob, 10_000)
		_, err := f.fights.CloseBetting(ctx, f.admin, f.fight.ID)
		require.NoError(t, err)

		_, err = f.fights.RecordResult(ctx, f.admin, f.fight.ID, domain.FightResultDraw)
		require.NoError(t, err)

		for _, u := range []uuid.UUID{alice, bob} {
			wallet := f.store.Wallet(u)
			assert.Equal(t, int64(50_000), wallet.Available)
			assert.Equal(t, int64(0), wallet.Frozen)
		}
		for _, id := range []uuid.UUID{redBet, blueBet} {
			bet := f.store.Bet(id)
			require.NotNil(t, bet.Outcome)
			assert.Equal(t, domain.BetOutcomeDraw, *bet.Outcome)
		}
	})

	t.Run("result cancelled refunds every active bet", func(t *testing.T) {
		f := newFixture(t)
		alice := f.fund(50_000)
		bob := f.fund(50_000)

		redBet, blueBet := seedMatchedPair(t, f, alice, bob, 10_000)
		_, err := f.fights.CloseBetting(ctx, f.admin, f.fight.ID)
		require.NoError(t, err)

		fight, err := f.fights.RecordResult(ctx, f.admin, f.fight.ID, domain.FightResultCancelled)
		require.NoError(t, err)
		assert.Equal(t, domain.FightStatusCompleted, fight.Status)
		require.NotNil(t, fight.Result)
		assert.Equal(t, domain.FightResultCancelled, *fight.Result)

		for _, u := range []uuid.UUID{alice, bob} {
			wallet := f.store.Wallet(u)
			assert.Equal(t, int64(50_000), wallet.Available)
			assert.Equal(t, int64(0), wallet.Frozen)
		}
		for _, id := range []uuid.UUID{redBet, blueBet} {
			bet := f.store.Bet(id)
			assert.Equal(t, domain.BetStatusCompleted, bet.Status)
			require.NotNil(t, bet.Outcome)
			assert.Equal(t, domain.BetOutcomeCancelled, *bet.Outcome)

			entries := f.store.EntriesForBet(id)
			var refunds int
			for _, e := range entries {
				if e.Type == domain.TxBetRefund {
					refunds++
				}
			}
			assert.Equal(t, 1, refunds)
		}
	})

	t.Run("rejects a second result", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.fights.CloseBetting(ctx, f.admin, f.fight.ID)
		require.NoError(t, err)
		_, err = f.fights.RecordResult(ctx, f.admin, f.fight.ID, domain.FightResultRed)
		require.NoError(t, err)

		_, err = f.fights.RecordResult(ctx, f.admin, f.fight.ID, domain.FightResultBlue)
		require.Error(t, err)
		assert.True(t, domain.HasCode(err, "INVALID_STATE_TRANSITION"))
	})

	t.Run("rejects recording before the fight is live", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.fights.RecordResult(ctx, f.admin, f.fight.ID, domain.FightResultRed)
		require.Error(t, err)
		assert.True(t, domain.HasCode(err, "INVALID_STATE_TRANSITION"))
	})

	t.Run("rejects an unknown result", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.fights.RecordResult(ctx, f.admin, f.fight.ID, "tie")
		require.Error(t, err)
		assert.True(t, domain.HasCode(err, "VALIDATION_ERROR"))
	})
}

func TestCancelFight(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds matched bets and releases pending ones", func(t *testing.T) {
		f := newFixture(t)
		alice := f.fund(50_000)
		bob := f.fund(50_000)
		carol := f.fund(50_000)

		matched, err := f.bets.PlaceBet(ctx, alice, PlaceBetInput{FightID: f.fight.ID, Side: domain.BetSideRed, Amount: 10_000})
		require.NoError(t, err)
		_, err = f.bets.PlaceBet(ctx, bob, PlaceBetInput{FightID: f.fight.ID, Side: domain.BetSideBlue, Amount: 10_000})
		require.NoError(t, err)
		pending, err := f.bets.PlaceBet(ctx, carol, PlaceBetInput{FightID: f.fight.ID, Side: domain.BetSideRed, Amount: 4_000})
		require.NoError(t, err)

		fight, err := f.fights.CancelFight(ctx, f.admin, f.fight.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.FightStatusCancelled, fight.Status)
		assert.NotNil(t, fight.EndedAt)

		// Nobody keeps or loses money on a cancelled fight.
		for _, u := range []uuid.UUID{alice, bob, carol} {
			wallet := f.store.Wallet(u)
			assert.Equal(t, int64(50_000), wallet.Available)
			assert.Equal(t, int64(0), wallet.Frozen)
		}

		got := f.store.Bet(matched.ID)
		assert.Equal(t, domain.BetStatusCompleted, got.Status)
		require.NotNil(t, got.Outcome)
		assert.Equal(t, domain.BetOutcomeCancelled, *got.Outcome)
		assert.Equal(t, domain.BetStatusCancelled, f.store.Bet(pending.ID).Status)

		assert.Len(t, f.store.OutboxEventsOfType(domain.EventFightCancelled), 1)
	})

	t.Run("cancels from live after betting closed", func(t *testing.T) {
		f := newFixture(t)
		alice := f.fund(50_000)
		bob := f.fund(50_000)

		_, err := f.bets.PlaceBet(ctx, alice, PlaceBetInput{FightID: f.fight.ID, Side: domain.BetSideRed, Amount: 10_000})
		require.NoError(t, err)
		_, err = f.bets.PlaceBet(ctx, bob, PlaceBetInput{FightID: f.fight.ID, Side: domain.BetSideBlue, Amount: 10_000})
		require.NoError(t, err)
		_, err = f.fights.CloseBetting(ctx, f.admin, f.fight.ID)
		require.NoError(t, err)

		_, err = f.fights.CancelFight(ctx, f.admin, f.fight.ID)
		require.NoError(t, err)

		for _, u := range []uuid.UUID{alice, bob} {
			assert.Equal(t, int64(50_000), f.store.Wallet(u).Available)
			assert.Equal(t, int64(0), f.store.Wallet(u).Frozen)
		}
	})

	t.Run("rejects cancelling a completed fight", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.fights.CloseBetting(ctx, f.admin, f.fight.ID)
		require.NoError(t, err)
		_, err = f.fights.RecordResult(ctx, f.admin, f.fight.ID, domain.FightResultRed)
		require.NoError(t, err)

		_, err = f.fights.CancelFight(ctx, f.admin, f.fight.ID)
		require.Error(t, err)
		assert.True(t, domain.HasCode(err, "INVALID_STATE_TRANSITION"))
	})
}
