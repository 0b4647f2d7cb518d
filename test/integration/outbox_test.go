//go:build integration

package integration

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabong/platform/internal/domain"
	"github.com/sabong/platform/internal/infra"
	"github.com/sabong/platform/internal/projection"
	"github.com/sabong/platform/internal/service"
	"github.com/sabong/platform/test/integration/testutil"
)

func TestOutboxRelay_MarksPublishedAndProjectsBoard(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	staff := testutil.Staff()
	derby := env.SeedDerby(staff.ID)

	fight, err := env.App.FightService.CreateFight(ctx, staff, service.CreateFightInput{
		DerbyID:    derby.ID,
		Number:     1,
		RedCorner:  "Thunder",
		BlueCorner: "Lightning",
	})
	require.NoError(t, err)
	_, err = env.App.FightService.OpenBetting(ctx, staff, fight.ID)
	require.NoError(t, err)

	require.Greater(t, testutil.CountUnpublished(t, env), 0)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	metrics, _ := infra.NewMetrics()
	boards := projection.NewInMemoryStore()

	poller := infra.NewOutboxPoller(env.Pool, env.App.Outbox,
		infra.NewKafkaProducer("", false, logger),
		metrics, logger, 20*time.Millisecond, 100,
		projection.NewProjector(boards))

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	poller.Start(pollCtx)

	deadline := time.Now().Add(3 * time.Second)
	for testutil.CountUnpublished(t, env) > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("outbox rows still unpublished after %v", 3*time.Second)
		}
		time.Sleep(25 * time.Millisecond)
	}

	board, err := projection.GetBoard(ctx, boards, fight.ID.String())
	require.NoError(t, err)
	assert.Equal(t, string(domain.FightStatusBetting), board.Status)
	assert.Zero(t, board.TotalBets)
}
