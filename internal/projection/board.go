package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sabong/platform/internal/domain"
)

// FightBoard is the cached tote-board view of a fight: what spectators watch
// between bet placements without hitting the fights table.
type FightBoard struct {
	FightID     string `json:"fight_id"`
	Status      string `json:"status"`
	Result      string `json:"result,omitempty"`
	TotalBets   int64  `json:"total_bets"`
	TotalAmount int64  `json:"total_amount"`
	UpdatedAt   string `json:"updated_at"`
}

const boardTTL = 5 * time.Minute

func boardKey(fightID string) string {
	return fmt.Sprintf("projection:fight_board:%s", fightID)
}

// Projector keeps fight boards current by applying relayed domain events.
type Projector struct {
	store Store
}

// NewProjector creates a projector over the given store.
func NewProjector(store Store) *Projector {
	return &Projector{store: store}
}

// Apply folds one outbox event into the board cache. Unknown or non-fight
// event types are ignored.
func (p *Projector) Apply(ctx context.Context, e domain.OutboxDraft) {
	if e.AggregateType != domain.AggregateFight {
		return
	}

	var payload struct {
		FightID     string  `json:"fight_id"`
		Status      string  `json:"status"`
		Result      *string `json:"result"`
		TotalBets   int64   `json:"total_bets"`
		TotalAmount int64   `json:"total_amount"`
	}
	if err := json.Unmarshal(e.Payload, &payload); err != nil || payload.FightID == "" {
		return
	}

	board := FightBoard{
		FightID:     payload.FightID,
		Status:      payload.Status,
		TotalBets:   payload.TotalBets,
		TotalAmount: payload.TotalAmount,
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if payload.Result != nil {
		board.Result = *payload.Result
	}
	_ = SetJSON(ctx, p.store, boardKey(board.FightID), board, boardTTL)
}

// GetBoard retrieves the cached board for a fight, or an error on cache miss.
func GetBoard(ctx context.Context, store Store, fightID string) (*FightBoard, error) {
	var b FightBoard
	if err := GetJSON(ctx, store, boardKey(fightID), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// InvalidateBoard removes a fight's cached board.
func InvalidateBoard(ctx context.Context, store Store, fightID string) error {
	return store.Delete(ctx, boardKey(fightID))
}
