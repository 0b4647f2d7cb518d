package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sabong/platform/internal/domain"
)

const fightColumns = `id, derby_id, number, red_corner, blue_corner, weight_grams, notes,
	       status, result, betting_opened_at, betting_closed_at, started_at, ended_at,
	       total_bets, total_amount, created_at, updated_at`

type fightRepo struct{}

// NewFightRepository returns a pgx-backed FightRepository.
func NewFightRepository() FightRepository {
	return &fightRepo{}
}

func (r *fightRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Fight, error) {
	row := db.QueryRow(ctx, `
		SELECT `+fightColumns+`
		FROM fights WHERE id = $1`, id)
	return scanFight(row)
}

func (r *fightRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Fight, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+fightColumns+`
		FROM fights WHERE id = $1 FOR UPDATE`, id)
	return scanFight(row)
}

func (r *fightRepo) FindByDerbyAndNumber(ctx context.Context, db DBTX, derbyID uuid.UUID, number int) (*domain.Fight, error) {
	row := db.QueryRow(ctx, `
		SELECT `+fightColumns+`
		FROM fights WHERE derby_id = $1 AND number = $2`, derbyID, number)
	return scanFight(row)
}

func (r *fightRepo) Create(ctx context.Context, db DBTX, fight *domain.Fight) error {
	_, err := db.Exec(ctx, `
		INSERT INTO fights
		  (id, derby_id, number, red_corner, blue_corner, weight_grams, notes,
		   status, total_bets, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		fight.ID,
		fight.DerbyID,
		fight.Number,
		fight.RedCorner,
		fight.BlueCorner,
		fight.WeightGrams,
		fight.Notes,
		string(fight.Status),
		fight.TotalBets,
		fight.TotalAmount,
		fight.CreatedAt,
		fight.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert fight: %w", err)
	}
	return nil
}

func (r *fightRepo) UpdateState(ctx context.Context, tx pgx.Tx, fight *domain.Fight) error {
	_, err := tx.Exec(ctx, `
		UPDATE fights SET
		  status = $1, result = $2,
		  betting_opened_at = $3, betting_closed_at = $4, started_at = $5, ended_at = $6,
		  updated_at = now()
		WHERE id = $7`,
		string(fight.Status),
		fight.Result,
		fight.BettingOpenedAt,
		fight.BettingClosedAt,
		fight.StartedAt,
		fight.EndedAt,
		fight.ID,
	)
	if err != nil {
		return fmt.Errorf("update fight state: %w", err)
	}
	return nil
}

func (r *fightRepo) AddAggregates(ctx context.Context, tx pgx.Tx, id uuid.UUID, betsDelta int, amountDelta int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE fights SET
		  total_bets = total_bets + $1,
		  total_amount = total_amount + $2,
		  updated_at = now()
		WHERE id = $3`, betsDelta, amountDelta, id)
	if err != nil {
		return fmt.Errorf("update fight aggregates: %w", err)
	}
	return nil
}

func (r *fightRepo) ListByDerby(ctx context.Context, db DBTX, derbyID uuid.UUID) ([]domain.Fight, error) {
	rows, err := db.Query(ctx, `
		SELECT `+fightColumns+`
		FROM fights WHERE derby_id = $1
		ORDER BY number ASC`, derbyID)
	if err != nil {
		return nil, fmt.Errorf("query fights: %w", err)
	}
	defer rows.Close()

	var fights []domain.Fight
	for rows.Next() {
		var f domain.Fight
		if err := scanFightFields(rows, &f); err != nil {
			return nil, err
		}
		fights = append(fights, f)
	}
	return fights, rows.Err()
}

func scanFight(row pgx.Row) (*domain.Fight, error) {
	var f domain.Fight
	if err := scanFightFields(row, &f); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func scanFightFields(row pgx.Row, f *domain.Fight) error {
	err := row.Scan(
		&f.ID, &f.DerbyID, &f.Number, &f.RedCorner, &f.BlueCorner, &f.WeightGrams, &f.Notes,
		&f.Status, &f.Result, &f.BettingOpenedAt, &f.BettingClosedAt, &f.StartedAt, &f.EndedAt,
		&f.TotalBets, &f.TotalAmount, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return err
		}
		return fmt.Errorf("scan fight: %w", err)
	}
	return nil
}
