package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sabong/platform/internal/domain"
)

type derbyRepo struct{}

// NewDerbyRepository returns a pgx-backed DerbyRepository.
func NewDerbyRepository() DerbyRepository {
	return &derbyRepo{}
}

func (r *derbyRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Derby, error) {
	row := db.QueryRow(ctx, `
		SELECT id, name, status, operator_id, scheduled_at, total_fights, completed_fights, created_at, updated_at
		FROM derbies WHERE id = $1`, id)
	return scanDerby(row)
}

func (r *derbyRepo) Create(ctx context.Context, db DBTX, derby *domain.Derby) error {
	_, err := db.Exec(ctx, `
		INSERT INTO derbies (id, name, status, operator_id, scheduled_at, total_fights, completed_fights, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		derby.ID,
		derby.Name,
		string(derby.Status),
		derby.OperatorID,
		derby.ScheduledAt,
		derby.TotalFights,
		derby.CompletedFights,
		derby.CreatedAt,
		derby.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert derby: %w", err)
	}
	return nil
}

func (r *derbyRepo) UpdateStatus(ctx context.Context, db DBTX, id uuid.UUID, status domain.DerbyStatus) error {
	_, err := db.Exec(ctx, `
		UPDATE derbies SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("update derby status: %w", err)
	}
	return nil
}

func (r *derbyRepo) IncrementTotalFights(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE derbies SET total_fights = total_fights + 1, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment total_fights: %w", err)
	}
	return nil
}

func (r *derbyRepo) IncrementCompletedFights(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE derbies SET completed_fights = completed_fights + 1, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment completed_fights: %w", err)
	}
	return nil
}

func scanDerby(row pgx.Row) (*domain.Derby, error) {
	var d domain.Derby
	err := row.Scan(&d.ID, &d.Name, &d.Status, &d.OperatorID, &d.ScheduledAt,
		&d.TotalFights, &d.CompletedFights, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan derby: %w", err)
	}
	return &d, nil
}
