package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sabong/platform/internal/domain"
)

const betColumns = `id, fight_id, user_id, side, amount, potential_win, status, outcome,
	       parent_bet_id, proposal_status, proposed_amount, created_at, updated_at`

type betRepo struct{}

// NewBetRepository returns a pgx-backed BetRepository.
func NewBetRepository() BetRepository {
	return &betRepo{}
}

func (r *betRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Bet, error) {
	row := db.QueryRow(ctx, `
		SELECT `+betColumns+`
		FROM bets WHERE id = $1`, id)
	return scanBet(row)
}

func (r *betRepo) Create(ctx context.Context, db DBTX, bet *domain.Bet) error {
	_, err := db.Exec(ctx, `
		INSERT INTO bets
		  (id, fight_id, user_id, side, amount, potential_win, status, outcome,
		   parent_bet_id, proposal_status, proposed_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		bet.ID,
		bet.FightID,
		bet.UserID,
		string(bet.Side),
		bet.Amount,
		bet.PotentialWin,
		string(bet.Status),
		bet.Outcome,
		bet.ParentBetID,
		bet.ProposalStatus,
		bet.ProposedAmount,
		bet.CreatedAt,
		bet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert bet: %w", err)
	}
	return nil
}

func (r *betRepo) Update(ctx context.Context, tx pgx.Tx, bet *domain.Bet) error {
	_, err := tx.Exec(ctx, `
		UPDATE bets SET
		  amount = $1, potential_win = $2, status = $3, outcome = $4,
		  proposal_status = $5, proposed_amount = $6, updated_at = now()
		WHERE id = $7`,
		bet.Amount,
		bet.PotentialWin,
		string(bet.Status),
		bet.Outcome,
		bet.ProposalStatus,
		bet.ProposedAmount,
		bet.ID,
	)
	if err != nil {
		return fmt.Errorf("update bet: %w", err)
	}
	return nil
}

func (r *betRepo) ListByFightAndStatuses(ctx context.Context, db DBTX, fightID uuid.UUID, statuses []domain.BetStatus) ([]domain.Bet, error) {
	vals := make([]string, len(statuses))
	for i, s := range statuses {
		vals[i] = string(s)
	}
	rows, err := db.Query(ctx, `
		SELECT `+betColumns+`
		FROM bets
		WHERE fight_id = $1 AND status = ANY($2)
		ORDER BY created_at ASC, id ASC`, fightID, vals)
	if err != nil {
		return nil, fmt.Errorf("query fight bets: %w", err)
	}
	defer rows.Close()

	return collectBets(rows)
}

// FindOldestPendingMatch locks the matched row so a concurrent placement
// cannot pair against it twice.
func (r *betRepo) FindOldestPendingMatch(ctx context.Context, tx pgx.Tx, fightID uuid.UUID, side domain.BetSide, amount int64, excludeUser uuid.UUID) (*domain.Bet, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+betColumns+`
		FROM bets
		WHERE fight_id = $1 AND side = $2 AND amount = $3
		  AND status = 'pending'
		  AND user_id <> $4
		  AND (proposal_status IS NULL OR proposal_status <> 'offered')
		ORDER BY created_at ASC, id ASC
		LIMIT 1
		FOR UPDATE`, fightID, string(side), amount, excludeUser)
	return scanBet(row)
}

func (r *betRepo) FindProposalChild(ctx context.Context, db DBTX, parentID uuid.UUID) (*domain.Bet, error) {
	row := db.QueryRow(ctx, `
		SELECT `+betColumns+`
		FROM bets
		WHERE parent_bet_id = $1 AND status = 'proposed' AND proposal_status = 'offered'
		ORDER BY created_at DESC
		LIMIT 1`, parentID)
	return scanBet(row)
}

func (r *betRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.Bet, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := db.Query(ctx, `
		SELECT `+betColumns+`
		FROM bets
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query user bets: %w", err)
	}
	defer rows.Close()

	return collectBets(rows)
}

func scanBet(row pgx.Row) (*domain.Bet, error) {
	var b domain.Bet
	err := row.Scan(
		&b.ID, &b.FightID, &b.UserID, &b.Side, &b.Amount, &b.PotentialWin, &b.Status, &b.Outcome,
		&b.ParentBetID, &b.ProposalStatus, &b.ProposedAmount, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan bet: %w", err)
	}
	return &b, nil
}

func collectBets(rows pgx.Rows) ([]domain.Bet, error) {
	var bets []domain.Bet
	for rows.Next() {
		var b domain.Bet
		err := rows.Scan(
			&b.ID, &b.FightID, &b.UserID, &b.Side, &b.Amount, &b.PotentialWin, &b.Status, &b.Outcome,
			&b.ParentBetID, &b.ProposalStatus, &b.ProposedAmount, &b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bet row: %w", err)
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}
