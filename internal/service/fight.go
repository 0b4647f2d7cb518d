package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sabong/platform/internal/domain"
	"github.com/sabong/platform/internal/policy"
	"github.com/sabong/platform/internal/repository"
	"github.com/sabong/platform/internal/settlement"
)

// FightService drives the fight lifecycle: create, open betting, close
// betting, record result, cancel. Every operation runs in a single
// transaction holding the fight row lock, so concurrent control calls and
// bet placements serialize per fight.
type FightService struct {
	db      repository.TxStarter
	derbies repository.DerbyRepository
	fights  repository.FightRepository
	outbox  repository.OutboxRepository
	settler *settlement.FightSettler
	logger  *slog.Logger
}

// NewFightService creates a FightService.
func NewFightService(
	db repository.TxStarter,
	derbies repository.DerbyRepository,
	fights repository.FightRepository,
	outbox repository.OutboxRepository,
	settler *settlement.FightSettler,
	logger *slog.Logger,
) *FightService {
	return &FightService{
		db:      db,
		derbies: derbies,
		fights:  fights,
		outbox:  outbox,
		settler: settler,
		logger:  logger,
	}
}

// CreateFightInput holds the fight creation request.
type CreateFightInput struct {
	DerbyID     uuid.UUID `json:"derby_id"`
	Number      int       `json:"number"`
	RedCorner   string    `json:"red_corner"`
	BlueCorner  string    `json:"blue_corner"`
	WeightGrams int       `json:"weight_grams"`
	Notes       string    `json:"notes"`
}

// CreateFight adds a fight to a derby's card in the upcoming state.
func (s *FightService) CreateFight(ctx context.Context, caller policy.Caller, input CreateFightInput) (*domain.Fight, error) {
	if err := domain.ValidateFightNumber(input.Number); err != nil {
		return nil, err
	}
	if err := domain.ValidateCorners(input.RedCorner, input.BlueCorner); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	derby, err := s.derbies.FindByID(ctx, tx, input.DerbyID)
	if err != nil {
		return nil, domain.ErrInternal("find derby", err)
	}
	if derby == nil {
		return nil, domain.ErrNotFound("derby", input.DerbyID.String())
	}

	if decision := policy.AuthorizeFightControl(caller, derby); !decision.Allowed {
		return nil, domain.ErrUnauthorized(decision.Reason)
	}
	if !derby.AcceptsFights() {
		return nil, domain.ErrInvalidTransition(
			fmt.Sprintf("derby is %s and accepts no new fights", derby.Status))
	}

	existing, err := s.fights.FindByDerbyAndNumber(ctx, tx, input.DerbyID, input.Number)
	if err != nil {
		return nil, domain.ErrInternal("check fight number", err)
	}
	if existing != nil {
		return nil, domain.ErrConflict(
			fmt.Sprintf("fight number %d already exists in derby", input.Number))
	}

	now := time.Now()
	fight := &domain.Fight{
		ID:          uuid.New(),
		DerbyID:     input.DerbyID,
		Number:      input.Number,
		RedCorner:   input.RedCorner,
		BlueCorner:  input.BlueCorner,
		WeightGrams: input.WeightGrams,
		Notes:       input.Notes,
		Status:      domain.FightStatusUpcoming,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.fights.Create(ctx, tx, fight); err != nil {
		return nil, domain.ErrInternal("insert fight", err)
	}
	if err := s.derbies.IncrementTotalFights(ctx, tx, derby.ID); err != nil {
		return nil, domain.ErrInternal("increment total fights", err)
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewFightEvent(domain.EventFightCreated, fight)); err != nil {
		return nil, domain.ErrInternal("emit fight created", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("fight created",
		"fight_id", fight.ID, "derby_id", derby.ID, "number", fight.Number)
	return fight, nil
}

// OpenBetting moves a fight from upcoming to betting. Requires the derby to
// be active.
func (s *FightService) OpenBetting(ctx context.Context, caller policy.Caller, fightID uuid.UUID) (*domain.Fight, error) {
	return s.transition(ctx, caller, fightID, domain.FightStatusBetting, func(ctx context.Context, tx pgx.Tx, fight *domain.Fight, derby *domain.Derby) error {
		if !derby.IsActive() {
			return domain.ErrInvalidTransition(
				fmt.Sprintf("betting cannot open while derby is %s", derby.Status))
		}
		now := time.Now()
		fight.BettingOpenedAt = &now
		return s.outbox.Insert(ctx, tx, domain.NewFightEvent(domain.EventFightBettingOpened, fight))
	})
}

// CloseBetting moves a fight from betting to live. Unmatched pending bets are
// cancelled with their stakes released, and open counter-offers are voided;
// only mutually matched active bets ride into the live fight.
func (s *FightService) CloseBetting(ctx context.Context, caller policy.Caller, fightID uuid.UUID) (*domain.Fight, error) {
	return s.transition(ctx, caller, fightID, domain.FightStatusLive, func(ctx context.Context, tx pgx.Tx, fight *domain.Fight, derby *domain.Derby) error {
		if _, err := s.settler.VoidOpenProposals(ctx, tx, fight); err != nil {
			return err
		}
		summary, err := s.settler.ReleaseUnmatchedBets(ctx, tx, fight, "sweep")
		if err != nil {
			return err
		}
		if summary.Released > 0 {
			s.logger.Info("unmatched bets swept",
				"fight_id", fight.ID, "released", summary.Released)
		}
		now := time.Now()
		fight.BettingClosedAt = &now
		fight.StartedAt = &now
		return s.outbox.Insert(ctx, tx, domain.NewFightEvent(domain.EventFightBettingClosed, fight))
	})
}

// RecordResult declares the result of a live fight and settles every active
// bet in the same transaction. Draw and cancelled results refund both sides.
func (s *FightService) RecordResult(ctx context.Context, caller policy.Caller, fightID uuid.UUID, result domain.FightResult) (*domain.Fight, error) {
	if err := domain.ValidateResult(result); err != nil {
		return nil, err
	}
	return s.transition(ctx, caller, fightID, domain.FightStatusCompleted, func(ctx context.Context, tx pgx.Tx, fight *domain.Fight, derby *domain.Derby) error {
		summary, err := s.settler.SettleActiveBets(ctx, tx, fight, result)
		if err != nil {
			return err
		}

		now := time.Now()
		fight.Result = &result
		fight.EndedAt = &now
		if err := s.derbies.IncrementCompletedFights(ctx, tx, derby.ID); err != nil {
			return domain.ErrInternal("increment completed fights", err)
		}

		s.logger.Info("fight settled",
			"fight_id", fight.ID, "result", result,
			"won", summary.Won, "lost", summary.Lost, "refunded", summary.Refunded)
		return s.outbox.Insert(ctx, tx, domain.NewFightEvent(domain.EventFightCompleted, fight))
	})
}

// CancelFight cancels a fight from any non-terminal state. Pending stakes are
// released, active bets are refunded, and open proposals are voided; nobody
// keeps or loses money on a fight that never finished.
func (s *FightService) CancelFight(ctx context.Context, caller policy.Caller, fightID uuid.UUID) (*domain.Fight, error) {
	return s.transition(ctx, caller, fightID, domain.FightStatusCancelled, func(ctx context.Context, tx pgx.Tx, fight *domain.Fight, derby *domain.Derby) error {
		if _, err := s.settler.VoidOpenProposals(ctx, tx, fight); err != nil {
			return err
		}
		if _, err := s.settler.ReleaseUnmatchedBets(ctx, tx, fight, "refund"); err != nil {
			return err
		}
		summary, err := s.settler.SettleActiveBets(ctx, tx, fight, domain.FightResultCancelled)
		if err != nil {
			return err
		}

		now := time.Now()
		fight.EndedAt = &now

		s.logger.Info("fight cancelled",
			"fight_id", fight.ID, "refunded", summary.Refunded)
		return s.outbox.Insert(ctx, tx, domain.NewFightEvent(domain.EventFightCancelled, fight))
	})
}

// GetFight returns a fight by ID.
func (s *FightService) GetFight(ctx context.Context, db repository.DBTX, fightID uuid.UUID) (*domain.Fight, error) {
	fight, err := s.fights.FindByID(ctx, db, fightID)
	if err != nil {
		return nil, domain.ErrInternal("find fight", err)
	}
	if fight == nil {
		return nil, domain.ErrNotFound("fight", fightID.String())
	}
	return fight, nil
}

// ListFights returns a derby's card ordered by fight number.
func (s *FightService) ListFights(ctx context.Context, db repository.DBTX, derbyID uuid.UUID) ([]domain.Fight, error) {
	fights, err := s.fights.ListByDerby(ctx, db, derbyID)
	if err != nil {
		return nil, domain.ErrInternal("list fights", err)
	}
	return fights, nil
}

// transition runs the shared state-machine skeleton: lock the fight row,
// authorize the caller against the derby, validate the transition, apply the
// operation-specific mutation, persist, commit.
func (s *FightService) transition(
	ctx context.Context,
	caller policy.Caller,
	fightID uuid.UUID,
	target domain.FightStatus,
	apply func(ctx context.Context, tx pgx.Tx, fight *domain.Fight, derby *domain.Derby) error,
) (*domain.Fight, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	fight, err := s.fights.LockForUpdate(ctx, tx, fightID)
	if err != nil {
		return nil, domain.ErrInternal("lock fight", err)
	}
	if fight == nil {
		return nil, domain.ErrNotFound("fight", fightID.String())
	}

	derby, err := s.derbies.FindByID(ctx, tx, fight.DerbyID)
	if err != nil {
		return nil, domain.ErrInternal("find derby", err)
	}
	if derby == nil {
		return nil, domain.ErrNotFound("derby", fight.DerbyID.String())
	}
	if decision := policy.AuthorizeFightControl(caller, derby); !decision.Allowed {
		return nil, domain.ErrUnauthorized(decision.Reason)
	}

	if !fight.Status.CanTransitionTo(target) {
		return nil, domain.ErrInvalidTransition(
			fmt.Sprintf("fight cannot move from %s to %s", fight.Status, target))
	}
	fight.Status = target

	if err := apply(ctx, tx, fight, derby); err != nil {
		return nil, err
	}

	if err := s.fights.UpdateState(ctx, tx, fight); err != nil {
		return nil, domain.ErrInternal("update fight", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}
	return fight, nil
}
