package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sabong/platform/internal/domain"
	"github.com/sabong/platform/internal/guard"
	"github.com/sabong/platform/internal/ledger"
	"github.com/sabong/platform/internal/policy"
	"github.com/sabong/platform/internal/repository"
)

// BetService handles bet placement, matching, PAGO/DOY counter-offers and
// cancellation. Every operation locks the fight row first, then lets the
// wallet engine lock the wallet, so lock order is always fight then wallet.
type BetService struct {
	db      repository.TxStarter
	fights  repository.FightRepository
	bets    repository.BetRepository
	engine  *ledger.Engine
	outbox  repository.OutboxRepository
	limits  policy.BetLimits
	limiter *guard.RateLimiter
	logger  *slog.Logger
}

// NewBetService creates a BetService. limiter may be nil to disable
// per-user throttling.
func NewBetService(
	db repository.TxStarter,
	fights repository.FightRepository,
	bets repository.BetRepository,
	engine *ledger.Engine,
	outbox repository.OutboxRepository,
	limits policy.BetLimits,
	limiter *guard.RateLimiter,
	logger *slog.Logger,
) *BetService {
	return &BetService{
		db:      db,
		fights:  fights,
		bets:    bets,
		engine:  engine,
		outbox:  outbox,
		limits:  limits,
		limiter: limiter,
		logger:  logger,
	}
}

// PlaceBetInput holds the bet placement request.
type PlaceBetInput struct {
	FightID uuid.UUID      `json:"fight_id"`
	Side    domain.BetSide `json:"side"`
	Amount  int64          `json:"amount"`
}

// PlaceBet stakes an even-money bet on a fight. The stake is frozen
// immediately; if an equal-amount bet waits on the opposite side, the two
// match oldest-first and both become active, otherwise the bet stays pending
// until a match arrives or the betting window closes.
func (s *BetService) PlaceBet(ctx context.Context, userID uuid.UUID, input PlaceBetInput) (*domain.Bet, error) {
	if err := domain.ValidateSide(input.Side); err != nil {
		return nil, err
	}
	if err := domain.ValidatePositiveAmount(input.Amount); err != nil {
		return nil, err
	}
	if eval := policy.EvaluateBetLimits(s.limits, input.Amount); !eval.Allowed {
		return nil, domain.ErrValidation(
			fmt.Sprintf("stake breaches %s limit of %d", eval.BreachedLimit, eval.LimitValue))
	}
	if res := s.limiter.Check(userID.String()); !res.Allowed {
		return nil, &domain.AppError{Code: "RATE_LIMITED", Message: res.Reason, Status: 429}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	fight, err := s.lockOpenFight(ctx, tx, input.FightID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	bet := &domain.Bet{
		ID:           uuid.New(),
		FightID:      fight.ID,
		UserID:       userID,
		Side:         input.Side,
		Amount:       input.Amount,
		PotentialWin: domain.EvenMoneyWin(input.Amount),
		Status:       domain.BetStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.engine.ExecuteFreeze(ctx, tx, domain.FreezeParams{
		UserID:       userID,
		Amount:       input.Amount,
		BetID:        bet.ID,
		FightID:      fight.ID,
		ReferenceKey: "freeze-" + bet.ID.String(),
	}); err != nil {
		return nil, err
	}

	// FIFO matching: the oldest equal-amount pending bet on the opposite
	// side, placed by someone else and not tied up in a counter-offer.
	match, err := s.bets.FindOldestPendingMatch(ctx, tx, fight.ID, input.Side.Opposite(), input.Amount, userID)
	if err != nil {
		return nil, domain.ErrInternal("find match", err)
	}
	if match != nil {
		bet.Status = domain.BetStatusActive
		match.Status = domain.BetStatusActive
		if err := s.bets.Update(ctx, tx, match); err != nil {
			return nil, domain.ErrInternal("activate matched bet", err)
		}
	}

	if err := s.bets.Create(ctx, tx, bet); err != nil {
		return nil, domain.ErrInternal("insert bet", err)
	}
	if err := s.fights.AddAggregates(ctx, tx, fight.ID, 1, input.Amount); err != nil {
		return nil, domain.ErrInternal("update fight aggregates", err)
	}

	if err := s.outbox.Insert(ctx, tx, domain.NewBetEvent(domain.EventBetPlaced, bet)); err != nil {
		return nil, domain.ErrInternal("emit bet placed", err)
	}
	if match != nil {
		if err := s.outbox.Insert(ctx, tx, domain.NewBetMatchedEvent(bet, match)); err != nil {
			return nil, domain.ErrInternal("emit bet matched", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("bet placed",
		"bet_id", bet.ID, "fight_id", fight.ID, "side", bet.Side,
		"amount", bet.Amount, "matched", match != nil)
	return bet, nil
}

// ProposeCounterInput holds a PAGO/DOY counter-offer request.
type ProposeCounterInput struct {
	ParentBetID uuid.UUID `json:"parent_bet_id"`
	Amount      int64     `json:"amount"`
}

// ProposeCounter offers to take the opposite side of an existing bet at a
// reduced amount. The parent may be pending or already active; any bet whose
// stake is still frozen can be countered. The offer holds no funds until
// accepted, and the parent is marked so it cannot match, cancel or carry a
// second offer meanwhile.
func (s *BetService) ProposeCounter(ctx context.Context, userID uuid.UUID, input ProposeCounterInput) (*domain.Bet, error) {
	if err := domain.ValidatePositiveAmount(input.Amount); err != nil {
		return nil, err
	}
	if eval := policy.EvaluateBetLimits(s.limits, input.Amount); !eval.Allowed {
		return nil, domain.ErrValidation(
			fmt.Sprintf("stake breaches %s limit of %d", eval.BreachedLimit, eval.LimitValue))
	}
	if res := s.limiter.Check(userID.String()); !res.Allowed {
		return nil, &domain.AppError{Code: "RATE_LIMITED", Message: res.Reason, Status: 429}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	parent, err := s.bets.FindByID(ctx, tx, input.ParentBetID)
	if err != nil {
		return nil, domain.ErrInternal("find parent bet", err)
	}
	if parent == nil {
		return nil, domain.ErrNotFound("bet", input.ParentBetID.String())
	}
	if parent.UserID == userID {
		return nil, domain.ErrValidation("cannot counter-offer your own bet")
	}

	if _, err := s.lockOpenFight(ctx, tx, parent.FightID); err != nil {
		return nil, err
	}

	// Re-read under the fight lock: the parent may have settled or been
	// cancelled while we waited.
	parent, err = s.bets.FindByID(ctx, tx, input.ParentBetID)
	if err != nil {
		return nil, domain.ErrInternal("reload parent bet", err)
	}
	if parent == nil || !parent.Status.IsFundHolding() {
		return nil, domain.ErrInvalidTransition("bet is no longer open for counter-offers")
	}
	if parent.HasOpenProposal() {
		return nil, domain.ErrConflict("bet already has an open counter-offer")
	}
	if input.Amount > parent.Amount {
		return nil, domain.ErrValidation(
			fmt.Sprintf("counter-offer %d must not exceed the bet amount %d", input.Amount, parent.Amount))
	}

	now := time.Now()
	offered := domain.ProposalStatusOffered
	amount := input.Amount
	child := &domain.Bet{
		ID:             uuid.New(),
		FightID:        parent.FightID,
		UserID:         userID,
		Side:           parent.Side.Opposite(),
		Amount:         input.Amount,
		PotentialWin:   domain.EvenMoneyWin(input.Amount),
		Status:         domain.BetStatusProposed,
		ParentBetID:    &parent.ID,
		ProposalStatus: &offered,
		ProposedAmount: &amount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.bets.Create(ctx, tx, child); err != nil {
		return nil, domain.ErrInternal("insert counter-offer", err)
	}

	parent.ProposalStatus = &offered
	parent.ProposedAmount = &amount
	if err := s.bets.Update(ctx, tx, parent); err != nil {
		return nil, domain.ErrInternal("mark parent bet", err)
	}

	// Proposed bets count into the fight aggregates even before funds move.
	if err := s.fights.AddAggregates(ctx, tx, parent.FightID, 1, input.Amount); err != nil {
		return nil, domain.ErrInternal("update fight aggregates", err)
	}

	if err := s.outbox.Insert(ctx, tx, domain.NewBetEvent(domain.EventBetProposalOffered, child)); err != nil {
		return nil, domain.ErrInternal("emit proposal offered", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("counter-offer proposed",
		"bet_id", child.ID, "parent_bet_id", parent.ID, "amount", input.Amount)
	return child, nil
}

// AcceptProposal accepts the open counter-offer against the caller's bet and
// returns the updated parent and child. Both sides re-stake at the proposed
// amount: the proposer's stake is frozen now, the parent's excess over the
// proposed amount is released, and both bets become active and matched.
func (s *BetService) AcceptProposal(ctx context.Context, ownerID uuid.UUID, parentBetID uuid.UUID) (*domain.Bet, *domain.Bet, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	parent, child, err := s.lockProposal(ctx, tx, ownerID, parentBetID)
	if err != nil {
		return nil, nil, err
	}
	proposed := *child.ProposedAmount

	if _, err := s.engine.ExecuteFreeze(ctx, tx, domain.FreezeParams{
		UserID:       child.UserID,
		Amount:       proposed,
		BetID:        child.ID,
		FightID:      child.FightID,
		ReferenceKey: "freeze-" + child.ID.String(),
	}); err != nil {
		return nil, nil, err
	}

	excess := parent.Amount - proposed
	if excess > 0 {
		if _, err := s.engine.ExecuteRelease(ctx, tx, domain.ReleaseParams{
			UserID:       parent.UserID,
			Amount:       excess,
			BetID:        parent.ID,
			FightID:      parent.FightID,
			ReferenceKey: "adjust-" + parent.ID.String(),
		}); err != nil {
			return nil, nil, err
		}
	}

	accepted := domain.ProposalStatusAccepted
	parent.Restake(proposed)
	parent.Status = domain.BetStatusActive
	parent.ProposalStatus = &accepted
	if err := s.bets.Update(ctx, tx, parent); err != nil {
		return nil, nil, domain.ErrInternal("update parent bet", err)
	}

	child.Status = domain.BetStatusActive
	child.ProposalStatus = &accepted
	if err := s.bets.Update(ctx, tx, child); err != nil {
		return nil, nil, domain.ErrInternal("update counter-offer", err)
	}

	// The child was counted when proposed; only the parent's released
	// excess leaves the fight total.
	if excess > 0 {
		if err := s.fights.AddAggregates(ctx, tx, parent.FightID, 0, -excess); err != nil {
			return nil, nil, domain.ErrInternal("update fight aggregates", err)
		}
	}

	if err := s.outbox.Insert(ctx, tx, domain.NewBetEvent(domain.EventBetProposalAccepted, child)); err != nil {
		return nil, nil, domain.ErrInternal("emit proposal accepted", err)
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewBetMatchedEvent(parent, child)); err != nil {
		return nil, nil, domain.ErrInternal("emit bet matched", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("counter-offer accepted",
		"parent_bet_id", parent.ID, "bet_id", child.ID, "amount", proposed)
	return parent, child, nil
}

// RejectProposal declines the open counter-offer against the caller's bet and
// returns the updated parent. The offer is voided without touching any wallet
// and the parent keeps its original stake.
func (s *BetService) RejectProposal(ctx context.Context, ownerID uuid.UUID, parentBetID uuid.UUID) (*domain.Bet, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	parent, child, err := s.lockProposal(ctx, tx, ownerID, parentBetID)
	if err != nil {
		return nil, err
	}

	rejected := domain.ProposalStatusRejected
	child.Status = domain.BetStatusCancelled
	child.ProposalStatus = &rejected
	if err := s.bets.Update(ctx, tx, child); err != nil {
		return nil, domain.ErrInternal("update counter-offer", err)
	}

	parent.ProposalStatus = &rejected
	parent.ProposedAmount = nil
	if err := s.bets.Update(ctx, tx, parent); err != nil {
		return nil, domain.ErrInternal("update parent bet", err)
	}

	if err := s.fights.AddAggregates(ctx, tx, parent.FightID, -1, -child.Amount); err != nil {
		return nil, domain.ErrInternal("update fight aggregates", err)
	}

	if err := s.outbox.Insert(ctx, tx, domain.NewBetEvent(domain.EventBetProposalRejected, child)); err != nil {
		return nil, domain.ErrInternal("emit proposal rejected", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("counter-offer rejected", "parent_bet_id", parent.ID, "bet_id", child.ID)
	return parent, nil
}

// CancelBet cancels the caller's own pending bet and releases its stake. A
// bet carrying an open counter-offer must have the offer resolved first, and
// matched bets cannot be walked away from.
func (s *BetService) CancelBet(ctx context.Context, userID uuid.UUID, betID uuid.UUID) (*domain.Bet, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	bet, err := s.bets.FindByID(ctx, tx, betID)
	if err != nil {
		return nil, domain.ErrInternal("find bet", err)
	}
	if bet == nil {
		return nil, domain.ErrNotFound("bet", betID.String())
	}
	if bet.UserID != userID {
		return nil, domain.ErrUnauthorized("bet belongs to another user")
	}

	if _, err := s.fights.LockForUpdate(ctx, tx, bet.FightID); err != nil {
		return nil, domain.ErrInternal("lock fight", err)
	}

	// Re-read under the fight lock.
	bet, err = s.bets.FindByID(ctx, tx, betID)
	if err != nil {
		return nil, domain.ErrInternal("reload bet", err)
	}
	if bet == nil || bet.Status != domain.BetStatusPending {
		return nil, domain.ErrInvalidTransition("only pending bets can be cancelled")
	}
	if bet.HasOpenProposal() {
		return nil, domain.ErrConflict("resolve the open counter-offer before cancelling")
	}

	if _, err := s.engine.ExecuteRelease(ctx, tx, domain.ReleaseParams{
		UserID:       userID,
		Amount:       bet.Amount,
		BetID:        bet.ID,
		FightID:      bet.FightID,
		ReferenceKey: "cancel-" + bet.ID.String(),
	}); err != nil {
		return nil, err
	}

	bet.Status = domain.BetStatusCancelled
	o := domain.BetOutcomeCancelled
	bet.Outcome = &o
	if err := s.bets.Update(ctx, tx, bet); err != nil {
		return nil, domain.ErrInternal("update bet", err)
	}
	if err := s.fights.AddAggregates(ctx, tx, bet.FightID, -1, -bet.Amount); err != nil {
		return nil, domain.ErrInternal("update fight aggregates", err)
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewBetEvent(domain.EventBetCancelled, bet)); err != nil {
		return nil, domain.ErrInternal("emit bet cancelled", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("bet cancelled", "bet_id", bet.ID, "fight_id", bet.FightID)
	return bet, nil
}

// ListUserBets returns a user's bet history, newest first.
func (s *BetService) ListUserBets(ctx context.Context, db repository.DBTX, userID uuid.UUID, limit int) ([]domain.Bet, error) {
	bets, err := s.bets.ListByUser(ctx, db, userID, limit)
	if err != nil {
		return nil, domain.ErrInternal("list bets", err)
	}
	return bets, nil
}

// lockOpenFight locks the fight row and verifies the betting window is open.
func (s *BetService) lockOpenFight(ctx context.Context, tx pgx.Tx, fightID uuid.UUID) (*domain.Fight, error) {
	fight, err := s.fights.LockForUpdate(ctx, tx, fightID)
	if err != nil {
		return nil, domain.ErrInternal("lock fight", err)
	}
	if fight == nil {
		return nil, domain.ErrNotFound("fight", fightID.String())
	}
	if !fight.AcceptsBets() {
		return nil, domain.ErrInvalidTransition(
			fmt.Sprintf("betting is not open, fight is %s", fight.Status))
	}
	return fight, nil
}

// lockProposal locks the fight, checks ownership and returns the parent bet
// with its open counter-offer.
func (s *BetService) lockProposal(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, parentBetID uuid.UUID) (*domain.Bet, *domain.Bet, error) {
	parent, err := s.bets.FindByID(ctx, tx, parentBetID)
	if err != nil {
		return nil, nil, domain.ErrInternal("find bet", err)
	}
	if parent == nil {
		return nil, nil, domain.ErrNotFound("bet", parentBetID.String())
	}
	if parent.UserID != ownerID {
		return nil, nil, domain.ErrUnauthorized("bet belongs to another user")
	}

	if _, err := s.lockOpenFight(ctx, tx, parent.FightID); err != nil {
		return nil, nil, err
	}

	parent, err = s.bets.FindByID(ctx, tx, parentBetID)
	if err != nil {
		return nil, nil, domain.ErrInternal("reload bet", err)
	}
	if parent == nil || !parent.Status.IsFundHolding() || !parent.HasOpenProposal() {
		return nil, nil, domain.ErrInvalidTransition("bet has no open counter-offer")
	}

	child, err := s.bets.FindProposalChild(ctx, tx, parent.ID)
	if err != nil {
		return nil, nil, domain.ErrInternal("find counter-offer", err)
	}
	if child == nil || child.ProposedAmount == nil {
		return nil, nil, domain.ErrConflict("counter-offer record is missing")
	}
	return parent, child, nil
}
