package settlement

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sabong/platform/internal/domain"
	"github.com/sabong/platform/internal/ledger"
	"github.com/sabong/platform/internal/repository"
)

// FightSettler resolves every open bet on a fight once its result is declared
// or the fight is cancelled. All methods run within the caller's transaction,
// which already holds the fight row lock.
type FightSettler struct {
	engine *ledger.Engine
	bets   repository.BetRepository
	fights repository.FightRepository
	outbox repository.OutboxRepository
}

// NewFightSettler creates a fight settler.
func NewFightSettler(engine *ledger.Engine, bets repository.BetRepository, fights repository.FightRepository, outbox repository.OutboxRepository) *FightSettler {
	return &FightSettler{engine: engine, bets: bets, fights: fights, outbox: outbox}
}

// Summary counts the bets resolved by a settlement pass.
type Summary struct {
	Won      int `json:"won"`
	Lost     int `json:"lost"`
	Refunded int `json:"refunded"`
	Released int `json:"released"`
	Voided   int `json:"voided"`
}

// SettleActiveBets settles every active bet against the declared result.
// Each bet gets exactly one settlement ledger entry, keyed "settle-<betID>",
// and moves to completed with its outcome recorded.
func (s *FightSettler) SettleActiveBets(ctx context.Context, tx pgx.Tx, fight *domain.Fight, result domain.FightResult) (*Summary, error) {
	active, err := s.bets.ListByFightAndStatuses(ctx, tx, fight.ID, []domain.BetStatus{domain.BetStatusActive})
	if err != nil {
		return nil, fmt.Errorf("list active bets: %w", err)
	}

	summary := &Summary{}
	meta, _ := json.Marshal(map[string]interface{}{"fight_result": result})

	for i := range active {
		bet := active[i]
		outcome := OutcomeForBet(bet.Side, result)

		params := domain.SettleParams{
			UserID:       bet.UserID,
			Stake:        bet.Amount,
			BetID:        bet.ID,
			FightID:      fight.ID,
			ReferenceKey: "settle-" + bet.ID.String(),
			Metadata:     meta,
		}

		switch outcome {
		case domain.BetOutcomeWin:
			params.Payout = bet.PotentialWin
			_, err = s.engine.ExecuteSettleWin(ctx, tx, params)
			summary.Won++
		case domain.BetOutcomeLoss:
			_, err = s.engine.ExecuteSettleLoss(ctx, tx, params)
			summary.Lost++
		default:
			_, err = s.engine.ExecuteSettleRefund(ctx, tx, params)
			summary.Refunded++
		}
		if err != nil {
			return nil, fmt.Errorf("settle bet %s: %w", bet.ID, err)
		}

		bet.Status = domain.BetStatusCompleted
		o := outcome
		bet.Outcome = &o
		if err := s.bets.Update(ctx, tx, &bet); err != nil {
			return nil, fmt.Errorf("update settled bet %s: %w", bet.ID, err)
		}
		if err := s.outbox.Insert(ctx, tx, domain.NewBetEvent(domain.EventBetSettled, &bet)); err != nil {
			return nil, fmt.Errorf("emit bet settled %s: %w", bet.ID, err)
		}
	}

	return summary, nil
}

// ReleaseUnmatchedBets cancels every pending bet and hands its frozen stake
// back, keyed "<refPrefix>-<betID>". Used by the close-betting sweep and by
// fight cancellation.
func (s *FightSettler) ReleaseUnmatchedBets(ctx context.Context, tx pgx.Tx, fight *domain.Fight, refPrefix string) (*Summary, error) {
	pending, err := s.bets.ListByFightAndStatuses(ctx, tx, fight.ID, []domain.BetStatus{domain.BetStatusPending})
	if err != nil {
		return nil, fmt.Errorf("list pending bets: %w", err)
	}

	summary := &Summary{}
	for i := range pending {
		bet := pending[i]

		_, err := s.engine.ExecuteRelease(ctx, tx, domain.ReleaseParams{
			UserID:       bet.UserID,
			Amount:       bet.Amount,
			BetID:        bet.ID,
			FightID:      fight.ID,
			ReferenceKey: refPrefix + "-" + bet.ID.String(),
		})
		if err != nil {
			return nil, fmt.Errorf("release bet %s: %w", bet.ID, err)
		}

		bet.Status = domain.BetStatusCancelled
		o := domain.BetOutcomeCancelled
		bet.Outcome = &o
		if err := s.bets.Update(ctx, tx, &bet); err != nil {
			return nil, fmt.Errorf("update released bet %s: %w", bet.ID, err)
		}
		if err := s.fights.AddAggregates(ctx, tx, fight.ID, -1, -bet.Amount); err != nil {
			return nil, fmt.Errorf("update fight aggregates: %w", err)
		}
		if err := s.outbox.Insert(ctx, tx, domain.NewBetEvent(domain.EventBetCancelled, &bet)); err != nil {
			return nil, fmt.Errorf("emit bet cancelled %s: %w", bet.ID, err)
		}
		summary.Released++
	}

	return summary, nil
}

// VoidOpenProposals cancels every outstanding counter-offer on a fight.
// Proposed bets hold no funds, so this touches no wallet.
func (s *FightSettler) VoidOpenProposals(ctx context.Context, tx pgx.Tx, fight *domain.Fight) (*Summary, error) {
	proposed, err := s.bets.ListByFightAndStatuses(ctx, tx, fight.ID, []domain.BetStatus{domain.BetStatusProposed})
	if err != nil {
		return nil, fmt.Errorf("list proposed bets: %w", err)
	}

	summary := &Summary{}
	for i := range proposed {
		bet := proposed[i]

		bet.Status = domain.BetStatusCancelled
		rejected := domain.ProposalStatusRejected
		bet.ProposalStatus = &rejected
		if err := s.bets.Update(ctx, tx, &bet); err != nil {
			return nil, fmt.Errorf("void proposal %s: %w", bet.ID, err)
		}
		if err := s.fights.AddAggregates(ctx, tx, fight.ID, -1, -bet.Amount); err != nil {
			return nil, fmt.Errorf("update fight aggregates: %w", err)
		}
		if err := s.outbox.Insert(ctx, tx, domain.NewBetEvent(domain.EventBetProposalRejected, &bet)); err != nil {
			return nil, fmt.Errorf("emit proposal rejected %s: %w", bet.ID, err)
		}

		// Clear the parent's open-proposal marker so it can settle or be
		// released like any other bet.
		if bet.ParentBetID != nil {
			parent, err := s.bets.FindByID(ctx, tx, *bet.ParentBetID)
			if err != nil {
				return nil, fmt.Errorf("find proposal parent: %w", err)
			}
			if parent != nil && parent.HasOpenProposal() {
				parent.ProposalStatus = &rejected
				parent.ProposedAmount = nil
				if err := s.bets.Update(ctx, tx, parent); err != nil {
					return nil, fmt.Errorf("clear parent proposal %s: %w", parent.ID, err)
				}
			}
		}
		summary.Voided++
	}

	return summary, nil
}
