package settlement

import "github.com/sabong/platform/internal/domain"

// OutcomeForBet maps a declared fight result to the outcome of an individual
// bet. Draws and cancelled fights refund every side.
func OutcomeForBet(side domain.BetSide, result domain.FightResult) domain.BetOutcome {
	switch result {
	case domain.FightResultDraw:
		return domain.BetOutcomeDraw
	case domain.FightResultCancelled:
		return domain.BetOutcomeCancelled
	case domain.FightResultRed:
		if side == domain.BetSideRed {
			return domain.BetOutcomeWin
		}
		return domain.BetOutcomeLoss
	case domain.FightResultBlue:
		if side == domain.BetSideBlue {
			return domain.BetOutcomeWin
		}
		return domain.BetOutcomeLoss
	}
	return domain.BetOutcomeCancelled
}
