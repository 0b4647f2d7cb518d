package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fight transition table ---

func TestFightStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from FightStatus
		to   FightStatus
		want bool
	}{
		{"upcoming to betting", FightStatusUpcoming, FightStatusBetting, true},
		{"upcoming to cancelled", FightStatusUpcoming, FightStatusCancelled, true},
		{"upcoming to live skips betting", FightStatusUpcoming, FightStatusLive, false},
		{"upcoming to completed", FightStatusUpcoming, FightStatusCompleted, false},
		{"betting to live", FightStatusBetting, FightStatusLive, true},
		{"betting to cancelled", FightStatusBetting, FightStatusCancelled, true},
		{"betting to completed skips live", FightStatusBetting, FightStatusCompleted, false},
		{"betting back to upcoming", FightStatusBetting, FightStatusUpcoming, false},
		{"live to completed", FightStatusLive, FightStatusCompleted, true},
		{"live to cancelled", FightStatusLive, FightStatusCancelled, true},
		{"live back to betting", FightStatusLive, FightStatusBetting, false},
		{"completed is terminal", FightStatusCompleted, FightStatusCancelled, false},
		{"cancelled is terminal", FightStatusCancelled, FightStatusBetting, false},
		{"cancelled to completed", FightStatusCancelled, FightStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestFightStatusIsTerminal(t *testing.T) {
	assert.False(t, FightStatusUpcoming.IsTerminal())
	assert.False(t, FightStatusBetting.IsTerminal())
	assert.False(t, FightStatusLive.IsTerminal())
	assert.True(t, FightStatusCompleted.IsTerminal())
	assert.True(t, FightStatusCancelled.IsTerminal())
}

// --- Validators ---

func TestValidateCorners(t *testing.T) {
	tests := []struct {
		name    string
		red     string
		blue    string
		wantErr bool
	}{
		{"distinct names", "Thunderbird", "Lightning", false},
		{"same name", "Thunderbird", "Thunderbird", true},
		{"same name different case", "Thunderbird", "THUNDERBIRD", true},
		{"same name with padding", "Thunderbird", "  thunderbird ", true},
		{"empty red", "", "Lightning", true},
		{"empty blue", "Thunderbird", "", true},
		{"both empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCorners(tt.red, tt.blue)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, HasCode(err, "VALIDATION_ERROR"))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateResult(t *testing.T) {
	tests := []struct {
		name    string
		result  FightResult
		wantErr bool
	}{
		{"red", FightResultRed, false},
		{"blue", FightResultBlue, false},
		{"draw", FightResultDraw, false},
		{"cancelled", FightResultCancelled, false},
		{"missing", FightResult(""), true},
		{"unknown", FightResult("green"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResult(tt.result)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateSide(t *testing.T) {
	require.NoError(t, ValidateSide(BetSideRed))
	require.NoError(t, ValidateSide(BetSideBlue))
	require.Error(t, ValidateSide(BetSide("draw")))
	require.Error(t, ValidateSide(BetSide("")))
}

func TestValidatePositiveAmount(t *testing.T) {
	require.NoError(t, ValidatePositiveAmount(1))
	require.NoError(t, ValidatePositiveAmount(1_000_000))
	require.Error(t, ValidatePositiveAmount(0))
	require.Error(t, ValidatePositiveAmount(-500))
}

// --- Bet helpers ---

func TestBetSideOpposite(t *testing.T) {
	assert.Equal(t, BetSideBlue, BetSideRed.Opposite())
	assert.Equal(t, BetSideRed, BetSideBlue.Opposite())
}

func TestBetStatusIsFundHolding(t *testing.T) {
	assert.True(t, BetStatusPending.IsFundHolding())
	assert.True(t, BetStatusActive.IsFundHolding())
	assert.False(t, BetStatusProposed.IsFundHolding())
	assert.False(t, BetStatusCompleted.IsFundHolding())
	assert.False(t, BetStatusCancelled.IsFundHolding())
}

func TestBetRestake(t *testing.T) {
	b := &Bet{Amount: 1000, PotentialWin: 2000}
	b.Restake(600)
	assert.Equal(t, int64(600), b.Amount)
	assert.Equal(t, int64(1200), b.PotentialWin)
}

func TestEvenMoneyWin(t *testing.T) {
	assert.Equal(t, int64(200), EvenMoneyWin(100))
	assert.Equal(t, int64(0), EvenMoneyWin(0))
}

// --- Wallet ---

func TestWalletCanCover(t *testing.T) {
	w := &Wallet{Available: 500, Frozen: 200}
	assert.True(t, w.CanCover(500))
	assert.False(t, w.CanCover(501))
	assert.Equal(t, int64(700), w.Total())
}

func TestBalanceUpdateDeltas(t *testing.T) {
	assert.True(t, BalanceUpdate{Available: -100}.HasAvailableDelta())
	assert.True(t, BalanceUpdate{Frozen: 100}.HasFrozenDelta())
	assert.False(t, BalanceUpdate{}.HasAvailableDelta())
	assert.False(t, BalanceUpdate{}.HasFrozenDelta())
}

// --- Errors ---

func TestAppErrorCodes(t *testing.T) {
	err := ErrInvalidTransition("fight is not live")
	assert.True(t, HasCode(err, "INVALID_STATE_TRANSITION"))
	assert.False(t, HasCode(err, "VALIDATION_ERROR"))
	assert.Contains(t, err.Error(), "fight is not live")

	wrapped := ErrInternal("settle", ErrInsufficientFunds())
	assert.True(t, HasCode(wrapped, "INTERNAL_ERROR"))
	assert.NotNil(t, wrapped.Unwrap())
}
