package domain

import (
	"fmt"
	"strings"
)

// ValidatePositiveAmount rejects zero and negative stakes.
func ValidatePositiveAmount(amount int64) error {
	if amount <= 0 {
		return ErrValidation(fmt.Sprintf("amount must be positive, got %d", amount))
	}
	return nil
}

// ValidateSide rejects anything but the two corners.
func ValidateSide(side BetSide) error {
	if !ValidBetSide(side) {
		return ErrValidation(fmt.Sprintf("side must be %q or %q, got %q", BetSideRed, BetSideBlue, side))
	}
	return nil
}

// ValidateResult rejects anything outside the declarable fight results. An
// empty result is reported as missing, which is the record-result contract.
func ValidateResult(result FightResult) error {
	if result == "" {
		return ErrValidation("result is required")
	}
	if !ValidFightResult(result) {
		return ErrValidation(fmt.Sprintf("result must be one of red, blue, draw, cancelled; got %q", result))
	}
	return nil
}

// ValidateCorners enforces the fight invariant that the two corner names are
// present and differ case-insensitively.
func ValidateCorners(red, blue string) error {
	red = strings.TrimSpace(red)
	blue = strings.TrimSpace(blue)
	if red == "" || blue == "" {
		return ErrValidation("both corner names are required")
	}
	if strings.EqualFold(red, blue) {
		return ErrValidation("corner names must differ")
	}
	return nil
}

// ValidateFightNumber rejects non-positive card positions.
func ValidateFightNumber(number int) error {
	if number <= 0 {
		return ErrValidation(fmt.Sprintf("fight number must be positive, got %d", number))
	}
	return nil
}
