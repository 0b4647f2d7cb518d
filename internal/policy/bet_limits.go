package policy

// BetLimits defines the stake bounds for a single bet.
type BetLimits struct {
	MinAmount int64 `json:"min_amount"` // centavos
	MaxAmount int64 `json:"max_amount"` // centavos
}

// DefaultBetLimits returns the default stake bounds (₱20 min, ₱500k max).
func DefaultBetLimits() BetLimits {
	return BetLimits{
		MinAmount: 2_000,      // ₱20
		MaxAmount: 50_000_000, // ₱500,000
	}
}

// BetLimitEvaluation holds the result of a stake bounds check.
type BetLimitEvaluation struct {
	Allowed       bool   `json:"allowed"`
	BreachedLimit string `json:"breached_limit,omitempty"`
	LimitValue    int64  `json:"limit_value,omitempty"`
	RequestedAmt  int64  `json:"requested_amount,omitempty"`
}

// EvaluateBetLimits checks a stake against the configured bounds. A zero
// bound disables that check.
func EvaluateBetLimits(limits BetLimits, amount int64) BetLimitEvaluation {
	if limits.MinAmount > 0 && amount < limits.MinAmount {
		return BetLimitEvaluation{
			Allowed:       false,
			BreachedLimit: "min_amount",
			LimitValue:    limits.MinAmount,
			RequestedAmt:  amount,
		}
	}
	if limits.MaxAmount > 0 && amount > limits.MaxAmount {
		return BetLimitEvaluation{
			Allowed:       false,
			BreachedLimit: "max_amount",
			LimitValue:    limits.MaxAmount,
			RequestedAmt:  amount,
		}
	}
	return BetLimitEvaluation{Allowed: true}
}
