package policy

import (
	"github.com/sabong/platform/internal/domain"
)

// FightControlDecision holds the result of a fight-control authorization
// check.
type FightControlDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// AuthorizeFightControl decides whether a caller may run lifecycle operations
// (create, open/close betting, record result, cancel) on fights of a derby.
// Admins control any derby; operators only the derby assigned to them.
// This is a blocking policy.
func AuthorizeFightControl(caller Caller, derby *domain.Derby) FightControlDecision {
	switch caller.Role {
	case RoleAdmin:
		return FightControlDecision{Allowed: true}
	case RoleOperator:
		if derby.OperatorID == caller.ID {
			return FightControlDecision{Allowed: true}
		}
		return FightControlDecision{Allowed: false, Reason: "operator not assigned to derby"}
	default:
		return FightControlDecision{Allowed: false, Reason: "role cannot control fights"}
	}
}
