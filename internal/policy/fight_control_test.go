package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sabong/platform/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestAuthorizeFightControl_AdminControlsAnyDerby(t *testing.T) {
	derby := &domain.Derby{ID: uuid.New(), OperatorID: uuid.New()}
	caller := Caller{ID: uuid.New(), Role: RoleAdmin}
	assert.True(t, AuthorizeFightControl(caller, derby).Allowed)
}

func TestAuthorizeFightControl_AssignedOperatorAllowed(t *testing.T) {
	operatorID := uuid.New()
	derby := &domain.Derby{ID: uuid.New(), OperatorID: operatorID}
	caller := Caller{ID: operatorID, Role: RoleOperator}
	assert.True(t, AuthorizeFightControl(caller, derby).Allowed)
}

func TestAuthorizeFightControl_UnassignedOperatorBlocked(t *testing.T) {
	derby := &domain.Derby{ID: uuid.New(), OperatorID: uuid.New()}
	caller := Caller{ID: uuid.New(), Role: RoleOperator}
	result := AuthorizeFightControl(caller, derby)
	assert.False(t, result.Allowed)
	assert.Equal(t, "operator not assigned to derby", result.Reason)
}

func TestAuthorizeFightControl_BettorBlocked(t *testing.T) {
	derby := &domain.Derby{ID: uuid.New(), OperatorID: uuid.New()}
	caller := Caller{ID: uuid.New(), Role: RoleBettor}
	result := AuthorizeFightControl(caller, derby)
	assert.False(t, result.Allowed)
}

func TestCallerIsStaff(t *testing.T) {
	assert.True(t, Caller{Role: RoleAdmin}.IsStaff())
	assert.True(t, Caller{Role: RoleOperator}.IsStaff())
	assert.False(t, Caller{Role: RoleBettor}.IsStaff())
}
