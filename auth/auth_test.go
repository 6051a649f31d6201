package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRolePermissions(t *testing.T) {
	tests := []struct {
		role       Role
		permission Permission
		want       bool
	}{
		{RoleAdmin, PermManageAgents, true},
		{RoleAdmin, PermDeleteConversation, true},
		{RoleUser, PermSendMessages, true},
		{RoleUser, PermModifyState, false},
		{RoleUser, PermManageAgents, false},
		{RoleGuest, PermReadMessages, true},
		{RoleGuest, PermSendMessages, false},
		{RoleAgent, PermSendMessages, true},
		{RoleAgent, PermModifyState, true},
		{RoleAgent, PermManageAgents, false},
	}
	for _, tt := range tests {
		c := CallerContext{CallerID: "c1", Role: tt.role}
		assert.Equal(t, tt.want, c.HasPermission(tt.permission),
			"role %s permission %s", tt.role, tt.permission)
	}
}

func TestExtraGrants(t *testing.T) {
	c := CallerContext{
		CallerID:    "g1",
		Role:        RoleGuest,
		ExtraGrants: map[Permission]bool{PermSendMessages: true},
	}
	assert.True(t, c.HasPermission(PermSendMessages))
	assert.False(t, c.HasPermission(PermModifyState))
}

func TestRequire(t *testing.T) {
	user := UserContext("u1")
	assert.NoError(t, user.Require(PermSendMessages, "receive_message"))

	err := user.Require(PermManageAgents, "register_agent")
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	var perr *PermissionError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, "u1", perr.CallerID)
	assert.Equal(t, PermManageAgents, perr.Permission)
	assert.Equal(t, "register_agent", perr.Operation)
	assert.Contains(t, err.Error(), "register_agent")
}

func TestContextBuilders(t *testing.T) {
	assert.Equal(t, RoleUser, UserContext("u").Role)
	assert.Equal(t, RoleAgent, AgentContext("a").Role)
	assert.Equal(t, RoleAdmin, AdminContext("root").Role)
	assert.True(t, AdminContext("root").HasPermission(PermDeleteConversation))
}
