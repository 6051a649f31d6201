// Package auth implements the caller identity and permission model used on
// every agent invocation. A CallerContext names who is calling, which role
// they hold and any extra permission grants; agents check it before
// processing a message.
package auth

import "fmt"

// Role is a coarse-grained identity class.
type Role string

const (
	// RoleAdmin holds every permission.
	RoleAdmin Role = "admin"
	// RoleUser can interact normally with agents.
	RoleUser Role = "user"
	// RoleGuest is read-only.
	RoleGuest Role = "guest"
	// RoleAgent identifies another agent (intermediate trust).
	RoleAgent Role = "agent"
)

// Permission is a granular capability a caller may hold.
type Permission string

const (
	PermReadMessages       Permission = "read_messages"
	PermSendMessages       Permission = "send_messages"
	PermModifyState        Permission = "modify_state"
	PermReadState          Permission = "read_state"
	PermCreateConversation Permission = "create_conversation"
	PermDeleteConversation Permission = "delete_conversation"
	PermManageAgents       Permission = "manage_agents"
)

// rolePermissions maps each role to its default permission set.
var rolePermissions = map[Role]map[Permission]bool{
	RoleAdmin: {
		PermReadMessages: true, PermSendMessages: true, PermModifyState: true,
		PermReadState: true, PermCreateConversation: true,
		PermDeleteConversation: true, PermManageAgents: true,
	},
	RoleUser: {
		PermReadMessages: true, PermSendMessages: true,
		PermReadState: true, PermCreateConversation: true,
	},
	RoleGuest: {
		PermReadMessages: true, PermReadState: true,
	},
	RoleAgent: {
		PermReadMessages: true, PermSendMessages: true, PermModifyState: true,
		PermReadState: true, PermCreateConversation: true,
	},
}

// CallerContext identifies the caller of an agent operation. It is passed
// explicitly on every ReceiveMessage call; agents never infer identity from
// ambient state.
type CallerContext struct {
	CallerID    string              `json:"caller_id"`
	Role        Role                `json:"role"`
	ExtraGrants map[Permission]bool `json:"extra_grants,omitempty"`
	Metadata    map[string]string   `json:"metadata,omitempty"`
}

// HasPermission reports whether the caller holds the permission, either via
// its role or an explicit extra grant. Admin always passes.
func (c CallerContext) HasPermission(p Permission) bool {
	if c.Role == RoleAdmin {
		return true
	}
	if rolePermissions[c.Role][p] {
		return true
	}
	return c.ExtraGrants[p]
}

// Require returns a PermissionError if the caller lacks the permission for
// the named operation.
func (c CallerContext) Require(p Permission, operation string) error {
	if c.HasPermission(p) {
		return nil
	}
	return &PermissionError{CallerID: c.CallerID, Permission: p, Operation: operation}
}

// UserContext builds a CallerContext for a human user.
func UserContext(callerID string) CallerContext {
	return CallerContext{CallerID: callerID, Role: RoleUser}
}

// AgentContext builds a CallerContext for agent-to-agent (or router-to-agent)
// calls.
func AgentContext(callerID string) CallerContext {
	return CallerContext{CallerID: callerID, Role: RoleAgent}
}

// AdminContext builds a CallerContext holding every permission.
func AdminContext(callerID string) CallerContext {
	return CallerContext{CallerID: callerID, Role: RoleAdmin}
}

// PermissionError reports a denied operation. It unwraps to
// ErrPermissionDenied so callers can match with errors.Is.
type PermissionError struct {
	CallerID   string
	Permission Permission
	Operation  string
}

// ErrPermissionDenied is the sentinel all PermissionError values unwrap to.
var ErrPermissionDenied = fmt.Errorf("permission denied")

func (e *PermissionError) Error() string {
	return fmt.Sprintf("caller %q lacks permission %q for operation %q", e.CallerID, e.Permission, e.Operation)
}

func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }
