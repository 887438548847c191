package identity

import (
	"github.com/upigw/backend/internal/domain/identity"
)

// AccessInspector answers "what can this principal do" without touching
// storage. It is a pure projection over the permission evaluator, exposed
// on an authenticated debug endpoint and reused by tests as the single
// source of truth for the RBAC surface.
type AccessInspector struct{}

// NewAccessInspector creates a new access inspector
func NewAccessInspector() *AccessInspector {
	return &AccessInspector{}
}

// Inspect computes the principal's effective access snapshot
func (i *AccessInspector) Inspect(principal *identity.User) AccessSnapshot {
	snapshot := AccessSnapshot{
		CanCreateRoles: []string{},
		UserScope:      identity.UserScope(principal),
		OrderScope:     identity.OrderScope(principal),
	}
	if principal == nil {
		return snapshot
	}

	snapshot.UserID = principal.ID
	snapshot.Username = principal.Username
	snapshot.Role = principal.Role.String()
	snapshot.RoleLevel = principal.Role.Level()
	snapshot.Active = principal.IsActive

	if !principal.IsActive {
		return snapshot
	}

	for _, role := range []identity.Role{identity.RoleOwner, identity.RoleMerchant, identity.RoleMember} {
		if identity.CanCreateRole(principal.Role, role) {
			snapshot.CanCreateRoles = append(snapshot.CanCreateRoles, role.String())
		}
	}
	snapshot.CanInvalidateOrders = identity.CanInvalidateOrder(principal.Role)

	return snapshot
}
