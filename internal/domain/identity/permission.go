package identity

import "github.com/google/uuid"

// Permission evaluator: pure, side-effect-free decision functions shared by
// route guards, services, and the access inspector. No database access;
// callers supply the facts, the evaluator only decides.

// CanCreateRole reports whether an actor role may create an account of the
// target role. Owners create anything, merchants create members only.
func CanCreateRole(actorRole, targetRole Role) bool {
	if !targetRole.IsValid() {
		return false
	}
	switch actorRole {
	case RoleOwner:
		return true
	case RoleMerchant:
		return targetRole == RoleMember
	case RoleMember:
		return false
	default:
		return false
	}
}

// CanDeleteUser reports whether an actor role may delete an account of the
// target role. Self-deletion is forbidden for everyone but the owner.
func CanDeleteUser(actorRole, targetRole Role, isSelf bool) bool {
	if isSelf && actorRole != RoleOwner {
		return false
	}
	switch actorRole {
	case RoleOwner:
		return true
	case RoleMerchant:
		return targetRole == RoleMember
	case RoleMember:
		return false
	default:
		return false
	}
}

// CanViewUser reports whether an actor role may read the target account.
func CanViewUser(actorRole, targetRole Role, isSameParent, isSelf bool) bool {
	if isSelf {
		return true
	}
	switch actorRole {
	case RoleOwner:
		return true
	case RoleMerchant:
		return targetRole == RoleMember && isSameParent
	case RoleMember:
		return false
	default:
		return false
	}
}

// CanManage reports whether the actor account may manage the target account.
// Inactive accounts on either side always deny.
func (u *User) CanManage(target *User) bool {
	if u == nil || target == nil || !u.IsActive || !target.IsActive {
		return false
	}
	switch u.Role {
	case RoleOwner:
		return true
	case RoleMerchant:
		return target.Role == RoleMember && target.ParentID != nil && *target.ParentID == u.ID
	case RoleMember:
		return u.ID == target.ID
	default:
		return false
	}
}

// CanManageOrder reports whether an actor may act on an order owned by
// orderOwnerID and resolved to orderMerchantID.
func CanManageOrder(actorRole Role, orderOwnerID, orderMerchantID, actorID uuid.UUID) bool {
	switch actorRole {
	case RoleOwner:
		return true
	case RoleMerchant:
		return orderMerchantID == actorID
	case RoleMember:
		return orderOwnerID == actorID
	default:
		return false
	}
}

// CanInvalidateOrder reports whether an actor role may invalidate orders.
// Owner-only override.
func CanInvalidateOrder(actorRole Role) bool {
	return actorRole == RoleOwner
}
