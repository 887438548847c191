package identity

import "github.com/google/uuid"

// ScopeKind classifies how wide a principal may see a collection.
type ScopeKind string

const (
	// ScopeAll grants unrestricted access to active rows.
	ScopeAll ScopeKind = "all"
	// ScopeMerchant restricts to the merchant's own subtree.
	ScopeMerchant ScopeKind = "merchant"
	// ScopeSelf restricts to rows the principal created.
	ScopeSelf ScopeKind = "self"
	// ScopeNone denies everything. Fallback for unknown roles.
	ScopeNone ScopeKind = "none"
)

// Scope is the resolved visibility of one principal over one collection.
// It is computed once per request from the live principal and applied both
// as a query predicate and as a post-load check.
type Scope struct {
	Kind        ScopeKind
	PrincipalID uuid.UUID
}

// UserScope resolves the visibility of the principal over the accounts
// collection. Owners see every active account, merchants see themselves and
// their members, members see only themselves.
func UserScope(principal *User) Scope {
	if principal == nil || !principal.IsActive {
		return Scope{Kind: ScopeNone}
	}
	switch principal.Role {
	case RoleOwner:
		return Scope{Kind: ScopeAll, PrincipalID: principal.ID}
	case RoleMerchant:
		return Scope{Kind: ScopeMerchant, PrincipalID: principal.ID}
	case RoleMember:
		return Scope{Kind: ScopeSelf, PrincipalID: principal.ID}
	default:
		return Scope{Kind: ScopeNone}
	}
}

// OrderScope resolves the visibility of the principal over the orders
// collection. Merchants see every order resolved to them, members only the
// orders they created.
func OrderScope(principal *User) Scope {
	if principal == nil || !principal.IsActive {
		return Scope{Kind: ScopeNone}
	}
	switch principal.Role {
	case RoleOwner:
		return Scope{Kind: ScopeAll, PrincipalID: principal.ID}
	case RoleMerchant:
		return Scope{Kind: ScopeMerchant, PrincipalID: principal.ID}
	case RoleMember:
		return Scope{Kind: ScopeSelf, PrincipalID: principal.ID}
	default:
		return Scope{Kind: ScopeNone}
	}
}

// MatchesUser reports whether a single loaded account falls inside the
// scope. Deny on out-of-scope rows is indistinguishable from the row not
// existing.
func (s Scope) MatchesUser(target *User) bool {
	if target == nil || !target.IsActive {
		return false
	}
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeMerchant:
		if target.ID == s.PrincipalID {
			return true
		}
		return target.ParentID != nil && *target.ParentID == s.PrincipalID
	case ScopeSelf:
		return target.ID == s.PrincipalID
	default:
		return false
	}
}

// MatchesOrder reports whether an order with the given creator and resolved
// merchant falls inside the scope.
func (s Scope) MatchesOrder(createdBy, merchantID uuid.UUID) bool {
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeMerchant:
		return merchantID == s.PrincipalID
	case ScopeSelf:
		return createdBy == s.PrincipalID
	default:
		return false
	}
}
