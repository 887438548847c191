// Package datascope translates a principal's resolved visibility scope into
// GORM query predicates. The same Scope value that guards single-record
// access in the domain is applied here as a WHERE clause, so listings and
// point lookups can never disagree about what a principal may see.
package datascope

import (
	"gorm.io/gorm"

	"github.com/upigw/backend/internal/domain/identity"
)

// ApplyUserScope narrows a users query to the rows visible inside the scope.
// Owners see every active account, merchants themselves plus their members,
// members only their own row. Unknown scopes match nothing.
func ApplyUserScope(db *gorm.DB, scope identity.Scope) *gorm.DB {
	db = db.Where("is_active = ?", true)

	switch scope.Kind {
	case identity.ScopeAll:
		return db
	case identity.ScopeMerchant:
		return db.Where("id = ? OR parent_id = ?", scope.PrincipalID, scope.PrincipalID)
	case identity.ScopeSelf:
		return db.Where("id = ?", scope.PrincipalID)
	default:
		return db.Where("1 = 0")
	}
}

// ApplyOrderScope narrows an orders query to the rows visible inside the
// scope. Soft-deleted rows are always excluded.
func ApplyOrderScope(db *gorm.DB, scope identity.Scope) *gorm.DB {
	db = db.Where("deleted_at IS NULL")

	switch scope.Kind {
	case identity.ScopeAll:
		return db
	case identity.ScopeMerchant:
		return db.Where("merchant_id = ?", scope.PrincipalID)
	case identity.ScopeSelf:
		return db.Where("created_by = ?", scope.PrincipalID)
	default:
		return db.Where("1 = 0")
	}
}

// UserScopeFunc returns a GORM scope function for account listings
func UserScopeFunc(scope identity.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return ApplyUserScope(db, scope)
	}
}

// OrderScopeFunc returns a GORM scope function for order listings
func OrderScopeFunc(scope identity.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return ApplyOrderScope(db, scope)
	}
}
