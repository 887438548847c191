package datascope

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/upigw/backend/internal/domain/identity"
)

func newDryRunDB(t *testing.T) *gorm.DB {
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		DryRun:                 true,
	})
	require.NoError(t, err)
	return db
}

type userRow struct {
	ID uuid.UUID
}

func (userRow) TableName() string { return "users" }

type orderRow struct {
	ID uuid.UUID
}

func (orderRow) TableName() string { return "orders" }

func renderUserSQL(t *testing.T, scope identity.Scope) string {
	db := newDryRunDB(t)
	var rows []userRow
	stmt := ApplyUserScope(db.Model(&userRow{}), scope).Find(&rows).Statement
	return stmt.SQL.String()
}

func renderOrderSQL(t *testing.T, scope identity.Scope) string {
	db := newDryRunDB(t)
	var rows []orderRow
	stmt := ApplyOrderScope(db.Model(&orderRow{}), scope).Find(&rows).Statement
	return stmt.SQL.String()
}

func TestApplyUserScope(t *testing.T) {
	principalID := uuid.New()

	t.Run("all scope only excludes inactive rows", func(t *testing.T) {
		sql := renderUserSQL(t, identity.Scope{Kind: identity.ScopeAll, PrincipalID: principalID})
		assert.Contains(t, sql, "is_active")
		assert.NotContains(t, sql, "parent_id")
		assert.NotContains(t, sql, "1 = 0")
	})

	t.Run("merchant scope matches self or children", func(t *testing.T) {
		sql := renderUserSQL(t, identity.Scope{Kind: identity.ScopeMerchant, PrincipalID: principalID})
		assert.Contains(t, sql, "is_active")
		assert.Contains(t, sql, "parent_id")
	})

	t.Run("self scope matches only own row", func(t *testing.T) {
		sql := renderUserSQL(t, identity.Scope{Kind: identity.ScopeSelf, PrincipalID: principalID})
		assert.Contains(t, sql, "id = ")
		assert.NotContains(t, sql, "parent_id")
	})

	t.Run("unknown scope matches nothing", func(t *testing.T) {
		sql := renderUserSQL(t, identity.Scope{Kind: identity.ScopeNone})
		assert.Contains(t, sql, "1 = 0")
	})
}

func TestApplyOrderScope(t *testing.T) {
	principalID := uuid.New()

	t.Run("always excludes soft-deleted rows", func(t *testing.T) {
		for _, kind := range []identity.ScopeKind{identity.ScopeAll, identity.ScopeMerchant, identity.ScopeSelf, identity.ScopeNone} {
			sql := renderOrderSQL(t, identity.Scope{Kind: kind, PrincipalID: principalID})
			assert.Contains(t, sql, "deleted_at IS NULL", string(kind))
		}
	})

	t.Run("merchant scope filters by resolved merchant", func(t *testing.T) {
		sql := renderOrderSQL(t, identity.Scope{Kind: identity.ScopeMerchant, PrincipalID: principalID})
		assert.Contains(t, sql, "merchant_id")
		assert.NotContains(t, sql, "created_by")
	})

	t.Run("self scope filters by creator", func(t *testing.T) {
		sql := renderOrderSQL(t, identity.Scope{Kind: identity.ScopeSelf, PrincipalID: principalID})
		assert.Contains(t, sql, "created_by")
		assert.NotContains(t, sql, "merchant_id")
	})

	t.Run("unknown scope matches nothing", func(t *testing.T) {
		sql := renderOrderSQL(t, identity.Scope{Kind: identity.ScopeNone})
		assert.Contains(t, sql, "1 = 0")
	})
}
