package payment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upigw/backend/internal/domain/identity"
)

func TestSanitizeOrderID(t *testing.T) {
	t.Run("accepts and normalizes valid ids", func(t *testing.T) {
		assert.Equal(t, "abc123defg", SanitizeOrderID("  ABC123defg "))
		assert.Equal(t, "12345", SanitizeOrderID("12345"))
	})

	t.Run("rejects out-of-shape ids", func(t *testing.T) {
		assert.Equal(t, "", SanitizeOrderID("abcd"))
		assert.Equal(t, "", SanitizeOrderID("abcdefghijklmnopqrstu"))
		assert.Equal(t, "", SanitizeOrderID("abc-123"))
		assert.Equal(t, "", SanitizeOrderID("'; DROP TABLE orders--"))
		assert.Equal(t, "", SanitizeOrderID(""))
	})
}

func TestSanitizeUTR(t *testing.T) {
	assert.Equal(t, "UTR123456", SanitizeUTR(" UTR123456 "))
	assert.Equal(t, "", SanitizeUTR("12 34"))
	assert.Equal(t, "", SanitizeUTR("abc"))
}

func TestSanitizeOrderQuery(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	scope := identity.Scope{Kind: identity.ScopeMerchant, PrincipalID: uuid.New()}

	t.Run("defaults for empty input", func(t *testing.T) {
		q := SanitizeOrderQuery(RawOrderQuery{}, scope, now)

		assert.Equal(t, 1, q.Page)
		assert.Equal(t, 20, q.PageSize)
		assert.Equal(t, "created_at", q.OrderBy)
		assert.Equal(t, "desc", q.OrderDir)
		assert.Nil(t, q.Status)
		assert.Empty(t, q.OrderID)
		assert.Equal(t, scope, q.Scope)
	})

	t.Run("clamps page size", func(t *testing.T) {
		q := SanitizeOrderQuery(RawOrderQuery{PageSize: 5000}, scope, now)
		assert.Equal(t, 100, q.PageSize)

		q = SanitizeOrderQuery(RawOrderQuery{Page: -3, PageSize: -1}, scope, now)
		assert.Equal(t, 1, q.Page)
		assert.Equal(t, 20, q.PageSize)
	})

	t.Run("clamps page to the ceiling", func(t *testing.T) {
		q := SanitizeOrderQuery(RawOrderQuery{Page: 1 << 30}, scope, now)
		assert.Equal(t, 10000, q.Page)

		q = SanitizeOrderQuery(RawOrderQuery{Page: 42}, scope, now)
		assert.Equal(t, 42, q.Page)
	})

	t.Run("sort fields outside the allow-list fall back", func(t *testing.T) {
		q := SanitizeOrderQuery(RawOrderQuery{SortBy: "amount", SortDir: "ASC"}, scope, now)
		assert.Equal(t, "amount", q.OrderBy)
		assert.Equal(t, "asc", q.OrderDir)

		q = SanitizeOrderQuery(RawOrderQuery{SortBy: "utr; DROP TABLE", SortDir: "sideways"}, scope, now)
		assert.Equal(t, "created_at", q.OrderBy)
		assert.Equal(t, "desc", q.OrderDir)
	})

	t.Run("parses status case-insensitively and drops unknown", func(t *testing.T) {
		q := SanitizeOrderQuery(RawOrderQuery{Status: "pending"}, scope, now)
		require.NotNil(t, q.Status)
		assert.Equal(t, StatusPending, *q.Status)

		q = SanitizeOrderQuery(RawOrderQuery{Status: "paid"}, scope, now)
		assert.Nil(t, q.Status)
	})

	t.Run("drops malformed lookups", func(t *testing.T) {
		q := SanitizeOrderQuery(RawOrderQuery{OrderID: "x", UTR: "no spaces allowed"}, scope, now)
		assert.Empty(t, q.OrderID)
		assert.Empty(t, q.UTR)
	})

	t.Run("parses amount bounds and swaps inverted range", func(t *testing.T) {
		q := SanitizeOrderQuery(RawOrderQuery{MinAmount: "500", MaxAmount: "100"}, scope, now)
		require.NotNil(t, q.MinAmount)
		require.NotNil(t, q.MaxAmount)
		assert.Equal(t, "100", q.MinAmount.String())
		assert.Equal(t, "500", q.MaxAmount.String())

		q = SanitizeOrderQuery(RawOrderQuery{MinAmount: "-5", MaxAmount: "abc"}, scope, now)
		assert.Nil(t, q.MinAmount)
		assert.Nil(t, q.MaxAmount)
	})

	t.Run("clamps dates to the allowed window", func(t *testing.T) {
		ancient := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
		distant := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)

		q := SanitizeOrderQuery(RawOrderQuery{From: &ancient, To: &distant}, scope, now)
		require.NotNil(t, q.From)
		require.NotNil(t, q.To)
		assert.Equal(t, now.AddDate(-10, 0, 0), *q.From)
		assert.Equal(t, 2027, q.To.Year())
	})

	t.Run("swaps inverted date range", func(t *testing.T) {
		from := now.AddDate(0, 1, 0)
		to := now.AddDate(0, -1, 0)

		q := SanitizeOrderQuery(RawOrderQuery{From: &from, To: &to}, scope, now)
		require.NotNil(t, q.From)
		require.NotNil(t, q.To)
		assert.True(t, q.From.Before(*q.To))
	})
}
