package payment

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/upigw/backend/internal/domain/identity"
	"github.com/upigw/backend/internal/domain/shared"
)

// Query sanitizer: every listing parameter that reaches the repository goes
// through here first. Out-of-range values are clamped or dropped, never
// echoed back into SQL.

const (
	maxPageSize     = 100
	defaultPageSize = 20
	// Date filters are clamped to a window of ten years back through the
	// end of next calendar year.
	dateWindowYearsBack = 10
)

var (
	orderIDQueryRegex = regexp.MustCompile(`^[0-9a-z]{5,20}$`)
	utrQueryRegex     = regexp.MustCompile(`^[0-9A-Za-z]{6,32}$`)
)

// OrderQuery is a fully sanitized listing request. Construct it through
// SanitizeOrderQuery; zero-value pointer fields mean "no constraint".
type OrderQuery struct {
	shared.Filter
	Status    *OrderStatus
	OrderID   string
	UTR       string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	From      *time.Time
	To        *time.Time
	Scope     identity.Scope
}

// RawOrderQuery carries the untrusted listing parameters as they arrived.
type RawOrderQuery struct {
	Page      int
	PageSize  int
	SortBy    string
	SortDir   string
	Status    string
	OrderID   string
	UTR       string
	MinAmount string
	MaxAmount string
	From      *time.Time
	To        *time.Time
}

// orderSortFields is the allow-list of sortable columns. Anything else
// falls back to created_at.
var orderSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"amount":     true,
	"expires_at": true,
	"status":     true,
}

// SanitizeOrderQuery converts raw parameters into a safe OrderQuery. It
// never fails: invalid pieces are dropped or clamped so a hostile query
// degrades to a harmless one.
func SanitizeOrderQuery(raw RawOrderQuery, scope identity.Scope, now time.Time) OrderQuery {
	q := OrderQuery{
		Filter: shared.DefaultFilter(),
		Scope:  scope,
	}

	if raw.Page > 0 {
		q.Page = raw.Page
		if q.Page > shared.MaxPage {
			q.Page = shared.MaxPage
		}
	}
	if raw.PageSize > 0 {
		q.PageSize = raw.PageSize
		if q.PageSize > maxPageSize {
			q.PageSize = maxPageSize
		}
	} else {
		q.PageSize = defaultPageSize
	}

	if orderSortFields[raw.SortBy] {
		q.OrderBy = raw.SortBy
	}
	if dir := strings.ToLower(raw.SortDir); dir == "asc" || dir == "desc" {
		q.OrderDir = dir
	}

	if st := OrderStatus(strings.ToUpper(strings.TrimSpace(raw.Status))); st.IsValid() {
		q.Status = &st
	}
	if id := SanitizeOrderID(raw.OrderID); id != "" {
		q.OrderID = id
	}
	if utr := SanitizeUTR(raw.UTR); utr != "" {
		q.UTR = utr
	}

	if v, err := decimal.NewFromString(strings.TrimSpace(raw.MinAmount)); err == nil && !v.IsNegative() {
		q.MinAmount = &v
	}
	if v, err := decimal.NewFromString(strings.TrimSpace(raw.MaxAmount)); err == nil && !v.IsNegative() {
		q.MaxAmount = &v
	}
	if q.MinAmount != nil && q.MaxAmount != nil && q.MinAmount.GreaterThan(*q.MaxAmount) {
		q.MinAmount, q.MaxAmount = q.MaxAmount, q.MinAmount
	}

	q.From, q.To = clampDateWindow(raw.From, raw.To, now)
	return q
}

// SanitizeOrderID normalizes a public order id lookup. Returns "" when the
// input cannot be a valid id.
func SanitizeOrderID(raw string) string {
	id := strings.ToLower(strings.TrimSpace(raw))
	if !orderIDQueryRegex.MatchString(id) {
		return ""
	}
	return id
}

// SanitizeUTR normalizes a UTR lookup. Returns "" when the input cannot be
// a valid reference.
func SanitizeUTR(raw string) string {
	utr := strings.TrimSpace(raw)
	if !utrQueryRegex.MatchString(utr) {
		return ""
	}
	return utr
}

// clampDateWindow bounds a date range to [now-10y, end of next year] and
// swaps an inverted range.
func clampDateWindow(from, to *time.Time, now time.Time) (*time.Time, *time.Time) {
	earliest := now.AddDate(-dateWindowYearsBack, 0, 0)
	latest := time.Date(now.Year()+2, 1, 1, 0, 0, 0, 0, now.Location()).Add(-time.Nanosecond)

	clamp := func(t *time.Time) *time.Time {
		if t == nil {
			return nil
		}
		v := *t
		if v.Before(earliest) {
			v = earliest
		}
		if v.After(latest) {
			v = latest
		}
		return &v
	}

	from, to = clamp(from), clamp(to)
	if from != nil && to != nil && from.After(*to) {
		from, to = to, from
	}
	return from, to
}
