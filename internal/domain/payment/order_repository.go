package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/upigw/backend/internal/domain/shared"
)

// StatusTotals is one dashboard aggregation row: how many visible orders
// hold a status and how much money they carry.
type StatusTotals struct {
	Count  int64
	Amount decimal.Decimal
}

// OrderRepository is the persistence port for payment orders. Status
// transitions are persisted with compare-and-swap semantics: the update is
// conditional on the status the caller read, and a lost race surfaces as a
// domain error instead of a silent overwrite.
type OrderRepository interface {
	// Create persists a new pending order.
	Create(ctx context.Context, order *Order) error

	// FindByID loads an order by internal id, soft-deleted rows excluded.
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderID loads an order by its public short id, soft-deleted
	// rows excluded.
	FindByOrderID(ctx context.Context, orderID string) (*Order, error)

	// UpdateStatusCAS persists the order's current state only if the row
	// still holds expected. Returns ErrConcurrencyConflict when another
	// writer got there first.
	UpdateStatusCAS(ctx context.Context, order *Order, expected OrderStatus) error

	// SoftDelete hides the order, guarding against double deletion.
	SoftDelete(ctx context.Context, order *Order) error

	// List returns a page of orders matching the sanitized query inside
	// its scope.
	List(ctx context.Context, query OrderQuery) (shared.Paginated[*Order], error)

	// StatsByStatus aggregates visible orders per status, counting rows
	// and summing amounts, for dashboards.
	StatsByStatus(ctx context.Context, query OrderQuery) (map[OrderStatus]StatusTotals, error)
}
