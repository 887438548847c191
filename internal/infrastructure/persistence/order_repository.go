package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/upigw/backend/internal/domain/payment"
	"github.com/upigw/backend/internal/domain/shared"
	"github.com/upigw/backend/internal/infrastructure/persistence/datascope"
	"github.com/upigw/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements payment.OrderRepository using GORM.
// Status transitions use compare-and-swap updates conditioned on the status
// the caller read, so two racing writers cannot both win.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create persists a new pending order
func (r *GormOrderRepository) Create(ctx context.Context, order *payment.Order) error {
	return r.db.WithContext(ctx).Create(models.OrderModelFromDomain(order)).Error
}

// FindByID loads an order by internal id, soft-deleted rows excluded
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderID loads an order by its public short id
func (r *GormOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*payment.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND deleted_at IS NULL", orderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdateStatusCAS persists the order's current state only if the row still
// holds the expected status. A zero-row update means another writer moved
// the order first.
func (r *GormOrderRepository) UpdateStatusCAS(ctx context.Context, order *payment.Order, expected payment.OrderStatus) error {
	model := models.OrderModelFromDomain(order)
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND status = ? AND deleted_at IS NULL", order.ID, expected).
		Select("status", "utr", "submitted_at", "verified_at", "verified_by",
			"invalidated_at", "invalidated_by", "updated_at").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// SoftDelete hides the order, guarding against double deletion
func (r *GormOrderRepository) SoftDelete(ctx context.Context, order *payment.Order) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND deleted_at IS NULL", order.ID).
		Updates(map[string]interface{}{
			"deleted_at": order.DeletedAt,
			"deleted_by": order.DeletedBy,
			"updated_at": order.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// List returns a page of orders matching the sanitized query inside its scope
func (r *GormOrderRepository) List(ctx context.Context, query payment.OrderQuery) (shared.Paginated[*payment.Order], error) {
	var total int64
	if err := r.applyQuery(r.db.WithContext(ctx).Model(&models.OrderModel{}), query).
		Count(&total).Error; err != nil {
		return shared.Paginated[*payment.Order]{}, err
	}

	orderBy := ValidateSortField(query.OrderBy, OrderSortFields, "created_at")
	orderDir := ValidateSortOrder(query.OrderDir)

	var orderModels []models.OrderModel
	if err := r.applyQuery(r.db.WithContext(ctx).Model(&models.OrderModel{}), query).
		Order(orderBy + " " + orderDir).
		Offset(query.Offset()).
		Limit(query.Limit()).
		Find(&orderModels).Error; err != nil {
		return shared.Paginated[*payment.Order]{}, err
	}

	orders := make([]*payment.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = orderModels[i].ToDomain()
	}
	return shared.NewPaginated(orders, total, query.Page, query.Limit()), nil
}

// StatsByStatus aggregates visible orders per status, counting rows and
// summing amounts in one pass
func (r *GormOrderRepository) StatsByStatus(ctx context.Context, query payment.OrderQuery) (map[payment.OrderStatus]payment.StatusTotals, error) {
	type row struct {
		Status payment.OrderStatus
		Count  int64
		Amount decimal.Decimal
	}

	var rows []row
	base := r.applyQuery(r.db.WithContext(ctx).Model(&models.OrderModel{}), query)
	if err := base.
		Select("status, count(*) as count, COALESCE(SUM(amount), 0) as amount").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := make(map[payment.OrderStatus]payment.StatusTotals, len(rows))
	for _, row := range rows {
		stats[row.Status] = payment.StatusTotals{Count: row.Count, Amount: row.Amount}
	}
	return stats, nil
}

// applyQuery applies scope and sanitized filters, without pagination
func (r *GormOrderRepository) applyQuery(db *gorm.DB, query payment.OrderQuery) *gorm.DB {
	db = datascope.ApplyOrderScope(db, query.Scope)

	if query.Status != nil {
		db = db.Where("status = ?", *query.Status)
	}
	if query.OrderID != "" {
		db = db.Where("order_id = ?", query.OrderID)
	}
	if query.UTR != "" {
		db = db.Where("utr = ?", query.UTR)
	}
	if query.MinAmount != nil {
		db = db.Where("amount >= ?", *query.MinAmount)
	}
	if query.MaxAmount != nil {
		db = db.Where("amount <= ?", *query.MaxAmount)
	}
	if query.From != nil {
		db = db.Where("created_at >= ?", *query.From)
	}
	if query.To != nil {
		db = db.Where("created_at <= ?", *query.To)
	}
	return db
}

// Ensure GormOrderRepository implements payment.OrderRepository
var _ payment.OrderRepository = (*GormOrderRepository)(nil)
