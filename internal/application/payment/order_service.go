package payment

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/upigw/backend/internal/domain/identity"
	"github.com/upigw/backend/internal/domain/payment"
	"github.com/upigw/backend/internal/domain/shared"
	"github.com/upigw/backend/internal/infrastructure/config"
)

// OrderService handles the payment order lifecycle. Expiry is lazy: nobody
// sweeps pending orders, they flip to EXPIRED the first time a read or a
// submission touches them past the deadline. Every transition is persisted
// with compare-and-swap on the status the service read.
type OrderService struct {
	orderRepo payment.OrderRepository
	cfg       config.OrderConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(orderRepo payment.OrderRepository, cfg config.OrderConfig, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateOrder creates a pending order and its UPI deep link. Members and
// merchants only; the merchant is derived from the creator.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderInfo, error) {
	expiry := input.ExpirySeconds
	if expiry <= 0 {
		expiry = int(s.cfg.DefaultExpiry.Seconds())
	}
	payeeName := input.PayeeName
	if payeeName == "" {
		payeeName = s.cfg.PayeeName
	}

	order, err := payment.NewOrder(input.Actor, input.Amount, input.VPA, payeeName, input.Note, expiry)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error("Failed to persist order", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.OrderID),
		zap.String("merchant_id", order.MerchantID.String()),
		zap.String("created_by", order.CreatedBy.String()),
		zap.String("amount", order.Amount.StringFixed(2)))

	info := newOrderInfo(order, input.Actor.Role != identity.RoleOwner)
	return &info, nil
}

// GetOrder loads an order inside the actor's scope. Out-of-scope orders read
// as NOT_FOUND. A pending order past its deadline flips to EXPIRED on read.
func (s *OrderService) GetOrder(ctx context.Context, input GetOrderInput) (*OrderInfo, error) {
	order, err := s.loadScoped(ctx, input.Actor, input.OrderID)
	if err != nil {
		return nil, err
	}

	s.touchExpiry(ctx, order)

	info := newOrderInfo(order, input.Actor == nil || input.Actor.Role != identity.RoleOwner)
	return &info, nil
}

// GetPublicOrder is the unauthenticated payer view keyed by the public id.
// The VPA is always masked.
func (s *OrderService) GetPublicOrder(ctx context.Context, orderID string) (*PublicOrderInfo, error) {
	id := payment.SanitizeOrderID(orderID)
	if id == "" {
		return nil, shared.ErrNotFound
	}

	order, err := s.orderRepo.FindByOrderID(ctx, id)
	if err != nil {
		return nil, shared.ErrNotFound
	}

	s.touchExpiry(ctx, order)

	info := newPublicOrderInfo(order)
	return &info, nil
}

// SubmitUTR records the payer's transaction reference. Unauthenticated; the
// order id is the credential. A pending order past its deadline expires
// instead and the submission is rejected with ORDER_EXPIRED.
func (s *OrderService) SubmitUTR(ctx context.Context, input SubmitUTRInput) (*PublicOrderInfo, error) {
	id := payment.SanitizeOrderID(input.OrderID)
	if id == "" {
		return nil, shared.ErrNotFound
	}

	order, err := s.orderRepo.FindByOrderID(ctx, id)
	if err != nil {
		return nil, shared.ErrNotFound
	}

	expected := order.Status
	if err := order.Submit(input.UTR, s.now()); err != nil {
		// Persist the lazy expiry flip before reporting it
		if errors.Is(err, shared.ErrOrderExpired) && order.Status == payment.StatusExpired && expected == payment.StatusPending {
			s.persistCAS(ctx, order, expected)
		}
		return nil, err
	}

	if err := s.orderRepo.UpdateStatusCAS(ctx, order, expected); err != nil {
		s.logger.Warn("UTR submission lost a race",
			zap.String("order_id", order.OrderID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("UTR submitted",
		zap.String("order_id", order.OrderID),
		zap.String("utr", input.UTR))

	info := newPublicOrderInfo(order)
	return &info, nil
}

// VerifyOrder confirms a submitted payment. The actor must be able to manage
// the order; only SUBMITTED orders verify.
func (s *OrderService) VerifyOrder(ctx context.Context, input VerifyOrderInput) (*OrderInfo, error) {
	actor := input.Actor
	if actor == nil || !actor.IsActive {
		return nil, shared.ErrPrincipalInactive
	}

	order, err := s.loadScoped(ctx, actor, input.OrderID)
	if err != nil {
		return nil, err
	}
	if !identity.CanManageOrder(actor.Role, order.CreatedBy, order.MerchantID, actor.ID) {
		return nil, shared.ErrInsufficientPriv
	}

	expected := order.Status
	if err := order.Verify(actor.ID, s.now()); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatusCAS(ctx, order, expected); err != nil {
		return nil, err
	}

	s.logger.Info("Order verified",
		zap.String("order_id", order.OrderID),
		zap.String("verified_by", actor.ID.String()))

	info := newOrderInfo(order, actor.Role != identity.RoleOwner)
	return &info, nil
}

// InvalidateOrder voids an order from any status except INVALIDATED itself.
// Owner only.
func (s *OrderService) InvalidateOrder(ctx context.Context, input InvalidateOrderInput) (*OrderInfo, error) {
	actor := input.Actor
	if actor == nil || !actor.IsActive {
		return nil, shared.ErrPrincipalInactive
	}
	if !identity.CanInvalidateOrder(actor.Role) {
		return nil, shared.ErrInsufficientPriv
	}

	order, err := s.loadScoped(ctx, actor, input.OrderID)
	if err != nil {
		return nil, err
	}

	expected := order.Status
	if err := order.Invalidate(actor.ID, s.now()); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatusCAS(ctx, order, expected); err != nil {
		return nil, err
	}

	s.logger.Info("Order invalidated",
		zap.String("order_id", order.OrderID),
		zap.String("invalidated_by", actor.ID.String()),
		zap.String("previous_status", expected.String()))

	info := newOrderInfo(order, false)
	return &info, nil
}

// DeleteOrder soft-deletes an order, keeping its status. Owner only.
func (s *OrderService) DeleteOrder(ctx context.Context, input DeleteOrderInput) error {
	actor := input.Actor
	if actor == nil || !actor.IsActive {
		return shared.ErrPrincipalInactive
	}
	if actor.Role != identity.RoleOwner {
		return shared.ErrInsufficientPriv
	}

	order, err := s.loadScoped(ctx, actor, input.OrderID)
	if err != nil {
		return err
	}

	order.SoftDelete(actor.ID, s.now())
	if err := s.orderRepo.SoftDelete(ctx, order); err != nil {
		return err
	}

	s.logger.Info("Order deleted",
		zap.String("order_id", order.OrderID),
		zap.String("deleted_by", actor.ID.String()))
	return nil
}

// ListOrders returns a page of orders inside the actor's scope. The raw
// filter goes through the sanitizer; hostile parameters degrade to harmless
// ones instead of failing.
func (s *OrderService) ListOrders(ctx context.Context, input ListOrdersInput) (shared.Paginated[OrderInfo], error) {
	scope := identity.OrderScope(input.Actor)
	query := payment.SanitizeOrderQuery(input.Raw, scope, s.now())

	page, err := s.orderRepo.List(ctx, query)
	if err != nil {
		return shared.Paginated[OrderInfo]{}, err
	}

	mask := input.Actor == nil || input.Actor.Role != identity.RoleOwner
	items := make([]OrderInfo, len(page.Items))
	for i, order := range page.Items {
		items[i] = newOrderInfo(order, mask)
	}
	return shared.Paginated[OrderInfo]{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// Dashboard aggregates the actor's visible orders per status, with counts,
// per-status amounts and total revenue (sum of VERIFIED amounts)
func (s *OrderService) Dashboard(ctx context.Context, actor *identity.User) (*DashboardStats, error) {
	scope := identity.OrderScope(actor)
	query := payment.SanitizeOrderQuery(payment.RawOrderQuery{}, scope, s.now())

	totals, err := s.orderRepo.StatsByStatus(ctx, query)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{ByStatus: make(map[string]StatusStats, len(totals))}
	for status, t := range totals {
		stats.ByStatus[status.String()] = StatusStats{Count: t.Count, Amount: t.Amount}
		stats.Total += t.Count
		if status == payment.StatusVerified {
			stats.TotalRevenue = stats.TotalRevenue.Add(t.Amount)
		}
	}
	return stats, nil
}

// loadScoped loads an order by public id and applies the actor's scope.
// Invalid ids, missing rows and out-of-scope rows all read as NOT_FOUND.
func (s *OrderService) loadScoped(ctx context.Context, actor *identity.User, orderID string) (*payment.Order, error) {
	id := payment.SanitizeOrderID(orderID)
	if id == "" {
		return nil, shared.ErrNotFound
	}

	order, err := s.orderRepo.FindByOrderID(ctx, id)
	if err != nil {
		return nil, shared.ErrNotFound
	}
	if !identity.OrderScope(actor).MatchesOrder(order.CreatedBy, order.MerchantID) {
		return nil, shared.ErrNotFound
	}
	return order, nil
}

// touchExpiry persists a lazy expiry flip triggered by a read. A lost race
// means another toucher already flipped it; that is fine.
func (s *OrderService) touchExpiry(ctx context.Context, order *payment.Order) {
	if !order.TouchExpiry(s.now()) {
		return
	}
	s.persistCAS(ctx, order, payment.StatusPending)
}

func (s *OrderService) persistCAS(ctx context.Context, order *payment.Order, expected payment.OrderStatus) {
	err := s.orderRepo.UpdateStatusCAS(ctx, order, expected)
	if err != nil && !errors.Is(err, shared.ErrConcurrencyConflict) {
		s.logger.Error("Failed to persist lazy expiry",
			zap.String("order_id", order.OrderID),
			zap.Error(err))
	}
}
