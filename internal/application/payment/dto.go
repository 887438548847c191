package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/upigw/backend/internal/domain/identity"
	"github.com/upigw/backend/internal/domain/payment"
)

// CreateOrderInput contains the input for order creation. Actor is the live
// principal; the merchant is derived from it, never supplied.
type CreateOrderInput struct {
	Actor         *identity.User
	Amount        decimal.Decimal
	VPA           string
	PayeeName     string
	Note          string
	ExpirySeconds int
}

// SubmitUTRInput contains the payer's submission. Unauthenticated: the
// public order id is the only credential.
type SubmitUTRInput struct {
	OrderID string
	UTR     string
}

// VerifyOrderInput contains the input for payment verification
type VerifyOrderInput struct {
	Actor   *identity.User
	OrderID string
}

// InvalidateOrderInput contains the owner's invalidation override
type InvalidateOrderInput struct {
	Actor   *identity.User
	OrderID string
}

// DeleteOrderInput contains the input for order soft deletion
type DeleteOrderInput struct {
	Actor   *identity.User
	OrderID string
}

// GetOrderInput contains the input for a scoped order lookup
type GetOrderInput struct {
	Actor   *identity.User
	OrderID string
}

// ListOrdersInput wraps the untrusted listing parameters with the actor
type ListOrdersInput struct {
	Actor *identity.User
	Raw   payment.RawOrderQuery
}

// OrderInfo is the order projection returned to authenticated callers.
// The VPA is masked for everyone below the owner.
type OrderInfo struct {
	ID            uuid.UUID
	OrderID       string
	Amount        decimal.Decimal
	VPA           string
	PayeeName     string
	Note          string
	Status        string
	UTR           *string
	UPILink       string
	CreatedBy     uuid.UUID
	MerchantID    uuid.UUID
	ExpiresAt     time.Time
	SubmittedAt   *time.Time
	VerifiedAt    *time.Time
	InvalidatedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicOrderInfo is the unauthenticated payer view: just enough to pay.
// The VPA is always masked; internal ids and audit fields never leave.
type PublicOrderInfo struct {
	OrderID   string
	Amount    decimal.Decimal
	MaskedVPA string
	PayeeName string
	Note      string
	Status    string
	UPILink   string
	ExpiresAt time.Time
}

// StatusStats is the dashboard breakdown for one order status
type StatusStats struct {
	Count  int64
	Amount decimal.Decimal
}

// DashboardStats aggregates visible orders for the actor's scope.
// TotalRevenue sums VERIFIED amounts only; unverified money is not revenue.
type DashboardStats struct {
	Total        int64
	TotalRevenue decimal.Decimal
	ByStatus     map[string]StatusStats
}

func newOrderInfo(order *payment.Order, maskVPA bool) OrderInfo {
	vpa := order.VPA
	if maskVPA {
		vpa = payment.MaskVPA(order.VPA)
	}
	return OrderInfo{
		ID:            order.ID,
		OrderID:       order.OrderID,
		Amount:        order.Amount,
		VPA:           vpa,
		PayeeName:     order.PayeeName,
		Note:          order.Note,
		Status:        order.Status.String(),
		UTR:           order.UTR,
		UPILink:       payment.BuildUPILink(order.VPA, order.PayeeName, order.Amount, order.OrderID, order.Note),
		CreatedBy:     order.CreatedBy,
		MerchantID:    order.MerchantID,
		ExpiresAt:     order.ExpiresAt,
		SubmittedAt:   order.SubmittedAt,
		VerifiedAt:    order.VerifiedAt,
		InvalidatedAt: order.InvalidatedAt,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

func newPublicOrderInfo(order *payment.Order) PublicOrderInfo {
	return PublicOrderInfo{
		OrderID:   order.OrderID,
		Amount:    order.Amount,
		MaskedVPA: payment.MaskVPA(order.VPA),
		PayeeName: order.PayeeName,
		Note:      order.Note,
		Status:    order.Status.String(),
		UPILink:   payment.BuildUPILink(order.VPA, order.PayeeName, order.Amount, order.OrderID, order.Note),
		ExpiresAt: order.ExpiresAt,
	}
}
