package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/upigw/backend/internal/domain/identity"
	"github.com/upigw/backend/internal/domain/shared"
)

// OrderStatus represents the lifecycle state of a payment order
type OrderStatus string

const (
	// StatusPending is the initial state: link issued, payment awaited.
	StatusPending OrderStatus = "PENDING"
	// StatusSubmitted means the payer reported a UTR for review.
	StatusSubmitted OrderStatus = "SUBMITTED"
	// StatusVerified is the success terminal state.
	StatusVerified OrderStatus = "VERIFIED"
	// StatusExpired is reached lazily when a pending order is touched
	// past its deadline.
	StatusExpired OrderStatus = "EXPIRED"
	// StatusInvalidated is the owner's administrative override. Terminal.
	StatusInvalidated OrderStatus = "INVALIDATED"
	// StatusCancelled is reserved for payer-initiated aborts. No code path
	// produces it yet; it is terminal if it ever appears in data.
	StatusCancelled OrderStatus = "CANCELLED"
)

// Expiry window bounds in seconds
const (
	MinExpirySeconds     = 60
	MaxExpirySeconds     = 86400
	DefaultExpirySeconds = 5400
)

// IsValid checks if the status is a known OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusVerified,
		StatusExpired, StatusInvalidated, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition leaves this status.
// Invalidation is not a transition in this sense: the owner may void an
// order from any status except INVALIDATED itself.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusVerified, StatusExpired, StatusInvalidated, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the regular lifecycle permits moving from
// s to target. The owner's invalidation override is handled separately.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusSubmitted || target == StatusExpired
	case StatusSubmitted:
		return target == StatusVerified
	default:
		return false
	}
}

// Order is the aggregate root for a payment order. The short OrderID is the
// public handle used in links and lookups; the UUID is internal.
type Order struct {
	shared.BaseEntity
	OrderID       string
	Amount        decimal.Decimal
	VPA           string
	PayeeName     string
	Note          string
	Status        OrderStatus
	UTR           *string
	CreatedBy     uuid.UUID
	MerchantID    uuid.UUID
	ExpiresAt     time.Time
	SubmittedAt   *time.Time
	VerifiedAt    *time.Time
	VerifiedBy    *uuid.UUID
	InvalidatedAt *time.Time
	InvalidatedBy *uuid.UUID
	DeletedAt     *time.Time
	DeletedBy     *uuid.UUID
}

// DeriveMerchant resolves the merchant an order belongs to from its creator:
// a member's orders roll up to the parent merchant, a merchant's orders to
// itself. Owners and unknown roles cannot create orders.
func DeriveMerchant(creator *identity.User) (uuid.UUID, error) {
	if creator == nil || !creator.IsActive {
		return uuid.Nil, shared.ErrPrincipalInactive
	}
	switch creator.Role {
	case identity.RoleMember:
		if creator.ParentID == nil {
			return uuid.Nil, shared.ErrInvalidHierarchy
		}
		return *creator.ParentID, nil
	case identity.RoleMerchant:
		return creator.ID, nil
	default:
		return uuid.Nil, shared.NewDomainError("INSUFFICIENT_PRIVILEGE", "Only merchants and members can create orders")
	}
}

// ClampExpiry normalizes a requested TTL in seconds into the allowed window.
// Zero or negative requests fall back to the default.
func ClampExpiry(seconds int) int {
	if seconds <= 0 {
		return DefaultExpirySeconds
	}
	if seconds < MinExpirySeconds {
		return MinExpirySeconds
	}
	if seconds > MaxExpirySeconds {
		return MaxExpirySeconds
	}
	return seconds
}

// NewOrder creates a pending order for the given creator. The merchant is
// derived, never supplied by the caller.
func NewOrder(creator *identity.User, amount decimal.Decimal, vpa, payeeName, note string, expirySeconds int) (*Order, error) {
	merchantID, err := DeriveMerchant(creator)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Amount must be positive")
	}
	if amount.Exponent() < -2 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Amount cannot have more than 2 decimal places")
	}
	if !IsValidVPA(vpa) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invalid VPA format")
	}

	orderID, err := NewOrderID()
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate order id")
	}

	ttl := ClampExpiry(expirySeconds)
	return &Order{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    orderID,
		Amount:     amount,
		VPA:        vpa,
		PayeeName:  payeeName,
		Note:       note,
		Status:     StatusPending,
		CreatedBy:  creator.ID,
		MerchantID: merchantID,
		ExpiresAt:  time.Now().Add(time.Duration(ttl) * time.Second),
	}, nil
}

// IsExpired reports whether the pending deadline has passed at the given
// instant. Only meaningful for pending orders; other statuses keep their
// state regardless of the clock.
func (o *Order) IsExpired(now time.Time) bool {
	return o.Status == StatusPending && now.After(o.ExpiresAt)
}

// TouchExpiry applies lazy expiration: a pending order touched past its
// deadline flips to EXPIRED. Returns true when the flip happened and the
// caller must persist it.
func (o *Order) TouchExpiry(now time.Time) bool {
	if !o.IsExpired(now) {
		return false
	}
	o.Status = StatusExpired
	o.Touch(now)
	return true
}

// Submit records the payer's UTR and moves the order to SUBMITTED. A pending
// order past its deadline expires instead and the submission is rejected.
func (o *Order) Submit(utr string, now time.Time) error {
	if o.TouchExpiry(now) {
		return shared.ErrOrderExpired
	}
	if !o.Status.CanTransitionTo(StatusSubmitted) {
		if o.Status == StatusExpired {
			return shared.ErrOrderExpired
		}
		return shared.ErrInvalidTransition
	}
	if !IsValidUTR(utr) {
		return shared.NewDomainError("VALIDATION_ERROR", "Invalid UTR format")
	}
	o.UTR = &utr
	o.Status = StatusSubmitted
	o.SubmittedAt = &now
	o.Touch(now)
	return nil
}

// Verify confirms a submitted payment. Only SUBMITTED orders can be verified.
func (o *Order) Verify(by uuid.UUID, now time.Time) error {
	if !o.Status.CanTransitionTo(StatusVerified) {
		return shared.ErrInvalidTransition
	}
	o.Status = StatusVerified
	o.VerifiedAt = &now
	o.VerifiedBy = &by
	o.Touch(now)
	return nil
}

// Invalidate voids the order from any status except INVALIDATED itself.
// Caller is responsible for the owner-only permission check.
func (o *Order) Invalidate(by uuid.UUID, now time.Time) error {
	if o.Status == StatusInvalidated {
		return shared.ErrAlreadyInvalidated
	}
	o.Status = StatusInvalidated
	o.InvalidatedAt = &now
	o.InvalidatedBy = &by
	o.Touch(now)
	return nil
}

// SoftDelete hides the order from listings without touching its status.
func (o *Order) SoftDelete(by uuid.UUID, now time.Time) {
	o.DeletedAt = &now
	o.DeletedBy = &by
	o.Touch(now)
}

// IsDeleted reports whether the order is soft-deleted
func (o *Order) IsDeleted() bool {
	return o.DeletedAt != nil
}
