package payment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upigw/backend/internal/domain/identity"
	"github.com/upigw/backend/internal/domain/shared"
)

func activeMember(merchantID uuid.UUID) *identity.User {
	return &identity.User{
		BaseEntity: shared.BaseEntity{ID: uuid.New()},
		Role:       identity.RoleMember,
		ParentID:   &merchantID,
		IsActive:   true,
	}
}

func activeMerchant() *identity.User {
	return &identity.User{
		BaseEntity: shared.BaseEntity{ID: uuid.New()},
		Role:       identity.RoleMerchant,
		IsActive:   true,
	}
}

func TestDeriveMerchant(t *testing.T) {
	t.Run("member rolls up to parent merchant", func(t *testing.T) {
		merchantID := uuid.New()
		got, err := DeriveMerchant(activeMember(merchantID))
		require.NoError(t, err)
		assert.Equal(t, merchantID, got)
	})

	t.Run("merchant resolves to itself", func(t *testing.T) {
		m := activeMerchant()
		got, err := DeriveMerchant(m)
		require.NoError(t, err)
		assert.Equal(t, m.ID, got)
	})

	t.Run("member without parent fails", func(t *testing.T) {
		m := activeMember(uuid.New())
		m.ParentID = nil
		_, err := DeriveMerchant(m)
		assert.ErrorIs(t, err, shared.ErrInvalidHierarchy)
	})

	t.Run("owner cannot create orders", func(t *testing.T) {
		owner := &identity.User{BaseEntity: shared.BaseEntity{ID: uuid.New()}, Role: identity.RoleOwner, IsActive: true}
		_, err := DeriveMerchant(owner)
		require.Error(t, err)
	})

	t.Run("inactive creator fails", func(t *testing.T) {
		m := activeMerchant()
		m.IsActive = false
		_, err := DeriveMerchant(m)
		assert.ErrorIs(t, err, shared.ErrPrincipalInactive)
	})
}

func TestClampExpiry(t *testing.T) {
	assert.Equal(t, DefaultExpirySeconds, ClampExpiry(0))
	assert.Equal(t, DefaultExpirySeconds, ClampExpiry(-10))
	assert.Equal(t, MinExpirySeconds, ClampExpiry(5))
	assert.Equal(t, MaxExpirySeconds, ClampExpiry(90000))
	assert.Equal(t, 3600, ClampExpiry(3600))
}

func TestNewOrder(t *testing.T) {
	merchantID := uuid.New()
	creator := activeMember(merchantID)
	amount := decimal.NewFromFloat(499.50)

	t.Run("creates pending order with derived merchant", func(t *testing.T) {
		order, err := NewOrder(creator, amount, "alice@upi", "Alice", "invoice 42", 600)
		require.NoError(t, err)
		require.NotNil(t, order)

		assert.Equal(t, StatusPending, order.Status)
		assert.Equal(t, creator.ID, order.CreatedBy)
		assert.Equal(t, merchantID, order.MerchantID)
		assert.Len(t, order.OrderID, 10)
		assert.True(t, order.ExpiresAt.After(time.Now()))
		assert.Nil(t, order.UTR)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewOrder(creator, decimal.Zero, "alice@upi", "", "", 600)
		require.Error(t, err)

		_, err = NewOrder(creator, decimal.NewFromInt(-5), "alice@upi", "", "", 600)
		require.Error(t, err)
	})

	t.Run("rejects more than two decimal places", func(t *testing.T) {
		_, err := NewOrder(creator, decimal.NewFromFloat(1.999), "alice@upi", "", "", 600)
		require.Error(t, err)
	})

	t.Run("rejects invalid vpa", func(t *testing.T) {
		_, err := NewOrder(creator, amount, "not a vpa", "", "", 600)
		require.Error(t, err)
	})
}

func TestOrderSubmit(t *testing.T) {
	creator := activeMerchant()
	now := time.Now()

	newPending := func(t *testing.T) *Order {
		order, err := NewOrder(creator, decimal.NewFromInt(100), "shop@upi", "", "", 600)
		require.NoError(t, err)
		return order
	}

	t.Run("submits pending order with valid utr", func(t *testing.T) {
		order := newPending(t)
		require.NoError(t, order.Submit("UTR12345678", now))

		assert.Equal(t, StatusSubmitted, order.Status)
		require.NotNil(t, order.UTR)
		assert.Equal(t, "UTR12345678", *order.UTR)
		require.NotNil(t, order.SubmittedAt)
	})

	t.Run("expired pending order flips and rejects", func(t *testing.T) {
		order := newPending(t)
		late := order.ExpiresAt.Add(time.Second)

		err := order.Submit("UTR12345678", late)
		assert.ErrorIs(t, err, shared.ErrOrderExpired)
		assert.Equal(t, StatusExpired, order.Status)
		assert.Nil(t, order.UTR)
	})

	t.Run("already expired order rejects again", func(t *testing.T) {
		order := newPending(t)
		order.Status = StatusExpired
		assert.ErrorIs(t, order.Submit("UTR12345678", now), shared.ErrOrderExpired)
	})

	t.Run("rejects invalid utr without transition", func(t *testing.T) {
		order := newPending(t)
		require.Error(t, order.Submit("ab", now))
		assert.Equal(t, StatusPending, order.Status)
	})

	t.Run("rejects submit from submitted", func(t *testing.T) {
		order := newPending(t)
		require.NoError(t, order.Submit("UTR12345678", now))
		assert.ErrorIs(t, order.Submit("UTR87654321", now), shared.ErrInvalidTransition)
	})
}

func TestOrderVerify(t *testing.T) {
	creator := activeMerchant()
	verifier := uuid.New()
	now := time.Now()

	t.Run("verifies submitted order", func(t *testing.T) {
		order, err := NewOrder(creator, decimal.NewFromInt(100), "shop@upi", "", "", 600)
		require.NoError(t, err)
		require.NoError(t, order.Submit("UTR12345678", now))

		require.NoError(t, order.Verify(verifier, now))
		assert.Equal(t, StatusVerified, order.Status)
		require.NotNil(t, order.VerifiedBy)
		assert.Equal(t, verifier, *order.VerifiedBy)
	})

	t.Run("rejects verify from pending", func(t *testing.T) {
		order, err := NewOrder(creator, decimal.NewFromInt(100), "shop@upi", "", "", 600)
		require.NoError(t, err)
		assert.ErrorIs(t, order.Verify(verifier, now), shared.ErrInvalidTransition)
	})

	t.Run("rejects verify from terminal states", func(t *testing.T) {
		for _, st := range []OrderStatus{StatusVerified, StatusExpired, StatusInvalidated, StatusCancelled} {
			order, err := NewOrder(creator, decimal.NewFromInt(100), "shop@upi", "", "", 600)
			require.NoError(t, err)
			order.Status = st
			assert.ErrorIs(t, order.Verify(verifier, now), shared.ErrInvalidTransition, st.String())
		}
	})
}

func TestOrderInvalidate(t *testing.T) {
	creator := activeMerchant()
	by := uuid.New()
	now := time.Now()

	t.Run("invalidates from any non-invalidated status", func(t *testing.T) {
		for _, st := range []OrderStatus{StatusPending, StatusSubmitted, StatusVerified, StatusExpired, StatusCancelled} {
			order, err := NewOrder(creator, decimal.NewFromInt(100), "shop@upi", "", "", 600)
			require.NoError(t, err)
			order.Status = st

			require.NoError(t, order.Invalidate(by, now), st.String())
			assert.Equal(t, StatusInvalidated, order.Status)
			require.NotNil(t, order.InvalidatedBy)
			assert.Equal(t, by, *order.InvalidatedBy)
		}
	})

	t.Run("rejects double invalidation", func(t *testing.T) {
		order, err := NewOrder(creator, decimal.NewFromInt(100), "shop@upi", "", "", 600)
		require.NoError(t, err)
		require.NoError(t, order.Invalidate(by, now))
		assert.ErrorIs(t, order.Invalidate(by, now), shared.ErrAlreadyInvalidated)
	})
}

func TestOrderSoftDelete(t *testing.T) {
	creator := activeMerchant()
	by := uuid.New()
	now := time.Now()

	order, err := NewOrder(creator, decimal.NewFromInt(100), "shop@upi", "", "", 600)
	require.NoError(t, err)
	require.NoError(t, order.Submit("UTR12345678", now))

	order.SoftDelete(by, now)
	assert.True(t, order.IsDeleted())
	assert.Equal(t, StatusSubmitted, order.Status)
	require.NotNil(t, order.DeletedBy)
	assert.Equal(t, by, *order.DeletedBy)
}

func TestOrderStatusTransitions(t *testing.T) {
	t.Run("allowed transitions", func(t *testing.T) {
		assert.True(t, StatusPending.CanTransitionTo(StatusSubmitted))
		assert.True(t, StatusPending.CanTransitionTo(StatusExpired))
		assert.True(t, StatusSubmitted.CanTransitionTo(StatusVerified))
	})

	t.Run("forbidden transitions", func(t *testing.T) {
		assert.False(t, StatusPending.CanTransitionTo(StatusVerified))
		assert.False(t, StatusSubmitted.CanTransitionTo(StatusExpired))
		assert.False(t, StatusVerified.CanTransitionTo(StatusSubmitted))
		assert.False(t, StatusExpired.CanTransitionTo(StatusSubmitted))
		assert.False(t, StatusCancelled.CanTransitionTo(StatusSubmitted))
	})

	t.Run("terminal statuses", func(t *testing.T) {
		assert.False(t, StatusPending.IsTerminal())
		assert.False(t, StatusSubmitted.IsTerminal())
		assert.True(t, StatusVerified.IsTerminal())
		assert.True(t, StatusExpired.IsTerminal())
		assert.True(t, StatusInvalidated.IsTerminal())
		assert.True(t, StatusCancelled.IsTerminal())
	})
}
