package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/upigw/backend/internal/domain/payment"
)

// OrderModel is the persistence model for the Order domain entity.
type OrderModel struct {
	BaseModel
	OrderID       string              `gorm:"type:varchar(20);not null;uniqueIndex"`
	Amount        decimal.Decimal     `gorm:"type:decimal(15,2);not null"`
	VPA           string              `gorm:"column:vpa;type:varchar(320);not null"`
	PayeeName     string              `gorm:"type:varchar(200)"`
	Note          string              `gorm:"type:varchar(500)"`
	Status        payment.OrderStatus `gorm:"type:varchar(20);not null;index:idx_orders_status_created"`
	UTR           *string             `gorm:"column:utr;type:varchar(32);index"`
	CreatedBy     uuid.UUID           `gorm:"type:uuid;not null;index:idx_orders_creator_created"`
	MerchantID    uuid.UUID           `gorm:"type:uuid;not null;index:idx_orders_merchant_created"`
	ExpiresAt     time.Time           `gorm:"not null;index"`
	SubmittedAt   *time.Time
	VerifiedAt    *time.Time
	VerifiedBy    *uuid.UUID `gorm:"type:uuid"`
	InvalidatedAt *time.Time
	InvalidatedBy *uuid.UUID `gorm:"type:uuid"`
	DeletedAt     *time.Time `gorm:"index"`
	DeletedBy     *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *payment.Order {
	return &payment.Order{
		BaseEntity:    m.BaseModel.ToDomain(),
		OrderID:       m.OrderID,
		Amount:        m.Amount,
		VPA:           m.VPA,
		PayeeName:     m.PayeeName,
		Note:          m.Note,
		Status:        m.Status,
		UTR:           m.UTR,
		CreatedBy:     m.CreatedBy,
		MerchantID:    m.MerchantID,
		ExpiresAt:     m.ExpiresAt,
		SubmittedAt:   m.SubmittedAt,
		VerifiedAt:    m.VerifiedAt,
		VerifiedBy:    m.VerifiedBy,
		InvalidatedAt: m.InvalidatedAt,
		InvalidatedBy: m.InvalidatedBy,
		DeletedAt:     m.DeletedAt,
		DeletedBy:     m.DeletedBy,
	}
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *payment.Order) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.OrderID = o.OrderID
	m.Amount = o.Amount
	m.VPA = o.VPA
	m.PayeeName = o.PayeeName
	m.Note = o.Note
	m.Status = o.Status
	m.UTR = o.UTR
	m.CreatedBy = o.CreatedBy
	m.MerchantID = o.MerchantID
	m.ExpiresAt = o.ExpiresAt
	m.SubmittedAt = o.SubmittedAt
	m.VerifiedAt = o.VerifiedAt
	m.VerifiedBy = o.VerifiedBy
	m.InvalidatedAt = o.InvalidatedAt
	m.InvalidatedBy = o.InvalidatedBy
	m.DeletedAt = o.DeletedAt
	m.DeletedBy = o.DeletedBy
}

// OrderModelFromDomain creates a new persistence model from a domain Order entity.
func OrderModelFromDomain(o *payment.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
