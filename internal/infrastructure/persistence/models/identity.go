package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/upigw/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	BaseModel
	Username     string        `gorm:"type:varchar(100);not null;uniqueIndex"`
	PasswordHash string        `gorm:"type:varchar(255);not null"`
	Role         identity.Role `gorm:"type:varchar(20);not null;index"`
	ParentID     *uuid.UUID    `gorm:"type:uuid;index"`
	IsActive     bool          `gorm:"not null;default:true;index"`
	CreatedBy    *uuid.UUID    `gorm:"type:uuid"`
	DeletedAt    *time.Time    `gorm:"index"`
	DeletedBy    *uuid.UUID    `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity:   m.BaseModel.ToDomain(),
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		ParentID:     m.ParentID,
		IsActive:     m.IsActive,
		CreatedBy:    m.CreatedBy,
		DeletedAt:    m.DeletedAt,
		DeletedBy:    m.DeletedBy,
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainBaseEntity(u.BaseEntity)
	m.Username = u.Username
	m.PasswordHash = u.PasswordHash
	m.Role = u.Role
	m.ParentID = u.ParentID
	m.IsActive = u.IsActive
	m.CreatedBy = u.CreatedBy
	m.DeletedAt = u.DeletedAt
	m.DeletedBy = u.DeletedBy
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
