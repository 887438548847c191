package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/upigw/backend/internal/domain/shared"
)

// Password cost for bcrypt
const bcryptCost = 12

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// User represents an account in the gateway: the platform owner, a merchant,
// or a member attached to a merchant. It is the aggregate root for
// identity-related operations.
type User struct {
	shared.BaseEntity
	Username     string
	PasswordHash string
	Role         Role
	ParentID     *uuid.UUID // merchant the account belongs to; members only
	IsActive     bool
	CreatedBy    *uuid.UUID
	DeletedAt    *time.Time
	DeletedBy    *uuid.UUID
}

// NewUser creates a new account with the given role. The parent is carried
// as-is; hierarchy consistency is checked by ValidateHierarchy against the
// loaded parent record on every write path.
func NewUser(username, password string, role Role, parentID, createdBy *uuid.UUID) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role")
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &User{
		BaseEntity:   shared.NewBaseEntity(),
		Username:     strings.ToLower(strings.TrimSpace(username)),
		PasswordHash: passwordHash,
		Role:         role,
		ParentID:     parentID,
		IsActive:     true,
		CreatedBy:    createdBy,
	}, nil
}

// ValidateHierarchy enforces the role/parent invariant for this account:
// a member must reference an existing merchant parent, merchants and the
// owner must not reference a parent. The caller passes the parent record
// loaded inside the same write transaction (nil when ParentID is nil or
// the reference is dangling).
func (u *User) ValidateHierarchy(parent *User) error {
	switch u.Role {
	case RoleMember:
		if u.ParentID == nil {
			return shared.ErrInvalidHierarchy
		}
		if parent == nil || parent.ID != *u.ParentID || parent.Role != RoleMerchant {
			return shared.ErrInvalidHierarchy
		}
	case RoleMerchant, RoleOwner:
		if u.ParentID != nil {
			return shared.ErrInvalidHierarchy
		}
	default:
		return shared.NewDomainError("INVALID_ROLE", "Unknown role")
	}
	return nil
}

// ChangeRole switches the account to a new role. The parent must be adjusted
// in the same call; the pair is re-validated on write.
func (u *User) ChangeRole(role Role, parentID *uuid.UUID) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Unknown role")
	}
	u.Role = role
	u.ParentID = parentID
	u.Touch(time.Now())
	return nil
}

// Rename changes the unique handle
func (u *User) Rename(username string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	u.Username = strings.ToLower(strings.TrimSpace(username))
	u.Touch(time.Now())
	return nil
}

// SetPassword sets a new password
func (u *User) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	passwordHash, err := hashPassword(password)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = passwordHash
	u.Touch(time.Now())
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Activate re-enables the account
func (u *User) Activate() {
	u.IsActive = true
	u.DeletedAt = nil
	u.DeletedBy = nil
	u.Touch(time.Now())
}

// Deactivate soft-deletes the account. Accounts are never hard-deleted;
// this is the terminal state.
func (u *User) Deactivate(by uuid.UUID) {
	now := time.Now()
	u.IsActive = false
	u.DeletedAt = &now
	u.DeletedBy = &by
	u.Touch(now)
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if len(username) < 3 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	}
	if len(username) > 100 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 100 characters")
	}
	if !usernameRegex.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 128 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 128 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
