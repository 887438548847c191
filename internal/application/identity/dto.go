package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/upigw/backend/internal/domain/identity"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Username string
	Password string
	IP       string // Client IP for audit logging
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	User                  UserInfo
}

// UserInfo is the account projection returned to callers. The password hash
// never leaves the domain.
type UserInfo struct {
	ID        uuid.UUID
	Username  string
	Role      string
	ParentID  *uuid.UUID
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUserInfo projects a domain account into its transport shape
func NewUserInfo(user *identity.User) UserInfo {
	return UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role.String(),
		ParentID:  user.ParentID,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult contains the result of a token refresh
type RefreshTokenResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	UserID   uuid.UUID
	TokenJTI string
	TokenTTL time.Duration // remaining lifetime of the access token
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// CreateUserInput contains the input for account creation. Actor is the live
// principal resolved by the authentication gateway.
type CreateUserInput struct {
	Actor    *identity.User
	Username string
	Password string
	Role     string
	ParentID *uuid.UUID // merchant for the new member; owner only
}

// UpdateUserInput contains the input for account updates. Nil fields are
// left untouched.
type UpdateUserInput struct {
	Actor    *identity.User
	TargetID uuid.UUID
	Username *string
	Password *string
}

// ChangeRoleInput contains the input for a role change. Owner only; the
// parent must be supplied consistently with the new role.
type ChangeRoleInput struct {
	Actor    *identity.User
	TargetID uuid.UUID
	Role     string
	ParentID *uuid.UUID
}

// DeleteUserInput contains the input for account deactivation
type DeleteUserInput struct {
	Actor    *identity.User
	TargetID uuid.UUID
}

// GetUserInput contains the input for a single account lookup
type GetUserInput struct {
	Actor    *identity.User
	TargetID uuid.UUID
}

// ListUsersInput contains the untrusted listing parameters
type ListUsersInput struct {
	Actor    *identity.User
	Role     string
	Search   string
	Page     int
	PageSize int
	SortBy   string
	SortDir  string
}

// AccessSnapshot is the pure RBAC projection of one principal: what it may
// create, what it sees, and which overrides it holds. Used by the debug
// endpoint and by tests; computed without touching storage.
type AccessSnapshot struct {
	UserID              uuid.UUID
	Username            string
	Role                string
	RoleLevel           int
	Active              bool
	CanCreateRoles      []string
	CanInvalidateOrders bool
	UserScope           identity.Scope
	OrderScope          identity.Scope
}
