package identity

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upigw/backend/internal/domain/identity"
	"github.com/upigw/backend/internal/domain/shared"
	"github.com/upigw/backend/internal/infrastructure/auth"
)

// UserService handles account management. Every operation takes the live
// principal resolved by the authentication gateway and runs the pure
// permission evaluator before touching storage; out-of-scope reads surface
// as NOT_FOUND so callers cannot probe for existence.
type UserService struct {
	userRepo   identity.UserRepository
	blacklist  auth.TokenBlacklist
	jwtService *auth.JWTService
	logger     *zap.Logger
}

// NewUserService creates a new account management service
func NewUserService(
	userRepo identity.UserRepository,
	blacklist auth.TokenBlacklist,
	jwtService *auth.JWTService,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		blacklist:  blacklist,
		jwtService: jwtService,
		logger:     logger,
	}
}

// CreateUser creates a new account under the actor. Owners create any role;
// merchants create members under themselves only. The parent is resolved
// server-side: a merchant's input parent is ignored and forced to the
// merchant itself.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*UserInfo, error) {
	actor := input.Actor
	if actor == nil || !actor.IsActive {
		return nil, shared.ErrPrincipalInactive
	}

	role, ok := identity.ParseRole(input.Role)
	if !ok {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role")
	}
	if !identity.CanCreateRole(actor.Role, role) {
		s.logger.Warn("Account creation denied",
			zap.String("actor_id", actor.ID.String()),
			zap.String("actor_role", actor.Role.String()),
			zap.String("target_role", role.String()))
		return nil, shared.ErrInsufficientPriv
	}

	parentID := input.ParentID
	switch {
	case role != identity.RoleMember:
		parentID = nil
	case actor.Role == identity.RoleMerchant:
		id := actor.ID
		parentID = &id
	case parentID == nil:
		return nil, shared.ErrInvalidHierarchy
	}

	actorID := actor.ID
	user, err := identity.NewUser(input.Username, input.Password, role, parentID, &actorID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("Account created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", user.Role.String()),
		zap.String("created_by", actor.ID.String()))

	info := NewUserInfo(user)
	return &info, nil
}

// GetUser loads a single account inside the actor's scope
func (s *UserService) GetUser(ctx context.Context, input GetUserInput) (*UserInfo, error) {
	scope := identity.UserScope(input.Actor)

	user, err := s.userRepo.FindByID(ctx, input.TargetID)
	if err != nil {
		return nil, shared.ErrNotFound
	}
	if !scope.MatchesUser(user) {
		return nil, shared.ErrNotFound
	}

	info := NewUserInfo(user)
	return &info, nil
}

// ListUsers returns a page of accounts visible to the actor
func (s *UserService) ListUsers(ctx context.Context, input ListUsersInput) (shared.Paginated[UserInfo], error) {
	filter := identity.UserFilter{
		Filter: shared.DefaultFilter(),
		Search: input.Search,
		Scope:  identity.UserScope(input.Actor),
	}
	if input.Page > 0 {
		filter.Page = input.Page
	}
	if input.PageSize > 0 {
		filter.PageSize = input.PageSize
	}
	if input.SortBy != "" {
		filter.OrderBy = input.SortBy
	}
	if input.SortDir != "" {
		filter.OrderDir = input.SortDir
	}

	if role, ok := identity.ParseRole(input.Role); ok {
		filter.Role = &role
	}

	page, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return shared.Paginated[UserInfo]{}, err
	}
	return projectUsers(page), nil
}

// ListMerchants returns every merchant account. Owner only.
func (s *UserService) ListMerchants(ctx context.Context, actor *identity.User, pageNum, pageSize int) (shared.Paginated[UserInfo], error) {
	if actor == nil || !actor.IsActive {
		return shared.Paginated[UserInfo]{}, shared.ErrPrincipalInactive
	}
	if actor.Role != identity.RoleOwner {
		return shared.Paginated[UserInfo]{}, shared.ErrInsufficientPriv
	}

	role := identity.RoleMerchant
	filter := identity.UserFilter{
		Filter: shared.DefaultFilter(),
		Role:   &role,
		Scope:  identity.UserScope(actor),
	}
	if pageNum > 0 {
		filter.Page = pageNum
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}

	page, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return shared.Paginated[UserInfo]{}, err
	}
	return projectUsers(page), nil
}

// UpdateUser renames an account or resets its password. The actor must be
// able to manage the target; a password reset revokes the target's tokens.
func (s *UserService) UpdateUser(ctx context.Context, input UpdateUserInput) (*UserInfo, error) {
	target, err := s.loadManaged(ctx, input.Actor, input.TargetID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		if err := target.Rename(*input.Username); err != nil {
			return nil, err
		}
	}
	passwordChanged := false
	if input.Password != nil {
		if err := target.SetPassword(*input.Password); err != nil {
			return nil, err
		}
		passwordChanged = true
	}

	if err := s.userRepo.Update(ctx, target); err != nil {
		return nil, err
	}

	if passwordChanged {
		s.revokeTokens(ctx, target.ID)
	}

	s.logger.Info("Account updated",
		zap.String("user_id", target.ID.String()),
		zap.String("updated_by", input.Actor.ID.String()))

	info := NewUserInfo(target)
	return &info, nil
}

// ChangeRole moves an account to a new role. Owner only; the repository
// re-validates the role/parent pair inside the write transaction. Tokens of
// the target are revoked so stale role claims die immediately.
func (s *UserService) ChangeRole(ctx context.Context, input ChangeRoleInput) (*UserInfo, error) {
	actor := input.Actor
	if actor == nil || !actor.IsActive {
		return nil, shared.ErrPrincipalInactive
	}
	if actor.Role != identity.RoleOwner {
		return nil, shared.ErrInsufficientPriv
	}

	role, ok := identity.ParseRole(input.Role)
	if !ok {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role")
	}

	target, err := s.userRepo.FindActiveByID(ctx, input.TargetID)
	if err != nil {
		return nil, shared.ErrNotFound
	}

	if err := target.ChangeRole(role, input.ParentID); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, target); err != nil {
		return nil, err
	}

	s.revokeTokens(ctx, target.ID)

	s.logger.Info("Account role changed",
		zap.String("user_id", target.ID.String()),
		zap.String("role", role.String()),
		zap.String("changed_by", actor.ID.String()))

	info := NewUserInfo(target)
	return &info, nil
}

// DeleteUser deactivates an account. Accounts are never hard-deleted; the
// handle is freed for reuse because uniqueness only spans active rows.
// Self-deletion is reserved for the owner.
func (s *UserService) DeleteUser(ctx context.Context, input DeleteUserInput) error {
	actor := input.Actor
	if actor == nil || !actor.IsActive {
		return shared.ErrPrincipalInactive
	}

	scope := identity.UserScope(actor)
	target, err := s.userRepo.FindActiveByID(ctx, input.TargetID)
	if err != nil {
		return shared.ErrNotFound
	}
	if !scope.MatchesUser(target) {
		return shared.ErrNotFound
	}

	isSelf := actor.ID == target.ID
	if !identity.CanDeleteUser(actor.Role, target.Role, isSelf) {
		s.logger.Warn("Account deletion denied",
			zap.String("actor_id", actor.ID.String()),
			zap.String("target_id", target.ID.String()))
		return shared.ErrInsufficientPriv
	}

	target.Deactivate(actor.ID)
	if err := s.userRepo.Update(ctx, target); err != nil {
		return err
	}

	s.revokeTokens(ctx, target.ID)

	s.logger.Info("Account deactivated",
		zap.String("user_id", target.ID.String()),
		zap.String("deleted_by", actor.ID.String()))
	return nil
}

// loadManaged loads a target the actor may manage. Out-of-scope targets
// read as NOT_FOUND, in-scope but unmanageable ones as INSUFFICIENT_PRIVILEGE.
func (s *UserService) loadManaged(ctx context.Context, actor *identity.User, targetID uuid.UUID) (*identity.User, error) {
	if actor == nil || !actor.IsActive {
		return nil, shared.ErrPrincipalInactive
	}

	target, err := s.userRepo.FindActiveByID(ctx, targetID)
	if err != nil {
		return nil, shared.ErrNotFound
	}
	if !identity.UserScope(actor).MatchesUser(target) {
		return nil, shared.ErrNotFound
	}
	if !actor.CanManage(target) {
		return nil, shared.ErrInsufficientPriv
	}
	return target, nil
}

// revokeTokens invalidates every outstanding token of an account. Failures
// are logged, not surfaced: the write that triggered the revocation already
// succeeded.
func (s *UserService) revokeTokens(ctx context.Context, userID uuid.UUID) {
	ttl := s.jwtService.GetRefreshTokenExpiration()
	if err := s.blacklist.RevokeUserTokens(ctx, userID.String(), ttl); err != nil {
		s.logger.Error("Failed to revoke account tokens",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}

// projectUsers maps a page of domain accounts into their transport shape
func projectUsers(page shared.Paginated[*identity.User]) shared.Paginated[UserInfo] {
	items := make([]UserInfo, len(page.Items))
	for i, user := range page.Items {
		items[i] = NewUserInfo(user)
	}
	return shared.Paginated[UserInfo]{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
}
