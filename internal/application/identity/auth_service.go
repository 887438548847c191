package identity

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upigw/backend/internal/domain/identity"
	"github.com/upigw/backend/internal/domain/shared"
	"github.com/upigw/backend/internal/infrastructure/auth"
)

// AuthService handles authentication operations. Tokens are advisory: the
// authentication gateway re-reads the live account on every request, so the
// service only guarantees the credentials were valid at issue time.
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
	}
}

// Login authenticates an account and returns a token pair. Unknown handle
// and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		s.logger.Warn("Login attempt for unknown account",
			zap.String("username", input.Username),
			zap.String("ip", input.IP))
		return nil, shared.ErrInvalidCredentials
	}

	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt",
			zap.String("username", input.Username),
			zap.String("ip", input.IP))
		return nil, shared.ErrInvalidCredentials
	}

	tokenPair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.ErrInternal
	}

	s.logger.Info("Account logged in",
		zap.String("username", user.Username),
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role.String()))

	return &LoginResult{
		AccessToken:           tokenPair.AccessToken,
		RefreshToken:          tokenPair.RefreshToken,
		AccessTokenExpiresAt:  tokenPair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokenPair.RefreshTokenExpiresAt,
		TokenType:             tokenPair.TokenType,
		User:                  NewUserInfo(user),
	}, nil
}

// RefreshToken exchanges a refresh token for a new pair. The live account is
// re-read so the new access token carries the current role, not the one the
// old token was issued with.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*RefreshTokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.ErrUnauthenticated
	}

	revoked, err := s.blacklist.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("Failed to check token revocation", zap.Error(err))
		return nil, shared.ErrInternal
	}
	if !revoked {
		revoked, err = s.blacklist.IsUserRevoked(ctx, claims.UserID, claims.GetIssuedAtTime())
		if err != nil {
			s.logger.Error("Failed to check account revocation", zap.Error(err))
			return nil, shared.ErrInternal
		}
	}
	if revoked {
		s.logger.Warn("Refresh with revoked token", zap.String("user_id", claims.UserID))
		return nil, shared.ErrUnauthenticated
	}

	user, err := s.userRepo.FindActiveByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Refresh for missing or inactive account", zap.String("user_id", userID.String()))
		return nil, shared.ErrPrincipalInactive
	}

	tokenPair, err := s.jwtService.RefreshTokenPair(input.RefreshToken, user)
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	s.logger.Info("Token refreshed", zap.String("user_id", user.ID.String()))

	return &RefreshTokenResult{
		AccessToken:           tokenPair.AccessToken,
		RefreshToken:          tokenPair.RefreshToken,
		AccessTokenExpiresAt:  tokenPair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokenPair.RefreshTokenExpiresAt,
		TokenType:             tokenPair.TokenType,
	}, nil
}

// Logout blacklists the presented token's JTI for its remaining lifetime
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.TokenJTI == "" || input.TokenTTL <= 0 {
		return nil
	}
	if err := s.blacklist.RevokeToken(ctx, input.TokenJTI, input.TokenTTL); err != nil {
		s.logger.Error("Failed to blacklist token on logout",
			zap.String("user_id", input.UserID.String()),
			zap.Error(err))
		return shared.ErrInternal
	}

	s.logger.Info("Account logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// CurrentUser returns the live account for the authenticated principal
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindActiveByID(ctx, userID)
	if err != nil {
		return nil, shared.ErrPrincipalInactive
	}

	info := NewUserInfo(user)
	return &info, nil
}

// ChangePassword verifies the old password and stores a new hash. Every
// outstanding token of the account is revoked.
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.userRepo.FindActiveByID(ctx, input.UserID)
	if err != nil {
		return shared.ErrNotFound
	}

	if !user.VerifyPassword(input.OldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	if err := user.SetPassword(input.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to persist password change", zap.Error(err))
		return shared.ErrInternal
	}

	if err := s.blacklist.RevokeUserTokens(ctx, user.ID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to revoke tokens after password change",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("Password changed", zap.String("user_id", user.ID.String()))
	return nil
}

// mapTokenError converts JWT layer errors into the domain taxonomy
func mapTokenError(err error) error {
	switch err {
	case auth.ErrExpiredToken:
		return shared.NewDomainError("TOKEN_EXPIRED", "Token has expired")
	case auth.ErrMaxRefreshExceeded:
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	default:
		return shared.ErrUnauthenticated
	}
}
