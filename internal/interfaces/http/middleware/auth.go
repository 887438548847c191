package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/upigw/backend/internal/domain/identity"
	"github.com/upigw/backend/internal/infrastructure/auth"
	"github.com/upigw/backend/internal/infrastructure/logger"
	"github.com/upigw/backend/internal/interfaces/http/dto"
)

// Context keys set by the authentication gateway
const (
	PrincipalKey  = "auth_principal"
	ClaimsKey     = "auth_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// AuthConfig holds configuration for the authentication gateway
type AuthConfig struct {
	JWTService *auth.JWTService
	// UserRepo supplies the live principal. The token's role claim is
	// advisory only; the stored account always wins.
	UserRepo  identity.UserRepository
	Blacklist auth.TokenBlacklist
	// SkipPaths are exact paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// Authenticate is the authentication gateway: it parses the bearer token,
// verifies it, checks the blacklist, then re-reads the live account. A
// deactivated account is rejected immediately regardless of what its token
// claims, and the live principal is what every downstream check runs on.
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, "UNAUTHENTICATED", "Authentication required")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			abortUnauthorized(c, "UNAUTHENTICATED", "Authentication required")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			code, message := "UNAUTHENTICATED", "Invalid token"
			if err == auth.ErrExpiredToken {
				code, message = "TOKEN_EXPIRED", "Token has expired"
			}
			log.Warn("Token validation failed", zap.Error(err), zap.String("path", path))
			abortUnauthorized(c, code, message)
			return
		}

		ctx := c.Request.Context()
		if cfg.Blacklist != nil {
			// Fail closed: an unreachable blacklist means revocation cannot
			// be ruled out, so the request is rejected.
			revoked, err := cfg.Blacklist.IsTokenRevoked(ctx, claims.ID)
			if err != nil {
				log.Error("Failed to check token blacklist", zap.Error(err))
				abortInternal(c)
				return
			}
			if revoked {
				abortUnauthorized(c, "UNAUTHENTICATED", "Token has been revoked")
				return
			}

			revoked, err = cfg.Blacklist.IsUserRevoked(ctx, claims.UserID, claims.GetIssuedAtTime())
			if err != nil {
				log.Error("Failed to check account revocation", zap.Error(err))
				abortInternal(c)
				return
			}
			if revoked {
				abortUnauthorized(c, "UNAUTHENTICATED", "Session has been invalidated")
				return
			}
		}

		userID, err := claims.GetUserUUID()
		if err != nil {
			abortUnauthorized(c, "UNAUTHENTICATED", "Invalid token")
			return
		}

		principal, err := cfg.UserRepo.FindActiveByID(ctx, userID)
		if err != nil {
			log.Warn("Request with token of missing or inactive account",
				zap.String("user_id", claims.UserID))
			abortUnauthorized(c, "PRINCIPAL_INACTIVE", "Account not found or inactive")
			return
		}

		c.Set(PrincipalKey, principal)
		c.Set(ClaimsKey, claims)

		reqLog := logger.FromContext(ctx)
		ctx, _ = logger.WithUserID(ctx, reqLog, principal.ID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message))
}

func abortInternal(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse("INTERNAL_ERROR", "Internal error"))
}

// GetPrincipal retrieves the live principal set by the gateway
func GetPrincipal(c *gin.Context) *identity.User {
	if v, exists := c.Get(PrincipalKey); exists {
		if principal, ok := v.(*identity.User); ok {
			return principal
		}
	}
	return nil
}

// GetClaims retrieves the validated token claims
func GetClaims(c *gin.Context) *auth.Claims {
	if v, exists := c.Get(ClaimsKey); exists {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
