package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upigw/backend/internal/domain/identity"
	"github.com/upigw/backend/internal/domain/shared"
	"github.com/upigw/backend/internal/infrastructure/auth"
	"github.com/upigw/backend/internal/infrastructure/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeUserRepo serves accounts from memory. Only the lookups the gateway
// uses are implemented.
type fakeUserRepo struct {
	users map[uuid.UUID]*identity.User
}

func newFakeUserRepo(users ...*identity.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[uuid.UUID]*identity.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(context.Context, *identity.User) error { return nil }
func (r *fakeUserRepo) Update(context.Context, *identity.User) error { return nil }

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeUserRepo) FindActiveByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	if u, ok := r.users[id]; ok && u.IsActive {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeUserRepo) FindByUsername(context.Context, string) (*identity.User, error) {
	return nil, shared.ErrNotFound
}

func (r *fakeUserRepo) List(context.Context, identity.UserFilter) (shared.Paginated[*identity.User], error) {
	return shared.Paginated[*identity.User]{}, nil
}

func (r *fakeUserRepo) CountMembers(context.Context, uuid.UUID) (int64, error) { return 0, nil }
func (r *fakeUserRepo) ExistsByUsername(context.Context, string) (bool, error) { return false, nil }

// failingBlacklist simulates a revocation store that is down
type failingBlacklist struct{}

func (failingBlacklist) RevokeToken(context.Context, string, time.Duration) error {
	return errors.New("blacklist unavailable")
}

func (failingBlacklist) IsTokenRevoked(context.Context, string) (bool, error) {
	return false, errors.New("blacklist unavailable")
}

func (failingBlacklist) RevokeUserTokens(context.Context, string, time.Duration) error {
	return errors.New("blacklist unavailable")
}

func (failingBlacklist) IsUserRevoked(context.Context, string, time.Time) (bool, error) {
	return false, errors.New("blacklist unavailable")
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "upigw-test",
		MaxRefreshCount:        10,
	})
}

func newTestMerchant(t *testing.T) *identity.User {
	t.Helper()
	user, err := identity.NewUser("merchant1", "Password123", identity.RoleMerchant, nil, nil)
	require.NoError(t, err)
	return user
}

func newAuthRouter(t *testing.T, cfg AuthConfig) *gin.Engine {
	t.Helper()
	router := gin.New()
	router.Use(Authenticate(cfg))
	router.GET("/protected", func(c *gin.Context) {
		principal := GetPrincipal(c)
		require.NotNil(t, principal)
		c.JSON(http.StatusOK, gin.H{"user_id": principal.ID.String(), "role": principal.Role.String()})
	})
	router.GET("/open", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/public/orders/abc12", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestAuthenticate(t *testing.T) {
	jwtService := newTestJWTService()

	t.Run("valid token resolves the live principal", func(t *testing.T) {
		user := newTestMerchant(t)
		pair, err := jwtService.GenerateTokenPair(user)
		require.NoError(t, err)

		router := newAuthRouter(t, AuthConfig{
			JWTService: jwtService,
			UserRepo:   newFakeUserRepo(user),
			Blacklist:  auth.NewInMemoryTokenBlacklist(),
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+pair.AccessToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), user.ID.String())
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		router := newAuthRouter(t, AuthConfig{
			JWTService: jwtService,
			UserRepo:   newFakeUserRepo(),
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		router := newAuthRouter(t, AuthConfig{
			JWTService: jwtService,
			UserRepo:   newFakeUserRepo(),
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+"not-a-token")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("deactivated account is rejected despite a valid token", func(t *testing.T) {
		user := newTestMerchant(t)
		pair, err := jwtService.GenerateTokenPair(user)
		require.NoError(t, err)

		admin := uuid.New()
		user.Deactivate(admin)

		router := newAuthRouter(t, AuthConfig{
			JWTService: jwtService,
			UserRepo:   newFakeUserRepo(user),
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+pair.AccessToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "PRINCIPAL_INACTIVE")
	})

	t.Run("blacklisted jti is rejected", func(t *testing.T) {
		user := newTestMerchant(t)
		pair, err := jwtService.GenerateTokenPair(user)
		require.NoError(t, err)

		claims, err := jwtService.ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)

		blacklist := auth.NewInMemoryTokenBlacklist()
		require.NoError(t, blacklist.RevokeToken(context.Background(), claims.ID, time.Hour))

		router := newAuthRouter(t, AuthConfig{
			JWTService: jwtService,
			UserRepo:   newFakeUserRepo(user),
			Blacklist:  blacklist,
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+pair.AccessToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("account wide revocation kills older tokens", func(t *testing.T) {
		user := newTestMerchant(t)
		pair, err := jwtService.GenerateTokenPair(user)
		require.NoError(t, err)

		blacklist := auth.NewInMemoryTokenBlacklist()
		require.NoError(t, blacklist.RevokeUserTokens(context.Background(), user.ID.String(), time.Hour))

		router := newAuthRouter(t, AuthConfig{
			JWTService: jwtService,
			UserRepo:   newFakeUserRepo(user),
			Blacklist:  blacklist,
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+pair.AccessToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unreachable blacklist rejects the request", func(t *testing.T) {
		user := newTestMerchant(t)
		pair, err := jwtService.GenerateTokenPair(user)
		require.NoError(t, err)

		router := newAuthRouter(t, AuthConfig{
			JWTService: jwtService,
			UserRepo:   newFakeUserRepo(user),
			Blacklist:  failingBlacklist{},
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+pair.AccessToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	})

	t.Run("skip paths pass through unauthenticated", func(t *testing.T) {
		router := newAuthRouter(t, AuthConfig{
			JWTService: jwtService,
			UserRepo:   newFakeUserRepo(),
			SkipPaths:  []string{"/open"},
		})

		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("skip prefixes cover the payer endpoints", func(t *testing.T) {
		router := newAuthRouter(t, AuthConfig{
			JWTService:       jwtService,
			UserRepo:         newFakeUserRepo(),
			SkipPathPrefixes: []string{"/public/"},
		})

		req := httptest.NewRequest(http.MethodGet, "/public/orders/abc12", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("stale role claim does not matter", func(t *testing.T) {
		// Token minted while the account was a member; the account is a
		// merchant by the time the request arrives.
		owner := uuid.New()
		merchant := newTestMerchant(t)
		member, err := identity.NewUser("member1", "Password123", identity.RoleMember, &merchant.ID, &owner)
		require.NoError(t, err)

		pair, err := jwtService.GenerateTokenPair(member)
		require.NoError(t, err)

		require.NoError(t, member.ChangeRole(identity.RoleMerchant, nil))

		router := newAuthRouter(t, AuthConfig{
			JWTService: jwtService,
			UserRepo:   newFakeUserRepo(member),
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+pair.AccessToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"role":"merchant"`)
	})
}

func TestRequireRole(t *testing.T) {
	owner, err := identity.NewUser("boss", "Password123", identity.RoleOwner, nil, nil)
	require.NoError(t, err)
	merchant := newTestMerchant(t)

	newRouter := func(principal *identity.User, guard gin.HandlerFunc) *gin.Engine {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			if principal != nil {
				c.Set(PrincipalKey, principal)
			}
		})
		router.GET("/guarded", guard, func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
		return router
	}

	t.Run("matching role passes", func(t *testing.T) {
		router := newRouter(owner, RequireRole(identity.RoleOwner))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/guarded", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong role is forbidden", func(t *testing.T) {
		router := newRouter(merchant, RequireRole(identity.RoleOwner))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/guarded", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no principal is unauthorized", func(t *testing.T) {
		router := newRouter(nil, RequireRole(identity.RoleOwner))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/guarded", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("level guard admits higher roles", func(t *testing.T) {
		router := newRouter(owner, RequireRoleAtOrAbove(identity.RoleMerchant))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/guarded", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
