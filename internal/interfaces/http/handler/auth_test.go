package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appidentity "github.com/upigw/backend/internal/application/identity"
	"github.com/upigw/backend/internal/domain/identity"
	"github.com/upigw/backend/internal/domain/shared"
	"github.com/upigw/backend/internal/infrastructure/auth"
	"github.com/upigw/backend/internal/infrastructure/config"
	"github.com/upigw/backend/internal/interfaces/http/middleware"
)

// fakeUserRepo serves accounts from memory for handler tests
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

func (r *fakeUserRepo) Create(_ context.Context, user *identity.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *identity.User) error {
	r.users[user.ID] = user
	return nil
}

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

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*identity.User, error) {
	for _, u := range r.users {
		if u.Username == username && u.IsActive {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeUserRepo) List(context.Context, identity.UserFilter) (shared.Paginated[*identity.User], error) {
	return shared.Paginated[*identity.User]{}, nil
}

func (r *fakeUserRepo) CountMembers(context.Context, uuid.UUID) (int64, error) { return 0, nil }
func (r *fakeUserRepo) ExistsByUsername(context.Context, string) (bool, error) { return false, nil }

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "upigw-test",
		MaxRefreshCount:        10,
	})
}

func newAuthTestRig(t *testing.T, users ...*identity.User) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	jwtService := newTestJWTService()
	repo := newFakeUserRepo(users...)
	blacklist := auth.NewInMemoryTokenBlacklist()
	service := appidentity.NewAuthService(repo, jwtService, blacklist, zap.NewNop())
	h := NewAuthHandler(service, zap.NewNop())

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(middleware.Authenticate(middleware.AuthConfig{
		JWTService: jwtService,
		UserRepo:   repo,
		Blacklist:  blacklist,
		SkipPaths:  []string{"/api/v1/auth/login", "/api/v1/auth/refresh"},
	}))
	h.RegisterRoutes(api)
	return router, jwtService
}

func TestAuthHandlerLogin(t *testing.T) {
	user, err := identity.NewUser("shopkeeper", "Password123", identity.RoleMerchant, nil, nil)
	require.NoError(t, err)

	t.Run("valid credentials issue a token pair", func(t *testing.T) {
		router, _ := newAuthTestRig(t, user)

		rec := doJSON(router, http.MethodPost, "/api/v1/auth/login",
			`{"username":"shopkeeper","password":"Password123"}`)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Data LoginResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Data.AccessToken)
		assert.NotEmpty(t, resp.Data.RefreshToken)
		assert.Equal(t, "Bearer", resp.Data.TokenType)
		assert.Equal(t, "shopkeeper", resp.Data.User.Username)
		assert.Equal(t, "merchant", resp.Data.User.Role)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		router, _ := newAuthTestRig(t, user)

		rec := doJSON(router, http.MethodPost, "/api/v1/auth/login",
			`{"username":"shopkeeper","password":"WrongPass1"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
	})

	t.Run("unknown handle is indistinguishable from a wrong password", func(t *testing.T) {
		router, _ := newAuthTestRig(t, user)

		rec := doJSON(router, http.MethodPost, "/api/v1/auth/login",
			`{"username":"nobody","password":"Password123"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
	})

	t.Run("missing fields are a bad request", func(t *testing.T) {
		router, _ := newAuthTestRig(t, user)

		rec := doJSON(router, http.MethodPost, "/api/v1/auth/login", `{"username":"shopkeeper"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandlerAuthenticatedEndpoints(t *testing.T) {
	user, err := identity.NewUser("shopkeeper", "Password123", identity.RoleMerchant, nil, nil)
	require.NoError(t, err)

	login := func(t *testing.T, router *gin.Engine) LoginResponse {
		t.Helper()
		rec := doJSON(router, http.MethodPost, "/api/v1/auth/login",
			`{"username":"shopkeeper","password":"Password123"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data LoginResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp.Data
	}

	t.Run("me returns the live account", func(t *testing.T) {
		router, _ := newAuthTestRig(t, user)
		tokens := login(t, router)

		rec := doAuthJSON(router, http.MethodGet, "/api/v1/auth/me", "", tokens.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), user.ID.String())
	})

	t.Run("me without a token is rejected", func(t *testing.T) {
		router, _ := newAuthTestRig(t, user)

		rec := doJSON(router, http.MethodGet, "/api/v1/auth/me", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("logout blacklists the access token", func(t *testing.T) {
		router, _ := newAuthTestRig(t, user)
		tokens := login(t, router)

		rec := doAuthJSON(router, http.MethodPost, "/api/v1/auth/logout", "", tokens.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = doAuthJSON(router, http.MethodGet, "/api/v1/auth/me", "", tokens.AccessToken)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("refresh rotates the pair", func(t *testing.T) {
		router, _ := newAuthTestRig(t, user)
		tokens := login(t, router)

		rec := doJSON(router, http.MethodPost, "/api/v1/auth/refresh",
			`{"refresh_token":"`+tokens.RefreshToken+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Data TokenResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Data.AccessToken)
		assert.NotEqual(t, tokens.RefreshToken, resp.Data.RefreshToken)
	})

	t.Run("password change revokes older tokens", func(t *testing.T) {
		fresh, err := identity.NewUser("shopkeeper", "Password123", identity.RoleMerchant, nil, nil)
		require.NoError(t, err)
		router, _ := newAuthTestRig(t, fresh)
		tokens := login(t, router)

		rec := doAuthJSON(router, http.MethodPut, "/api/v1/auth/password",
			`{"old_password":"Password123","new_password":"Password456"}`, tokens.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = doAuthJSON(router, http.MethodGet, "/api/v1/auth/me", "", tokens.AccessToken)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func doAuthJSON(router *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
