package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appidentity "github.com/upigw/backend/internal/application/identity"
	"github.com/upigw/backend/internal/interfaces/http/dto"
	"github.com/upigw/backend/internal/interfaces/http/middleware"
)

// UserHandler handles account management endpoints
type UserHandler struct {
	BaseHandler
	userService *appidentity.UserService
	inspector   *appidentity.AccessInspector
	logger      *zap.Logger
}

// NewUserHandler creates a new account management handler
func NewUserHandler(userService *appidentity.UserService, inspector *appidentity.AccessInspector, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		inspector:   inspector,
		logger:      logger,
	}
}

// RegisterRoutes registers account management routes
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	{
		users.GET("", h.List)
		users.POST("", h.Create)
		users.GET("/merchants", h.ListMerchants)
		users.GET("/access", h.InspectAccess)
		users.GET("/:id", h.Get)
		users.PUT("/:id", h.Update)
		users.PUT("/:id/role", h.ChangeRole)
		users.DELETE("/:id", h.Delete)
	}
}

// UserResponse is the account response payload
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ParentID  *string   `json:"parent_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserResponse(info appidentity.UserInfo) UserResponse {
	resp := UserResponse{
		ID:        info.ID.String(),
		Username:  info.Username,
		Role:      info.Role,
		IsActive:  info.IsActive,
		CreatedAt: info.CreatedAt,
		UpdatedAt: info.UpdatedAt,
	}
	if info.ParentID != nil {
		parent := info.ParentID.String()
		resp.ParentID = &parent
	}
	return resp
}

// CreateUserRequest is the account creation request payload
type CreateUserRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Role     string  `json:"role" binding:"required"`
	ParentID *string `json:"parent_id"`
}

// UpdateUserRequest is the account update request payload. Omitted fields
// are left untouched.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// ChangeRoleRequest is the role change request payload
type ChangeRoleRequest struct {
	Role     string  `json:"role" binding:"required"`
	ParentID *string `json:"parent_id"`
}

// AccessResponse is the effective access snapshot payload
type AccessResponse struct {
	UserID              string   `json:"user_id"`
	Username            string   `json:"username"`
	Role                string   `json:"role"`
	RoleLevel           int      `json:"role_level"`
	Active              bool     `json:"active"`
	CanCreateRoles      []string `json:"can_create_roles"`
	CanInvalidateOrders bool     `json:"can_invalidate_orders"`
}

// List returns a page of accounts visible to the actor
func (h *UserHandler) List(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	page, err := h.userService.ListUsers(c.Request.Context(), appidentity.ListUsersInput{
		Actor:    principal,
		Role:     c.Query("role"),
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
		SortBy:   req.SortBy,
		SortDir:  req.SortDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]UserResponse, len(page.Items))
	for i, info := range page.Items {
		items[i] = newUserResponse(info)
	}
	h.SuccessWithMeta(c, items, page.Total, page.Page, page.PageSize, page.TotalPages)
}

// Create creates a new account under the actor
func (h *UserHandler) Create(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Username, password and role are required")
		return
	}

	parentID, ok := parseOptionalUUID(req.ParentID)
	if !ok {
		h.BadRequest(c, "Invalid parent id")
		return
	}

	info, err := h.userService.CreateUser(c.Request.Context(), appidentity.CreateUserInput{
		Actor:    principal,
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		ParentID: parentID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, newUserResponse(*info))
}

// ListMerchants returns every merchant account. Owner only.
func (h *UserHandler) ListMerchants(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	page, err := h.userService.ListMerchants(c.Request.Context(), principal, req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]UserResponse, len(page.Items))
	for i, info := range page.Items {
		items[i] = newUserResponse(info)
	}
	h.SuccessWithMeta(c, items, page.Total, page.Page, page.PageSize, page.TotalPages)
}

// InspectAccess returns the actor's effective access snapshot
func (h *UserHandler) InspectAccess(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	snapshot := h.inspector.Inspect(principal)
	h.Success(c, AccessResponse{
		UserID:              snapshot.UserID.String(),
		Username:            snapshot.Username,
		Role:                snapshot.Role,
		RoleLevel:           snapshot.RoleLevel,
		Active:              snapshot.Active,
		CanCreateRoles:      snapshot.CanCreateRoles,
		CanInvalidateOrders: snapshot.CanInvalidateOrders,
	})
}

// Get loads a single account inside the actor's scope
func (h *UserHandler) Get(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.NotFound(c, "User not found")
		return
	}

	info, err := h.userService.GetUser(c.Request.Context(), appidentity.GetUserInput{
		Actor:    principal,
		TargetID: targetID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newUserResponse(*info))
}

// Update renames an account or resets its password
func (h *UserHandler) Update(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.NotFound(c, "User not found")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	if req.Username == nil && req.Password == nil {
		h.BadRequest(c, "Nothing to update")
		return
	}

	info, err := h.userService.UpdateUser(c.Request.Context(), appidentity.UpdateUserInput{
		Actor:    principal,
		TargetID: targetID,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newUserResponse(*info))
}

// ChangeRole moves an account to a new role. Owner only.
func (h *UserHandler) ChangeRole(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.NotFound(c, "User not found")
		return
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Role is required")
		return
	}

	parentID, ok := parseOptionalUUID(req.ParentID)
	if !ok {
		h.BadRequest(c, "Invalid parent id")
		return
	}

	info, err := h.userService.ChangeRole(c.Request.Context(), appidentity.ChangeRoleInput{
		Actor:    principal,
		TargetID: targetID,
		Role:     req.Role,
		ParentID: parentID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newUserResponse(*info))
}

// Delete deactivates an account
func (h *UserHandler) Delete(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.NotFound(c, "User not found")
		return
	}

	err = h.userService.DeleteUser(c.Request.Context(), appidentity.DeleteUserInput{
		Actor:    principal,
		TargetID: targetID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// parseOptionalUUID parses a nullable uuid string. Returns ok=false only
// when a value was supplied and is malformed.
func parseOptionalUUID(raw *string) (*uuid.UUID, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}
