package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apppayment "github.com/upigw/backend/internal/application/payment"
	"github.com/upigw/backend/internal/domain/payment"
	"github.com/upigw/backend/internal/interfaces/http/middleware"
)

// OrderHandler handles payment order endpoints
type OrderHandler struct {
	BaseHandler
	orderService *apppayment.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *apppayment.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers the authenticated order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.GET("", h.List)
		orders.POST("", h.Create)
		orders.GET("/dashboard", h.Dashboard)
		orders.GET("/:orderId", h.Get)
		orders.POST("/:orderId/verify", h.Verify)
		orders.POST("/:orderId/invalidate", h.Invalidate)
		orders.DELETE("/:orderId", h.Delete)
	}
}

// RegisterPublicRoutes registers the unauthenticated payer routes. The
// public order id is the only credential on these.
func (h *OrderHandler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	public := rg.Group("/public/orders")
	{
		public.GET("/:orderId", h.GetPublic)
		public.POST("/:orderId/utr", h.SubmitUTR)
	}
}

// CreateOrderRequest is the order creation request payload. Amount arrives
// as a string so no float ever touches money.
type CreateOrderRequest struct {
	Amount        string `json:"amount" binding:"required"`
	VPA           string `json:"vpa" binding:"required"`
	PayeeName     string `json:"payee_name"`
	Note          string `json:"note"`
	ExpirySeconds int    `json:"expiry_seconds"`
}

// SubmitUTRRequest is the payer's submission payload
type SubmitUTRRequest struct {
	UTR string `json:"utr" binding:"required"`
}

// OrderResponse is the authenticated order response payload
type OrderResponse struct {
	ID            string     `json:"id"`
	OrderID       string     `json:"order_id"`
	Amount        string     `json:"amount"`
	VPA           string     `json:"vpa"`
	PayeeName     string     `json:"payee_name"`
	Note          string     `json:"note,omitempty"`
	Status        string     `json:"status"`
	UTR           *string    `json:"utr,omitempty"`
	UPILink       string     `json:"upi_link"`
	CreatedBy     string     `json:"created_by"`
	MerchantID    string     `json:"merchant_id"`
	ExpiresAt     time.Time  `json:"expires_at"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	InvalidatedAt *time.Time `json:"invalidated_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PublicOrderResponse is the payer view payload
type PublicOrderResponse struct {
	OrderID   string    `json:"order_id"`
	Amount    string    `json:"amount"`
	VPA       string    `json:"vpa"`
	PayeeName string    `json:"payee_name"`
	Note      string    `json:"note,omitempty"`
	Status    string    `json:"status"`
	UPILink   string    `json:"upi_link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StatusBreakdownResponse is one dashboard row: order count and amount sum
// for a single status
type StatusBreakdownResponse struct {
	Count  int64  `json:"count"`
	Amount string `json:"amount"`
}

// DashboardResponse aggregates visible orders per status. Total revenue
// counts VERIFIED amounts only.
type DashboardResponse struct {
	Total        int64                              `json:"total"`
	TotalRevenue string                             `json:"total_revenue"`
	ByStatus     map[string]StatusBreakdownResponse `json:"by_status"`
}

func newOrderResponse(info apppayment.OrderInfo) OrderResponse {
	return OrderResponse{
		ID:            info.ID.String(),
		OrderID:       info.OrderID,
		Amount:        info.Amount.StringFixed(2),
		VPA:           info.VPA,
		PayeeName:     info.PayeeName,
		Note:          info.Note,
		Status:        info.Status,
		UTR:           info.UTR,
		UPILink:       info.UPILink,
		CreatedBy:     info.CreatedBy.String(),
		MerchantID:    info.MerchantID.String(),
		ExpiresAt:     info.ExpiresAt,
		SubmittedAt:   info.SubmittedAt,
		VerifiedAt:    info.VerifiedAt,
		InvalidatedAt: info.InvalidatedAt,
		CreatedAt:     info.CreatedAt,
		UpdatedAt:     info.UpdatedAt,
	}
}

func newPublicOrderResponse(info apppayment.PublicOrderInfo) PublicOrderResponse {
	return PublicOrderResponse{
		OrderID:   info.OrderID,
		Amount:    info.Amount.StringFixed(2),
		VPA:       info.MaskedVPA,
		PayeeName: info.PayeeName,
		Note:      info.Note,
		Status:    info.Status,
		UPILink:   info.UPILink,
		ExpiresAt: info.ExpiresAt,
	}
}

// Create creates a pending order with its UPI deep link
func (h *OrderHandler) Create(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Amount and VPA are required")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.BadRequest(c, "Invalid amount")
		return
	}

	info, err := h.orderService.CreateOrder(c.Request.Context(), apppayment.CreateOrderInput{
		Actor:         principal,
		Amount:        amount,
		VPA:           req.VPA,
		PayeeName:     req.PayeeName,
		Note:          req.Note,
		ExpirySeconds: req.ExpirySeconds,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, newOrderResponse(*info))
}

// List returns a page of orders inside the actor's scope
func (h *OrderHandler) List(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	raw := payment.RawOrderQuery{
		SortBy:    c.Query("sort_by"),
		SortDir:   c.Query("sort_dir"),
		Status:    c.Query("status"),
		OrderID:   c.Query("order_id"),
		UTR:       c.Query("utr"),
		MinAmount: c.Query("min_amount"),
		MaxAmount: c.Query("max_amount"),
		From:      parseTimeQuery(c.Query("from")),
		To:        parseTimeQuery(c.Query("to")),
	}
	raw.Page = intQuery(c, "page")
	raw.PageSize = intQuery(c, "page_size")

	page, err := h.orderService.ListOrders(c.Request.Context(), apppayment.ListOrdersInput{
		Actor: principal,
		Raw:   raw,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]OrderResponse, len(page.Items))
	for i, info := range page.Items {
		items[i] = newOrderResponse(info)
	}
	h.SuccessWithMeta(c, items, page.Total, page.Page, page.PageSize, page.TotalPages)
}

// Dashboard aggregates the actor's visible orders per status
func (h *OrderHandler) Dashboard(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	stats, err := h.orderService.Dashboard(c.Request.Context(), principal)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	byStatus := make(map[string]StatusBreakdownResponse, len(stats.ByStatus))
	for status, s := range stats.ByStatus {
		byStatus[status] = StatusBreakdownResponse{
			Count:  s.Count,
			Amount: s.Amount.StringFixed(2),
		}
	}
	h.Success(c, DashboardResponse{
		Total:        stats.Total,
		TotalRevenue: stats.TotalRevenue.StringFixed(2),
		ByStatus:     byStatus,
	})
}

// Get loads an order inside the actor's scope
func (h *OrderHandler) Get(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	info, err := h.orderService.GetOrder(c.Request.Context(), apppayment.GetOrderInput{
		Actor:   principal,
		OrderID: c.Param("orderId"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newOrderResponse(*info))
}

// Verify confirms a submitted payment
func (h *OrderHandler) Verify(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	info, err := h.orderService.VerifyOrder(c.Request.Context(), apppayment.VerifyOrderInput{
		Actor:   principal,
		OrderID: c.Param("orderId"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newOrderResponse(*info))
}

// Invalidate voids an order. Owner only.
func (h *OrderHandler) Invalidate(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	info, err := h.orderService.InvalidateOrder(c.Request.Context(), apppayment.InvalidateOrderInput{
		Actor:   principal,
		OrderID: c.Param("orderId"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newOrderResponse(*info))
}

// Delete soft-deletes an order. Owner only.
func (h *OrderHandler) Delete(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	err := h.orderService.DeleteOrder(c.Request.Context(), apppayment.DeleteOrderInput{
		Actor:   principal,
		OrderID: c.Param("orderId"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// GetPublic is the unauthenticated payer view of an order
func (h *OrderHandler) GetPublic(c *gin.Context) {
	info, err := h.orderService.GetPublicOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newPublicOrderResponse(*info))
}

// SubmitUTR records the payer's transaction reference
func (h *OrderHandler) SubmitUTR(c *gin.Context) {
	var req SubmitUTRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "UTR is required")
		return
	}

	info, err := h.orderService.SubmitUTR(c.Request.Context(), apppayment.SubmitUTRInput{
		OrderID: c.Param("orderId"),
		UTR:     req.UTR,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newPublicOrderResponse(*info))
}

// parseTimeQuery parses an RFC 3339 query parameter, nil when absent or
// malformed. The sanitizer clamps whatever survives.
func parseTimeQuery(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}

func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}
