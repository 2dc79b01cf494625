package handlers

import (
	"net/http"
	"strings"

	"ShopFulfillment/internal/api/domain/order"

	"github.com/gin-gonic/gin"
)

const (
	defaultOrdersLimit = 20
	maxOrdersLimit     = 100
)

type OrderHandler struct {
	service OrderService
}

func NewOrderHandler(s OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

// Create registers an order submitted by checkout.
// POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var draft order.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	created, err := h.service.CreateOrder(c.Request.Context(), draft)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order_id": created.ID})
}

// GET /orders/:order_id
func (h *OrderHandler) Get(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("order_id"))
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing order_id"})
		return
	}

	res, err := h.service.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view(c, res))
}

// view drops the download pointer unless the caller proved the admin key.
// The token is a bearer secret for paid files.
func view(c *gin.Context, o order.Order) order.Order {
	if isAdmin(c) {
		return o
	}
	return o.ClearDownloadPointer()
}

type FilterParams struct {
	Email         string `form:"email"`
	DownloadToken string `form:"download_token"`
	PaymentStatus string `form:"payment_status"`
	Limit         int    `form:"limit" binding:"omitempty,min=1"`
	Offset        int    `form:"offset" binding:"omitempty,min=0"`
	SortBy        string `form:"sort_by" binding:"omitempty,oneof=created_at updated_at"`
	SortOrder     string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// GET /orders
func (h *OrderHandler) Filter(c *gin.Context) {
	filter, err := h.createFilter(c)
	if err != nil {
		badRequest(c, "Invalid filter", err)
		return
	}
	if len(filter.DownloadTokens) > 0 && !isAdmin(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	res, err := h.service.GetOrders(c.Request.Context(), *filter)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]order.Order, len(res))
	for i, o := range res {
		out[i] = view(c, o)
	}
	c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) createFilter(c *gin.Context) (*order.OrdersQuery, error) {
	var params FilterParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	if params.Limit == 0 {
		params.Limit = defaultOrdersLimit
	}
	params.Limit = min(params.Limit, maxOrdersLimit)
	if params.SortBy == "" {
		params.SortBy = "created_at"
	}
	if params.SortOrder == "" {
		params.SortOrder = "desc"
	}

	builder := order.NewOrdersQueryBuilder().
		WithSort(params.SortBy, params.SortOrder).
		WithPagination(order.Pagination{Limit: params.Limit, Offset: params.Offset})

	if email := strings.TrimSpace(params.Email); email != "" {
		builder.WithEmails(email)
	}
	if tok := strings.TrimSpace(params.DownloadToken); tok != "" {
		builder.WithDownloadTokens(tok)
	}
	if params.PaymentStatus != "" {
		var statuses []order.PaymentStatus
		for _, raw := range strings.Split(params.PaymentStatus, ",") {
			s, err := order.NewPaymentStatus(strings.TrimSpace(raw))
			if err != nil {
				return nil, err
			}
			statuses = append(statuses, s)
		}
		builder.WithPaymentStatuses(statuses...)
	}

	return builder.Build()
}

// GET /orders/events
func (h *OrderHandler) GetEvents(c *gin.Context) {
	var query order.OrderEventQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, "Invalid query", err)
		return
	}

	res, err := h.service.GetEvents(c.Request.Context(), query)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// AssignTracking ships a paid order.
// POST /orders/:order_id/tracking
func (h *OrderHandler) AssignTracking(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("order_id"))
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing order_id"})
		return
	}

	var request order.AssignTrackingRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	res, err := h.service.AssignTracking(c.Request.Context(), orderID, request)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view(c, res))
}

// AmendShipment corrects the tracking number of a shipped order.
// POST /orders/:order_id/shipment/amend
func (h *OrderHandler) AmendShipment(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("order_id"))
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing order_id"})
		return
	}

	var request order.AmendShipmentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	res, err := h.service.AmendShipment(c.Request.Context(), orderID, request)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view(c, res))
}
