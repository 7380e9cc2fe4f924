// internal/handlers/order.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/fanstore-backend/internal/config"
	"github.com/javajoker/fanstore-backend/internal/models"
	"github.com/javajoker/fanstore-backend/internal/services"
	"github.com/javajoker/fanstore-backend/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
	identity     identityReader
}

func NewOrderHandler(orderService *services.OrderService, identityCfg config.IdentityConfig) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		identity:     identityReader{trustClientUserID: identityCfg.TrustClientUserID},
	}
}

type updateOrderBody struct {
	ID uint `json:"id"`
	services.UpdateOrderRequest
}

// GET /order/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseID(c, c.Param("id"), "order id")
	if !ok {
		return
	}

	id, err := h.identity.fromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	role, _ := utils.GetUserRoleFromContext(c)
	order, err := h.orderService.GetOrder(c.Request.Context(), orderID, id, role == string(models.UserRoleAdmin))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"order": order})
}

// GET /order (admin)
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.OrderFilter{PaginationParams: params}
	if status := c.Query("status"); status != "" {
		orderStatus := models.OrderStatus(status)
		filter.Status = &orderStatus
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(orders, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /order (admin), order id in the body
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var body updateOrderBody
	if !bindJSON(c, &body) {
		return
	}
	if body.ID == 0 {
		respondError(c, &services.ServiceError{Kind: services.ErrValidation, Message: "id is required"})
		return
	}
	h.update(c, body.ID, &body.UpdateOrderRequest)
}

// PUT /order/:id (admin)
func (h *OrderHandler) UpdateOrderByID(c *gin.Context) {
	orderID, ok := parseID(c, c.Param("id"), "order id")
	if !ok {
		return
	}

	var req services.UpdateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	h.update(c, orderID, &req)
}

func (h *OrderHandler) update(c *gin.Context, orderID uint, req *services.UpdateOrderRequest) {
	order, err := h.orderService.UpdateOrder(c.Request.Context(), orderID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"order": order})
}
