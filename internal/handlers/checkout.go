// internal/handlers/checkout.go
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/fanstore-backend/internal/config"
	"github.com/javajoker/fanstore-backend/internal/i18n"
	"github.com/javajoker/fanstore-backend/internal/services"
	"github.com/javajoker/fanstore-backend/internal/utils"
)

type CheckoutHandler struct {
	orderService *services.OrderService
	identity     identityReader
}

func NewCheckoutHandler(orderService *services.OrderService, identityCfg config.IdentityConfig) *CheckoutHandler {
	return &CheckoutHandler{
		orderService: orderService,
		identity:     identityReader{trustClientUserID: identityCfg.TrustClientUserID},
	}
}

type checkoutBody struct {
	identityFields
	services.CheckoutRequest
}

// POST /checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var body checkoutBody
	if !bindJSON(c, &body) {
		return
	}
	body.IdempotencyKey = strings.TrimSpace(c.GetHeader("Idempotency-Key"))

	id, err := h.identity.fromBody(c, body.identityFields)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.orderService.Checkout(c.Request.Context(), id, &body.CheckoutRequest)
	if err != nil {
		respondError(c, err)
		return
	}

	response := gin.H{
		"message": i18n.T(lang, i18n.KeyOrderPlaced),
		"order":   result.Order,
		"waLink":  result.WaLink,
	}
	if result.Replayed {
		utils.SuccessResponse(c, response)
		return
	}
	utils.CreatedResponse(c, response)
}

// GET /checkout
func (h *CheckoutHandler) ListOrders(c *gin.Context) {
	id, err := h.identity.fromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	orders, err := h.orderService.ListForOwner(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"orders": orders})
}
