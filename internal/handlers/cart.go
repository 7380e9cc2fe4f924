// internal/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/fanstore-backend/internal/config"
	"github.com/javajoker/fanstore-backend/internal/services"
	"github.com/javajoker/fanstore-backend/internal/utils"
)

type CartHandler struct {
	cartService *services.CartService
	identity    identityReader
}

func NewCartHandler(cartService *services.CartService, identityCfg config.IdentityConfig) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		identity:    identityReader{trustClientUserID: identityCfg.TrustClientUserID},
	}
}

type addToCartBody struct {
	identityFields
	services.AddToCartRequest
}

type changeQuantityBody struct {
	identityFields
	ID     uint `json:"id"`
	Change int  `json:"change"`
}

type mergeCartBody struct {
	GuestID string `json:"guestId"`
}

// GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	id, err := h.identity.fromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	lines, err := h.cartService.List(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, lines)
}

// POST /cart
func (h *CartHandler) AddToCart(c *gin.Context) {
	var body addToCartBody
	if !bindJSON(c, &body) {
		return
	}

	id, err := h.identity.fromBody(c, body.identityFields)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.cartService.Add(c.Request.Context(), id, &body.AddToCartRequest)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"cartItem": result.Item,
		"guestId":  nullableString(result.GuestID),
	})
}

// PUT /cart
func (h *CartHandler) ChangeQuantity(c *gin.Context) {
	var body changeQuantityBody
	if !bindJSON(c, &body) {
		return
	}
	if body.ID == 0 {
		respondError(c, &services.ServiceError{Kind: services.ErrValidation, Message: "id is required"})
		return
	}
	if body.Change != 1 && body.Change != -1 {
		respondError(c, &services.ServiceError{Kind: services.ErrValidation, Message: "change must be 1 or -1"})
		return
	}

	id, err := h.identity.fromBody(c, body.identityFields)
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := h.cartService.ChangeQuantity(c.Request.Context(), body.ID, body.Change, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"item": item})
}

// DELETE /cart
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	itemID, ok := parseID(c, c.Query("id"), "id")
	if !ok {
		return
	}

	id, err := h.identity.fromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	deletedID, err := h.cartService.Remove(c.Request.Context(), itemID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deletedItemId": deletedID})
}

// POST /cart/merge
func (h *CartHandler) MergeGuestCart(c *gin.Context) {
	userID, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var body mergeCartBody
	if !bindJSON(c, &body) {
		return
	}

	lines, err := h.cartService.MergeGuestCart(c.Request.Context(), body.GuestID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"cart": lines})
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
