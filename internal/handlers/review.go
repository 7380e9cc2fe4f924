// internal/handlers/review.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/fanstore-backend/internal/config"
	"github.com/javajoker/fanstore-backend/internal/services"
	"github.com/javajoker/fanstore-backend/internal/utils"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
	identity      identityReader
}

func NewReviewHandler(reviewService *services.ReviewService, identityCfg config.IdentityConfig) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		identity:      identityReader{trustClientUserID: identityCfg.TrustClientUserID},
	}
}

type createReviewBody struct {
	identityFields
	services.CreateReviewRequest
}

type updateReviewBody struct {
	identityFields
	services.UpdateReviewRequest
}

// reviewUser resolves the acting user; reviews are never written by guests.
func (h *ReviewHandler) reviewUser(c *gin.Context, fields identityFields) (uint, error) {
	id, err := h.identity.fromBody(c, fields)
	if err != nil {
		return 0, err
	}
	if id.UserID == nil {
		return 0, services.ErrUnauthenticated
	}
	return *id.UserID, nil
}

// POST /productReview
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var body createReviewBody
	if !bindJSON(c, &body) {
		return
	}

	userID, err := h.reviewUser(c, body.identityFields)
	if err != nil {
		respondError(c, err)
		return
	}

	review, err := h.reviewService.Create(c.Request.Context(), userID, &body.CreateReviewRequest)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"review": review})
}

// PUT /productReview/:id
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	reviewID, ok := parseID(c, c.Param("id"), "review id")
	if !ok {
		return
	}

	var body updateReviewBody
	if !bindJSON(c, &body) {
		return
	}

	userID, err := h.reviewUser(c, body.identityFields)
	if err != nil {
		respondError(c, err)
		return
	}

	review, err := h.reviewService.Update(c.Request.Context(), reviewID, userID, &body.UpdateReviewRequest)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"review": review})
}

// DELETE /productReview/:id
//
// The user id comes from the token, the query string, or a JSON body.
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	reviewID, ok := parseID(c, c.Param("id"), "review id")
	if !ok {
		return
	}

	var fields identityFields
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &fields) {
			return
		}
	}

	var id services.Identity
	var err error
	if fields.UserID.Set {
		id, err = h.identity.fromBody(c, fields)
	} else {
		id, err = h.identity.fromQuery(c)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if id.UserID == nil {
		respondError(c, services.ErrUnauthenticated)
		return
	}

	if err := h.reviewService.Delete(c.Request.Context(), reviewID, *id.UserID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deletedReviewId": reviewID})
}
