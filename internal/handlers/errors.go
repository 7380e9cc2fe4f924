// internal/handlers/errors.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/fanstore-backend/internal/i18n"
	"github.com/javajoker/fanstore-backend/internal/services"
	"github.com/javajoker/fanstore-backend/internal/utils"
)

// respondError maps a service error to its HTTP status and writes it.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var svcErr *services.ServiceError
	errors.As(err, &svcErr)
	message := err.Error()
	if svcErr != nil {
		message = svcErr.Error()
	}

	switch {
	case errors.Is(err, services.ErrValidation):
		if svcErr != nil {
			if details, ok := svcErr.Details.([]utils.ValidationError); ok && len(details) > 0 {
				utils.ValidationErrorResponse(c, details)
				return
			}
		}
		utils.BadRequestResponse(c, message, nil)
	case errors.Is(err, services.ErrQuantityFloor):
		utils.ErrorResponse(c, http.StatusBadRequest, "QUANTITY_FLOOR", i18n.T(lang, i18n.KeyCartQuantityFloor), nil)
	case errors.Is(err, services.ErrEmptyCart):
		utils.ErrorResponse(c, http.StatusBadRequest, "EMPTY_CART", i18n.T(lang, i18n.KeyCartEmpty), nil)
	case errors.Is(err, services.ErrMissingIdentity):
		utils.ErrorResponse(c, http.StatusBadRequest, "MISSING_IDENTITY", i18n.T(lang, i18n.KeyIdentityMissing), nil)
	case errors.Is(err, services.ErrNotFound):
		resource := "error"
		if svcErr != nil && svcErr.Resource != "" {
			resource = svcErr.Resource
		}
		if i18n.Has(lang, resource+".not_found") {
			utils.NotFoundResponse(c, resource)
			return
		}
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message, nil)
	case errors.Is(err, services.ErrUnauthenticated):
		utils.UnauthorizedResponse(c, message)
	case errors.Is(err, services.ErrUnauthorized):
		utils.ForbiddenResponse(c, message)
	case errors.Is(err, services.ErrDuplicateReview):
		utils.ErrorResponse(c, http.StatusConflict, "DUPLICATE_REVIEW", i18n.T(lang, i18n.KeyReviewDuplicate), nil)
	case errors.Is(err, services.ErrConflict):
		utils.ConflictResponse(c, message)
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Unhandled request error")
		utils.InternalErrorResponse(c, "")
	}
}

// bindJSON decodes the body and writes a 400 on malformed input.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		lang := utils.GetLangFromContext(c)
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, typeErr.Field), nil)
			return false
		}
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}

// parseID reads a positive integer path or query value.
func parseID(c *gin.Context, raw, field string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, field), nil)
		return 0, false
	}
	return uint(id), true
}
