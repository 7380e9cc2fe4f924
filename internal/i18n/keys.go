// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeyInternalError     = "error.internal"
	KeyValidationInvalid = "validation.invalid"
	KeyAccessDenied      = "error.access_denied"
	KeyRateLimited       = "error.rate_limited"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAdminAccessDenied      = "admin.access_denied"

	// Identity
	KeyIdentityMissing  = "identity.missing"
	KeyIdentityMismatch = "identity.mismatch"

	// Cart
	KeyCartItemNotFound  = "cart_item.not_found"
	KeyCartEmpty         = "cart.empty"
	KeyCartQuantityFloor = "cart.quantity_floor"
	KeyCartItemForbidden = "cart_item.forbidden"

	// Orders
	KeyOrderNotFound  = "order.not_found"
	KeyOrderPlaced    = "order.placed"
	KeyOrderForbidden = "order.forbidden"

	// Products
	KeyProductNotFound = "product.not_found"
	KeyProductCreated  = "product.created"
	KeyProductUpdated  = "product.updated"
	KeyProductDeleted  = "product.deleted"

	// Reviews
	KeyReviewNotFound  = "review.not_found"
	KeyReviewDuplicate = "review.duplicate"
	KeyReviewForbidden = "review.forbidden"

	// Users
	KeyUserNotFound = "user.not_found"
)
