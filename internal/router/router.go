// internal/router/router.go
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/javajoker/fanstore-backend/internal/config"
	"github.com/javajoker/fanstore-backend/internal/handlers"
	"github.com/javajoker/fanstore-backend/internal/middleware"
	"github.com/javajoker/fanstore-backend/internal/services"
	"github.com/javajoker/fanstore-backend/internal/utils"
)

// Initialize builds the engine. The returned stop func releases the rate
// limiters' background cleanup and must be called on shutdown.
func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, func()) {
	// Initialize services
	notificationService := services.NewNotificationService(cfg)
	identityResolver := services.NewIdentityResolver()

	authService := services.NewAuthService(db, cfg)
	cartService := services.NewCartService(db, identityResolver)
	orderService := services.NewOrderService(db, notificationService, cfg.WhatsApp)
	productService := services.NewProductService(db)
	reviewService := services.NewReviewService(db)
	adminService := services.NewAdminService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	cartHandler := handlers.NewCartHandler(cartService, cfg.Identity)
	checkoutHandler := handlers.NewCheckoutHandler(orderService, cfg.Identity)
	orderHandler := handlers.NewOrderHandler(orderService, cfg.Identity)
	productHandler := handlers.NewProductHandler(productService, reviewService)
	reviewHandler := handlers.NewReviewHandler(reviewService, cfg.Identity)
	adminHandler := handlers.NewAdminHandler(adminService)
	healthHandler := handlers.NewHealthHandler(db)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	generalLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	authLimiter := middleware.NewRateLimiter(rate.Every(time.Minute/time.Duration(max(cfg.RateLimit.AuthPerMinute, 1))), cfg.RateLimit.AuthPerMinute)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Preflight())
	r.Use(middleware.I18nMiddleware())
	r.Use(generalLimiter.Middleware())

	r.GET("/health", healthHandler.Check)

	auth := r.Group("/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
	}

	// Storefront routes accept guests; a bearer token, when sent, fixes the user.
	shop := r.Group("/")
	shop.Use(middleware.OptionalAuth())
	{
		shop.GET("/cart", cartHandler.GetCart)
		shop.POST("/cart", cartHandler.AddToCart)
		shop.PUT("/cart", cartHandler.ChangeQuantity)
		shop.DELETE("/cart", cartHandler.RemoveFromCart)
		shop.POST("/cart/merge", middleware.AuthRequired(), cartHandler.MergeGuestCart)

		shop.POST("/checkout", checkoutHandler.Checkout)
		shop.GET("/checkout", checkoutHandler.ListOrders)

		shop.GET("/order/:id", orderHandler.GetOrder)

		shop.GET("/products", productHandler.GetProducts)
		shop.GET("/products/:id", productHandler.GetProduct)
		shop.GET("/products/:id/reviews", productHandler.GetProductReviews)

		shop.POST("/productReview", reviewHandler.CreateReview)
		shop.PUT("/productReview/:id", reviewHandler.UpdateReview)
		shop.DELETE("/productReview/:id", reviewHandler.DeleteReview)
	}

	admin := r.Group("/")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("/order", orderHandler.ListOrders)
		admin.PUT("/order", orderHandler.UpdateOrder)
		admin.PUT("/order/:id", orderHandler.UpdateOrderByID)

		admin.POST("/products", productHandler.CreateProduct)
		admin.PUT("/products/:id", productHandler.UpdateProduct)
		admin.DELETE("/products/:id", productHandler.DeleteProduct)

		admin.GET("/admin/stats", adminHandler.GetDashboardStats)
	}

	stop := func() {
		generalLimiter.Stop()
		authLimiter.Stop()
	}
	return r, stop
}
