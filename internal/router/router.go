// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/harvestdirect/backend/internal/config"
	"github.com/harvestdirect/backend/internal/handlers"
	"github.com/harvestdirect/backend/internal/middleware"
	"github.com/harvestdirect/backend/internal/services"
	"github.com/harvestdirect/backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Warn("S3 storage unavailable, falling back to local uploads")
	}

	authService := services.NewAuthService(db, cfg)
	userService := services.NewUserService(db)
	productService := services.NewProductService(db)
	cartService := services.NewCartService(db)
	orderService := services.NewOrderService(db, cartService)
	paymentService := services.NewPaymentService(orderService, cfg)
	analyticsService := services.NewAnalyticsService(db)
	exportService := services.NewExportService(analyticsService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService)
	productHandler := handlers.NewProductHandler(productService, storageService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, exportService, userService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("/:id", userHandler.GetUser)

			// Authenticated user routes
			protected := users.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.PUT("/profile", userHandler.UpdateProfile)
			}
		}

		// Product routes
		products := v1.Group("/products")
		{
			products.GET("", productHandler.SearchProducts)
			products.GET("/:id", productHandler.GetProduct)

			// Seller routes
			protected := products.Group("")
			protected.Use(middleware.AuthRequired(), middleware.SellerRequired())
			{
				protected.POST("", productHandler.CreateProduct)
				protected.PUT("/:id", productHandler.UpdateProduct)
				protected.DELETE("/:id", productHandler.DeleteProduct)
				protected.GET("/mine", productHandler.GetMyProducts)
				protected.POST("/upload-image", middleware.UploadRateLimit(), productHandler.UploadImage)
			}
		}

		// Cart routes
		cart := v1.Group("/cart")
		cart.Use(middleware.AuthRequired())
		{
			cart.GET("", cartHandler.GetCart)
			cart.DELETE("", cartHandler.ClearCart)
			cart.POST("/items", cartHandler.AddToCart)
			cart.PUT("/items/:id", cartHandler.UpdateCartItem)
			cart.DELETE("/items/:id", cartHandler.RemoveCartItem)
		}

		// Order routes
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.POST("", orderHandler.PlaceOrder)
			orders.GET("", orderHandler.GetMyOrders)
			orders.GET("/sales", middleware.SellerRequired(), orderHandler.GetMySales)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.GET("/:id/items", orderHandler.GetOrderItems)
			orders.PUT("/:id/status", orderHandler.UpdateOrderStatus)
			orders.PUT("/:id/payment-status", middleware.AdminRequired(), orderHandler.UpdatePaymentStatus)

			// Payments ride on the order resource
			orders.POST("/:id/payment-intent", paymentHandler.CreatePaymentIntent)
			orders.POST("/:id/confirm-payment", paymentHandler.ConfirmPayment)
			orders.POST("/:id/refund", middleware.AdminRequired(), paymentHandler.RefundOrder)
		}

		// Analytics routes
		analytics := v1.Group("/analytics")
		analytics.Use(middleware.AuthRequired())
		{
			seller := analytics.Group("/seller")
			seller.Use(middleware.SellerRequired())
			{
				seller.GET("/summary", analyticsHandler.GetSellerSummary)
				seller.GET("/sales-over-time", analyticsHandler.GetSalesOverTime)
				seller.GET("/sales-by-category", analyticsHandler.GetSalesByCategory)
				seller.GET("/top-products", analyticsHandler.GetTopProducts)
				seller.GET("/export", middleware.ExportRateLimit(), analyticsHandler.ExportSellerReport)
			}

			buyer := analytics.Group("/buyer")
			{
				buyer.GET("/purchases-over-time", analyticsHandler.GetPurchasesOverTime)
				buyer.GET("/purchases-by-category", analyticsHandler.GetPurchasesByCategory)
				buyer.GET("/frequent-products", analyticsHandler.GetFrequentProducts)
				buyer.GET("/export", middleware.ExportRateLimit(), analyticsHandler.ExportBuyerReport)
			}

			admin := analytics.Group("/admin")
			admin.Use(middleware.AdminRequired())
			{
				admin.GET("/stats", analyticsHandler.GetAdminStats)
				admin.GET("/export", middleware.ExportRateLimit(), analyticsHandler.ExportAdminReport)
			}
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
