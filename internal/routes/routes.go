package routes

import (
	"time"

	"github.com/01moynul/ecofinds-golang/internal/config"
	"github.com/01moynul/ecofinds-golang/internal/handlers"
	"github.com/01moynul/ecofinds-golang/internal/media"
	"github.com/01moynul/ecofinds-golang/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter builds the gin engine with CORS, static uploads and the /api routes.
func SetupRouter(h *handlers.Handlers, tokens middleware.TokenValidator, cfg *config.Config) *gin.Engine {
	router := gin.Default()
	router.MaxMultipartMemory = 4 * media.MaxImageSize

	// --- CORS: only the configured frontends ---
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Serve uploaded images
	router.Static("/uploads", cfg.UploadDir)

	api := router.Group("/api")
	{
		// --- Public Routes ---
		api.GET("/health", h.Health)
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)

		// --- Protected Routes (Bearer token) ---
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(tokens))
		{
			// Products
			protected.POST("/products", h.CreateProduct)
			protected.PUT("/products/:id", h.UpdateProduct)
			protected.DELETE("/products/:id", h.DeleteProduct)
			protected.GET("/products/user/my-products", h.GetMyProducts)
			protected.GET("/products/user/purchases", h.GetMyPurchases)
			protected.POST("/products/purchase", h.PurchaseProduct)
			protected.POST("/upload", h.UploadFile)

			// Cart
			protected.GET("/cart", h.GetCart)
			protected.POST("/cart/add", h.AddToCart)
			protected.PUT("/cart/item/:itemId", h.UpdateCartItem)
			protected.DELETE("/cart/item/:itemId", h.RemoveCartItem)
			protected.DELETE("/cart/clear", h.ClearCart)
			protected.POST("/cart/checkout", h.Checkout)

			// Orders
			protected.GET("/cart/orders", h.GetMyOrders)
			protected.GET("/cart/orders/:id", h.GetOrder)
			protected.PUT("/cart/orders/:id", h.UpdateOrder)
		}
	}

	return router
}
