package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/global"
)

// NewEngine builds the gin engine with CORS, request logging and every /api route.
func NewEngine(cfg *global.Config, h *Handler, logger *zap.Logger) *gin.Engine {
	switch cfg.Environment {
	case global.Production:
		gin.SetMode(gin.ReleaseMode)
	case global.Test:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	InitializeRoutes(router, h, SessionMiddleware(h.registry, SessionCookie{
		Secure: cfg.CookieSecure,
		MaxAge: cfg.SessionTTL,
	}))
	return router
}

func InitializeRoutes(router *gin.Engine, h *Handler, sessions gin.HandlerFunc) {
	api := router.Group("/api")
	{
		api.GET("/health", h.HealthCheck)

		catalog := api.Group("")
		{
			catalog.GET("/promotions", h.GetPromotions)
			catalog.GET("/promotions/:id", h.GetPromotion)
			catalog.GET("/categories", h.GetCategories)
			catalog.GET("/products", h.GetProducts)
			catalog.GET("/products/:id", h.GetProduct)
			catalog.GET("/products/:id/reviews", h.GetProductReviews)
			catalog.GET("/summer-collection", h.GetSummerCollection)
			catalog.GET("/instagram", h.GetInstagramPosts)
		}

		user := api.Group("")
		user.Use(sessions)
		{
			user.POST("/products/:id/reviews", h.CreateReview)

			auth := user.Group("/auth")
			{
				auth.POST("/register", h.Register)
				auth.POST("/verify-phone", h.VerifyPhone)
				auth.POST("/resend-otp", h.ResendOTP)
				auth.GET("/check-exists", h.CheckUserExists)
				auth.POST("/logout", h.Logout)
			}
			user.GET("/session", h.GetSession)
			user.GET("/profile", h.GetProfile)
			user.PUT("/profile", h.UpdateProfile)

			cart := user.Group("/cart")
			{
				cart.GET("", h.GetCart)
				cart.POST("/items", h.AddToCart)
				cart.PUT("/items/:productId", h.UpdateCartItem)
				cart.DELETE("/items/:productId", h.RemoveFromCart)
				cart.DELETE("", h.ClearCart)
				cart.POST("/refresh", h.RefreshCart)
				cart.GET("/events", h.CartEvents)
			}

			addresses := user.Group("/addresses")
			{
				addresses.GET("", h.GetAddresses)
				addresses.POST("", h.CreateAddress)
				addresses.PUT("/:id", h.UpdateAddress)
				addresses.DELETE("/:id", h.DeleteAddress)
				addresses.PUT("/:id/default", h.SetDefaultAddress)
				addresses.PUT("/:id/select", h.SelectAddress)
			}

			checkout := user.Group("/checkout")
			{
				checkout.GET("", h.GetCheckout)
				checkout.POST("/coupon", h.ApplyCoupon)
				checkout.DELETE("/coupon", h.RemoveCoupon)
				checkout.POST("/orders", h.PlaceOrder)
				checkout.POST("/payments/verify", h.VerifyPayment)
			}

			orders := user.Group("/orders")
			{
				orders.GET("", h.GetOrders)
				orders.GET("/:id", h.GetOrder)
			}
		}
	}
}
