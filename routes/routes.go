package routes

import (
	"net/http"

	"canteen-api/handlers"
	"canteen-api/logging"
	"canteen-api/middleware"
	"canteen-api/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler) {
	r.GET("/health", h.Health)
	r.GET("/", h.Welcome)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)

		public.GET("/menu", h.ListMenu)
		public.GET("/menu/stream", h.StreamMenu)

		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Optionally authenticated routes ────────────────────────────
	optional := r.Group("/api")
	optional.Use(h.Tokens.OptionalAuth())
	{
		optional.POST("/orders", h.PlaceOrder)
		optional.GET("/recommendations", h.GetRecommendations)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(h.Tokens.AuthRequired())
	{
		auth.GET("/profile", h.GetProfile)
		auth.GET("/orders/history", h.GetOrderHistory)

		auth.GET("/wallet", h.GetWallet)
		auth.GET("/wallet/transactions", h.GetTransactions)
		auth.POST("/wallet/credit", h.Credit)
		auth.POST("/wallet/debit", h.Debit)
	}

	// ── Kitchen staff routes ───────────────────────────────────────
	staff := r.Group("/api/staff")
	staff.Use(h.Tokens.AuthRequired(), middleware.RoleRequired(models.RoleStaff, models.RoleAdmin))
	{
		staff.POST("/menu", h.AddMenuItem)
		staff.POST("/menu/availability", h.SetAvailability)

		staff.GET("/orders", h.ListOrders)
		staff.PATCH("/orders/:id/status", h.UpdateOrderStatus)
	}
}

// NewRouter builds the engine with access logging, recovery and CORS
func NewRouter(h *handlers.Handler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(logging.GinMiddleware(logger), gin.Recovery())

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, "+logging.RequestIDHeader)
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	SetupRoutes(r, h)
	return r
}
