package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"cafepos/internal/handler"
	"cafepos/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	MenuHandler     *handler.MenuHandler
	CartHandler     *handler.CartHandler
	CheckoutHandler *handler.CheckoutHandler
	DevHandler      *handler.DevHandler
	RedisClient     *redis.Client
	KeyPrefix       string
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.RedisClient != nil {
		router.Use(middleware.Idempotency(deps.RedisClient, deps.KeyPrefix))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		v1.GET("/menu", deps.MenuHandler.GetMenu)
		v1.GET("/rate", deps.MenuHandler.GetRate)

		// Cart routes.
		cart := v1.Group("/cart")
		{
			cart.GET("", deps.CartHandler.GetCart)
			cart.DELETE("", deps.CartHandler.ClearCart)
			cart.POST("/items", deps.CartHandler.AddItem)
			cart.PUT("/items/:id", deps.CartHandler.SetQuantity)
			cart.DELETE("/items/:id", deps.CartHandler.RemoveItem)
		}

		// Checkout routes.
		checkout := v1.Group("/checkout")
		{
			checkout.GET("", deps.CheckoutHandler.GetSession)
			checkout.POST("", deps.CheckoutHandler.Commit)
			checkout.POST("/cancel", deps.CheckoutHandler.Cancel)
			checkout.POST("/reset", deps.CheckoutHandler.Reset)
		}

		// Development-only settlement trigger.
		if deps.DevHandler != nil {
			v1.POST("/dev/settle", deps.DevHandler.Settle)
		}
	}

	return router
}
