package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/revaspay/mpesa-gateway/internal/config"
	"github.com/revaspay/mpesa-gateway/internal/dispatch"
	"github.com/revaspay/mpesa-gateway/internal/handlers"
	"github.com/revaspay/mpesa-gateway/internal/middleware"
)

// SetupRoutes configures all routes for the gateway.
func SetupRoutes(router *gin.Engine, cfg *config.Config, client handlers.DarajaSender, dispatcher dispatch.Dispatcher, logger zerolog.Logger) error {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	SetupAPIRoutes(router, client, logger)

	return SetupWebhookRoutes(router, cfg, dispatcher, logger)
}

// SetupAPIRoutes configures the outbound operation endpoints.
func SetupAPIRoutes(router *gin.Engine, client handlers.DarajaSender, logger zerolog.Logger) {
	mpesaHandler := handlers.NewMpesaHandler(client, logger)
	rateLimiter := middleware.NewRateLimiter(10, 20)

	apiGroup := router.Group("/api/v1/mpesa")
	apiGroup.Use(rateLimiter.Middleware())
	{
		apiGroup.POST("/encode", mpesaHandler.Encode)
		apiGroup.POST("/execute", mpesaHandler.Execute)
	}
}
