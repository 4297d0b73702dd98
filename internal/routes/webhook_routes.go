package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/revaspay/mpesa-gateway/internal/config"
	"github.com/revaspay/mpesa-gateway/internal/dispatch"
	"github.com/revaspay/mpesa-gateway/internal/handlers"
	"github.com/revaspay/mpesa-gateway/internal/services/mpesa"
)

// SetupWebhookRoutes registers one callback route per configured event
// kind. An unlisted kind in the configuration fails startup rather than
// falling through at delivery time.
func SetupWebhookRoutes(router *gin.Engine, cfg *config.Config, dispatcher dispatch.Dispatcher, logger zerolog.Logger) error {
	policy := mpesa.FilterPolicy{
		SuccessOnly:     cfg.Webhook.SuccessOnly,
		NormalizeOutput: cfg.Webhook.NormalizeOutput,
	}

	webhookGroup := router.Group("/webhooks/mpesa")
	for _, name := range cfg.Webhook.Events {
		kind, err := mpesa.ParseEventKind(name)
		if err != nil {
			return fmt.Errorf("invalid webhook event configuration: %w", err)
		}

		handler := handlers.NewMpesaWebhookHandler(kind, policy, dispatcher, logger)
		webhookGroup.POST("/"+string(kind), handler.Callback)
	}

	return nil
}
