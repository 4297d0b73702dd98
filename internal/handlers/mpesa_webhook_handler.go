package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/revaspay/mpesa-gateway/internal/dispatch"
	"github.com/revaspay/mpesa-gateway/internal/services/mpesa"
)

// MpesaWebhookHandler handles Daraja callback deliveries for one configured
// event kind. The kind comes from configuration, not the payload: the
// operator wires each listener to the URL registered with the API for that
// callback.
type MpesaWebhookHandler struct {
	event      mpesa.EventKind
	policy     mpesa.FilterPolicy
	dispatcher dispatch.Dispatcher
	logger     zerolog.Logger
	now        func() time.Time
}

// NewMpesaWebhookHandler creates a webhook handler for one event kind.
func NewMpesaWebhookHandler(event mpesa.EventKind, policy mpesa.FilterPolicy, dispatcher dispatch.Dispatcher, logger zerolog.Logger) *MpesaWebhookHandler {
	return &MpesaWebhookHandler{
		event:      event,
		policy:     policy,
		dispatcher: dispatcher,
		logger:     logger.With().Str("event", string(event)).Logger(),
		now:        time.Now,
	}
}

// Callback normalizes the delivery, applies the emission policy, and always
// acknowledges. An error response here would make the API retry the
// delivery, so nothing on this path is allowed to fail the request.
func (h *MpesaWebhookHandler) Callback(c *gin.Context) {
	envelope := mpesa.Envelope{}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to read callback body")
	} else if len(body) > 0 {
		if err := json.Unmarshal(body, &envelope); err != nil {
			h.logger.Warn().Err(err).Msg("unparseable callback body")
			envelope = mpesa.Envelope{}
		}
	}

	record := mpesa.Normalize(h.event, envelope, h.now)

	if emission := mpesa.Apply(h.policy, record); emission.Emit {
		event := dispatch.NewEvent(string(h.event), emission.Payload)
		if err := h.dispatcher.Dispatch(c.Request.Context(), event); err != nil {
			h.logger.Error().Err(err).
				Str("transaction_id", record.TransactionID).
				Msg("failed to dispatch callback event")
		}
	} else {
		h.logger.Debug().
			Str("transaction_id", record.TransactionID).
			Int("result_code", record.ResultCode).
			Msg("callback suppressed by policy")
	}

	c.JSON(http.StatusOK, mpesa.Accepted())
}
