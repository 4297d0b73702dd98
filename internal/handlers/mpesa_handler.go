package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/revaspay/mpesa-gateway/internal/services/mpesa"
	"github.com/revaspay/mpesa-gateway/internal/utils"
)

// DarajaSender sends encoded request descriptors to the Daraja API.
type DarajaSender interface {
	Send(desc *mpesa.RequestDescriptor) (map[string]interface{}, error)
}

// MpesaHandler exposes the outbound operations: encoding request
// descriptors and executing them against the API.
type MpesaHandler struct {
	client DarajaSender
	logger zerolog.Logger
	now    func() time.Time
}

// NewMpesaHandler creates a new outbound operations handler.
func NewMpesaHandler(client DarajaSender, logger zerolog.Logger) *MpesaHandler {
	return &MpesaHandler{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// OperationRequest is the invocation payload for encode and execute. Each
// item is one independent parameter set; with ContinueOnFail a failing item
// carries its own error instead of aborting its siblings.
type OperationRequest struct {
	Resource       string         `json:"resource" binding:"required"`
	Operation      string         `json:"operation" binding:"required"`
	Items          []mpesa.Params `json:"items" binding:"required,min=1"`
	ContinueOnFail bool           `json:"continueOnFail"`
}

// ItemResult is the per-item outcome of a batch invocation.
type ItemResult struct {
	Reference  string                   `json:"reference"`
	Descriptor *mpesa.RequestDescriptor `json:"descriptor,omitempty"`
	Response   map[string]interface{}   `json:"response,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

// Encode builds request descriptors without sending them. Useful for
// auditing exactly what would go on the wire.
func (h *MpesaHandler) Encode(c *gin.Context) {
	h.run(c, func(desc *mpesa.RequestDescriptor, result *ItemResult) error {
		result.Descriptor = desc
		return nil
	})
}

// Execute encodes each item and sends it to the API.
func (h *MpesaHandler) Execute(c *gin.Context) {
	h.run(c, func(desc *mpesa.RequestDescriptor, result *ItemResult) error {
		response, err := h.client.Send(desc)
		if err != nil {
			return err
		}
		result.Response = response
		return nil
	})
}

func (h *MpesaHandler) run(c *gin.Context, deliver func(*mpesa.RequestDescriptor, *ItemResult) error) {
	var req OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	resource, err := mpesa.ParseResource(req.Resource)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	operation, err := mpesa.ParseOperation(req.Operation)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := mpesa.Lookup(resource, operation); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := make([]ItemResult, 0, len(req.Items))
	for i, params := range req.Items {
		result := ItemResult{Reference: utils.GenerateReference("MP")}

		err := h.processItem(resource, operation, params, deliver, &result)
		if err != nil {
			if !req.ContinueOnFail {
				h.logger.Error().Err(err).
					Str("resource", req.Resource).
					Str("operation", req.Operation).
					Int("item", i).
					Msg("batch aborted")
				c.JSON(statusForError(err), gin.H{"error": err.Error(), "item": i})
				return
			}
			result.Error = err.Error()
		}

		results = append(results, result)
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *MpesaHandler) processItem(resource mpesa.Resource, operation mpesa.Operation, params mpesa.Params, deliver func(*mpesa.RequestDescriptor, *ItemResult) error, result *ItemResult) error {
	desc, err := mpesa.Encode(resource, operation, params, h.now)
	if err != nil {
		return err
	}
	return deliver(desc, result)
}

// statusForError maps configuration errors to 400 and transport failures to
// 502.
func statusForError(err error) int {
	var missing *mpesa.MissingParameterError
	if errors.Is(err, mpesa.ErrUnsupportedOperation) || errors.As(err, &missing) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
