package billing

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leadsyncpro/billing/internal/application/billing/usecases"
	"github.com/leadsyncpro/billing/internal/shared/constants"
	apperrors "github.com/leadsyncpro/billing/internal/shared/errors"
	"github.com/leadsyncpro/billing/internal/shared/logger"
	"github.com/leadsyncpro/billing/internal/shared/utils"
)

// maxWebhookBody bounds a single gateway delivery.
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	ingestUC ingestWebhookUseCase
	logger   logger.Interface
}

func NewWebhookHandler(ingestUC ingestWebhookUseCase, logger logger.Interface) *WebhookHandler {
	return &WebhookHandler{ingestUC: ingestUC, logger: logger}
}

// HandleIyzico stores a gateway event and acknowledges it before processing.
// The signature covers the raw body, so the body is never rebound.
func (h *WebhookHandler) HandleIyzico(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warnw("webhook body too large", "limit", tooLarge.Limit)
			utils.ErrorResponseWithError(c, apperrors.NewPayloadTooLargeError("webhook body too large"))
			return
		}
		utils.ErrorResponseWithError(c, apperrors.NewBadRequestError("failed to read webhook body", err.Error()))
		return
	}

	result, err := h.ingestUC.Execute(c.Request.Context(), usecases.IngestWebhookCommand{
		Signature: c.GetHeader(constants.HeaderIyzicoSignature),
		Payload:   body,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if result.Duplicate {
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "eventId": result.EventID})
}
