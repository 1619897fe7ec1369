package handler

import (
	"context"
	"io"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-intelligence/errors"
	"github.com/johnquangdev/meeting-intelligence/internal/usecase/bot"
)

const (
	// SignatureHeader carries the HMAC of the raw webhook body
	SignatureHeader = "X-Webhook-Signature"
	maxWebhookBody  = 10 << 20
)

// BotWebhook receives status callbacks from the meeting-bot service
type BotWebhook struct {
	orch   *bot.Orchestrator
	logger *zap.Logger
}

// NewBotWebhookHandler creates the webhook handler
func NewBotWebhookHandler(orch *bot.Orchestrator, logger *zap.Logger) *BotWebhook {
	return &BotWebhook{orch: orch, logger: logger}
}

// Handle handles POST /v1/webhooks/bot
// @Summary      Bot status callback
// @Description  Applies a meeting-bot status change. Duplicated and reordered deliveries are safe.
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Param        X-Webhook-Signature  header    string  false  "HMAC-SHA256 of the body, hex or sha256=hex"
// @Success      200  {object}  bot.WebhookResult
// @Failure      400  {object}  map[string]interface{}  "Malformed payload"
// @Failure      401  {object}  map[string]interface{}  "Invalid signature"
// @Failure      404  {object}  map[string]interface{}  "Unknown session"
// @Router       /webhooks/bot [post]
func (h *BotWebhook) Handle(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		e := errors.ErrInvalidPayload()
		e.Raw = err
		return HandleError(h.logger, c, e)
	}

	// transcription may outlive the caller's connection
	ctx := context.WithoutCancel(c.Request().Context())
	result, err := h.orch.HandleWebhook(ctx, body, c.Request().Header.Get(SignatureHeader))
	if err != nil {
		if result != nil {
			// the meeting was marked failed; a redelivery could not change that
			if h.logger != nil {
				h.logger.Warn("webhook processing failed the meeting",
					zap.String("meeting_id", result.MeetingID.String()),
					zap.Error(err),
				)
			}
			return HandleSuccess(h.logger, c, result)
		}
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, result)
}
