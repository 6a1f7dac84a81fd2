package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"codecritic-backend/internal/config"
	"codecritic-backend/internal/logger"
	"codecritic-backend/internal/models"
	"codecritic-backend/internal/razorpay"
	"codecritic-backend/internal/services"
)

type WebhookHandler struct {
	config         *config.Config
	paymentService *services.PaymentService
	log            *logger.Logger
}

func NewWebhookHandler(cfg *config.Config, paymentService *services.PaymentService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		config:         cfg,
		paymentService: paymentService,
		log:            log,
	}
}

// RazorpayWebhookEvent is the gateway's webhook envelope.
type RazorpayWebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID       string `json:"id"`
				OrderID  string `json:"order_id"`
				Amount   int64  `json:"amount"`
				Currency string `json:"currency"`
				Status   string `json:"status"`
				Notes    struct {
					TaskID string `json:"task_id"`
					UserID string `json:"user_id"`
				} `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook godoc
// @Summary     Razorpay webhook endpoint
// @Description Receives payment capture notifications. The webhook is the source of truth for the premium grant; duplicate deliveries are idempotent.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       X-Razorpay-Signature header string true "HMAC-SHA256 body signature"
// @Success     200 {object} map[string]string
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /webhooks/razorpay [post]
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read request body",
			Message: err.Error(),
		})
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")
	if !razorpay.VerifyWebhookSignature(body, signature, h.config.RazorpayWebhookSecret) {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid webhook signature"})
		return
	}

	var event RazorpayWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse event",
			Message: err.Error(),
		})
		return
	}

	entity := event.Payload.Payment.Entity

	userID, err := uuid.Parse(entity.Notes.UserID)
	if err != nil {
		// Not an order created by this system; acknowledge and move on.
		h.log.Warn("webhook event without usable user note", "event", event.Event, "payment_id", entity.ID)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	var taskID uuid.NullUUID
	if parsed, err := uuid.Parse(entity.Notes.TaskID); err == nil {
		taskID = uuid.NullUUID{UUID: parsed, Valid: true}
	}

	switch event.Event {
	case "payment.captured":
		// Acknowledge fast; the request context ends with the response, so
		// the capture runs on its own context.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := h.paymentService.ProcessCapture(ctx, entity.ID, taskID, userID); err != nil {
				h.log.Error("webhook capture processing failed", "payment_id", entity.ID, "error", err)
			}
		}()
	case "payment.failed":
		if err := h.paymentService.RecordFailedPayment(entity.ID, entity.OrderID, taskID, userID, entity.Amount, entity.Currency); err != nil {
			h.log.Error("failed to record failed payment", "payment_id", entity.ID, "error", err)
		}
	default:
		h.log.Debug("ignoring webhook event", "event", event.Event)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
