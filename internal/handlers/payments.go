package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"codecritic-backend/internal/models"
	"codecritic-backend/internal/razorpay"
	"codecritic-backend/internal/services"
	"codecritic-backend/internal/supabase"
)

type PaymentsHandler struct {
	paymentService *services.PaymentService
	gateway        *razorpay.Client
}

func NewPaymentsHandler(paymentService *services.PaymentService, gateway *razorpay.Client) *PaymentsHandler {
	return &PaymentsHandler{
		paymentService: paymentService,
		gateway:        gateway,
	}
}

// CreateOrder godoc
// @Summary     Create a payment order to unlock the premium report
// @Tags        payments
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateOrderRequest true "Order details"
// @Success     200 {object} models.OrderResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /payments/order [post]
func (h *PaymentsHandler) CreateOrder(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid task id"})
		return
	}

	order, err := h.paymentService.CreateOrder(c.Request.Context(), userID, taskID, req.Amount, req.Currency)
	if err != nil {
		switch {
		case errors.Is(err, supabase.ErrNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "task not found"})
		case errors.Is(err, services.ErrAlreadyUnlocked):
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: "premium report already unlocked"})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "failed to create order",
				Message: err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, models.OrderResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    h.gateway.KeyID(),
	})
}

// VerifyPayment godoc
// @Summary     Verify a checkout payment
// @Description Validates the checkout signature and runs the same idempotent capture path as the webhook, so it acts as a status poll when the webhook arrived first.
// @Tags        payments
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.VerifyPaymentRequest true "Checkout result"
// @Success     200 {object} models.VerifyPaymentResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     402 {object} models.ErrorResponse
// @Router      /payments/verify [post]
func (h *PaymentsHandler) VerifyPayment(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid task id"})
		return
	}

	if !h.gateway.VerifyCheckoutSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "payment verification failed"})
		return
	}

	err = h.paymentService.ProcessCapture(c.Request.Context(), req.RazorpayPaymentID,
		uuid.NullUUID{UUID: taskID, Valid: true}, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotCaptured) {
			c.JSON(http.StatusPaymentRequired, models.ErrorResponse{Error: "payment verification failed"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to process payment",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.VerifyPaymentResponse{
		Status:    "success",
		IsPremium: true,
	})
}
