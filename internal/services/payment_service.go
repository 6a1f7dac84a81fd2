package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"codecritic-backend/internal/logger"
	"codecritic-backend/internal/models"
	"codecritic-backend/internal/razorpay"
	"codecritic-backend/internal/supabase"
)

var (
	// ErrAlreadyUnlocked is returned when an order is requested for an
	// account that already holds premium.
	ErrAlreadyUnlocked = errors.New("premium report already unlocked")
	// ErrNotCaptured is returned when the gateway does not report the
	// payment as captured.
	ErrNotCaptured = errors.New("payment is not captured")
)

// PaymentGateway is the slice of the gateway client the service needs.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*razorpay.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error)
}

// PaymentStore is the slice of the database the payment flow needs.
type PaymentStore interface {
	GetTask(taskID, userID uuid.UUID) (*models.Task, error)
	GetOrCreateProfile(userID uuid.UUID) (*models.UserProfile, error)
	CreatePayment(p *models.Payment) error
	GetPaymentByProviderID(razorpayPaymentID string) (*models.Payment, error)
	GrantPremium(userID uuid.UUID, since time.Time) error
	UnlockPremiumReport(taskID uuid.UUID) error
}

// PaymentService owns order creation and the single idempotent capture
// path shared by the webhook and the synchronous verify endpoint.
type PaymentService struct {
	gateway  PaymentGateway
	store    PaymentStore
	realtime *supabase.RealtimeClient
	log      *logger.Logger
}

func NewPaymentService(gateway PaymentGateway, store PaymentStore, realtime *supabase.RealtimeClient, log *logger.Logger) *PaymentService {
	return &PaymentService{
		gateway:  gateway,
		store:    store,
		realtime: realtime,
		log:      log,
	}
}

// CreateOrder registers a gateway order to unlock the premium report. The
// task must exist and belong to the caller; an account that already holds
// premium gets ErrAlreadyUnlocked.
func (s *PaymentService) CreateOrder(ctx context.Context, userID, taskID uuid.UUID, amount int64, currency string) (*razorpay.Order, error) {
	task, err := s.store.GetTask(taskID, userID)
	if err != nil {
		return nil, err
	}

	profile, err := s.store.GetOrCreateProfile(userID)
	if err != nil {
		return nil, err
	}
	if profile.IsPremium || task.PremiumUnlocked {
		return nil, ErrAlreadyUnlocked
	}

	if currency == "" {
		currency = "INR"
	}

	receipt := "task_" + taskID.String()[:8]
	notes := map[string]string{
		"task_id": taskID.String(),
		"user_id": userID.String(),
	}

	order, err := s.gateway.CreateOrder(ctx, amount, currency, receipt, notes)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}

	return order, nil
}

// ProcessCapture confirms a payment with the gateway, persists it, and
// grants the account-wide premium flag. It is idempotent: a duplicate
// delivery hits the unique constraint on the gateway payment id and is
// treated as already processed, after which the grant is re-applied
// (setting the flag twice is harmless).
func (s *PaymentService) ProcessCapture(ctx context.Context, paymentID string, taskID uuid.NullUUID, userID uuid.UUID) error {
	// Fast path for redeliveries: a recorded completed payment was already
	// gateway-confirmed, so skip the lookup and re-apply the grant.
	if existing, err := s.store.GetPaymentByProviderID(paymentID); err == nil &&
		existing.Status == models.PaymentStatusCompleted {
		return s.applyGrant(existing.UserID, existing.TaskID, paymentID)
	}

	payment, err := s.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("failed to confirm payment with gateway: %w", err)
	}
	if payment.Status != razorpay.PaymentStatusCaptured {
		return fmt.Errorf("%w: gateway reports status %q", ErrNotCaptured, payment.Status)
	}

	record := &models.Payment{
		ID:                uuid.New(),
		UserID:            userID,
		TaskID:            taskID,
		RazorpayPaymentID: payment.ID,
		RazorpayOrderID:   payment.OrderID,
		Amount:            payment.Amount,
		Currency:          payment.Currency,
		Status:            models.PaymentStatusCompleted,
	}

	if err := s.store.CreatePayment(record); err != nil {
		if !supabase.IsUniqueViolation(err) {
			return fmt.Errorf("failed to persist payment: %w", err)
		}
		s.log.Info("payment already processed", "razorpay_payment_id", payment.ID)
	}

	return s.applyGrant(userID, taskID, payment.ID)
}

func (s *PaymentService) applyGrant(userID uuid.UUID, taskID uuid.NullUUID, paymentID string) error {
	if err := s.store.GrantPremium(userID, time.Now().UTC()); err != nil {
		return err
	}
	if taskID.Valid {
		if err := s.store.UnlockPremiumReport(taskID.UUID); err != nil {
			return err
		}
	}

	s.realtime.PublishUserEvent(userID, "premium_granted",
		supabase.PremiumGrantedPayload(userID, paymentID))
	s.log.Info("premium granted", "user_id", userID.String(), "razorpay_payment_id", paymentID)

	return nil
}

// RecordFailedPayment keeps an audit row for payment.failed events.
// Duplicate deliveries are ignored.
func (s *PaymentService) RecordFailedPayment(paymentID, orderID string, taskID uuid.NullUUID, userID uuid.UUID, amount int64, currency string) error {
	record := &models.Payment{
		ID:                uuid.New(),
		UserID:            userID,
		TaskID:            taskID,
		RazorpayPaymentID: paymentID,
		RazorpayOrderID:   orderID,
		Amount:            amount,
		Currency:          currency,
		Status:            models.PaymentStatusFailed,
	}

	if err := s.store.CreatePayment(record); err != nil && !supabase.IsUniqueViolation(err) {
		return fmt.Errorf("failed to record failed payment: %w", err)
	}
	return nil
}
