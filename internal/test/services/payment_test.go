package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecritic-backend/internal/logger"
	"codecritic-backend/internal/models"
	"codecritic-backend/internal/razorpay"
	"codecritic-backend/internal/services"
	"codecritic-backend/internal/supabase"
)

type stubGateway struct {
	order      *razorpay.Order
	orderErr   error
	orderNotes map[string]string

	payment    *razorpay.Payment
	paymentErr error
}

func (g *stubGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*razorpay.Order, error) {
	g.orderNotes = notes
	if g.orderErr != nil {
		return nil, g.orderErr
	}
	return g.order, nil
}

func (g *stubGateway) FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error) {
	if g.paymentErr != nil {
		return nil, g.paymentErr
	}
	return g.payment, nil
}

type stubStore struct {
	task       *models.Task
	taskErr    error
	profile    *models.UserProfile
	existing   *models.Payment
	createErr  error
	payments   []*models.Payment
	premiumFor []uuid.UUID
	unlocked   []uuid.UUID
}

func (s *stubStore) GetTask(taskID, userID uuid.UUID) (*models.Task, error) {
	if s.taskErr != nil {
		return nil, s.taskErr
	}
	return s.task, nil
}

func (s *stubStore) GetOrCreateProfile(userID uuid.UUID) (*models.UserProfile, error) {
	if s.profile != nil {
		return s.profile, nil
	}
	return &models.UserProfile{ID: userID}, nil
}

func (s *stubStore) CreatePayment(p *models.Payment) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.payments = append(s.payments, p)
	return nil
}

func (s *stubStore) GetPaymentByProviderID(razorpayPaymentID string) (*models.Payment, error) {
	if s.existing == nil {
		return nil, supabase.ErrNotFound
	}
	return s.existing, nil
}

func (s *stubStore) GrantPremium(userID uuid.UUID, since time.Time) error {
	s.premiumFor = append(s.premiumFor, userID)
	return nil
}

func (s *stubStore) UnlockPremiumReport(taskID uuid.UUID) error {
	s.unlocked = append(s.unlocked, taskID)
	return nil
}

func newPaymentService(gateway *stubGateway, store *stubStore) *services.PaymentService {
	return services.NewPaymentService(gateway, store, supabase.NewRealtimeClient(nil), logger.NewNop())
}

func TestCreateOrder_Success(t *testing.T) {
	taskID := uuid.New()
	userID := uuid.New()
	gateway := &stubGateway{order: &razorpay.Order{ID: "order_abc", Amount: 19900, Currency: "INR"}}
	store := &stubStore{task: &models.Task{ID: taskID, UserID: userID}}
	service := newPaymentService(gateway, store)

	order, err := service.CreateOrder(context.Background(), userID, taskID, 19900, "")

	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, taskID.String(), gateway.orderNotes["task_id"])
	assert.Equal(t, userID.String(), gateway.orderNotes["user_id"])
}

func TestCreateOrder_TaskNotFound(t *testing.T) {
	gateway := &stubGateway{}
	store := &stubStore{taskErr: supabase.ErrNotFound}
	service := newPaymentService(gateway, store)

	_, err := service.CreateOrder(context.Background(), uuid.New(), uuid.New(), 19900, "INR")

	assert.ErrorIs(t, err, supabase.ErrNotFound)
}

func TestCreateOrder_AlreadyPremium(t *testing.T) {
	taskID := uuid.New()
	userID := uuid.New()
	gateway := &stubGateway{}
	store := &stubStore{
		task:    &models.Task{ID: taskID, UserID: userID},
		profile: &models.UserProfile{ID: userID, IsPremium: true},
	}
	service := newPaymentService(gateway, store)

	_, err := service.CreateOrder(context.Background(), userID, taskID, 19900, "INR")

	assert.ErrorIs(t, err, services.ErrAlreadyUnlocked)
}

func TestCreateOrder_ReportAlreadyUnlocked(t *testing.T) {
	taskID := uuid.New()
	userID := uuid.New()
	gateway := &stubGateway{}
	store := &stubStore{task: &models.Task{ID: taskID, UserID: userID, PremiumUnlocked: true}}
	service := newPaymentService(gateway, store)

	_, err := service.CreateOrder(context.Background(), userID, taskID, 19900, "INR")

	assert.ErrorIs(t, err, services.ErrAlreadyUnlocked)
}

func TestProcessCapture_Success(t *testing.T) {
	taskID := uuid.New()
	userID := uuid.New()
	gateway := &stubGateway{payment: &razorpay.Payment{
		ID:       "pay_xyz",
		OrderID:  "order_abc",
		Amount:   19900,
		Currency: "INR",
		Status:   razorpay.PaymentStatusCaptured,
	}}
	store := &stubStore{}
	service := newPaymentService(gateway, store)

	err := service.ProcessCapture(context.Background(), "pay_xyz",
		uuid.NullUUID{UUID: taskID, Valid: true}, userID)

	require.NoError(t, err)
	require.Len(t, store.payments, 1)
	assert.Equal(t, "pay_xyz", store.payments[0].RazorpayPaymentID)
	assert.Equal(t, models.PaymentStatusCompleted, store.payments[0].Status)
	assert.Equal(t, []uuid.UUID{userID}, store.premiumFor)
	assert.Equal(t, []uuid.UUID{taskID}, store.unlocked)
}

func TestProcessCapture_NotCaptured(t *testing.T) {
	gateway := &stubGateway{payment: &razorpay.Payment{ID: "pay_xyz", Status: "authorized"}}
	store := &stubStore{}
	service := newPaymentService(gateway, store)

	err := service.ProcessCapture(context.Background(), "pay_xyz", uuid.NullUUID{}, uuid.New())

	assert.ErrorIs(t, err, services.ErrNotCaptured)
	assert.Empty(t, store.payments)
	assert.Empty(t, store.premiumFor)
	assert.Empty(t, store.unlocked)
}

func TestProcessCapture_GatewayUnreachable(t *testing.T) {
	gateway := &stubGateway{paymentErr: fmt.Errorf("connection refused")}
	store := &stubStore{}
	service := newPaymentService(gateway, store)

	err := service.ProcessCapture(context.Background(), "pay_xyz", uuid.NullUUID{}, uuid.New())

	assert.Error(t, err)
	assert.Empty(t, store.premiumFor)
}

func TestProcessCapture_DuplicateDeliveryIdempotent(t *testing.T) {
	taskID := uuid.New()
	userID := uuid.New()
	gateway := &stubGateway{payment: &razorpay.Payment{
		ID:     "pay_xyz",
		Status: razorpay.PaymentStatusCaptured,
	}}
	store := &stubStore{createErr: &pq.Error{Code: "23505"}}
	service := newPaymentService(gateway, store)

	err := service.ProcessCapture(context.Background(), "pay_xyz",
		uuid.NullUUID{UUID: taskID, Valid: true}, userID)

	// A redelivered webhook hits the unique constraint on the gateway
	// payment id; the grant is still applied and no error surfaces.
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{userID}, store.premiumFor)
	assert.Equal(t, []uuid.UUID{taskID}, store.unlocked)
}

func TestProcessCapture_RedeliveryUsesRecordedPayment(t *testing.T) {
	taskID := uuid.New()
	userID := uuid.New()
	gateway := &stubGateway{paymentErr: fmt.Errorf("gateway down")}
	store := &stubStore{existing: &models.Payment{
		UserID:            userID,
		TaskID:            uuid.NullUUID{UUID: taskID, Valid: true},
		RazorpayPaymentID: "pay_xyz",
		Status:            models.PaymentStatusCompleted,
	}}
	service := newPaymentService(gateway, store)

	// An already-recorded capture re-applies the grant without a gateway
	// round trip, so an outage cannot block a redelivered webhook.
	err := service.ProcessCapture(context.Background(), "pay_xyz",
		uuid.NullUUID{UUID: taskID, Valid: true}, userID)

	require.NoError(t, err)
	assert.Empty(t, store.payments)
	assert.Equal(t, []uuid.UUID{userID}, store.premiumFor)
	assert.Equal(t, []uuid.UUID{taskID}, store.unlocked)
}

func TestProcessCapture_NoTaskNote(t *testing.T) {
	userID := uuid.New()
	gateway := &stubGateway{payment: &razorpay.Payment{
		ID:     "pay_xyz",
		Status: razorpay.PaymentStatusCaptured,
	}}
	store := &stubStore{}
	service := newPaymentService(gateway, store)

	err := service.ProcessCapture(context.Background(), "pay_xyz", uuid.NullUUID{}, userID)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{userID}, store.premiumFor)
	assert.Empty(t, store.unlocked, "no task to unlock without a task note")
}

func TestRecordFailedPayment(t *testing.T) {
	userID := uuid.New()
	store := &stubStore{}
	service := newPaymentService(&stubGateway{}, store)

	err := service.RecordFailedPayment("pay_failed", "order_abc", uuid.NullUUID{}, userID, 19900, "INR")

	require.NoError(t, err)
	require.Len(t, store.payments, 1)
	assert.Equal(t, models.PaymentStatusFailed, store.payments[0].Status)
}

func TestRecordFailedPayment_DuplicateIgnored(t *testing.T) {
	store := &stubStore{createErr: &pq.Error{Code: "23505"}}
	service := newPaymentService(&stubGateway{}, store)

	err := service.RecordFailedPayment("pay_failed", "order_abc", uuid.NullUUID{}, uuid.New(), 19900, "INR")

	assert.NoError(t, err)
}
