package supabase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

// RealtimeClient keeps the event vocabulary for task lifecycle updates in
// one place. Row updates already trigger Supabase Realtime notifications;
// these publishers exist for explicit events on top of that.
type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) {
	// The Go client has no direct Realtime publish; status changes reach
	// subscribers through the row updates themselves.
}

func (r *RealtimeClient) PublishTaskEvent(taskID uuid.UUID, event string, payload map[string]interface{}) {
	channel := fmt.Sprintf("task:%s", taskID.String())
	r.PublishEvent(channel, event, payload)
}

func (r *RealtimeClient) PublishUserEvent(userID uuid.UUID, event string, payload map[string]interface{}) {
	channel := fmt.Sprintf("user:%s", userID.String())
	r.PublishEvent(channel, event, payload)
}

// Event payloads
func EvaluationStartedPayload(taskID uuid.UUID, model string) map[string]interface{} {
	return map[string]interface{}{
		"task_id": taskID.String(),
		"status":  "in_progress",
		"model":   model,
	}
}

func EvaluationCompletedPayload(taskID uuid.UUID, score float64) map[string]interface{} {
	return map[string]interface{}{
		"task_id": taskID.String(),
		"status":  "completed",
		"score":   score,
	}
}

func EvaluationFailedPayload(taskID uuid.UUID, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"task_id": taskID.String(),
		"status":  "failed",
		"error":   errorMsg,
	}
}

func PremiumGrantedPayload(userID uuid.UUID, paymentID string) map[string]interface{} {
	return map[string]interface{}{
		"user_id":    userID.String(),
		"is_premium": true,
		"payment_id": paymentID,
	}
}
