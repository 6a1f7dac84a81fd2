package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"codecritic-backend/internal/extract"
	"codecritic-backend/internal/logger"
	"codecritic-backend/internal/models"
	"codecritic-backend/internal/openrouter"
	"codecritic-backend/internal/supabase"
)

var (
	// ErrAlreadyProcessing is returned when an evaluation is requested for
	// a task that already has one in flight.
	ErrAlreadyProcessing = errors.New("evaluation already in progress")
	// ErrMalformedEvaluation is returned when the model output cannot be
	// normalized into a valid evaluation.
	ErrMalformedEvaluation = errors.New("malformed evaluation")
)

// Messages stored on the task for the retry affordance. Detail goes to
// the logs, not to the user.
const (
	failureUnavailable = "no evaluation model is currently available, please retry"
	failureGeneric     = "evaluation failed, please retry"
)

// TaskStore is the slice of the database the evaluation pipeline needs.
type TaskStore interface {
	BeginEvaluation(taskID uuid.UUID) (bool, error)
	CompleteEvaluation(taskID uuid.UUID, evaluation json.RawMessage) error
	FailEvaluation(taskID uuid.UUID, reason string) error
}

// EvaluationService owns the prompt -> call -> normalize -> persist
// pipeline and the task status transitions around it.
type EvaluationService struct {
	caller    *openrouter.Caller
	store     TaskStore
	realtime  *supabase.RealtimeClient
	log       *logger.Logger
	codeLimit int
	timeout   time.Duration
}

func NewEvaluationService(
	caller *openrouter.Caller,
	store TaskStore,
	realtime *supabase.RealtimeClient,
	log *logger.Logger,
	codeLimit int,
	timeout time.Duration,
) *EvaluationService {
	return &EvaluationService{
		caller:    caller,
		store:     store,
		realtime:  realtime,
		log:       log,
		codeLimit: codeLimit,
		timeout:   timeout,
	}
}

// StartEvaluation transitions the task to in_progress and runs the
// pipeline on a goroutine, so the caller can reflect "working" without
// waiting on the gateway. Returns ErrAlreadyProcessing when a run already
// holds the task.
func (s *EvaluationService) StartEvaluation(task *models.Task) error {
	ok, err := s.store.BeginEvaluation(task.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyProcessing
	}

	s.realtime.PublishTaskEvent(task.ID, "evaluation_started",
		supabase.EvaluationStartedPayload(task.ID, ""))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.Evaluate(ctx, task)
	}()

	return nil
}

// Evaluate runs the full pipeline for a task already marked in_progress.
// Exactly one terminal transition happens: completed with the result
// attached, or failed with a generic retryable message.
func (s *EvaluationService) Evaluate(ctx context.Context, task *models.Task) {
	log := s.log.With("task_id", task.ID.String())

	prompt := openrouter.BuildEvaluationPrompt(
		task.Title, task.Description, task.Code.String, task.Language.String, s.codeLimit)

	content, model, err := s.caller.Complete(ctx, prompt)
	if err != nil {
		log.Error("evaluation call failed", "error", err)
		s.fail(task.ID, failureUnavailable)
		return
	}

	evaluation, err := decodeEvaluation(content)
	if err != nil {
		log.Error("evaluation output malformed", "model", model, "error", err)
		s.fail(task.ID, failureGeneric)
		return
	}
	evaluation.Model = model

	// Premium insights are best effort: a failure here is logged and the
	// section is omitted, never surfaced as an evaluation failure.
	if insights, err := s.generateInsights(ctx, task); err != nil {
		log.Warn("premium insights generation failed, omitting", "error", err)
	} else {
		evaluation.Insights = insights
	}

	raw, err := json.Marshal(evaluation)
	if err != nil {
		log.Error("failed to marshal evaluation", "error", err)
		s.fail(task.ID, failureGeneric)
		return
	}

	if err := s.store.CompleteEvaluation(task.ID, raw); err != nil {
		log.Error("failed to persist evaluation", "error", err)
		return
	}

	s.realtime.PublishTaskEvent(task.ID, "evaluation_completed",
		supabase.EvaluationCompletedPayload(task.ID, evaluation.Score))
	log.Info("evaluation completed", "model", model, "score", evaluation.Score)
}

func (s *EvaluationService) fail(taskID uuid.UUID, reason string) {
	if err := s.store.FailEvaluation(taskID, reason); err != nil {
		s.log.Error("failed to mark evaluation failed", "task_id", taskID.String(), "error", err)
		return
	}
	s.realtime.PublishTaskEvent(taskID, "evaluation_failed",
		supabase.EvaluationFailedPayload(taskID, reason))
}

func (s *EvaluationService) generateInsights(ctx context.Context, task *models.Task) (*models.PremiumInsights, error) {
	prompt := openrouter.BuildInsightsPrompt(
		task.Title, task.Description, task.Code.String, task.Language.String, s.codeLimit)

	content, _, err := s.caller.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return decodeInsights(content)
}

// evaluationPayload uses pointers so missing fields are distinguishable
// from zero values; all fields are required.
type evaluationPayload struct {
	Score        *float64 `json:"score"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Feedback     *string  `json:"feedback"`
	Suggestions  []string `json:"suggestions"`
}

func decodeEvaluation(content string) (*models.Evaluation, error) {
	var payload evaluationPayload
	if _, err := extract.Parse(content, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvaluation, err)
	}

	switch {
	case payload.Score == nil:
		return nil, fmt.Errorf("%w: missing numeric score", ErrMalformedEvaluation)
	case payload.Strengths == nil:
		return nil, fmt.Errorf("%w: missing strengths array", ErrMalformedEvaluation)
	case payload.Improvements == nil:
		return nil, fmt.Errorf("%w: missing improvements array", ErrMalformedEvaluation)
	case payload.Feedback == nil:
		return nil, fmt.Errorf("%w: missing feedback", ErrMalformedEvaluation)
	case payload.Suggestions == nil:
		return nil, fmt.Errorf("%w: missing suggestions array", ErrMalformedEvaluation)
	}

	return &models.Evaluation{
		Score:        models.ClampScore(*payload.Score),
		Strengths:    payload.Strengths,
		Improvements: payload.Improvements,
		Feedback:     *payload.Feedback,
		Suggestions:  payload.Suggestions,
	}, nil
}

type insightsPayload struct {
	Architecture    *string            `json:"architecture"`
	Performance     *string            `json:"performance"`
	Security        *string            `json:"security"`
	Benchmarks      *models.Benchmarks `json:"benchmarks"`
	Recommendations []string           `json:"recommendations"`
	CorrectedCode   *string            `json:"correctedCode"`
}

func decodeInsights(content string) (*models.PremiumInsights, error) {
	var payload insightsPayload
	if _, err := extract.Parse(content, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvaluation, err)
	}

	if payload.Architecture == nil || payload.Performance == nil || payload.Security == nil ||
		payload.Benchmarks == nil || payload.Recommendations == nil || payload.CorrectedCode == nil {
		return nil, fmt.Errorf("%w: insights object missing required fields", ErrMalformedEvaluation)
	}

	return &models.PremiumInsights{
		Architecture:    *payload.Architecture,
		Performance:     *payload.Performance,
		Security:        *payload.Security,
		Benchmarks:      *payload.Benchmarks,
		Recommendations: payload.Recommendations,
		CorrectedCode:   *payload.CorrectedCode,
	}, nil
}
