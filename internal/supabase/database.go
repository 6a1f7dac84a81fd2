package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"codecritic-backend/internal/models"
)

// ErrNotFound is returned when a row does not exist or is not visible to
// the caller.
var ErrNotFound = errors.New("record not found")

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

// Ping reports whether the database is reachable.
func (d *DatabaseClient) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. Duplicate webhook deliveries surface here.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

const taskColumns = `id, user_id, title, description, code, language, status, evaluation, premium_unlocked, error_message, created_at, updated_at`

func scanTask(row interface{ Scan(...interface{}) error }) (*models.Task, error) {
	var task models.Task
	var evaluation []byte
	err := row.Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description,
		&task.Code, &task.Language, &task.Status, &evaluation,
		&task.PremiumUnlocked, &task.ErrorMessage, &task.CreatedAt, &task.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	task.Evaluation = evaluation
	return &task, nil
}

func (d *DatabaseClient) CreateTask(userID uuid.UUID, title, description, code, language string) (*models.Task, error) {
	row := d.db.QueryRow(`
		INSERT INTO tasks (id, user_id, title, description, code, language, status)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
		RETURNING `+taskColumns+`
	`, uuid.New(), userID, title, description, code, language, models.TaskStatusNotStarted)

	task, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

func (d *DatabaseClient) GetTask(taskID, userID uuid.UUID) (*models.Task, error) {
	row := d.db.QueryRow(`
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`, taskID, userID)
	return scanTask(row)
}

func (d *DatabaseClient) ListTasks(userID uuid.UUID) ([]models.Task, error) {
	rows, err := d.db.Query(`
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	return tasks, rows.Err()
}

func (d *DatabaseClient) DeleteTask(taskID, userID uuid.UUID) error {
	result, err := d.db.Exec(`
		DELETE FROM tasks
		WHERE id = $1 AND user_id = $2
	`, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// BeginEvaluation flips a task to in_progress unless an evaluation is
// already running. Returns false when another run holds the task, so two
// concurrent requests cannot both enter the pipeline.
func (d *DatabaseClient) BeginEvaluation(taskID uuid.UUID) (bool, error) {
	result, err := d.db.Exec(`
		UPDATE tasks
		SET status = $1, error_message = NULL, updated_at = NOW()
		WHERE id = $2 AND status <> $1
	`, models.TaskStatusInProgress, taskID)
	if err != nil {
		return false, fmt.Errorf("failed to begin evaluation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CompleteEvaluation attaches the result and the completed status in a
// single statement. Only an in_progress task can complete, so a stale run
// can never clobber a newer one that already finished.
func (d *DatabaseClient) CompleteEvaluation(taskID uuid.UUID, evaluation json.RawMessage) error {
	result, err := d.db.Exec(`
		UPDATE tasks
		SET status = $1, evaluation = $2, error_message = NULL, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, models.TaskStatusCompleted, []byte(evaluation), taskID, models.TaskStatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to complete evaluation: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) FailEvaluation(taskID uuid.UUID, reason string) error {
	_, err := d.db.Exec(`
		UPDATE tasks
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, models.TaskStatusFailed, reason, taskID, models.TaskStatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to mark evaluation failed: %w", err)
	}
	return nil
}

func (d *DatabaseClient) UnlockPremiumReport(taskID uuid.UUID) error {
	_, err := d.db.Exec(`
		UPDATE tasks
		SET premium_unlocked = TRUE, updated_at = NOW()
		WHERE id = $1
	`, taskID)
	if err != nil {
		return fmt.Errorf("failed to unlock premium report: %w", err)
	}
	return nil
}

const profileColumns = `id, display_name, avatar_url, is_premium, premium_since, credits, created_at, updated_at`

func scanProfile(row interface{ Scan(...interface{}) error }) (*models.UserProfile, error) {
	var p models.UserProfile
	err := row.Scan(
		&p.ID, &p.DisplayName, &p.AvatarURL, &p.IsPremium,
		&p.PremiumSince, &p.Credits, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return &p, nil
}

// GetOrCreateProfile returns the caller's profile, creating the row on
// first authenticated activity.
func (d *DatabaseClient) GetOrCreateProfile(userID uuid.UUID) (*models.UserProfile, error) {
	row := d.db.QueryRow(`
		INSERT INTO user_profiles (id)
		VALUES ($1)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING `+profileColumns+`
	`, userID)
	return scanProfile(row)
}

func (d *DatabaseClient) UpdateProfile(userID uuid.UUID, displayName string) (*models.UserProfile, error) {
	row := d.db.QueryRow(`
		UPDATE user_profiles
		SET display_name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+profileColumns+`
	`, displayName, userID)
	return scanProfile(row)
}

func (d *DatabaseClient) UpdateAvatar(userID uuid.UUID, avatarURL string) error {
	_, err := d.db.Exec(`
		UPDATE user_profiles
		SET avatar_url = $1, updated_at = NOW()
		WHERE id = $2
	`, avatarURL, userID)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}

// GrantPremium sets the account-wide premium flag. Setting it twice is
// harmless, which keeps duplicate capture processing idempotent.
func (d *DatabaseClient) GrantPremium(userID uuid.UUID, since time.Time) error {
	_, err := d.db.Exec(`
		INSERT INTO user_profiles (id, is_premium, premium_since)
		VALUES ($1, TRUE, $2)
		ON CONFLICT (id) DO UPDATE
		SET is_premium = TRUE,
		    premium_since = COALESCE(user_profiles.premium_since, EXCLUDED.premium_since),
		    updated_at = NOW()
	`, userID, since)
	if err != nil {
		return fmt.Errorf("failed to grant premium: %w", err)
	}
	return nil
}

func (d *DatabaseClient) CreatePayment(p *models.Payment) error {
	_, err := d.db.Exec(`
		INSERT INTO payments (id, user_id, task_id, razorpay_payment_id, razorpay_order_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.UserID, p.TaskID, p.RazorpayPaymentID, p.RazorpayOrderID, p.Amount, p.Currency, p.Status)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (d *DatabaseClient) GetPaymentByProviderID(razorpayPaymentID string) (*models.Payment, error) {
	var p models.Payment
	err := d.db.QueryRow(`
		SELECT id, user_id, task_id, razorpay_payment_id, razorpay_order_id, amount, currency, status, created_at
		FROM payments
		WHERE razorpay_payment_id = $1
	`, razorpayPaymentID).Scan(
		&p.ID, &p.UserID, &p.TaskID, &p.RazorpayPaymentID,
		&p.RazorpayOrderID, &p.Amount, &p.Currency, &p.Status, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}
