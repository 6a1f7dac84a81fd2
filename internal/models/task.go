package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Task evaluation statuses.
const (
	TaskStatusNotStarted = "not_started"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
)

type Task struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Title           string
	Description     string
	Code            sql.NullString
	Language        sql.NullString
	Status          string
	Evaluation      json.RawMessage
	PremiumUnlocked bool
	ErrorMessage    sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type UserProfile struct {
	ID           uuid.UUID
	DisplayName  sql.NullString
	AvatarURL    sql.NullString
	IsPremium    bool
	PremiumSince sql.NullTime
	Credits      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Payment statuses mirror the gateway's lifecycle.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

type Payment struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	TaskID            uuid.NullUUID
	RazorpayPaymentID string
	RazorpayOrderID   string
	Amount            int64
	Currency          string
	Status            string
	CreatedAt         time.Time
}
