package models

import (
	"encoding/json"
	"time"
)

type TaskResponse struct {
	ID              string          `json:"task_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Code            string          `json:"code,omitempty"`
	Language        string          `json:"language,omitempty"`
	Status          string          `json:"status"`
	Evaluation      json.RawMessage `json:"evaluation,omitempty"`
	PremiumUnlocked bool            `json:"premium_unlocked"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type TaskListResponse struct {
	Tasks []TaskSummary `json:"tasks"`
}

type TaskSummary struct {
	ID        string    `json:"task_id"`
	Title     string    `json:"title"`
	Language  string    `json:"language,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type EvaluateResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

type StatusResponse struct {
	TaskID       string    `json:"task_id"`
	Status       string    `json:"status"`
	Score        *float64  `json:"score,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ProfileResponse struct {
	ID           string     `json:"id"`
	DisplayName  string     `json:"display_name,omitempty"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	IsPremium    bool       `json:"is_premium"`
	PremiumSince *time.Time `json:"premium_since,omitempty"`
	Credits      int        `json:"credits"`
	CreatedAt    time.Time  `json:"created_at"`
}

type OrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

type VerifyPaymentResponse struct {
	Status    string `json:"status"`
	IsPremium bool   `json:"is_premium"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}
