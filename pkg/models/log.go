// Package models contains shared data models used across the Tracelight codebase.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Lifecycle statuses for a log.
const (
	StatusUnresolved = "unresolved"
	StatusInReview   = "in review"
	StatusSolved     = "solved"
)

// Error classifications as delivered by the monitoring webhook.
const (
	ErrorTypeError   = "error"
	ErrorTypeWarning = "warning"
	ErrorTypeInfo    = "info"
)

// Derived categories.
const (
	CategoryDatabase       = "database"
	CategoryAuthentication = "authentication"
	CategoryValidation     = "validation"
	CategoryAuthorization  = "authorization"
	CategoryGeneral        = "general"
)

// Derived severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// ValidStatus reports whether s is one of the enumerated lifecycle statuses.
func ValidStatus(s string) bool {
	return s == StatusUnresolved || s == StatusInReview || s == StatusSolved
}

// Log is a normalized error record ingested from the monitoring webhook or
// created manually. EventID is the external event identifier used for
// idempotent upserts; it is unique when present.
type Log struct {
	ID          uuid.UUID       `db:"id"           json:"id"`
	EventID     *string         `db:"event_id"     json:"event_id,omitempty"`
	Message     string          `db:"message"      json:"message"`
	Link        string          `db:"link"         json:"link,omitempty"`
	Culprit     string          `db:"culprit"      json:"culprit,omitempty"`
	Filename    string          `db:"filename"     json:"filename,omitempty"`
	Function    string          `db:"function"     json:"function,omitempty"`
	ErrorType   string          `db:"error_type"   json:"error_type"`
	Environment string          `db:"environment"  json:"environment"`
	Address     string          `db:"address"      json:"address,omitempty"`
	Category    string          `db:"category"     json:"category"`
	Severity    string          `db:"severity"     json:"severity"`
	Signature   string          `db:"signature"    json:"signature"`
	Status      string          `db:"status"       json:"status"`
	AssignedTo  *uuid.UUID      `db:"assigned_to"  json:"assigned_to,omitempty"`
	Assignee    *UserRef        `db:"-"            json:"assignee,omitempty"`
	Comments    string          `db:"comments"     json:"comments,omitempty"`
	Payload     json.RawMessage `db:"payload"      json:"payload,omitempty"`
	Timestamp   time.Time       `db:"timestamp"    json:"timestamp"`
	CreatedAt   time.Time       `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"   json:"updated_at"`
}
