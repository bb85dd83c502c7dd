package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// ReportJob tracks async root-cause report generation. The API returns a
// job_id on POST /logs/{id}/report; the client polls GET /reports/{job_id}
// until status is completed or failed.
type ReportJob struct {
	ID           uuid.UUID  `db:"id"            json:"id"`
	LogID        uuid.UUID  `db:"log_id"        json:"log_id"`
	Status       string     `db:"status"        json:"status"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	StartedAt    *time.Time `db:"started_at"    json:"started_at,omitempty"`
	CompletedAt  *time.Time `db:"completed_at"  json:"completed_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}

// Report holds the LLM-generated root-cause report for a log, including the
// suspect commit found by blame against the source-control host.
type Report struct {
	ID            uuid.UUID `db:"id"             json:"id"`
	LogID         uuid.UUID `db:"log_id"         json:"log_id"`
	JobID         uuid.UUID `db:"job_id"         json:"job_id"`
	Provider      string    `db:"provider"       json:"provider"`
	Model         string    `db:"model"          json:"model"`
	RootCause     string    `db:"root_cause"     json:"root_cause"`
	SuspectCommit string    `db:"suspect_commit" json:"suspect_commit,omitempty"`
	SuspectAuthor string    `db:"suspect_author" json:"suspect_author,omitempty"`
	Confidence    float64   `db:"confidence"     json:"confidence"`
	Summary       string    `db:"summary"        json:"summary"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
}
