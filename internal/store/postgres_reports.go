package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tracelight/tracelight/pkg/models"
)

func (s *PostgresStore) CreateReportJob(ctx context.Context, job *models.ReportJob) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO report_jobs (id, log_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		job.ID, job.LogID, job.Status, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		if isForeignKeyError(err) {
			return ErrNotFound
		}
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetReportJob(ctx context.Context, id uuid.UUID) (*models.ReportJob, error) {
	var j models.ReportJob
	err := s.pool.QueryRow(ctx,
		`SELECT id, log_id, status, error_message, started_at, completed_at, created_at, updated_at
		 FROM report_jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.LogID, &j.Status, &j.ErrorMessage, &j.StartedAt, &j.CompletedAt,
		&j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report job: %w", err)
	}
	return &j, nil
}

var validTransitions = map[string][]string{
	models.JobStatusPending: {models.JobStatusRunning, models.JobStatusFailed},
	models.JobStatusRunning: {models.JobStatusCompleted, models.JobStatusFailed},
}

func (s *PostgresStore) UpdateReportJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error {
	params := &jobUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}

	var currentStatus string
	err := s.pool.QueryRow(ctx, `SELECT status FROM report_jobs WHERE id = $1`, id).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get report job status: %w", err)
	}

	allowed := validTransitions[currentStatus]
	valid := false
	for _, a := range allowed {
		if a == status {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid report job status transition: %s -> %s", currentStatus, status)
	}

	now := time.Now().UTC()
	query := `UPDATE report_jobs SET status = $2, updated_at = $3`
	args := []any{id, status, now}
	argIdx := 4

	if status == models.JobStatusRunning {
		query += fmt.Sprintf(", started_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if status == models.JobStatusCompleted || status == models.JobStatusFailed {
		query += fmt.Sprintf(", completed_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if params.ErrorMessage != nil {
		query += fmt.Sprintf(", error_message = $%d", argIdx)
		args = append(args, *params.ErrorMessage)
		argIdx++
	}

	query += " WHERE id = $1"

	_, err = s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update report job status: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateReport(ctx context.Context, report *models.Report) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reports (id, log_id, job_id, provider, model, root_cause, suspect_commit,
		   suspect_author, confidence, summary, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		report.ID, report.LogID, report.JobID, report.Provider, report.Model, report.RootCause,
		report.SuspectCommit, report.SuspectAuthor, report.Confidence, report.Summary, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetReportByJobID(ctx context.Context, jobID uuid.UUID) (*models.Report, error) {
	var r models.Report
	err := s.pool.QueryRow(ctx,
		`SELECT id, log_id, job_id, provider, model, root_cause, suspect_commit, suspect_author,
		   confidence, summary, created_at
		 FROM reports WHERE job_id = $1 ORDER BY created_at DESC LIMIT 1`, jobID,
	).Scan(&r.ID, &r.LogID, &r.JobID, &r.Provider, &r.Model, &r.RootCause, &r.SuspectCommit,
		&r.SuspectAuthor, &r.Confidence, &r.Summary, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report by job: %w", err)
	}
	return &r, nil
}
