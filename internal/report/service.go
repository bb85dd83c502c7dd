// Package report orchestrates async root-cause report generation: a job row
// is created immediately and a background goroutine gathers source-control
// context, calls the LLM provider, and stores the result.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tracelight/tracelight/internal/ai"
	"github.com/tracelight/tracelight/internal/cache"
	"github.com/tracelight/tracelight/internal/metrics"
	"github.com/tracelight/tracelight/internal/scm"
	"github.com/tracelight/tracelight/internal/store"
	"github.com/tracelight/tracelight/pkg/models"
)

const (
	jobStatusTTL = 30 * time.Minute
	commitLimit  = 20
)

// Service orchestrates report generation.
type Service struct {
	provider models.AIProvider
	scm      scm.Client
	store    store.Store
	cache    cache.Cache
	timeout  time.Duration
}

// NewService creates a report Service.
func NewService(provider models.AIProvider, scmClient scm.Client, st store.Store, ca cache.Cache, timeout time.Duration) *Service {
	return &Service{
		provider: provider,
		scm:      scmClient,
		store:    st,
		cache:    ca,
		timeout:  timeout,
	}
}

// Trigger creates a pending job and dispatches report generation in a
// background goroutine. Returns the job immediately without waiting.
func (s *Service) Trigger(ctx context.Context, log *models.Log) (*models.ReportJob, error) {
	if log.ID == uuid.Nil {
		return nil, fmt.Errorf("invalid log: ID is required")
	}

	job := &models.ReportJob{
		ID:        uuid.New(),
		LogID:     log.ID,
		Status:    models.JobStatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateReportJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating report job: %w", err)
	}

	_ = s.cache.SetJobStatus(ctx, job.ID, models.JobStatusPending, jobStatusTTL)

	go s.run(log, job.ID)

	return job, nil
}

// run performs the actual report generation in a goroutine. It recovers from
// panics and always marks the job as completed or failed.
func (s *Service) run(log *models.Log, jobID uuid.UUID) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in report generation", "error", r, "job_id", jobID)
			s.fail(ctx, jobID, fmt.Sprintf("panic: %v", r))
		}
	}()

	_ = s.store.UpdateReportJobStatus(ctx, jobID, models.JobStatusRunning)
	_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusRunning, jobStatusTTL)

	// Commit history is optional context: proceed without it unless the
	// token is missing entirely, which is a configuration error.
	scmCtx, cancelSCM := context.WithTimeout(ctx, s.timeout)
	commits, err := s.scm.RecentCommits(scmCtx, log.Filename, commitLimit)
	cancelSCM()
	if err != nil {
		if errors.Is(err, scm.ErrSCMUnconfigured) {
			s.fail(ctx, jobID, err.Error())
			return
		}
		slog.Warn("fetching commits failed, continuing without blame context",
			"error", err, "job_id", jobID)
		commits = nil
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.provider.GenerateReport(genCtx, models.ReportRequest{
		Log:     *log,
		Commits: commits,
	})
	if err != nil {
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			err = ai.ErrInferenceTimeout
		}
		s.fail(ctx, jobID, err.Error())
		return
	}

	// Clamp confidence to [0, 1]
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1.0 {
		result.Confidence = 1.0
	}

	result.ID = uuid.New()
	result.LogID = log.ID
	result.JobID = jobID
	result.Provider = s.provider.Name()
	result.CreatedAt = time.Now().UTC()

	if err := s.store.CreateReport(ctx, &result); err != nil {
		s.fail(ctx, jobID, fmt.Sprintf("storing report: %v", err))
		return
	}

	_ = s.store.UpdateReportJobStatus(ctx, jobID, models.JobStatusCompleted)
	_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusCompleted, jobStatusTTL)
	metrics.ReportJobs.WithLabelValues(models.JobStatusCompleted).Inc()
}

func (s *Service) fail(ctx context.Context, jobID uuid.UUID, msg string) {
	_ = s.store.UpdateReportJobStatus(ctx, jobID, models.JobStatusFailed,
		store.WithErrorMessage(msg))
	_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusFailed, jobStatusTTL)
	metrics.ReportJobs.WithLabelValues(models.JobStatusFailed).Inc()
}
