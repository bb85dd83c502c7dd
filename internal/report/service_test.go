package report_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracelight/tracelight/internal/cache"
	"github.com/tracelight/tracelight/internal/report"
	"github.com/tracelight/tracelight/internal/scm"
	"github.com/tracelight/tracelight/internal/store"
	"github.com/tracelight/tracelight/pkg/models"
)

// stubStore records job transitions and signals when a job reaches a
// terminal status. The embedded interface covers the methods the report
// service never touches.
type stubStore struct {
	store.Store

	mu       sync.Mutex
	jobs     map[uuid.UUID]*models.ReportJob
	reports  map[uuid.UUID]*models.Report
	statuses []string
	done     chan struct{}
}

func newStubStore() *stubStore {
	return &stubStore{
		jobs:    make(map[uuid.UUID]*models.ReportJob),
		reports: make(map[uuid.UUID]*models.Report),
		done:    make(chan struct{}),
	}
}

func (s *stubStore) CreateReportJob(_ context.Context, job *models.ReportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *stubStore) UpdateReportJobStatus(_ context.Context, id uuid.UUID, status string, opts ...store.JobUpdateOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Status = status
	}
	s.statuses = append(s.statuses, status)
	if status == models.JobStatusCompleted || status == models.JobStatusFailed {
		close(s.done)
	}
	return nil
}

func (s *stubStore) CreateReport(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.JobID] = r
	return nil
}

func (s *stubStore) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("report job never reached a terminal status")
	}
}

func (s *stubStore) job(id uuid.UUID) *models.ReportJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

func (s *stubStore) report(jobID uuid.UUID) *models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reports[jobID]
}

func (s *stubStore) transitions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.statuses...)
}

type stubCache struct{ cache.Cache }

func (stubCache) SetJobStatus(_ context.Context, _ uuid.UUID, _ string, _ time.Duration) error {
	return nil
}

type stubProvider struct {
	report models.Report
	err    error
	block  bool
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) GenerateReport(ctx context.Context, _ models.ReportRequest) (models.Report, error) {
	if p.block {
		<-ctx.Done()
		return models.Report{}, ctx.Err()
	}
	return p.report, p.err
}

type stubSCM struct {
	commits []models.CommitInfo
	err     error
}

func (c *stubSCM) RecentCommits(_ context.Context, _ string, _ int) ([]models.CommitInfo, error) {
	return c.commits, c.err
}

func testLog() *models.Log {
	return &models.Log{
		ID:       uuid.New(),
		Message:  "NullPointerException in handleRequest",
		Filename: "handlers/checkout.py",
	}
}

func TestTrigger_ReturnsPendingJobImmediately(t *testing.T) {
	ss := newStubStore()
	svc := report.NewService(
		&stubProvider{report: models.Report{RootCause: "x", Confidence: 0.5}},
		&stubSCM{}, ss, stubCache{}, time.Second)

	job, err := svc.Trigger(context.Background(), testLog())
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.NotEqual(t, uuid.Nil, job.ID)

	ss.wait(t)
}

func TestTrigger_RejectsZeroLogID(t *testing.T) {
	ss := newStubStore()
	svc := report.NewService(&stubProvider{}, &stubSCM{}, ss, stubCache{}, time.Second)

	_, err := svc.Trigger(context.Background(), &models.Log{})
	assert.Error(t, err)
}

func TestRun_CompletesAndStoresReport(t *testing.T) {
	ss := newStubStore()
	provider := &stubProvider{report: models.Report{
		Model:      "m1",
		RootCause:  "guard dropped in refactor",
		Confidence: 0.8,
	}}
	svc := report.NewService(provider, &stubSCM{
		commits: []models.CommitInfo{{SHA: "abc1234", AuthorEmail: "a@b.c"}},
	}, ss, stubCache{}, time.Second)

	log := testLog()
	job, err := svc.Trigger(context.Background(), log)
	require.NoError(t, err)
	ss.wait(t)

	assert.Equal(t, []string{models.JobStatusRunning, models.JobStatusCompleted}, ss.transitions())

	rep := ss.report(job.ID)
	require.NotNil(t, rep)
	assert.Equal(t, "guard dropped in refactor", rep.RootCause)
	assert.Equal(t, "stub", rep.Provider)
	assert.Equal(t, log.ID, rep.LogID)
	assert.Equal(t, job.ID, rep.JobID)
}

func TestRun_ClampsConfidence(t *testing.T) {
	ss := newStubStore()
	provider := &stubProvider{report: models.Report{RootCause: "x", Confidence: 3.7}}
	svc := report.NewService(provider, &stubSCM{}, ss, stubCache{}, time.Second)

	job, err := svc.Trigger(context.Background(), testLog())
	require.NoError(t, err)
	ss.wait(t)

	rep := ss.report(job.ID)
	require.NotNil(t, rep)
	assert.Equal(t, 1.0, rep.Confidence)
}

func TestRun_SCMErrorIsNotFatal(t *testing.T) {
	ss := newStubStore()
	provider := &stubProvider{report: models.Report{RootCause: "x", Confidence: 0.4}}
	svc := report.NewService(provider, &stubSCM{
		err: errors.New("github: 502 bad gateway"),
	}, ss, stubCache{}, time.Second)

	job, err := svc.Trigger(context.Background(), testLog())
	require.NoError(t, err)
	ss.wait(t)

	assert.Equal(t, models.JobStatusCompleted, ss.job(job.ID).Status)
}

func TestRun_UnconfiguredSCMFailsJob(t *testing.T) {
	ss := newStubStore()
	svc := report.NewService(&stubProvider{}, &stubSCM{
		err: scm.ErrSCMUnconfigured,
	}, ss, stubCache{}, time.Second)

	job, err := svc.Trigger(context.Background(), testLog())
	require.NoError(t, err)
	ss.wait(t)

	assert.Equal(t, models.JobStatusFailed, ss.job(job.ID).Status)
	assert.Nil(t, ss.report(job.ID))
}

func TestRun_ProviderErrorFailsJob(t *testing.T) {
	ss := newStubStore()
	svc := report.NewService(&stubProvider{
		err: errors.New("model not loaded"),
	}, &stubSCM{}, ss, stubCache{}, time.Second)

	job, err := svc.Trigger(context.Background(), testLog())
	require.NoError(t, err)
	ss.wait(t)

	assert.Equal(t, models.JobStatusFailed, ss.job(job.ID).Status)
}

func TestRun_InferenceTimeoutFailsJob(t *testing.T) {
	ss := newStubStore()
	svc := report.NewService(&stubProvider{block: true}, &stubSCM{}, ss, stubCache{},
		50*time.Millisecond)

	job, err := svc.Trigger(context.Background(), testLog())
	require.NoError(t, err)
	ss.wait(t)

	assert.Equal(t, models.JobStatusFailed, ss.job(job.ID).Status)
}
