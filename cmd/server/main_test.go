package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracelight/tracelight/internal/cache"
	"github.com/tracelight/tracelight/internal/store"
	"github.com/tracelight/tracelight/pkg/models"
)

// ─── mock store ──────────────────────────────────────────────────────────────

type testStore struct {
	pingErr error
}

func (s *testStore) Ping(_ context.Context) error { return s.pingErr }
func (s *testStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return nil, nil
}
func (s *testStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }
func (s *testStore) CreateAPIKey(_ context.Context, _ *models.APIKey) error    { return nil }
func (s *testStore) ListAPIKeys(_ context.Context) ([]*models.APIKey, error)   { return nil, nil }
func (s *testStore) RevokeAPIKey(_ context.Context, _ uuid.UUID) error         { return nil }
func (s *testStore) CreateUser(_ context.Context, _ *models.User) error        { return nil }
func (s *testStore) GetUser(_ context.Context, _ uuid.UUID) (*models.User, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) GetUserByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) ListUsers(_ context.Context) ([]*models.User, error)               { return nil, nil }
func (s *testStore) UpdateUser(_ context.Context, _ *models.User) error                { return nil }
func (s *testStore) UpdateUserPassword(_ context.Context, _ uuid.UUID, _ string) error { return nil }
func (s *testStore) DeleteUser(_ context.Context, _ uuid.UUID) error                   { return nil }
func (s *testStore) CreateLog(_ context.Context, _ *models.Log) error                  { return nil }
func (s *testStore) UpsertLogByEventID(_ context.Context, l *models.Log) (*models.Log, bool, error) {
	return l, true, nil
}
func (s *testStore) GetLog(_ context.Context, _ uuid.UUID) (*models.Log, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) UpdateLog(_ context.Context, _ uuid.UUID, _ store.LogUpdate) (*models.Log, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) DeleteLog(_ context.Context, _ uuid.UUID) error { return nil }
func (s *testStore) ListLogs(_ context.Context, _ store.LogFilter) ([]*models.Log, int, error) {
	return nil, 0, nil
}
func (s *testStore) RecordStatusChange(_ context.Context, _, _ uuid.UUID, _ string) (*models.Log, *models.StatusRegister, error) {
	return nil, nil, store.ErrNotFound
}
func (s *testStore) ListStatusRegisters(_ context.Context, _ uuid.UUID) ([]*models.StatusRegister, error) {
	return nil, nil
}
func (s *testStore) TrackResolution(_ context.Context, _, _ uuid.UUID, _ string) error { return nil }
func (s *testStore) SuggestAssignees(_ context.Context, _ string) ([]*models.Suggestion, error) {
	return nil, nil
}
func (s *testStore) CreateComment(_ context.Context, _ *models.Comment) error { return nil }
func (s *testStore) GetComment(_ context.Context, _ uuid.UUID) (*models.Comment, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) ListCommentsByLog(_ context.Context, _ uuid.UUID) ([]*models.Comment, error) {
	return nil, nil
}
func (s *testStore) UpdateComment(_ context.Context, _ uuid.UUID, _ string) (*models.Comment, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) DeleteComment(_ context.Context, _ uuid.UUID) error         { return nil }
func (s *testStore) CreateDocument(_ context.Context, _ *models.Document) error { return nil }
func (s *testStore) GetDocument(_ context.Context, _ uuid.UUID) (*models.Document, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) ListDocuments(_ context.Context, _, _ int) ([]*models.Document, int, error) {
	return nil, 0, nil
}
func (s *testStore) UpdateDocument(_ context.Context, _ *models.Document) error { return nil }
func (s *testStore) DeleteDocument(_ context.Context, _ uuid.UUID) error        { return nil }
func (s *testStore) CreateReportJob(_ context.Context, _ *models.ReportJob) error {
	return nil
}
func (s *testStore) GetReportJob(_ context.Context, _ uuid.UUID) (*models.ReportJob, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) UpdateReportJobStatus(_ context.Context, _ uuid.UUID, _ string, _ ...store.JobUpdateOption) error {
	return nil
}
func (s *testStore) CreateReport(_ context.Context, _ *models.Report) error { return nil }
func (s *testStore) GetReportByJobID(_ context.Context, _ uuid.UUID) (*models.Report, error) {
	return nil, store.ErrNotFound
}

var _ store.Store = (*testStore)(nil)

// ─── mock cache ──────────────────────────────────────────────────────────────

type testCache struct {
	pingErr error
}

func (c *testCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *testCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (c *testCache) Delete(_ context.Context, _ string) error                         { return nil }
func (c *testCache) Ping(_ context.Context) error                                     { return c.pingErr }
func (c *testCache) SetJobStatus(_ context.Context, _ uuid.UUID, _ string, _ time.Duration) error {
	return nil
}
func (c *testCache) GetJobStatus(_ context.Context, _ uuid.UUID) (string, bool, error) {
	return "", false, nil
}
func (c *testCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

var _ cache.Cache = (*testCache)(nil)

// ─── health handler tests ───────────────────────────────────────────────────

func TestHealthHandler_AllOK(t *testing.T) {
	h := healthHandler(&testStore{}, &testCache{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data := body["data"].(map[string]any)
	assert.Equal(t, "ok", data["status"])
	services := data["services"].(map[string]any)
	assert.Equal(t, "ok", services["database"])
	assert.Equal(t, "ok", services["cache"])
}

func TestHealthHandler_DatabaseDegraded(t *testing.T) {
	h := healthHandler(&testStore{pingErr: errors.New("connection refused")}, &testCache{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "DEGRADED", errObj["code"])
}

func TestHealthHandler_CacheDegraded(t *testing.T) {
	h := healthHandler(&testStore{}, &testCache{pingErr: errors.New("redis down")})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// ─── run() config validation tests ──────────────────────────────────────────

func TestRun_FailsOnMissingConfig(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "REDIS_URL", "WEBHOOK_SECRET", "AI_PROVIDER",
	} {
		t.Setenv(key, "")
	}

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRun_FailsOnInvalidDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "not-a-valid-url")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("WEBHOOK_SECRET", "whsec_test")
	t.Setenv("AI_PROVIDER", "ollama")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect database")
}

// ─── shutdown timeout constant test ─────────────────────────────────────────

func TestShutdownTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, shutdownTimeout)
}
