package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracelight/tracelight/internal/api"
	mw "github.com/tracelight/tracelight/internal/api/middleware"
	"github.com/tracelight/tracelight/internal/cache"
	"github.com/tracelight/tracelight/internal/store"
	"github.com/tracelight/tracelight/pkg/models"
)

// --- stub store that returns empty results (all auth fails) ---

type stubStore struct{}

func (s *stubStore) Ping(_ context.Context) error { return nil }
func (s *stubStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return nil, nil
}
func (s *stubStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }
func (s *stubStore) CreateAPIKey(_ context.Context, _ *models.APIKey) error    { return nil }
func (s *stubStore) ListAPIKeys(_ context.Context) ([]*models.APIKey, error)   { return nil, nil }
func (s *stubStore) RevokeAPIKey(_ context.Context, _ uuid.UUID) error         { return nil }
func (s *stubStore) CreateUser(_ context.Context, _ *models.User) error        { return nil }
func (s *stubStore) GetUser(_ context.Context, _ uuid.UUID) (*models.User, error) {
	return nil, store.ErrNotFound
}
func (s *stubStore) GetUserByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, store.ErrNotFound
}
func (s *stubStore) ListUsers(_ context.Context) ([]*models.User, error)               { return nil, nil }
func (s *stubStore) UpdateUser(_ context.Context, _ *models.User) error                { return nil }
func (s *stubStore) UpdateUserPassword(_ context.Context, _ uuid.UUID, _ string) error { return nil }
func (s *stubStore) DeleteUser(_ context.Context, _ uuid.UUID) error                   { return nil }
func (s *stubStore) CreateLog(_ context.Context, _ *models.Log) error                  { return nil }
func (s *stubStore) UpsertLogByEventID(_ context.Context, l *models.Log) (*models.Log, bool, error) {
	return l, true, nil
}
func (s *stubStore) GetLog(_ context.Context, _ uuid.UUID) (*models.Log, error) {
	return nil, store.ErrNotFound
}
func (s *stubStore) UpdateLog(_ context.Context, _ uuid.UUID, _ store.LogUpdate) (*models.Log, error) {
	return nil, store.ErrNotFound
}
func (s *stubStore) DeleteLog(_ context.Context, _ uuid.UUID) error { return nil }
func (s *stubStore) ListLogs(_ context.Context, _ store.LogFilter) ([]*models.Log, int, error) {
	return nil, 0, nil
}
func (s *stubStore) RecordStatusChange(_ context.Context, _, _ uuid.UUID, _ string) (*models.Log, *models.StatusRegister, error) {
	return nil, nil, store.ErrNotFound
}
func (s *stubStore) ListStatusRegisters(_ context.Context, _ uuid.UUID) ([]*models.StatusRegister, error) {
	return nil, nil
}
func (s *stubStore) TrackResolution(_ context.Context, _, _ uuid.UUID, _ string) error { return nil }
func (s *stubStore) SuggestAssignees(_ context.Context, _ string) ([]*models.Suggestion, error) {
	return nil, nil
}
func (s *stubStore) CreateComment(_ context.Context, _ *models.Comment) error { return nil }
func (s *stubStore) GetComment(_ context.Context, _ uuid.UUID) (*models.Comment, error) {
	return nil, store.ErrNotFound
}
func (s *stubStore) ListCommentsByLog(_ context.Context, _ uuid.UUID) ([]*models.Comment, error) {
	return nil, nil
}
func (s *stubStore) UpdateComment(_ context.Context, _ uuid.UUID, _ string) (*models.Comment, error) {
	return nil, store.ErrNotFound
}
func (s *stubStore) DeleteComment(_ context.Context, _ uuid.UUID) error         { return nil }
func (s *stubStore) CreateDocument(_ context.Context, _ *models.Document) error { return nil }
func (s *stubStore) GetDocument(_ context.Context, _ uuid.UUID) (*models.Document, error) {
	return nil, store.ErrNotFound
}
func (s *stubStore) ListDocuments(_ context.Context, _, _ int) ([]*models.Document, int, error) {
	return nil, 0, nil
}
func (s *stubStore) UpdateDocument(_ context.Context, _ *models.Document) error { return nil }
func (s *stubStore) DeleteDocument(_ context.Context, _ uuid.UUID) error        { return nil }
func (s *stubStore) CreateReportJob(_ context.Context, _ *models.ReportJob) error {
	return nil
}
func (s *stubStore) GetReportJob(_ context.Context, _ uuid.UUID) (*models.ReportJob, error) {
	return nil, store.ErrNotFound
}
func (s *stubStore) UpdateReportJobStatus(_ context.Context, _ uuid.UUID, _ string, _ ...store.JobUpdateOption) error {
	return nil
}
func (s *stubStore) CreateReport(_ context.Context, _ *models.Report) error { return nil }
func (s *stubStore) GetReportByJobID(_ context.Context, _ uuid.UUID) (*models.Report, error) {
	return nil, store.ErrNotFound
}

// --- stub cache ---

type stubCache struct{}

func (c *stubCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *stubCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (c *stubCache) Delete(_ context.Context, _ string) error                         { return nil }
func (c *stubCache) Ping(_ context.Context) error                                     { return nil }
func (c *stubCache) SetJobStatus(_ context.Context, _ uuid.UUID, _ string, _ time.Duration) error {
	return nil
}
func (c *stubCache) GetJobStatus(_ context.Context, _ uuid.UUID) (string, bool, error) {
	return "", false, nil
}
func (c *stubCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

// --- router tests ---

func newTestRouter() http.Handler {
	return api.NewRouter(api.Dependencies{
		Auth:      mw.NewAuth(&stubStore{}),
		RateLimit: mw.NewRateLimit(&stubCache{}, 60),
		HealthHandler: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		},
	})
}

func TestRouter_HealthEndpoint_Public(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_MetricsEndpoint_Public(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_WebhookEndpoint_NoAPIKeyRequired(t *testing.T) {
	router := newTestRouter()

	// Unset handler falls through to 501, not 401: the route is public.
	req := httptest.NewRequest("POST", "/api/v1/webhook", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestRouter_ProtectedEndpoints_RequireAuth(t *testing.T) {
	router := newTestRouter()

	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/logs"},
		{"PATCH", "/api/v1/logs/" + uuid.NewString()},
		{"POST", "/api/v1/status-register"},
		{"GET", "/api/v1/suggested-users/sig-x"},
		{"POST", "/api/v1/logs/" + uuid.NewString() + "/comments"},
		{"POST", "/api/v1/documents"},
		{"GET", "/api/v1/users"},
		{"POST", "/api/v1/users"},
		{"POST", "/api/v1/logs/" + uuid.NewString() + "/report"},
		{"POST", "/api/v1/admin/keys"},
		{"GET", "/api/v1/admin/keys"},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			req := httptest.NewRequest(ep.method, ep.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			errObj := body["error"].(map[string]any)
			assert.Equal(t, "INVALID_TOKEN", errObj["code"])
		})
	}
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/api/v1/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Verify unused interfaces are satisfied
var _ store.Store = (*stubStore)(nil)
var _ cache.Cache = (*stubCache)(nil)
