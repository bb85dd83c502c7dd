package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/tracelight/tracelight/internal/api/middleware"
	"github.com/tracelight/tracelight/internal/api/response"
	"github.com/tracelight/tracelight/internal/metrics"
	"github.com/tracelight/tracelight/pkg/models"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler  http.HandlerFunc
	WebhookHandler http.HandlerFunc

	ListLogs  http.HandlerFunc
	GetLog    http.HandlerFunc
	UpdateLog http.HandlerFunc
	DeleteLog http.HandlerFunc

	StatusChange        http.HandlerFunc
	ListStatusRegisters http.HandlerFunc
	SuggestHandler      http.HandlerFunc

	CreateComment http.HandlerFunc
	ListComments  http.HandlerFunc
	GetComment    http.HandlerFunc
	UpdateComment http.HandlerFunc
	DeleteComment http.HandlerFunc

	CreateDocument http.HandlerFunc
	ListDocuments  http.HandlerFunc
	GetDocument    http.HandlerFunc
	UpdateDocument http.HandlerFunc
	DeleteDocument http.HandlerFunc

	CreateUser     http.HandlerFunc
	ListUsers      http.HandlerFunc
	GetUser        http.HandlerFunc
	UpdateUser     http.HandlerFunc
	UpdatePassword http.HandlerFunc
	DeleteUser     http.HandlerFunc

	TriggerReport http.HandlerFunc
	PollReport    http.HandlerFunc

	CreateKeyHandler http.HandlerFunc
	ListKeysHandler  http.HandlerFunc
	RevokeKeyHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Metrics)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public routes: health check, metrics scrape, and the webhook (its gate
	// is the shared secret, not an API key).
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Post("/api/v1/webhook", orNotImplemented(deps.WebhookHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Get("/api/v1/logs", orNotImplemented(deps.ListLogs))
		r.Get("/api/v1/logs/{logID}", orNotImplemented(deps.GetLog))
		r.Patch("/api/v1/logs/{logID}", orNotImplemented(deps.UpdateLog))
		r.Delete("/api/v1/logs/{logID}", orNotImplemented(deps.DeleteLog))

		r.Post("/api/v1/status-register", orNotImplemented(deps.StatusChange))
		r.Get("/api/v1/logs/{logID}/status-registers", orNotImplemented(deps.ListStatusRegisters))
		r.Get("/api/v1/suggested-users/{signature}", orNotImplemented(deps.SuggestHandler))

		r.Post("/api/v1/logs/{logID}/comments", orNotImplemented(deps.CreateComment))
		r.Get("/api/v1/logs/{logID}/comments", orNotImplemented(deps.ListComments))
		r.Get("/api/v1/comments/{commentID}", orNotImplemented(deps.GetComment))
		r.Patch("/api/v1/comments/{commentID}", orNotImplemented(deps.UpdateComment))
		r.Delete("/api/v1/comments/{commentID}", orNotImplemented(deps.DeleteComment))

		r.Post("/api/v1/documents", orNotImplemented(deps.CreateDocument))
		r.Get("/api/v1/documents", orNotImplemented(deps.ListDocuments))
		r.Get("/api/v1/documents/{documentID}", orNotImplemented(deps.GetDocument))
		r.Patch("/api/v1/documents/{documentID}", orNotImplemented(deps.UpdateDocument))
		r.Delete("/api/v1/documents/{documentID}", orNotImplemented(deps.DeleteDocument))

		r.Get("/api/v1/users", orNotImplemented(deps.ListUsers))
		r.Get("/api/v1/users/{userID}", orNotImplemented(deps.GetUser))
		r.Patch("/api/v1/users/{userID}", orNotImplemented(deps.UpdateUser))
		r.Put("/api/v1/users/{userID}/password", orNotImplemented(deps.UpdatePassword))

		r.Post("/api/v1/logs/{logID}/report", orNotImplemented(deps.TriggerReport))
		r.Get("/api/v1/reports/{jobID}", orNotImplemented(deps.PollReport))

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireRole(models.RoleAdmin))

			r.Post("/api/v1/users", orNotImplemented(deps.CreateUser))
			r.Delete("/api/v1/users/{userID}", orNotImplemented(deps.DeleteUser))

			r.Post("/api/v1/admin/keys", orNotImplemented(deps.CreateKeyHandler))
			r.Get("/api/v1/admin/keys", orNotImplemented(deps.ListKeysHandler))
			r.Delete("/api/v1/admin/keys/{keyID}", orNotImplemented(deps.RevokeKeyHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
