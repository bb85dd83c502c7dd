package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	mw "github.com/tracelight/tracelight/internal/api/middleware"
	"github.com/tracelight/tracelight/internal/api/response"
	"github.com/tracelight/tracelight/internal/mail"
	"github.com/tracelight/tracelight/internal/store"
	"github.com/tracelight/tracelight/pkg/models"
)

// statusChangeResponse is fixed by contract; it is not enveloped.
type statusChangeResponse struct {
	Msg            string                 `json:"msg"`
	Log            *models.Log            `json:"log"`
	StatusRegister *models.StatusRegister `json:"statusRegister"`
}

// NewStatusChangeHandler returns an http.HandlerFunc for POST /api/v1/status-register.
// The acting user becomes the log's assignee. Resolution tracking and the
// assignment email run async; their failures are logged, never surfaced.
func NewStatusChangeHandler(st store.Store, mailer mail.Mailer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing caller identity", nil)
			return
		}

		var req struct {
			LogID  string `json:"logId"`
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		logID, err := uuid.Parse(req.LogID)
		if err != nil {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "logId must be a valid UUID", nil)
			return
		}
		if !models.ValidStatus(req.Status) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"status must be one of: unresolved, in review, solved", nil)
			return
		}

		current, err := st.GetLog(r.Context(), logID)
		if err != nil {
			writeStoreError(w, err, "Log")
			return
		}
		if !canMutateLog(r, current) {
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Insufficient permissions to change this log's status", nil)
			return
		}

		log, entry, err := st.RecordStatusChange(r.Context(), logID, userID, req.Status)
		if err != nil {
			writeStoreError(w, err, "Log")
			return
		}

		if req.Status == models.StatusSolved {
			go func() {
				if err := st.TrackResolution(context.Background(),
					logID, userID, log.Signature); err != nil {
					slog.Error("tracking resolution failed",
						"error", err, "log_id", logID, "user_id", userID)
				}
			}()
		}

		if log.Assignee != nil {
			go func(assignee models.UserRef) {
				user, err := st.GetUser(context.Background(), assignee.ID)
				if err != nil {
					slog.Error("loading assignee for mail failed",
						"error", err, "user_id", assignee.ID)
					return
				}
				if err := mailer.NotifyAssignment(user, log); err != nil {
					slog.Error("assignment mail failed",
						"error", err, "user_id", assignee.ID, "log_id", logID)
				}
			}(*log.Assignee)
		}

		response.Raw(w, http.StatusOK, statusChangeResponse{
			Msg:            "status updated",
			Log:            log,
			StatusRegister: entry,
		})
	}
}

// NewListStatusRegistersHandler returns an http.HandlerFunc for
// GET /api/v1/logs/{logID}/status-registers.
func NewListStatusRegistersHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "logID")
		if !ok {
			return
		}

		if _, err := st.GetLog(r.Context(), id); err != nil {
			writeStoreError(w, err, "Log")
			return
		}

		entries, err := st.ListStatusRegisters(r.Context(), id)
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to list status history", nil)
			return
		}
		if entries == nil {
			entries = []*models.StatusRegister{}
		}
		response.JSON(w, entries)
	}
}
