package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/tracelight/tracelight/internal/api/middleware"
	"github.com/tracelight/tracelight/internal/api/response"
	"github.com/tracelight/tracelight/internal/store"
	"github.com/tracelight/tracelight/pkg/models"
)

// NewListLogsHandler returns an http.HandlerFunc for GET /api/v1/logs.
func NewListLogsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseLogFilter(r)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		logs, total, err := st.ListLogs(r.Context(), filter)
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to list logs", nil)
			return
		}

		response.Collection(w, logs, response.PaginationMeta{
			Page:  filter.Page,
			Limit: filter.Limit,
			Count: len(logs),
			Total: total,
		})
	}
}

// NewGetLogHandler returns an http.HandlerFunc for GET /api/v1/logs/{logID}.
func NewGetLogHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "logID")
		if !ok {
			return
		}

		log, err := st.GetLog(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "Log")
			return
		}
		response.JSON(w, log)
	}
}

// NewUpdateLogHandler returns an http.HandlerFunc for PATCH /api/v1/logs/{logID}.
// Only admins, maintainers, or the log's current assignee may update.
func NewUpdateLogHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "logID")
		if !ok {
			return
		}

		log, err := st.GetLog(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "Log")
			return
		}
		if !canMutateLog(r, log) {
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Insufficient permissions to modify this log", nil)
			return
		}

		var req struct {
			Message     *string `json:"message"`
			Link        *string `json:"link"`
			Culprit     *string `json:"culprit"`
			Filename    *string `json:"filename"`
			Function    *string `json:"function"`
			ErrorType   *string `json:"error_type"`
			Environment *string `json:"environment"`
			Status      *string `json:"status"`
			AssignedTo  *string `json:"assigned_to"`
			Comments    *string `json:"comments"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.Status != nil && !models.ValidStatus(*req.Status) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"status must be one of: unresolved, in review, solved", nil)
			return
		}

		upd := store.LogUpdate{
			Message:     req.Message,
			Link:        req.Link,
			Culprit:     req.Culprit,
			Filename:    req.Filename,
			Function:    req.Function,
			ErrorType:   req.ErrorType,
			Environment: req.Environment,
			Status:      req.Status,
			Comments:    req.Comments,
		}
		if req.AssignedTo != nil {
			assignee, err := uuid.Parse(*req.AssignedTo)
			if err != nil {
				response.Error(w, http.StatusBadRequest,
					"INVALID_REQUEST", "assigned_to must be a valid UUID", nil)
				return
			}
			upd.AssignedTo = &assignee
		}

		updated, err := st.UpdateLog(r.Context(), id, upd)
		if err != nil {
			writeStoreError(w, err, "Log")
			return
		}
		response.JSON(w, updated)
	}
}

// NewDeleteLogHandler returns an http.HandlerFunc for DELETE /api/v1/logs/{logID}.
func NewDeleteLogHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "logID")
		if !ok {
			return
		}

		log, err := st.GetLog(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "Log")
			return
		}
		if !canMutateLog(r, log) {
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Insufficient permissions to delete this log", nil)
			return
		}

		if err := st.DeleteLog(r.Context(), id); err != nil {
			writeStoreError(w, err, "Log")
			return
		}
		response.JSON(w, map[string]string{"msg": "log deleted"})
	}
}

// canMutateLog reports whether the caller may modify or delete the log:
// privileged roles always, developers only when currently assigned.
func canMutateLog(r *http.Request, log *models.Log) bool {
	role, _ := mw.GetUserRole(r)
	if role == models.RoleAdmin || role == models.RoleMaintainer {
		return true
	}
	userID, ok := mw.GetUserID(r)
	if !ok {
		return false
	}
	return log.AssignedTo != nil && *log.AssignedTo == userID
}

// parseLogFilter translates query params to a typed filter. Unrecognized
// params are ignored.
func parseLogFilter(r *http.Request) (store.LogFilter, error) {
	q := r.URL.Query()
	f := store.LogFilter{
		Search:      q.Get("search"),
		EventID:     q.Get("event_id"),
		Message:     q.Get("message"),
		Link:        q.Get("link"),
		Culprit:     q.Get("culprit"),
		Filename:    q.Get("filename"),
		Function:    q.Get("function"),
		ErrorType:   q.Get("error_type"),
		Environment: q.Get("environment"),
		Comments:    q.Get("comments"),
		Status:      q.Get("status"),
		Category:    q.Get("category"),
		Severity:    q.Get("severity"),
		Signature:   q.Get("signature"),
		SortBy:      q.Get("sortBy"),
		SortOrder:   q.Get("sortOrder"),
	}

	if v := q.Get("assigned_to"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, errors.New("assigned_to must be a valid UUID")
		}
		f.AssignedTo = id
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, errors.New("page must be a positive integer")
		}
		f.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, errors.New("limit must be a positive integer")
		}
		f.Limit = n
	}

	// Normalize here so the response envelope reports the same page window
	// the store serves.
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return f, nil
}

// parseIDParam extracts and parses a UUID route parameter, writing a 400 on
// failure.
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.Error(w, http.StatusBadRequest,
			"INVALID_REQUEST", name+" must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// writeStoreError maps store sentinels to the HTTP error taxonomy.
func writeStoreError(w http.ResponseWriter, err error, resource string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound,
			"NOT_FOUND", resource+" not found", nil)
	case errors.Is(err, store.ErrDuplicateKey):
		response.Error(w, http.StatusConflict,
			"DUPLICATE", resource+" already exists", nil)
	default:
		response.Error(w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}
