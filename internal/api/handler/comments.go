package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	mw "github.com/tracelight/tracelight/internal/api/middleware"
	"github.com/tracelight/tracelight/internal/api/response"
	"github.com/tracelight/tracelight/internal/store"
	"github.com/tracelight/tracelight/pkg/models"
)

// NewCreateCommentHandler returns an http.HandlerFunc for
// POST /api/v1/logs/{logID}/comments.
func NewCreateCommentHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing caller identity", nil)
			return
		}

		logID, ok := parseIDParam(w, r, "logID")
		if !ok {
			return
		}

		var req struct {
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if strings.TrimSpace(req.Body) == "" {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "body is required", nil)
			return
		}

		if _, err := st.GetLog(r.Context(), logID); err != nil {
			writeStoreError(w, err, "Log")
			return
		}

		comment := &models.Comment{
			ID:        uuid.New(),
			LogID:     logID,
			UserID:    userID,
			Body:      req.Body,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := st.CreateComment(r.Context(), comment); err != nil {
			writeStoreError(w, err, "Comment")
			return
		}
		response.Created(w, comment)
	}
}

// NewListCommentsHandler returns an http.HandlerFunc for
// GET /api/v1/logs/{logID}/comments.
func NewListCommentsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logID, ok := parseIDParam(w, r, "logID")
		if !ok {
			return
		}

		if _, err := st.GetLog(r.Context(), logID); err != nil {
			writeStoreError(w, err, "Log")
			return
		}

		comments, err := st.ListCommentsByLog(r.Context(), logID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to list comments", nil)
			return
		}
		if comments == nil {
			comments = []*models.Comment{}
		}
		response.JSON(w, comments)
	}
}

// NewGetCommentHandler returns an http.HandlerFunc for GET /api/v1/comments/{commentID}.
func NewGetCommentHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "commentID")
		if !ok {
			return
		}

		comment, err := st.GetComment(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "Comment")
			return
		}
		response.JSON(w, comment)
	}
}

// NewUpdateCommentHandler returns an http.HandlerFunc for PATCH /api/v1/comments/{commentID}.
// Only the author or a privileged role may edit.
func NewUpdateCommentHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "commentID")
		if !ok {
			return
		}

		comment, err := st.GetComment(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "Comment")
			return
		}
		if !canMutateComment(r, comment) {
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Only the author may edit this comment", nil)
			return
		}

		var req struct {
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if strings.TrimSpace(req.Body) == "" {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "body is required", nil)
			return
		}

		updated, err := st.UpdateComment(r.Context(), id, req.Body)
		if err != nil {
			writeStoreError(w, err, "Comment")
			return
		}
		response.JSON(w, updated)
	}
}

// NewDeleteCommentHandler returns an http.HandlerFunc for DELETE /api/v1/comments/{commentID}.
func NewDeleteCommentHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "commentID")
		if !ok {
			return
		}

		comment, err := st.GetComment(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "Comment")
			return
		}
		if !canMutateComment(r, comment) {
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Only the author may delete this comment", nil)
			return
		}

		if err := st.DeleteComment(r.Context(), id); err != nil {
			writeStoreError(w, err, "Comment")
			return
		}
		response.JSON(w, map[string]string{"msg": "comment deleted"})
	}
}

func canMutateComment(r *http.Request, comment *models.Comment) bool {
	role, _ := mw.GetUserRole(r)
	if role == models.RoleAdmin || role == models.RoleMaintainer {
		return true
	}
	userID, ok := mw.GetUserID(r)
	return ok && comment.UserID == userID
}
