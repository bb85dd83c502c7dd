package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	mw "github.com/tracelight/tracelight/internal/api/middleware"
	"github.com/tracelight/tracelight/internal/api/response"
	"github.com/tracelight/tracelight/internal/store"
	"github.com/tracelight/tracelight/pkg/models"
)

// NewCreateDocumentHandler returns an http.HandlerFunc for POST /api/v1/documents.
func NewCreateDocumentHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing caller identity", nil)
			return
		}

		var req struct {
			Title string   `json:"title"`
			Body  string   `json:"body"`
			Tags  []string `json:"tags"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		var violations []string
		if strings.TrimSpace(req.Title) == "" {
			violations = append(violations, "title is required")
		}
		if strings.TrimSpace(req.Body) == "" {
			violations = append(violations, "body is required")
		}
		if len(violations) > 0 {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "Validation failed", violations)
			return
		}

		doc := &models.Document{
			ID:        uuid.New(),
			Title:     req.Title,
			Body:      req.Body,
			AuthorID:  userID,
			Tags:      req.Tags,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := st.CreateDocument(r.Context(), doc); err != nil {
			writeStoreError(w, err, "Document")
			return
		}
		response.Created(w, doc)
	}
}

// NewListDocumentsHandler returns an http.HandlerFunc for GET /api/v1/documents.
func NewListDocumentsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit := 1, 10
		if v := r.URL.Query().Get("page"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				page = n
			}
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}

		docs, total, err := st.ListDocuments(r.Context(), page, limit)
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to list documents", nil)
			return
		}

		response.Collection(w, docs, response.PaginationMeta{
			Page:  page,
			Limit: limit,
			Count: len(docs),
			Total: total,
		})
	}
}

// NewGetDocumentHandler returns an http.HandlerFunc for GET /api/v1/documents/{documentID}.
func NewGetDocumentHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "documentID")
		if !ok {
			return
		}

		doc, err := st.GetDocument(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "Document")
			return
		}
		response.JSON(w, doc)
	}
}

// NewUpdateDocumentHandler returns an http.HandlerFunc for PATCH /api/v1/documents/{documentID}.
func NewUpdateDocumentHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "documentID")
		if !ok {
			return
		}

		doc, err := st.GetDocument(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "Document")
			return
		}
		if !canMutateDocument(r, doc) {
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Only the author may edit this document", nil)
			return
		}

		var req struct {
			Title *string   `json:"title"`
			Body  *string   `json:"body"`
			Tags  *[]string `json:"tags"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.Title != nil {
			if strings.TrimSpace(*req.Title) == "" {
				response.Error(w, http.StatusBadRequest,
					"INVALID_REQUEST", "title must not be empty", nil)
				return
			}
			doc.Title = *req.Title
		}
		if req.Body != nil {
			if strings.TrimSpace(*req.Body) == "" {
				response.Error(w, http.StatusBadRequest,
					"INVALID_REQUEST", "body must not be empty", nil)
				return
			}
			doc.Body = *req.Body
		}
		if req.Tags != nil {
			doc.Tags = *req.Tags
		}
		doc.UpdatedAt = time.Now().UTC()

		if err := st.UpdateDocument(r.Context(), doc); err != nil {
			writeStoreError(w, err, "Document")
			return
		}
		response.JSON(w, doc)
	}
}

// NewDeleteDocumentHandler returns an http.HandlerFunc for DELETE /api/v1/documents/{documentID}.
func NewDeleteDocumentHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "documentID")
		if !ok {
			return
		}

		doc, err := st.GetDocument(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "Document")
			return
		}
		if !canMutateDocument(r, doc) {
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Only the author may delete this document", nil)
			return
		}

		if err := st.DeleteDocument(r.Context(), id); err != nil {
			writeStoreError(w, err, "Document")
			return
		}
		response.JSON(w, map[string]string{"msg": "document deleted"})
	}
}

func canMutateDocument(r *http.Request, doc *models.Document) bool {
	role, _ := mw.GetUserRole(r)
	if role == models.RoleAdmin || role == models.RoleMaintainer {
		return true
	}
	userID, ok := mw.GetUserID(r)
	return ok && doc.AuthorID == userID
}
