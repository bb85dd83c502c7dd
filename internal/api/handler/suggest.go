package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tracelight/tracelight/internal/api/response"
	"github.com/tracelight/tracelight/internal/cache"
	"github.com/tracelight/tracelight/internal/store"
	"github.com/tracelight/tracelight/pkg/models"
)

const suggestionTTL = 60 * time.Second

// suggestResponse is fixed by contract; it is not enveloped.
type suggestResponse struct {
	Success        bool                 `json:"success"`
	ErrorSignature string               `json:"error_signature"`
	Suggestions    []*models.Suggestion `json:"suggestions"`
}

// NewSuggestHandler returns an http.HandlerFunc for
// GET /api/v1/suggested-users/{signature}. Results are cached briefly since
// the ranking only moves when a log is solved.
func NewSuggestHandler(st store.Store, ca cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		signature := chi.URLParam(r, "signature")
		if signature == "" {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "signature is required", nil)
			return
		}

		key := cache.SuggestionKey(signature)
		if cached, ok, err := ca.Get(r.Context(), key); err == nil && ok {
			var suggestions []*models.Suggestion
			if json.Unmarshal(cached, &suggestions) == nil {
				response.Raw(w, http.StatusOK, suggestResponse{
					Success:        true,
					ErrorSignature: signature,
					Suggestions:    suggestions,
				})
				return
			}
		}

		suggestions, err := st.SuggestAssignees(r.Context(), signature)
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to compute suggestions", nil)
			return
		}

		if payload, err := json.Marshal(suggestions); err == nil {
			_ = ca.Set(r.Context(), key, payload, suggestionTTL)
		}

		response.Raw(w, http.StatusOK, suggestResponse{
			Success:        true,
			ErrorSignature: signature,
			Suggestions:    suggestions,
		})
	}
}
