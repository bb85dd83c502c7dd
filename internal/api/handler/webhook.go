package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/tracelight/tracelight/internal/api/response"
	"github.com/tracelight/tracelight/internal/ingest"
	"github.com/tracelight/tracelight/internal/metrics"
)

// Deliveries above this are refused with 413. Oversized payloads under the
// cap still ingest; the stored snapshot is reduced downstream.
const maxWebhookBodyBytes = 8 << 20

// NewWebhookHandler returns an http.HandlerFunc for POST /api/v1/webhook.
// The route is public; the gate is the shared secret, not an API key.
func NewWebhookHandler(svc *ingest.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.VerifySignature(r.Header.Get("X-Webhook-Signature")); err != nil {
			metrics.EventsIngested.WithLabelValues("rejected").Inc()
			response.Error(w, http.StatusForbidden,
				"INVALID_SIGNATURE", "Webhook signature verification failed", nil)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				metrics.EventsIngested.WithLabelValues("rejected").Inc()
				response.Error(w, http.StatusRequestEntityTooLarge,
					"PAYLOAD_TOO_LARGE", "Event delivery exceeds the size limit", nil)
				return
			}
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "Failed to read request body", nil)
			return
		}

		log, created, err := svc.Ingest(r.Context(), body)
		if err != nil {
			switch {
			case errors.Is(err, ingest.ErrMissingEventID):
				metrics.EventsIngested.WithLabelValues("invalid").Inc()
				response.Error(w, http.StatusBadRequest,
					"MISSING_EVENT_ID", "Event payload has no event_id", nil)
			case errors.Is(err, ingest.ErrInvalidPayload):
				metrics.EventsIngested.WithLabelValues("invalid").Inc()
				response.Error(w, http.StatusBadRequest,
					"INVALID_PAYLOAD", "Request body is not a valid event payload", nil)
			default:
				metrics.EventsIngested.WithLabelValues("error").Inc()
				response.Error(w, http.StatusInternalServerError,
					"INTERNAL_ERROR", err.Error(), nil)
			}
			return
		}

		if created {
			metrics.EventsIngested.WithLabelValues("created").Inc()
			response.Created(w, log)
			return
		}
		metrics.EventsIngested.WithLabelValues("updated").Inc()
		response.Raw(w, http.StatusOK, map[string]any{
			"msg": "event already recorded, log refreshed",
			"log": log,
		})
	}
}
