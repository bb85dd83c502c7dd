package ingest

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tracelight/tracelight/pkg/errsig"
	"github.com/tracelight/tracelight/pkg/models"
)

// maxSnapshotBytes caps the raw-payload snapshot stored on a log. Larger
// payloads are reduced to a summary of the identifying fields.
const maxSnapshotBytes = 200 * 1024

// eventPayload mirrors the known fields of the monitoring webhook's nested
// event object. Everything is optional except the event id; extraction is
// best-effort for the rest.
type eventPayload struct {
	EventID     string          `json:"event_id"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	WebURL      string          `json:"web_url"`
	Culprit     string          `json:"culprit"`
	Location    string          `json:"location"`
	Type        string          `json:"type"`
	Level       string          `json:"level"`
	Environment string          `json:"environment"`
	Timestamp   json.RawMessage `json:"timestamp"`
	Metadata    struct {
		Function string `json:"function"`
	} `json:"metadata"`
	User struct {
		IPAddress string `json:"ip_address"`
	} `json:"user"`
}

type webhookPayload struct {
	Event *eventPayload `json:"event"`
}

// Extract normalizes a raw webhook payload into a Log. Returns
// ErrMissingEventID when the nested event object or its id is absent;
// missing optional sub-fields never fail extraction.
func Extract(raw []byte, now time.Time) (*models.Log, error) {
	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrInvalidPayload
	}
	if payload.Event == nil || payload.Event.EventID == "" {
		return nil, ErrMissingEventID
	}
	ev := payload.Event

	message := ev.Title
	if message == "" {
		message = ev.Message
	}

	errorType := normalizeErrorType(ev.Type)
	if errorType == "" {
		errorType = normalizeErrorType(ev.Level)
	}
	if errorType == "" {
		errorType = models.ErrorTypeError
	}

	environment := ev.Environment
	if environment == "" {
		environment = "production"
	}

	eventID := ev.EventID
	log := &models.Log{
		ID:          uuid.New(),
		EventID:     &eventID,
		Message:     message,
		Link:        ev.WebURL,
		Culprit:     ev.Culprit,
		Filename:    ev.Location,
		Function:    ev.Metadata.Function,
		ErrorType:   errorType,
		Environment: environment,
		Address:     ev.User.IPAddress,
		Status:      models.StatusUnresolved,
		Timestamp:   parseTimestamp(ev.Timestamp, now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	log.Category = Categorize(log.Message, log.Culprit)
	log.Severity = SeverityFor(log.ErrorType)
	log.Signature = errsig.Derive(log.ErrorType, log.Culprit, log.Filename, log.Function, log.Message)
	log.Payload = Snapshot(raw, log)

	return log, nil
}

// normalizeErrorType maps the payload's level/type field onto the enumerated
// classifications. Unknown values are dropped so the caller can default.
func normalizeErrorType(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "error", "fatal":
		return models.ErrorTypeError
	case "warning", "warn":
		return models.ErrorTypeWarning
	case "info", "debug":
		return models.ErrorTypeInfo
	default:
		return ""
	}
}

// parseTimestamp accepts either an RFC3339 string or unix seconds (with
// optional fraction), falling back to now.
func parseTimestamp(raw json.RawMessage, now time.Time) time.Time {
	if len(raw) == 0 {
		return now
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
		if secs, err := strconv.ParseFloat(s, 64); err == nil && secs > 0 {
			return unixFloat(secs)
		}
		return now
	}

	var secs float64
	if err := json.Unmarshal(raw, &secs); err == nil && secs > 0 {
		return unixFloat(secs)
	}
	return now
}

func unixFloat(secs float64) time.Time {
	sec := int64(secs)
	nsec := int64((secs - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}

// Categorize derives the log's category from keywords in the message and
// culprit. First match wins; anything unmatched is general.
func Categorize(message, culprit string) string {
	text := strings.ToLower(message + " " + culprit)

	switch {
	case containsAny(text, "sql", "database", "mongo", "postgres", "connection pool", "deadlock", "query"):
		return models.CategoryDatabase
	case containsAny(text, "login", "password", "credential", "token expired", "unauthenticated", "session"):
		return models.CategoryAuthentication
	case containsAny(text, "forbidden", "permission", "unauthorized", "access denied", "role"):
		return models.CategoryAuthorization
	case containsAny(text, "validation", "invalid", "required field", "must be", "malformed"):
		return models.CategoryValidation
	default:
		return models.CategoryGeneral
	}
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// SeverityFor maps an error classification onto a severity.
func SeverityFor(errorType string) string {
	switch errorType {
	case models.ErrorTypeWarning:
		return models.SeverityMedium
	case models.ErrorTypeInfo:
		return models.SeverityLow
	default:
		return models.SeverityHigh
	}
}

// Snapshot returns the raw payload when it fits the size cap, otherwise a
// reduced summary of the already-extracted identifying fields.
func Snapshot(raw []byte, log *models.Log) json.RawMessage {
	if len(raw) <= maxSnapshotBytes {
		return json.RawMessage(raw)
	}

	summary, err := json.Marshal(map[string]string{
		"truncated":   "payload exceeded snapshot limit",
		"message":     log.Message,
		"error_type":  log.ErrorType,
		"environment": log.Environment,
		"culprit":     log.Culprit,
	})
	if err != nil {
		return nil
	}
	return summary
}
