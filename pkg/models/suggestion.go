package models

import (
	"time"

	"github.com/google/uuid"
)

// Suggestion is one ranked candidate assignee for an error signature.
// Ordering is resolved count first, then recency of the last resolution.
type Suggestion struct {
	UserID         uuid.UUID `json:"user_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	ResolvedCount  int       `json:"resolved_count"`
	LastResolvedAt time.Time `json:"last_resolved_at"`
}
