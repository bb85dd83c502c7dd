package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is a free-form knowledge-base entry (runbooks, postmortems).
type Document struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Title     string    `db:"title"      json:"title"`
	Body      string    `db:"body"       json:"body"`
	AuthorID  uuid.UUID `db:"author_id"  json:"author_id"`
	Tags      []string  `db:"tags"       json:"tags,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
