package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a discussion entry attached to a log.
type Comment struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	LogID     uuid.UUID `db:"log_id"     json:"log_id"`
	UserID    uuid.UUID `db:"user_id"    json:"user_id"`
	Author    *UserRef  `db:"-"          json:"author,omitempty"`
	Body      string    `db:"body"       json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
