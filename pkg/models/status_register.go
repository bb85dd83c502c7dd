package models

import (
	"time"

	"github.com/google/uuid"
)

// StatusRegister is one immutable row per status change applied to a log.
// Rows are never updated or deleted; ordering is by CreatedAt.
type StatusRegister struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	LogID     uuid.UUID `db:"log_id"     json:"log_id"`
	UserID    uuid.UUID `db:"user_id"    json:"user_id"`
	Status    string    `db:"status"     json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
