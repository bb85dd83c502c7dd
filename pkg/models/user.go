package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles ordered by privilege. Admin and maintainer may change any log;
// developers may only act on logs assigned to them.
const (
	RoleAdmin      = "admin"
	RoleMaintainer = "maintainer"
	RoleDeveloper  = "developer"
	RoleViewer     = "viewer"
)

// ValidRole reports whether r is a recognized role.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleMaintainer || r == RoleDeveloper || r == RoleViewer
}

// User is a platform account. PasswordHash is never serialized.
type User struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	Name         string    `db:"name"          json:"name"`
	Email        string    `db:"email"         json:"email"`
	Role         string    `db:"role"          json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"    json:"updated_at"`
}

// UserRef is the minimal user projection embedded in read-time joins
// (log assignee, comment author).
type UserRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// Ref returns the minimal projection of u.
func (u *User) Ref() *UserRef {
	return &UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
