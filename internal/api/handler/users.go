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
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// NewCreateUserHandler returns an http.HandlerFunc for POST /api/v1/users.
func NewCreateUserHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Role     string `json:"role"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		// Collect every violation, not just the first.
		var violations []string
		if strings.TrimSpace(req.Name) == "" {
			violations = append(violations, "name is required")
		}
		if !strings.Contains(req.Email, "@") {
			violations = append(violations, "email must be a valid address")
		}
		if req.Role == "" {
			req.Role = models.RoleDeveloper
		} else if !models.ValidRole(req.Role) {
			violations = append(violations, "role must be one of: admin, maintainer, developer, viewer")
		}
		if len(req.Password) < minPasswordLen {
			violations = append(violations, "password must be at least 8 characters")
		}
		if len(violations) > 0 {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "Validation failed", violations)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to hash password", nil)
			return
		}

		user := &models.User{
			ID:           uuid.New(),
			Name:         req.Name,
			Email:        strings.ToLower(req.Email),
			Role:         req.Role,
			PasswordHash: string(hash),
			CreatedAt:    time.Now().UTC(),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := st.CreateUser(r.Context(), user); err != nil {
			writeStoreError(w, err, "User")
			return
		}
		response.Created(w, user)
	}
}

// NewListUsersHandler returns an http.HandlerFunc for GET /api/v1/users.
func NewListUsersHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := st.ListUsers(r.Context())
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to list users", nil)
			return
		}
		if users == nil {
			users = []*models.User{}
		}
		response.JSON(w, users)
	}
}

// NewGetUserHandler returns an http.HandlerFunc for GET /api/v1/users/{userID}.
func NewGetUserHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "userID")
		if !ok {
			return
		}

		user, err := st.GetUser(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "User")
			return
		}
		response.JSON(w, user)
	}
}

// NewUpdateUserHandler returns an http.HandlerFunc for PATCH /api/v1/users/{userID}.
// Users may update their own name and email; only admins may change roles or
// other accounts.
func NewUpdateUserHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "userID")
		if !ok {
			return
		}

		callerID, _ := mw.GetUserID(r)
		callerRole, _ := mw.GetUserRole(r)
		if callerRole != models.RoleAdmin && callerID != id {
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Insufficient permissions to modify this user", nil)
			return
		}

		user, err := st.GetUser(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "User")
			return
		}

		var req struct {
			Name  *string `json:"name"`
			Email *string `json:"email"`
			Role  *string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		var violations []string
		if req.Name != nil {
			if strings.TrimSpace(*req.Name) == "" {
				violations = append(violations, "name must not be empty")
			} else {
				user.Name = *req.Name
			}
		}
		if req.Email != nil {
			if !strings.Contains(*req.Email, "@") {
				violations = append(violations, "email must be a valid address")
			} else {
				user.Email = strings.ToLower(*req.Email)
			}
		}
		if req.Role != nil {
			if callerRole != models.RoleAdmin {
				violations = append(violations, "only admins may change roles")
			} else if !models.ValidRole(*req.Role) {
				violations = append(violations, "role must be one of: admin, maintainer, developer, viewer")
			} else {
				user.Role = *req.Role
			}
		}
		if len(violations) > 0 {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "Validation failed", violations)
			return
		}

		user.UpdatedAt = time.Now().UTC()
		if err := st.UpdateUser(r.Context(), user); err != nil {
			writeStoreError(w, err, "User")
			return
		}
		response.JSON(w, user)
	}
}

// NewUpdatePasswordHandler returns an http.HandlerFunc for
// PUT /api/v1/users/{userID}/password.
func NewUpdatePasswordHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "userID")
		if !ok {
			return
		}

		callerID, _ := mw.GetUserID(r)
		callerRole, _ := mw.GetUserRole(r)
		if callerRole != models.RoleAdmin && callerID != id {
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Insufficient permissions to modify this user", nil)
			return
		}

		var req struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if len(req.Password) < minPasswordLen {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "password must be at least 8 characters", nil)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to hash password", nil)
			return
		}

		if err := st.UpdateUserPassword(r.Context(), id, string(hash)); err != nil {
			writeStoreError(w, err, "User")
			return
		}
		response.JSON(w, map[string]string{"msg": "password updated"})
	}
}

// NewDeleteUserHandler returns an http.HandlerFunc for DELETE /api/v1/users/{userID}.
func NewDeleteUserHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "userID")
		if !ok {
			return
		}

		if err := st.DeleteUser(r.Context(), id); err != nil {
			writeStoreError(w, err, "User")
			return
		}
		response.JSON(w, map[string]string{"msg": "user deleted"})
	}
}
