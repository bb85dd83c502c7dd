package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tracelight/tracelight/pkg/models"
)

// RecordStatusChange appends an immutable status-register row and updates the
// log's denormalized status and assignee in one transaction. The audit row is
// written first; a foreign-key violation on it means the log does not exist.
func (s *PostgresStore) RecordStatusChange(ctx context.Context, logID, userID uuid.UUID, status string) (*models.Log, *models.StatusRegister, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin status change: %w", err)
	}
	defer tx.Rollback(ctx)

	entry := models.StatusRegister{
		ID:        uuid.New(),
		LogID:     logID,
		UserID:    userID,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO status_registers (id, log_id, user_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.LogID, entry.UserID, entry.Status, entry.CreatedAt)
	if err != nil {
		if isForeignKeyError(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("insert status register: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE logs SET status = $2, assigned_to = $3, updated_at = NOW() WHERE id = $1`,
		logID, status, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("update log status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit status change: %w", err)
	}

	log, err := s.GetLog(ctx, logID)
	if err != nil {
		return nil, nil, err
	}
	return log, &entry, nil
}

func (s *PostgresStore) ListStatusRegisters(ctx context.Context, logID uuid.UUID) ([]*models.StatusRegister, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, log_id, user_id, status, created_at
		 FROM status_registers WHERE log_id = $1 ORDER BY created_at`, logID)
	if err != nil {
		return nil, fmt.Errorf("list status registers: %w", err)
	}
	defer rows.Close()

	var entries []*models.StatusRegister
	for rows.Next() {
		var e models.StatusRegister
		if err := rows.Scan(&e.ID, &e.LogID, &e.UserID, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status register: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// TrackResolution increments the per-(signature, user) resolution counter.
// Only the first solved transition per (log, user) counts, so repeated
// solved/unsolved flapping on the same log does not inflate the aggregate.
func (s *PostgresStore) TrackResolution(ctx context.Context, logID, userID uuid.UUID, signature string) error {
	if signature == "" {
		return nil
	}

	var solvedCount int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM status_registers
		 WHERE log_id = $1 AND user_id = $2 AND status = $3`,
		logID, userID, models.StatusSolved,
	).Scan(&solvedCount)
	if err != nil {
		return fmt.Errorf("count solved transitions: %w", err)
	}
	if solvedCount != 1 {
		return nil
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO resolutions (signature, user_id, resolved_count, last_resolved_at)
		 VALUES ($1, $2, 1, NOW())
		 ON CONFLICT (signature, user_id) DO UPDATE SET
		   resolved_count = resolutions.resolved_count + 1,
		   last_resolved_at = NOW()`,
		signature, userID)
	if err != nil {
		return fmt.Errorf("track resolution: %w", err)
	}
	return nil
}

// SuggestAssignees returns candidate assignees for an error signature, ranked
// by resolution count then by recency of the last resolution. Users with no
// resolutions never appear.
func (s *PostgresStore) SuggestAssignees(ctx context.Context, signature string) ([]*models.Suggestion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.name, u.email, u.role, r.resolved_count, r.last_resolved_at
		 FROM resolutions r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.signature = $1 AND r.resolved_count > 0
		 ORDER BY r.resolved_count DESC, r.last_resolved_at DESC`, signature)
	if err != nil {
		return nil, fmt.Errorf("suggest assignees: %w", err)
	}
	defer rows.Close()

	suggestions := []*models.Suggestion{}
	for rows.Next() {
		var sg models.Suggestion
		if err := rows.Scan(&sg.UserID, &sg.Name, &sg.Email, &sg.Role,
			&sg.ResolvedCount, &sg.LastResolvedAt); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		suggestions = append(suggestions, &sg)
	}
	return suggestions, rows.Err()
}
