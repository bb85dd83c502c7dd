package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tracelight/tracelight/pkg/models"
)

const logColumns = `l.id, l.event_id, l.message, l.link, l.culprit, l.filename, l.function,
	l.error_type, l.environment, l.address, l.category, l.severity, l.signature, l.status,
	l.assigned_to, l.comments, l.payload, l.timestamp, l.created_at, l.updated_at,
	u.id, u.name, u.email, u.role`

const logJoin = `FROM logs l LEFT JOIN users u ON u.id = l.assigned_to`

// scanLog scans a joined log row including the nullable assignee projection.
func scanLog(row pgx.Row) (*models.Log, error) {
	var l models.Log
	var aID *uuid.UUID
	var aName, aEmail, aRole *string

	err := row.Scan(&l.ID, &l.EventID, &l.Message, &l.Link, &l.Culprit, &l.Filename, &l.Function,
		&l.ErrorType, &l.Environment, &l.Address, &l.Category, &l.Severity, &l.Signature, &l.Status,
		&l.AssignedTo, &l.Comments, &l.Payload, &l.Timestamp, &l.CreatedAt, &l.UpdatedAt,
		&aID, &aName, &aEmail, &aRole)
	if err != nil {
		return nil, err
	}

	if aID != nil {
		l.Assignee = &models.UserRef{ID: *aID, Name: *aName, Email: *aEmail, Role: *aRole}
	}
	return &l, nil
}

func (s *PostgresStore) CreateLog(ctx context.Context, log *models.Log) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO logs (id, event_id, message, link, culprit, filename, function, error_type,
		   environment, address, category, severity, signature, status, assigned_to, comments,
		   payload, timestamp, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		log.ID, log.EventID, log.Message, log.Link, log.Culprit, log.Filename, log.Function,
		log.ErrorType, log.Environment, log.Address, log.Category, log.Severity, log.Signature,
		log.Status, log.AssignedTo, log.Comments, log.Payload, log.Timestamp, log.CreatedAt, log.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create log: %w", err)
	}
	return nil
}

// UpsertLogByEventID atomically creates the log or, when a log with the same
// external event id already exists, refreshes only its last-seen timestamp.
// The boolean result reports whether a new row was created. The upsert is a
// single statement so concurrent deliveries of the same event id cannot race
// into duplicate rows.
func (s *PostgresStore) UpsertLogByEventID(ctx context.Context, log *models.Log) (*models.Log, bool, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO logs (id, event_id, message, link, culprit, filename, function, error_type,
		   environment, address, category, severity, signature, status, comments, payload,
		   timestamp, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		 ON CONFLICT (event_id) WHERE event_id IS NOT NULL DO UPDATE SET
		   timestamp = EXCLUDED.timestamp,
		   updated_at = NOW()
		 RETURNING (xmax = 0), id, event_id, message, link, culprit, filename, function, error_type,
		   environment, address, category, severity, signature, status, assigned_to, comments,
		   payload, timestamp, created_at, updated_at`,
		log.ID, log.EventID, log.Message, log.Link, log.Culprit, log.Filename, log.Function,
		log.ErrorType, log.Environment, log.Address, log.Category, log.Severity, log.Signature,
		log.Status, log.Comments, log.Payload, log.Timestamp, log.CreatedAt, log.UpdatedAt)

	var created bool
	var result models.Log
	err := row.Scan(&created, &result.ID, &result.EventID, &result.Message, &result.Link,
		&result.Culprit, &result.Filename, &result.Function, &result.ErrorType,
		&result.Environment, &result.Address, &result.Category, &result.Severity,
		&result.Signature, &result.Status, &result.AssignedTo, &result.Comments,
		&result.Payload, &result.Timestamp, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("upsert log: %w", err)
	}
	return &result, created, nil
}

func (s *PostgresStore) GetLog(ctx context.Context, id uuid.UUID) (*models.Log, error) {
	log, err := scanLog(s.pool.QueryRow(ctx,
		`SELECT `+logColumns+` `+logJoin+` WHERE l.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get log: %w", err)
	}
	return log, nil
}

func (s *PostgresStore) UpdateLog(ctx context.Context, id uuid.UUID, upd LogUpdate) (*models.Log, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	argIdx := 2

	addSet := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if upd.Message != nil {
		addSet("message", *upd.Message)
	}
	if upd.Link != nil {
		addSet("link", *upd.Link)
	}
	if upd.Culprit != nil {
		addSet("culprit", *upd.Culprit)
	}
	if upd.Filename != nil {
		addSet("filename", *upd.Filename)
	}
	if upd.Function != nil {
		addSet("function", *upd.Function)
	}
	if upd.ErrorType != nil {
		addSet("error_type", *upd.ErrorType)
	}
	if upd.Environment != nil {
		addSet("environment", *upd.Environment)
	}
	if upd.Status != nil {
		addSet("status", *upd.Status)
	}
	if upd.AssignedTo != nil {
		addSet("assigned_to", *upd.AssignedTo)
	}
	if upd.Comments != nil {
		addSet("comments", *upd.Comments)
	}

	query := fmt.Sprintf("UPDATE logs SET %s WHERE id = $1", strings.Join(sets, ", "))
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	return s.GetLog(ctx, id)
}

func (s *PostgresStore) DeleteLog(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM logs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Columns a caller may sort logs by. Anything else falls back to timestamp.
var logSortColumns = map[string]string{
	"timestamp":   "l.timestamp",
	"created_at":  "l.created_at",
	"message":     "l.message",
	"status":      "l.status",
	"error_type":  "l.error_type",
	"environment": "l.environment",
	"severity":    "l.severity",
	"category":    "l.category",
}

// Columns the free-text search matches against, case-insensitively.
var logSearchColumns = []string{
	"l.message", "l.culprit", "l.filename", "l.function",
	"l.error_type", "l.environment", "l.status", "l.comments",
}

func (s *PostgresStore) ListLogs(ctx context.Context, filter LogFilter) ([]*models.Log, int, error) {
	// Build WHERE clause dynamically
	conditions := []string{"TRUE"}
	args := []any{}
	argIdx := 1

	addExact := func(column, value string) {
		if value == "" {
			return
		}
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	addExact("l.event_id", filter.EventID)
	addExact("l.message", filter.Message)
	addExact("l.link", filter.Link)
	addExact("l.culprit", filter.Culprit)
	addExact("l.filename", filter.Filename)
	addExact("l.function", filter.Function)
	addExact("l.error_type", filter.ErrorType)
	addExact("l.environment", filter.Environment)
	addExact("l.comments", filter.Comments)
	addExact("l.status", filter.Status)
	addExact("l.category", filter.Category)
	addExact("l.severity", filter.Severity)
	addExact("l.signature", filter.Signature)

	if filter.AssignedTo != uuid.Nil {
		conditions = append(conditions, fmt.Sprintf("l.assigned_to = $%d", argIdx))
		args = append(args, filter.AssignedTo)
		argIdx++
	}

	if filter.Search != "" {
		likes := make([]string, len(logSearchColumns))
		for i, col := range logSearchColumns {
			likes[i] = fmt.Sprintf("%s ILIKE $%d", col, argIdx)
		}
		conditions = append(conditions, "("+strings.Join(likes, " OR ")+")")
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	// Count query runs against the same WHERE, independent of the page window.
	var total int
	countQuery := "SELECT COUNT(*) FROM logs l WHERE " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count logs: %w", err)
	}

	// Normalize pagination
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	sortCol, ok := logSortColumns[filter.SortBy]
	if !ok {
		sortCol = "l.timestamp"
	}
	sortDir := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		sortDir = "ASC"
	}

	dataQuery := fmt.Sprintf(
		`SELECT %s %s WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		logColumns, logJoin, where, sortCol, sortDir, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	logs := []*models.Log{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}
