package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tracelight/tracelight/pkg/models"
)

// --- Comments ---

func (s *PostgresStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO comments (id, log_id, user_id, body, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		comment.ID, comment.LogID, comment.UserID, comment.Body, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		if isForeignKeyError(err) {
			return ErrNotFound
		}
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var c models.Comment
	var author models.UserRef
	err := s.pool.QueryRow(ctx,
		`SELECT c.id, c.log_id, c.user_id, c.body, c.created_at, c.updated_at,
		        u.id, u.name, u.email, u.role
		 FROM comments c JOIN users u ON u.id = c.user_id
		 WHERE c.id = $1`, id,
	).Scan(&c.ID, &c.LogID, &c.UserID, &c.Body, &c.CreatedAt, &c.UpdatedAt,
		&author.ID, &author.Name, &author.Email, &author.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	c.Author = &author
	return &c, nil
}

func (s *PostgresStore) ListCommentsByLog(ctx context.Context, logID uuid.UUID) ([]*models.Comment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.log_id, c.user_id, c.body, c.created_at, c.updated_at,
		        u.id, u.name, u.email, u.role
		 FROM comments c JOIN users u ON u.id = c.user_id
		 WHERE c.log_id = $1 ORDER BY c.created_at`, logID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		var c models.Comment
		var author models.UserRef
		if err := rows.Scan(&c.ID, &c.LogID, &c.UserID, &c.Body, &c.CreatedAt, &c.UpdatedAt,
			&author.ID, &author.Name, &author.Email, &author.Role); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.Author = &author
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

func (s *PostgresStore) UpdateComment(ctx context.Context, id uuid.UUID, body string) (*models.Comment, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE comments SET body = $2, updated_at = NOW() WHERE id = $1`, id, body)
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetComment(ctx, id)
}

func (s *PostgresStore) DeleteComment(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Documents ---

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, title, body, author_id, tags, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		doc.ID, doc.Title, doc.Body, doc.AuthorID, doc.Tags, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		if isForeignKeyError(err) {
			return ErrNotFound
		}
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var d models.Document
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, body, author_id, tags, created_at, updated_at
		 FROM documents WHERE id = $1`, id,
	).Scan(&d.ID, &d.Title, &d.Body, &d.AuthorID, &d.Tags, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &d, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, page, limit int) ([]*models.Document, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	rows, err := s.pool.Query(ctx,
		`SELECT id, title, body, author_id, tags, created_at, updated_at
		 FROM documents ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []*models.Document{}
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Body, &d.AuthorID, &d.Tags,
			&d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, &d)
	}
	return docs, total, rows.Err()
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, doc *models.Document) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET title = $2, body = $3, tags = $4, updated_at = NOW() WHERE id = $1`,
		doc.ID, doc.Title, doc.Body, doc.Tags)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
