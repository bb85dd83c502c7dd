package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tracelight/tracelight/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error

	CreateLog(ctx context.Context, log *models.Log) error
	UpsertLogByEventID(ctx context.Context, log *models.Log) (*models.Log, bool, error)
	GetLog(ctx context.Context, id uuid.UUID) (*models.Log, error)
	UpdateLog(ctx context.Context, id uuid.UUID, upd LogUpdate) (*models.Log, error)
	DeleteLog(ctx context.Context, id uuid.UUID) error
	ListLogs(ctx context.Context, filter LogFilter) ([]*models.Log, int, error)

	RecordStatusChange(ctx context.Context, logID, userID uuid.UUID, status string) (*models.Log, *models.StatusRegister, error)
	ListStatusRegisters(ctx context.Context, logID uuid.UUID) ([]*models.StatusRegister, error)

	TrackResolution(ctx context.Context, logID, userID uuid.UUID, signature string) error
	SuggestAssignees(ctx context.Context, signature string) ([]*models.Suggestion, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	ListCommentsByLog(ctx context.Context, logID uuid.UUID) ([]*models.Comment, error)
	UpdateComment(ctx context.Context, id uuid.UUID, body string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error

	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListDocuments(ctx context.Context, page, limit int) ([]*models.Document, int, error)
	UpdateDocument(ctx context.Context, doc *models.Document) error
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	CreateReportJob(ctx context.Context, job *models.ReportJob) error
	GetReportJob(ctx context.Context, id uuid.UUID) (*models.ReportJob, error)
	UpdateReportJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error
	CreateReport(ctx context.Context, report *models.Report) error
	GetReportByJobID(ctx context.Context, jobID uuid.UUID) (*models.Report, error)
}

// LogFilter is the typed query configuration for ListLogs. Zero-valued
// fields are not applied; unrecognized caller-supplied keys never reach the
// query because only these fields are translated to SQL.
type LogFilter struct {
	Search      string
	EventID     string
	Message     string
	Link        string
	Culprit     string
	Filename    string
	Function    string
	ErrorType   string
	Environment string
	Comments    string
	Status      string
	Category    string
	Severity    string
	Signature   string
	AssignedTo  uuid.UUID

	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

type jobUpdateParams struct {
	ErrorMessage *string
}

type JobUpdateOption func(*jobUpdateParams)

func WithErrorMessage(msg string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.ErrorMessage = &msg
	}
}

// LogUpdate is a partial update for a log; nil fields are left untouched.
type LogUpdate struct {
	Message     *string
	Link        *string
	Culprit     *string
	Filename    *string
	Function    *string
	ErrorType   *string
	Environment *string
	Status      *string
	AssignedTo  *uuid.UUID
	Comments    *string
}
