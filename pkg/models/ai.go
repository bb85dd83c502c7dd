package models

import "context"

// AIProvider is the core interface that all LLM integrations must implement.
// Never call specific providers directly; always inject this interface.
type AIProvider interface {
	// GenerateReport produces a root-cause report for a log given
	// source-control context.
	GenerateReport(ctx context.Context, req ReportRequest) (Report, error)
	// Name returns the provider identifier (e.g., "ollama", "openai").
	Name() string
}

// ReportRequest is the input to a report-generation operation.
type ReportRequest struct {
	Log     Log
	Commits []CommitInfo // Recent commits touching the log's file, newest first
}

// CommitInfo is a single commit returned by the source-control host.
type CommitInfo struct {
	SHA         string `json:"sha"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Message     string `json:"message"`
	Date        string `json:"date"`
}
