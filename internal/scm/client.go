// Package scm queries the source-control host for commit history used by
// root-cause reports.
package scm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tracelight/tracelight/internal/config"
	"github.com/tracelight/tracelight/pkg/models"
)

// Sentinel errors for source-control client failures.
var (
	ErrSCMUnreachable  = errors.New("source-control host unreachable")
	ErrSCMQueryError   = errors.New("source-control query error")
	ErrSCMTimeout      = errors.New("source-control query timeout")
	ErrSCMUnconfigured = errors.New("source-control access token not configured")
)

// Client is the interface for querying the source-control host.
type Client interface {
	// RecentCommits returns commits touching path, newest first.
	RecentCommits(ctx context.Context, path string, limit int) ([]models.CommitInfo, error)
}

// HTTPClient implements Client using the GitHub REST API.
type HTTPClient struct {
	baseURL string
	token   string
	owner   string
	repo    string
	client  *http.Client
}

// NewHTTPClient creates a new GitHub HTTP client.
func NewHTTPClient(cfg config.SCMConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *HTTPClient) RecentCommits(ctx context.Context, path string, limit int) ([]models.CommitInfo, error) {
	if c.token == "" {
		return nil, ErrSCMUnconfigured
	}

	params := url.Values{}
	if path != "" {
		params.Set("path", path)
	}
	if limit > 0 {
		params.Set("per_page", strconv.Itoa(limit))
	}

	u := fmt.Sprintf("%s/repos/%s/%s/commits?%s", c.baseURL, c.owner, c.repo, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrSCMQueryError, resp.StatusCode)
	}

	var ghCommits []ghCommit
	if err := json.NewDecoder(resp.Body).Decode(&ghCommits); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	commits := make([]models.CommitInfo, 0, len(ghCommits))
	for _, gc := range ghCommits {
		commits = append(commits, models.CommitInfo{
			SHA:         gc.SHA,
			AuthorName:  gc.Commit.Author.Name,
			AuthorEmail: gc.Commit.Author.Email,
			Message:     gc.Commit.Message,
			Date:        gc.Commit.Author.Date,
		})
	}
	return commits, nil
}

type ghCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name  string `json:"name"`
			Email string `json:"email"`
			Date  string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// classifyError maps transport failures onto the sentinel errors.
func classifyError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrSCMTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrSCMTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrSCMUnreachable, err)
}
