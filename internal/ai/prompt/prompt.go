// Package prompt builds the report-generation prompt and parses the model's
// structured reply. Shared by every provider so prompt/response handling
// stays identical regardless of backend.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tracelight/tracelight/pkg/models"
)

// Build renders the report-generation prompt for a log and its commit
// context.
func Build(req models.ReportRequest) string {
	var b strings.Builder

	b.WriteString("You are a senior engineer performing root-cause analysis of a production error.\n\n")
	fmt.Fprintf(&b, "Error: %s\n", req.Log.Message)
	fmt.Fprintf(&b, "Type: %s  Environment: %s\n", req.Log.ErrorType, req.Log.Environment)
	if req.Log.Culprit != "" {
		fmt.Fprintf(&b, "Location: %s\n", req.Log.Culprit)
	}
	if req.Log.Filename != "" {
		fmt.Fprintf(&b, "File: %s  Function: %s\n", req.Log.Filename, req.Log.Function)
	}

	if len(req.Commits) > 0 {
		b.WriteString("\nRecent commits touching this file, newest first:\n")
		for _, c := range req.Commits {
			fmt.Fprintf(&b, "- %s %s <%s> %s: %s\n",
				shortSHA(c.SHA), c.AuthorName, c.AuthorEmail, c.Date, firstLine(c.Message))
		}
	}

	b.WriteString(`
Respond with only a JSON object, no surrounding prose:
{"root_cause": "...", "suspect_commit": "sha or empty", "suspect_author": "name or empty", "confidence": 0.0, "summary": "..."}
`)
	return b.String()
}

// Parse decodes the model's reply into a Report. Tolerates replies that wrap
// the JSON object in prose or code fences.
func Parse(text string) (models.Report, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return models.Report{}, fmt.Errorf("no JSON object in reply")
	}

	var parsed struct {
		RootCause     string  `json:"root_cause"`
		SuspectCommit string  `json:"suspect_commit"`
		SuspectAuthor string  `json:"suspect_author"`
		Confidence    float64 `json:"confidence"`
		Summary       string  `json:"summary"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return models.Report{}, fmt.Errorf("decode reply: %w", err)
	}

	return models.Report{
		RootCause:     parsed.RootCause,
		SuspectCommit: parsed.SuspectCommit,
		SuspectAuthor: parsed.SuspectAuthor,
		Confidence:    parsed.Confidence,
		Summary:       parsed.Summary,
	}, nil
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
