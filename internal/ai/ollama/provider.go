package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tracelight/tracelight/internal/ai/prompt"
	"github.com/tracelight/tracelight/internal/config"
	"github.com/tracelight/tracelight/pkg/models"
)

// Provider implements models.AIProvider using Ollama.
type Provider struct {
	cfg    config.OllamaConfig
	client *http.Client
}

func NewProvider(cfg config.OllamaConfig) *Provider {
	return &Provider{cfg: cfg, client: &http.Client{}}
}

func (p *Provider) Name() string { return "ollama" }

func (p *Provider) GenerateReport(ctx context.Context, req models.ReportRequest) (models.Report, error) {
	body, err := json.Marshal(map[string]any{
		"model":  p.cfg.Model,
		"prompt": prompt.Build(req),
		"stream": false,
	})
	if err != nil {
		return models.Report{}, fmt.Errorf("ollama: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return models.Report{}, fmt.Errorf("ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return models.Report{}, fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Report{}, fmt.Errorf("ollama: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Report{}, fmt.Errorf("ollama: decode response: %w", err)
	}

	report, err := prompt.Parse(out.Response)
	if err != nil {
		return models.Report{}, fmt.Errorf("ollama: %w", err)
	}
	report.Model = p.cfg.Model
	return report, nil
}

var _ models.AIProvider = (*Provider)(nil)
