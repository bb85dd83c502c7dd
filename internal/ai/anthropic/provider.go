package anthropic

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

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
	maxTokens  = 2048
)

// Provider implements models.AIProvider using Anthropic.
type Provider struct {
	cfg    config.AnthropicConfig
	client *http.Client
}

func NewProvider(cfg config.AnthropicConfig) *Provider {
	return &Provider{cfg: cfg, client: &http.Client{}}
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) GenerateReport(ctx context.Context, req models.ReportRequest) (models.Report, error) {
	body, err := json.Marshal(map[string]any{
		"model":      p.cfg.Model,
		"max_tokens": maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt.Build(req)},
		},
	})
	if err != nil {
		return models.Report{}, fmt.Errorf("anthropic: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return models.Report{}, fmt.Errorf("anthropic: build request: %w", err)
	}
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return models.Report{}, fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Report{}, fmt.Errorf("anthropic: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Report{}, fmt.Errorf("anthropic: decode response: %w", err)
	}
	if len(out.Content) == 0 {
		return models.Report{}, fmt.Errorf("anthropic: empty content in response")
	}

	report, err := prompt.Parse(out.Content[0].Text)
	if err != nil {
		return models.Report{}, fmt.Errorf("anthropic: %w", err)
	}
	report.Model = p.cfg.Model
	return report, nil
}

var _ models.AIProvider = (*Provider)(nil)
