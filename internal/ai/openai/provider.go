package openai

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

const apiURL = "https://api.openai.com/v1/chat/completions"

// Provider implements models.AIProvider using OpenAI.
type Provider struct {
	cfg    config.OpenAIConfig
	client *http.Client
}

func NewProvider(cfg config.OpenAIConfig) *Provider {
	return &Provider{cfg: cfg, client: &http.Client{}}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) GenerateReport(ctx context.Context, req models.ReportRequest) (models.Report, error) {
	body, err := json.Marshal(map[string]any{
		"model": p.cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt.Build(req)},
		},
	})
	if err != nil {
		return models.Report{}, fmt.Errorf("openai: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return models.Report{}, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return models.Report{}, fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Report{}, fmt.Errorf("openai: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Report{}, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return models.Report{}, fmt.Errorf("openai: empty choices in response")
	}

	report, err := prompt.Parse(out.Choices[0].Message.Content)
	if err != nil {
		return models.Report{}, fmt.Errorf("openai: %w", err)
	}
	report.Model = p.cfg.Model
	return report, nil
}

var _ models.AIProvider = (*Provider)(nil)
