package vllm

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

// Provider implements models.AIProvider against vLLM's OpenAI-compatible API.
type Provider struct {
	cfg    config.VLLMConfig
	client *http.Client
}

func NewProvider(cfg config.VLLMConfig) *Provider {
	return &Provider{cfg: cfg, client: &http.Client{}}
}

func (p *Provider) Name() string { return "vllm" }

func (p *Provider) GenerateReport(ctx context.Context, req models.ReportRequest) (models.Report, error) {
	body, err := json.Marshal(map[string]any{
		"model": p.cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt.Build(req)},
		},
	})
	if err != nil {
		return models.Report{}, fmt.Errorf("vllm: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return models.Report{}, fmt.Errorf("vllm: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return models.Report{}, fmt.Errorf("vllm: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Report{}, fmt.Errorf("vllm: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Report{}, fmt.Errorf("vllm: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return models.Report{}, fmt.Errorf("vllm: empty choices in response")
	}

	report, err := prompt.Parse(out.Choices[0].Message.Content)
	if err != nil {
		return models.Report{}, fmt.Errorf("vllm: %w", err)
	}
	report.Model = p.cfg.Model
	return report, nil
}

var _ models.AIProvider = (*Provider)(nil)
