package ai

import (
	"fmt"

	"github.com/tracelight/tracelight/internal/ai/anthropic"
	"github.com/tracelight/tracelight/internal/ai/ollama"
	"github.com/tracelight/tracelight/internal/ai/openai"
	"github.com/tracelight/tracelight/internal/ai/vllm"
	"github.com/tracelight/tracelight/internal/config"
	"github.com/tracelight/tracelight/pkg/models"
)

// NewProvider constructs the appropriate AI provider based on config.
// Called once at server startup.
func NewProvider(cfg config.AIConfig) (models.AIProvider, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.NewProvider(cfg.Ollama), nil
	case "vllm":
		return vllm.NewProvider(cfg.VLLM), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAI), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of ollama, vllm, openai, anthropic", cfg.Provider)
	}
}
