package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracelight/tracelight/internal/ai"
	"github.com/tracelight/tracelight/internal/config"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
	}{
		{"ollama", "ollama"},
		{"vllm", "vllm"},
		{"openai", "openai"},
		{"anthropic", "anthropic"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := ai.NewProvider(config.AIConfig{Provider: tt.provider})
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := ai.NewProvider(config.AIConfig{Provider: "skynet"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skynet")
}
