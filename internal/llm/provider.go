package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNotInitialized = errors.New("llm: provider not initialized")

// Config carries everything a backend needs. The credential is injected by
// the caller; providers never read ambient process state themselves.
type Config struct {
	Backend     string
	Model       string
	APIKey      string
	OllamaHost  string
	MaxTokens   int
	Temperature float32
}

// Provider is one language-model backend. Generate returns free text;
// GenerateJSON forces strict-JSON output suitable for unmarshalling.
type Provider interface {
	Init(cfg Config) error
	DefaultModel() string
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// New selects and initializes a backend from the config.
func New(cfg Config) (Provider, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = "gemini"
	}
	var p Provider
	switch backend {
	case "gemini":
		p = &geminiProvider{}
	case "ollama":
		p = &ollamaProvider{}
	default:
		return nil, fmt.Errorf("unsupported LLM backend: %s", backend)
	}
	if err := p.Init(cfg); err != nil {
		return nil, err
	}
	return p, nil
}
