package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

type ollamaProvider struct {
	client  *api.Client
	model   string
	options map[string]any
}

const ollamaDefault = "phi4:latest"

func (p *ollamaProvider) Init(cfg Config) error {
	c, err := api.ClientFromEnvironment()
	if err != nil {
		host := cfg.OllamaHost
		if host == "" {
			host = "http://localhost:11434"
		}
		u, uerr := url.Parse(host)
		if uerr != nil {
			return fmt.Errorf("ollama: bad host %q: %w", host, uerr)
		}
		c = api.NewClient(u, nil)
	}
	p.client = c
	p.model = ollamaDefault
	if m := strings.TrimSpace(cfg.Model); m != "" {
		p.model = m
	}
	p.options = map[string]any{}
	if cfg.MaxTokens > 0 {
		p.options["num_predict"] = cfg.MaxTokens
	}
	if cfg.Temperature > 0 {
		p.options["temperature"] = cfg.Temperature
	}
	return nil
}

func (p *ollamaProvider) DefaultModel() string { return ollamaDefault }

func (p *ollamaProvider) generate(ctx context.Context, req *api.GenerateRequest) (string, error) {
	var out strings.Builder
	if err := p.client.Generate(ctx, req, func(gr api.GenerateResponse) error {
		out.WriteString(gr.Response)
		return nil
	}); err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out.String(), nil
}

func (p *ollamaProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if p.client == nil {
		return "", ErrNotInitialized
	}
	stream := false
	return p.generate(ctx, &api.GenerateRequest{
		Model:   p.model,
		Prompt:  prompt,
		Options: p.options,
		Stream:  &stream,
	})
}

func (p *ollamaProvider) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	if p.client == nil {
		return "", ErrNotInitialized
	}
	stream := false
	return p.generate(ctx, &api.GenerateRequest{
		Model:   p.model,
		Prompt:  prompt + "\n\nReturn ONLY strict JSON. No extra text.",
		Format:  json.RawMessage(`"json"`),
		Options: p.options,
		Stream:  &stream,
	})
}
