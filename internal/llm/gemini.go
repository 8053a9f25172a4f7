package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type geminiProvider struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float32
}

const geminiDefault = "gemini-2.0-flash"

func (p *geminiProvider) Init(cfg Config) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("gemini: API key is empty")
	}
	c, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("gemini client init: %w", err)
	}
	p.client = c
	p.model = geminiDefault
	if m := strings.TrimSpace(cfg.Model); m != "" && strings.HasPrefix(strings.ToLower(m), "gemini-") {
		p.model = m
	}
	p.maxTokens = cfg.MaxTokens
	p.temperature = cfg.Temperature
	return nil
}

func (p *geminiProvider) DefaultModel() string { return geminiDefault }

func (p *geminiProvider) genConfig(forceJSON bool) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if p.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(p.maxTokens)
	}
	if p.temperature > 0 {
		t := p.temperature
		cfg.Temperature = &t
	}
	if forceJSON {
		// Force JSON output in candidates
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

func (p *geminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if p.client == nil {
		return "", ErrNotInitialized
	}
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), p.genConfig(false))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func (p *geminiProvider) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	if p.client == nil {
		return "", ErrNotInitialized
	}
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), p.genConfig(true))
	if err != nil {
		return "", fmt.Errorf("gemini generate json: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty json response")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
