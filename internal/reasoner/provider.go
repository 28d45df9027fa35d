// Package reasoner hosts the LLM backends and adapts their raw JSON
// generation into the structured replies the planning graph consumes.
package reasoner

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Config struct {
	Backend    string
	Model      string
	OllamaHost string
}

type Provider interface {
	Init(cfg Config) error
	DefaultModel() string
	AllowedModelOrDefault(model string) string
	Generate(ctx context.Context, prompt, model string) (string, error)
	GenerateJSON(ctx context.Context, prompt, model string, schema any) (string, error)
}

var ErrNotInitialized = errors.New("reasoner backend is not initialized")

var (
	active   Provider
	activeID string
)

func Init(cfg Config) error {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = "gemini"
	}
	var p Provider
	switch backend {
	case "ollama":
		p = &ollamaProvider{}
		activeID = "ollama"
	case "gemini":
		p = &geminiProvider{}
		activeID = "gemini"
	default:
		return fmt.Errorf("unsupported LLM backend: %s", backend)
	}
	if err := p.Init(cfg); err != nil {
		return err
	}
	active = p
	return nil
}

func ActiveBackend() string {
	if active == nil {
		return ""
	}
	return activeID
}

func AllowedModelOrDefault(m string) string {
	if active == nil {
		return m
	}
	return active.AllowedModelOrDefault(m)
}

func Generate(ctx context.Context, prompt, model string) (string, error) {
	if active == nil {
		return "", ErrNotInitialized
	}
	return active.Generate(ctx, prompt, model)
}

func GenerateJSON(ctx context.Context, prompt, model string, schema any) (string, error) {
	if active == nil {
		return "", ErrNotInitialized
	}
	return active.GenerateJSON(ctx, prompt, model, schema)
}
