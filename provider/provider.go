package provider

import (
	"context"
	"errors"
	"time"

	"github.com/mohammad-safakhou/researcher/provider/gemini"
	openai_provider "github.com/mohammad-safakhou/researcher/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	Gemini Client = "gemini"
	OpenAI Client = "openai"
)

// Generator is a single prompt-in, text-out completion call.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Options carries the credentials and transport settings for a provider.
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

var ErrMissingAPIKey = errors.New("llm api key not set")

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(ctx context.Context, client Client, opts Options) (Generator, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	switch client {
	case Gemini, "":
		return gemini.NewClient(ctx, opts.APIKey, opts.BaseURL, opts.Timeout)
	case OpenAI:
		return openai_provider.NewOpenAIClient(opts.APIKey, opts.BaseURL, opts.Timeout), nil
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
