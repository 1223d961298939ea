package gemini

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"
)

// Client calls the Gemini API with thinking disabled and zero temperature so
// structured output stays terse and repeatable.
type Client struct {
	models *genai.Models
}

func NewClient(ctx context.Context, apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{models: c.Models}, nil
}

func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:    genai.Ptr[float32](0),
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
