// Package llm adapts langchaingo chat models to ports.Completer.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/tabi/pkg/ports"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// ErrMissingAPIKey is returned by NewOpenAI without credentials.
var ErrMissingAPIKey = errors.New("llm: missing api key")

// ErrEmptyResponse is returned when the model produced no choices.
var ErrEmptyResponse = errors.New("llm: empty response")

// Completer implements ports.Completer on top of any langchaingo model.
type Completer struct {
	model       llms.Model
	temperature float64
	maxTokens   int
}

// Option configures a Completer.
type Option func(*Completer)

// WithTemperature sets the default sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Completer) {
		c.temperature = t
	}
}

// WithMaxTokens sets the default completion length.
func WithMaxTokens(n int) Option {
	return func(c *Completer) {
		c.maxTokens = n
	}
}

// Config selects an OpenAI-compatible endpoint.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// New wraps an existing langchaingo model.
func New(model llms.Model, opts ...Option) *Completer {
	c := &Completer{
		model:       model,
		temperature: 0.7,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewOpenAI creates a Completer backed by the OpenAI chat API (or a compatible server at BaseURL).
func NewOpenAI(cfg Config, opts ...Option) (*Completer, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	clientOpts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(model),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}
	return New(client, opts...), nil
}

// Complete implements ports.Completer.
func (c *Completer) Complete(ctx context.Context, p ports.Prompt) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if p.System != "" {
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(p.System)},
		})
	}
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(p.Human)},
	})

	temperature := c.temperature
	if p.Temperature > 0 {
		temperature = p.Temperature
	}
	callOpts := []llms.CallOption{llms.WithTemperature(temperature)}

	maxTokens := c.maxTokens
	if p.MaxTokens > 0 {
		maxTokens = p.MaxTokens
	}
	if maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(maxTokens))
	}

	resp, err := c.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
