// Package advisor writes the supplementary advice shown under the candidate itineraries.
package advisor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/aretw0/tabi/internal/logging"
	"github.com/aretw0/tabi/pkg/domain"
	"github.com/aretw0/tabi/pkg/knowledge"
	"github.com/aretw0/tabi/pkg/ports"
)

// Defaults.
const (
	DefaultTimeout      = 60 * time.Second
	DefaultMaxPlanChars = 6000
	DefaultLanguage     = "English"
)

const systemPrompt = `You are a travel advisor. The traveller has already received candidate itineraries.
Add practical advice that the itineraries do not cover, in {{.Language}}, using Markdown with these sections:
- Climate and what to wear
- Getting around locally
- Etiquette and customs
- Souvenirs worth buying
- Travel insurance and safety
Keep it concise and specific to the destination.`

const humanPrompt = `Destination: {{.Request.Destination}} (from {{.Request.Origin}}), {{.Request.DurationLabel}}, purpose: {{.Request.Purpose}}.

Candidate itineraries:
{{.Plans}}`

var (
	systemTmpl = template.Must(template.New("system").Parse(systemPrompt))
	humanTmpl  = template.Must(template.New("human").Parse(humanPrompt))
)

// Advisor asks the language model for follow-up advice.
type Advisor struct {
	completer    ports.Completer
	timeout      time.Duration
	maxPlanChars int
	language     string
	logger       *slog.Logger
}

// Option configures the Advisor.
type Option func(*Advisor)

// WithTimeout bounds the model call.
func WithTimeout(d time.Duration) Option {
	return func(a *Advisor) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithMaxPlanChars bounds how much of the itineraries is quoted back in the prompt.
func WithMaxPlanChars(n int) Option {
	return func(a *Advisor) {
		a.maxPlanChars = n
	}
}

// WithLanguage sets the output language.
func WithLanguage(lang string) Option {
	return func(a *Advisor) {
		if lang != "" {
			a.language = lang
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Advisor) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Advisor.
func New(c ports.Completer, opts ...Option) *Advisor {
	a := &Advisor{
		completer:    c,
		timeout:      DefaultTimeout,
		maxPlanChars: DefaultMaxPlanChars,
		language:     DefaultLanguage,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Prompt renders the messages sent for req and candidates.
func (a *Advisor) Prompt(req domain.TripRequest, candidates []string) (ports.Prompt, error) {
	numbered := make([]string, 0, len(candidates))
	for i, c := range candidates {
		numbered = append(numbered, fmt.Sprintf("--- Plan %d ---\n%s", i+1, c))
	}
	data := struct {
		Language string
		Request  domain.TripRequest
		Plans    string
	}{
		Language: a.language,
		Request:  req,
		Plans:    knowledge.Truncate(strings.Join(numbered, "\n\n"), a.maxPlanChars),
	}

	var system, human bytes.Buffer
	if err := systemTmpl.Execute(&system, data); err != nil {
		return ports.Prompt{}, fmt.Errorf("render system prompt: %w", err)
	}
	if err := humanTmpl.Execute(&human, data); err != nil {
		return ports.Prompt{}, fmt.Errorf("render advice prompt: %w", err)
	}
	return ports.Prompt{System: system.String(), Human: human.String()}, nil
}

// Advise returns the advice text. Failures wrap domain.ErrGeneration; the caller decides whether they are fatal.
func (a *Advisor) Advise(ctx context.Context, req domain.TripRequest, candidates []string) (string, error) {
	prompt, err := a.Prompt(req, candidates)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	out, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: model returned no advice", domain.ErrGeneration)
	}
	a.logger.Debug("advice generated", "chars", len(out))
	return out, nil
}
