// Package planner turns a trip request and its context bundle into candidate itineraries.
package planner

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/aretw0/tabi/internal/logging"
	"github.com/aretw0/tabi/pkg/domain"
	"github.com/aretw0/tabi/pkg/ports"
)

// Delimiter precedes every candidate in the model output.
const Delimiter = "[[PLAN]]"

// Defaults.
const (
	DefaultCandidates = 3
	DefaultTimeout    = 60 * time.Second
	DefaultLanguage   = "English"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

// delimiterLine also accepts numbered forms such as "[[PLAN 2]]".
var delimiterLine = regexp.MustCompile(`^\[\[\s*PLAN(?:\s*\d+)?\s*\]\]$`)

// Generator asks the language model for candidate itineraries.
type Generator struct {
	completer  ports.Completer
	candidates int
	language   string
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures the Generator.
type Option func(*Generator)

// WithCandidates sets how many itineraries are requested.
func WithCandidates(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.candidates = n
		}
	}
}

// WithLanguage sets the output language named in the prompt.
func WithLanguage(lang string) Option {
	return func(g *Generator) {
		if lang != "" {
			g.language = lang
		}
	}
}

// WithTimeout bounds the model call.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a Generator.
func New(c ports.Completer, opts ...Option) *Generator {
	g := &Generator{
		completer:  c,
		candidates: DefaultCandidates,
		language:   DefaultLanguage,
		timeout:    DefaultTimeout,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type promptData struct {
	Candidates int
	Language   string
	Delimiter  string
	Request    domain.TripRequest
	Degraded   bool
	Source     domain.Source
	Context    string
}

// Prompt renders the messages sent for req and bundle.
// A nil, degraded or empty bundle produces the fallback instructions.
func (g *Generator) Prompt(req domain.TripRequest, bundle *domain.ContextBundle) (ports.Prompt, error) {
	data := promptData{
		Candidates: g.candidates,
		Language:   g.language,
		Delimiter:  Delimiter,
		Request:    req,
		Degraded:   true,
		Source:     domain.SourceNone,
	}
	if bundle != nil && !bundle.Degraded && bundle.Source != domain.SourceNone && strings.TrimSpace(bundle.Text) != "" {
		data.Degraded = false
		data.Source = bundle.Source
		data.Context = bundle.Text
	}

	var system, human bytes.Buffer
	if err := prompts.ExecuteTemplate(&system, "system.tmpl", data); err != nil {
		return ports.Prompt{}, fmt.Errorf("render system prompt: %w", err)
	}
	if err := prompts.ExecuteTemplate(&human, "plan.tmpl", data); err != nil {
		return ports.Prompt{}, fmt.Errorf("render plan prompt: %w", err)
	}
	return ports.Prompt{System: strings.TrimSpace(system.String()), Human: strings.TrimSpace(human.String())}, nil
}

// Generate returns the candidate itineraries in model order.
// Every failure (model error, timeout, empty output) wraps domain.ErrGeneration. There are no retries.
func (g *Generator) Generate(ctx context.Context, req domain.TripRequest, bundle *domain.ContextBundle) ([]string, error) {
	prompt, err := g.Prompt(req, bundle)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	out, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	candidates := Split(out)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: model returned no plan", domain.ErrGeneration)
	}
	if len(candidates) != g.candidates {
		g.logger.Debug("candidate count differs from request", "want", g.candidates, "got", len(candidates))
	}
	g.logger.Debug("plans generated", "candidates", len(candidates), "elapsed", time.Since(start))
	return candidates, nil
}

// Split cuts model output into candidates on Delimiter lines.
// Text before the first delimiter is a preamble and is dropped; empty segments are dropped.
// Output without any delimiter is a single candidate.
func Split(out string) []string {
	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")

	var (
		segments []string
		current  []string
		found    bool
	)
	flush := func() {
		if s := strings.TrimSpace(strings.Join(current, "\n")); s != "" {
			segments = append(segments, s)
		}
		current = current[:0]
	}
	for _, line := range lines {
		if delimiterLine.MatchString(strings.TrimSpace(line)) {
			if found {
				flush()
			}
			// The preamble is discarded on the first delimiter.
			current = current[:0]
			found = true
			continue
		}
		current = append(current, line)
	}

	if !found {
		if s := strings.TrimSpace(out); s != "" {
			return []string{s}
		}
		return nil
	}
	flush()
	return segments
}
