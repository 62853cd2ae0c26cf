package knowledge

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/tabi/pkg/domain"
	"github.com/aretw0/tabi/pkg/ports"
)

// suffixes are stripped (once) from a name before comparison.
var suffixes = []string{
	" prefecture", " city", "-shi", " shi", "-ken", "市", "県", "府", "都",
}

// minPartial is the shortest query allowed to match as the start of a longer label ("Kanaza").
const minPartial = 5

// Normalize folds a place name into its comparison key.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	for _, suffix := range suffixes {
		trimmed := strings.TrimSuffix(s, suffix)
		// Keep names like 京都 intact.
		if trimmed != s && utf8.RuneCountInString(strings.TrimSpace(trimmed)) >= 2 {
			s = trimmed
			break
		}
	}

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Match finds the destination a free-text query refers to.
// It tries IDs, then names, then aliases. After that a label matches when it equals a run of
// whole words of the query ("Kyoto and Nara"), or when the query is a long enough prefix of it.
// A label is never matched inside a word, so "Tokyo" does not find "Kyo".
func Match(dests []domain.Destination, query string) (domain.Destination, bool) {
	q := Normalize(query)
	if q == "" {
		return domain.Destination{}, false
	}

	exact := []func(domain.Destination) []string{
		func(d domain.Destination) []string { return []string{d.ID} },
		func(d domain.Destination) []string { return []string{d.Name} },
		func(d domain.Destination) []string { return d.Aliases },
	}
	for _, labels := range exact {
		for _, d := range dests {
			for _, label := range labels(d) {
				if Normalize(label) == q {
					return d, true
				}
			}
		}
	}

	phrases := wordRuns(query)

	// Prefer the longest label so "Osaka Castle" does not lose to a shorter alias.
	var (
		best    domain.Destination
		bestLen int
	)
	for _, d := range dests {
		for _, label := range d.Names() {
			n := Normalize(label)
			size := utf8.RuneCountInString(n)
			if size == 0 || size <= bestLen {
				continue
			}
			if phrases[n] || (utf8.RuneCountInString(q) >= minPartial && strings.HasPrefix(n, q)) {
				best, bestLen = d, size
			}
		}
	}
	return best, bestLen > 0
}

// wordRuns returns the normalized form of every run of consecutive words in s.
func wordRuns(s string) map[string]bool {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	runs := make(map[string]bool)
	for i := range words {
		for j := i + 1; j <= len(words); j++ {
			if n := Normalize(strings.Join(words[i:j], " ")); n != "" {
				runs[n] = true
			}
		}
	}
	return runs
}

// Find resolves query against kb.
// Returns domain.ErrDestinationNotFound when nothing matches.
func Find(ctx context.Context, kb ports.KnowledgeBase, query string) (domain.Destination, error) {
	dests, err := kb.List(ctx)
	if err != nil {
		return domain.Destination{}, fmt.Errorf("list destinations: %w", err)
	}
	d, ok := Match(dests, query)
	if !ok {
		return domain.Destination{}, fmt.Errorf("%q: %w", query, domain.ErrDestinationNotFound)
	}
	// List may return summaries; Get returns the full document.
	if d.Body == "" {
		return kb.Get(ctx, d.ID)
	}
	return d, nil
}
