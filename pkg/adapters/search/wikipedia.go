package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Wikipedia reads the lead summary of the article named after the query.
type Wikipedia struct {
	*client
}

// NewWikipedia creates a provider for the given language edition ("en", "ja"...).
func NewWikipedia(lang string, opts ...Option) *Wikipedia {
	if lang == "" {
		lang = "en"
	}
	return &Wikipedia{client: newClient(fmt.Sprintf("https://%s.wikipedia.org", lang), opts)}
}

func (w *Wikipedia) Name() string { return "wikipedia" }

type wikiSummary struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

// Search implements ports.SearchProvider.
func (w *Wikipedia) Search(ctx context.Context, query string) (string, error) {
	title := strings.ReplaceAll(strings.TrimSpace(query), " ", "_")
	if title == "" {
		return "", unavailable(w.Name(), errors.New("empty query"))
	}

	var summary wikiSummary
	if err := w.getJSON(ctx, w.Name(), "/api/rest_v1/page/summary/"+url.PathEscape(title), &summary); err != nil {
		return "", err
	}

	// A disambiguation page lists other articles rather than describing the place.
	if summary.Type == "disambiguation" {
		return "", unavailable(w.Name(), fmt.Errorf("%q is ambiguous", query))
	}
	extract := strings.TrimSpace(summary.Extract)
	if extract == "" {
		return "", unavailable(w.Name(), errors.New("empty extract"))
	}
	return extract, nil
}
