package search

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// Google queries the Custom Search JSON API.
type Google struct {
	*client
	apiKey   string
	engineID string
	suffix   string
}

// NewGoogle creates a Custom Search provider for the engine cx.
func NewGoogle(apiKey, cx string, opts ...Option) *Google {
	return &Google{
		client:   newClient("https://www.googleapis.com", opts),
		apiKey:   apiKey,
		engineID: cx,
		suffix:   DefaultQuerySuffix,
	}
}

func (g *Google) Name() string { return "google" }

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Search implements ports.SearchProvider.
func (g *Google) Search(ctx context.Context, query string) (string, error) {
	if g.apiKey == "" || g.engineID == "" {
		return "", unavailable(g.Name(), errors.New("missing api key or engine id"))
	}

	q := url.Values{}
	q.Set("key", g.apiKey)
	q.Set("cx", g.engineID)
	q.Set("q", strings.TrimSpace(query+" "+g.suffix))
	q.Set("num", "5")

	var resp googleResponse
	if err := g.getJSON(ctx, g.Name(), "/customsearch/v1?"+q.Encode(), &resp); err != nil {
		return "", err
	}

	snippets := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		snippets = append(snippets, item.Snippet)
	}
	text := joinSnippets(snippets)
	if text == "" {
		return "", unavailable(g.Name(), errors.New("no results"))
	}
	return text, nil
}
