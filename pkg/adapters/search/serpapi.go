package search

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// DefaultQuerySuffix is appended to the destination for web search engines.
const DefaultQuerySuffix = "travel guide"

// maxResults caps the organic results kept from a web search.
const maxResults = 5

// SerpAPI queries Google through serpapi.com.
type SerpAPI struct {
	*client
	apiKey string
	suffix string
}

// NewSerpAPI creates a SerpAPI provider.
func NewSerpAPI(apiKey string, opts ...Option) *SerpAPI {
	return &SerpAPI{
		client: newClient("https://serpapi.com", opts),
		apiKey: apiKey,
		suffix: DefaultQuerySuffix,
	}
}

func (s *SerpAPI) Name() string { return "serpapi" }

type serpResponse struct {
	Error     string `json:"error"`
	AnswerBox struct {
		Snippet string `json:"snippet"`
		Answer  string `json:"answer"`
	} `json:"answer_box"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

// Search implements ports.SearchProvider.
func (s *SerpAPI) Search(ctx context.Context, query string) (string, error) {
	if s.apiKey == "" {
		return "", unavailable(s.Name(), errors.New("missing api key"))
	}

	q := url.Values{}
	q.Set("engine", "google")
	q.Set("q", strings.TrimSpace(query+" "+s.suffix))
	q.Set("num", "10")
	q.Set("api_key", s.apiKey)

	var resp serpResponse
	if err := s.getJSON(ctx, s.Name(), "/search.json?"+q.Encode(), &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", unavailable(s.Name(), errors.New(resp.Error))
	}

	snippets := []string{resp.AnswerBox.Snippet, resp.AnswerBox.Answer}
	for i, r := range resp.OrganicResults {
		if i == maxResults {
			break
		}
		snippets = append(snippets, r.Snippet)
	}

	text := joinSnippets(snippets)
	if text == "" {
		return "", unavailable(s.Name(), errors.New("no results"))
	}
	return text, nil
}
