package search_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/tabi/pkg/adapters/search"
	"github.com/aretw0/tabi/pkg/domain"
	"github.com/aretw0/tabi/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks.
var (
	_ ports.SearchProvider = (*search.Wikipedia)(nil)
	_ ports.SearchProvider = (*search.SerpAPI)(nil)
	_ ports.SearchProvider = (*search.Google)(nil)
	_ ports.SearchProvider = (*search.Nominatim)(nil)
)

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestWikipedia(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.EscapedPath() {
		case "/api/rest_v1/page/summary/Sapporo":
			_, _ = w.Write([]byte(`{"type":"standard","title":"Sapporo","extract":"Sapporo is the capital of Hokkaido."}`))
		case "/api/rest_v1/page/summary/Mercury":
			_, _ = w.Write([]byte(`{"type":"disambiguation","extract":"Mercury may refer to:"}`))
		default:
			http.NotFound(w, r)
		}
	})
	wiki := search.NewWikipedia("en", search.WithBaseURL(srv.URL))
	ctx := context.Background()

	text, err := wiki.Search(ctx, "Sapporo")
	require.NoError(t, err)
	assert.Equal(t, "Sapporo is the capital of Hokkaido.", text)

	_, err = wiki.Search(ctx, "Mercury")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)

	_, err = wiki.Search(ctx, "Atlantis")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "status 404")

	_, err = wiki.Search(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestWikipedia_EscapesTitle(t *testing.T) {
	var got string
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Path
		_, _ = w.Write([]byte(`{"extract":"ok"}`))
	})
	wiki := search.NewWikipedia("ja", search.WithBaseURL(srv.URL))

	_, err := wiki.Search(context.Background(), "New York")
	require.NoError(t, err)
	assert.Equal(t, "/api/rest_v1/page/summary/New_York", got)
}

func TestSerpAPI(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "google", r.URL.Query().Get("engine"))
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		assert.Equal(t, "Hakodate travel guide", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{
			"answer_box": {"snippet": "Hakodate is a port city."},
			"organic_results": [
				{"snippet": "Morning market  and\nnight view."},
				{"snippet": "Morning market and night view."},
				{"snippet": ""}
			]
		}`))
	})
	serp := search.NewSerpAPI("secret", search.WithBaseURL(srv.URL))

	text, err := serp.Search(context.Background(), "Hakodate")
	require.NoError(t, err)
	assert.Equal(t, "- Hakodate is a port city.\n- Morning market and night view.", text)
}

func TestSerpAPI_Failures(t *testing.T) {
	ctx := context.Background()

	_, err := search.NewSerpAPI("").Search(ctx, "Hakodate")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable, "missing key fails without a request")

	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Invalid API key."}`))
	})
	_, err = search.NewSerpAPI("bad", search.WithBaseURL(srv.URL)).Search(ctx, "Hakodate")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "Invalid API key")

	empty := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"organic_results":[]}`))
	})
	_, err = search.NewSerpAPI("k", search.WithBaseURL(empty.URL)).Search(ctx, "Hakodate")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestGoogle(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customsearch/v1", r.URL.Path)
		assert.Equal(t, "cx-1", r.URL.Query().Get("cx"))
		_, _ = w.Write([]byte(`{"items":[{"snippet":"Nikko has the Toshogu shrine."}]}`))
	})
	g := search.NewGoogle("key", "cx-1", search.WithBaseURL(srv.URL))

	text, err := g.Search(context.Background(), "Nikko")
	require.NoError(t, err)
	assert.Equal(t, "- Nikko has the Toshogu shrine.", text)

	_, err = search.NewGoogle("key", "").Search(context.Background(), "Nikko")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestNominatim(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tabi-test", r.Header.Get("User-Agent"))
		if r.URL.Query().Get("q") == "Nowhere" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"display_name":"Hakone, Kanagawa, Japan","lat":"35.23","lon":"139.10","class":"boundary","type":"administrative"}]`))
	})
	n := search.NewNominatim(
		search.WithBaseURL(srv.URL),
		search.WithUserAgent("tabi-test"),
		search.WithRateLimit(0),
	)
	ctx := context.Background()

	text, err := n.Search(ctx, "Hakone")
	require.NoError(t, err)
	assert.Equal(t, "Hakone, Kanagawa, Japan (boundary/administrative), located at 35.23, 139.10.", text)

	_, err = n.Search(ctx, "Nowhere")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestNominatim_RateLimitHonorsContext(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"display_name":"Hakone","lat":"1","lon":"2","type":"town"}]`))
	})
	n := search.NewNominatim(search.WithBaseURL(srv.URL), search.WithRateLimit(time.Hour))

	_, err := n.Search(context.Background(), "Hakone")
	require.NoError(t, err, "first request uses the burst token")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = n.Search(ctx, "Hakone")
	assert.Error(t, err)
}

func TestClient_BadJSON(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})
	_, err := search.NewWikipedia("en", search.WithBaseURL(srv.URL)).Search(context.Background(), "Kobe")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestClient_Timeout(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	wiki := search.NewWikipedia("en",
		search.WithBaseURL(srv.URL),
		search.WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}),
	)
	_, err := wiki.Search(context.Background(), "Kobe")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}
