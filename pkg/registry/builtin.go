package registry

import (
	"fmt"
	"net/http"

	"github.com/aretw0/tabi/pkg/adapters/search"
	"github.com/aretw0/tabi/pkg/config"
	"github.com/aretw0/tabi/pkg/ports"
)

// NewDefault returns a registry holding the built-in providers.
func NewDefault() *Registry {
	r := NewRegistry()
	r.Register(config.ProviderWikipedia, wikipedia)
	r.Register(config.ProviderSerpAPI, serpAPI)
	r.Register(config.ProviderGoogle, google)
	r.Register(config.ProviderNominatim, nominatim)
	return r
}

func wikipedia(cfg config.SearchConfig, client *http.Client) (ports.SearchProvider, error) {
	if !cfg.Wikipedia.Enabled {
		return nil, fmt.Errorf("%w: disabled", ErrSkip)
	}
	return search.NewWikipedia(cfg.Wikipedia.Lang,
		search.WithHTTPClient(client), search.WithBaseURL(cfg.Wikipedia.BaseURL)), nil
}

func serpAPI(cfg config.SearchConfig, client *http.Client) (ports.SearchProvider, error) {
	if cfg.SerpAPI.APIKey == "" {
		return nil, fmt.Errorf("%w: no api key", ErrSkip)
	}
	return search.NewSerpAPI(cfg.SerpAPI.APIKey,
		search.WithHTTPClient(client), search.WithBaseURL(cfg.SerpAPI.BaseURL)), nil
}

func google(cfg config.SearchConfig, client *http.Client) (ports.SearchProvider, error) {
	if cfg.Google.APIKey == "" || cfg.Google.CSEID == "" {
		return nil, fmt.Errorf("%w: no api key or engine id", ErrSkip)
	}
	return search.NewGoogle(cfg.Google.APIKey, cfg.Google.CSEID,
		search.WithHTTPClient(client), search.WithBaseURL(cfg.Google.BaseURL)), nil
}

func nominatim(cfg config.SearchConfig, client *http.Client) (ports.SearchProvider, error) {
	if !cfg.Nominatim.Enabled {
		return nil, fmt.Errorf("%w: disabled", ErrSkip)
	}
	return search.NewNominatim(search.WithHTTPClient(client),
		search.WithBaseURL(cfg.Nominatim.BaseURL), search.WithUserAgent(cfg.Nominatim.UserAgent)), nil
}
