package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// NominatimInterval is the public instance's usage policy: one request per second.
const NominatimInterval = time.Second

// Nominatim resolves the destination on OpenStreetMap to confirm it exists and locate it.
type Nominatim struct {
	*client
}

// NewNominatim creates a Nominatim provider. The public instance requires a descriptive User-Agent.
func NewNominatim(opts ...Option) *Nominatim {
	opts = append([]Option{WithRateLimit(NominatimInterval)}, opts...)
	return &Nominatim{client: newClient("https://nominatim.openstreetmap.org", opts)}
}

func (n *Nominatim) Name() string { return "nominatim" }

type place struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Type        string `json:"type"`
	Class       string `json:"class"`
}

// Search implements ports.SearchProvider.
func (n *Nominatim) Search(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", strings.TrimSpace(query))

	var places []place
	if err := n.getJSON(ctx, n.Name(), "/search?"+q.Encode(), &places); err != nil {
		return "", err
	}
	if len(places) == 0 || places[0].DisplayName == "" {
		return "", unavailable(n.Name(), errors.New("no match"))
	}

	p := places[0]
	kind := p.Type
	if p.Class != "" && p.Class != p.Type {
		kind = p.Class + "/" + p.Type
	}
	return fmt.Sprintf("%s (%s), located at %s, %s.", p.DisplayName, kind, p.Lat, p.Lon), nil
}
