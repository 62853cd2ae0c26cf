package knowledge_test

import (
	"context"
	"path/filepath"
	"testing"

	loamAdapter "github.com/aretw0/tabi/pkg/adapters/loam"
	"github.com/aretw0/tabi/pkg/adapters/memory"
	"github.com/aretw0/tabi/pkg/domain"
	"github.com/aretw0/tabi/pkg/knowledge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtures = []domain.Destination{
	{ID: "kanazawa", Name: "Kanazawa", Aliases: []string{"金沢"}, Body: "Kenroku-en."},
	{ID: "kyoto", Name: "Kyoto", Aliases: []string{"京都", "Kyoto City", "Kyo"}, Body: "Temples."},
	{ID: "naha", Name: "Naha", Aliases: []string{"Okinawa", "沖縄"}, Body: "Beaches."},
	{ID: "osaka", Name: "Osaka", Aliases: []string{"大阪"}, Body: "Food."},
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Kyoto", "kyoto"},
		{"  KYOTO ", "kyoto"},
		{"Kyoto City", "kyoto"},
		{"Sapporo-shi", "sapporo"},
		{"京都", "京都"},
		{"京都市", "京都"},
		{"京都府", "京都"},
		{"東京都", "東京"},
		{"St. Moritz", "stmoritz"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, knowledge.Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		wantID string
		wantOK bool
	}{
		{"ID", "kyoto", "kyoto", true},
		{"Name with suffix", "Osaka City", "osaka", true},
		{"Alias", "沖縄", "naha", true},
		{"Alias case", "okinawa", "naha", true},
		{"Contains name", "Kyoto and surroundings", "kyoto", true},
		{"Contains multi-word alias", "Kyoto City tour", "kyoto", true},
		{"Partial name", "Kanaza", "kanazawa", true},
		{"Too short", "Ky", "", false},
		{"Short prefix", "Oki", "", false},
		{"Label inside a word", "Tokyo", "", false},
		{"Label starts a longer word", "Kyotango", "", false},
		{"Label ends a longer word", "Higashiosaka", "", false},
		{"Miss", "Lisbon", "", false},
		{"Blank", "  ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := knowledge.Match(fixtures, tt.query)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestFind(t *testing.T) {
	kb := memory.NewKnowledgeBase(fixtures...)
	ctx := context.Background()

	d, err := knowledge.Find(ctx, kb, "京都市")
	require.NoError(t, err)
	assert.Equal(t, "kyoto", d.ID)
	assert.Equal(t, "Temples.", d.Body)

	_, err = knowledge.Find(ctx, kb, "Reykjavik")
	assert.ErrorIs(t, err, domain.ErrDestinationNotFound)
}

// The shipped guides are matched through loam exactly as the app reads them.
func TestMatch_ShippedKnowledge(t *testing.T) {
	kb, err := loamAdapter.Open(filepath.Join("..", "..", "knowledge"))
	require.NoError(t, err)
	dests, err := kb.List(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, dests)

	tests := []struct {
		query  string
		wantID string
	}{
		{"Kyoto", "kyoto"},
		{"京都市", "kyoto"},
		{"Osaka City", "osaka"},
		{"Sapporo-shi", "sapporo"},
		{"那覇", "naha"},
		{"Okinawa", "naha"},
		{"金沢", "kanazawa"},
		{"Tokyo", ""},
		{"東京", ""},
		{"Kyotango", ""},
		{"Higashiosaka", ""},
		{"Nagoya", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, ok := knowledge.Match(dests, tt.query)
			assert.Equal(t, tt.wantID != "", ok)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}
