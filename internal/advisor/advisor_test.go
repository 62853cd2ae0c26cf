package advisor_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/tabi/internal/advisor"
	"github.com/aretw0/tabi/internal/testutils"
	"github.com/aretw0/tabi/pkg/domain"
	"github.com/aretw0/tabi/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var req = domain.TripRequest{Origin: "Osaka", Destination: "Sapporo", Duration: 4, Purpose: "food"}

func TestPrompt(t *testing.T) {
	a := advisor.New(nil, advisor.WithLanguage("Japanese"))

	p, err := a.Prompt(req, []string{"Ramen alley.", "Snow festival."})
	require.NoError(t, err)
	assert.Contains(t, p.System, "travel advisor")
	assert.Contains(t, p.System, "in Japanese")
	assert.Contains(t, p.System, "Travel insurance")
	assert.Contains(t, p.Human, "Destination: Sapporo (from Osaka), 3 nights / 4 days, purpose: food.")
	assert.Contains(t, p.Human, "--- Plan 1 ---\nRamen alley.")
	assert.Contains(t, p.Human, "--- Plan 2 ---\nSnow festival.")
}

func TestPrompt_TruncatesPlans(t *testing.T) {
	a := advisor.New(nil, advisor.WithMaxPlanChars(30))

	p, err := a.Prompt(req, []string{strings.Repeat("x", 500)})
	require.NoError(t, err)
	assert.NotContains(t, p.Human, strings.Repeat("x", 40))
}

func TestAdvise(t *testing.T) {
	fc := &testutils.FakeCompleter{Advice: "  Bring boots.  "}

	out, err := advisor.New(fc).Advise(context.Background(), req, []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, "Bring boots.", out)
}

func TestAdvise_Failures(t *testing.T) {
	_, err := advisor.New(&testutils.FakeCompleter{AdviceErr: errors.New("quota")}).Advise(context.Background(), req, []string{"A"})
	assert.ErrorIs(t, err, domain.ErrGeneration)

	_, err = advisor.New(&testutils.FakeCompleter{Advice: "\n"}).Advise(context.Background(), req, []string{"A"})
	assert.ErrorIs(t, err, domain.ErrGeneration)

	slow := testutils.CompleteFunc(func(ctx context.Context, _ ports.Prompt) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	_, err = advisor.New(slow, advisor.WithTimeout(10*time.Millisecond)).Advise(context.Background(), req, []string{"A"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
