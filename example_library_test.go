package tabi_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aretw0/tabi"
	"github.com/aretw0/tabi/pkg/adapters/memory"
	"github.com/aretw0/tabi/pkg/config"
	"github.com/aretw0/tabi/pkg/domain"
	"github.com/aretw0/tabi/pkg/ports"
)

type scriptedModel struct{}

func (scriptedModel) Complete(ctx context.Context, p ports.Prompt) (string, error) {
	if strings.Contains(strings.ToLower(p.System), "advisor") {
		return "Temples open early; go before the tour buses.", nil
	}
	return "[[PLAN]]\nDay 1: Fushimi Inari.\n[[PLAN]]\nDay 1: Arashiyama.", nil
}

// ExampleNew_library demonstrates how to use tabi purely as a Go library,
// injecting an in-memory knowledge base and language model instead of files and API keys.
func ExampleNew_library() {
	kb := memory.NewKnowledgeBase(domain.Destination{
		ID:   "kyoto",
		Name: "Kyoto",
		Body: "Kyoto was the imperial capital for over a thousand years.",
	})

	cfg := config.Default()
	cfg.Search.Providers = nil
	cfg.Planner.Candidates = 2

	app, err := tabi.New(cfg, tabi.WithKnowledgeBase(kb), tabi.WithCompleter(scriptedModel{}))
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	state, err := app.Plan(context.Background(), "session-mem", domain.TripRequest{
		Origin:      "Tokyo",
		Destination: "kyoto",
		Duration:    1,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(state.History)
	fmt.Println(state.Bundle.Source)
	for _, c := range state.Plan.Candidates {
		fmt.Println(c)
	}
	fmt.Println(*state.Plan.Advice)
	// Output:
	// [start researching planning advising done]
	// knowledge_base
	// Day 1: Fushimi Inari.
	// Day 1: Arashiyama.
	// Temples open early; go before the tour buses.
}
