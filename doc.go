/*
Package tabi is a travel-plan assistant.

A traveller describes a trip (origin, destination, budget, length and purpose). Tabi gathers
background on the destination, first from a local knowledge base of markdown guides and then
from web search providers, and asks a language model for several candidate itineraries plus
practical advice.

# Workflow

Every request runs one sequential pipeline:

	Start -> Researching -> Planning -> Advising -> Done
	                 \            \           \
	                  +------------+-----------+--> Failed

Researching never fails on provider errors: when no source answers the plan is still
written, marked as degraded, from the model's general knowledge. Within a browser or CLI
session the gathered context is cached per destination, so a second request for the same
place goes straight from Start to Planning.

# Usage

	cfg, err := config.Load("tabi.yaml")
	if err != nil {
		log.Fatal(err)
	}
	app, err := tabi.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	state, err := app.Plan(ctx, "", domain.TripRequest{
		Origin:      "Tokyo",
		Destination: "Kyoto",
		Budget:      50000,
		Duration:    3,
		Purpose:     "sightseeing",
	})

The returned state is always terminal. Check state.Stage (or state.Failure) rather than
the error, which is only set for an invalid request.

# Presentation

The same App backs the web form and JSON API (pkg/adapters/http), the MCP server
(pkg/adapters/mcp) and the command line (cmd/tabi).
*/
package tabi
