// Package mcp exposes the travel planner to MCP clients.
//
// Tools: plan_trip, reset_session. Resources: tabi://destinations, tabi://workflow.
package mcp
