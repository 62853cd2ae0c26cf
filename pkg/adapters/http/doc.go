/*
Package http serves the travel planner over HTTP.

Routes:

	GET  /                      trip form
	POST /plan                  run the workflow, render the plans
	POST /new                   forget the session context, back to the form
	GET  /workflow              workflow diagram (mermaid)
	POST /api/v1/plan           JSON API, validated against api/openapi.yaml
	GET  /api/v1/destinations   knowledge base entries
	DELETE /api/v1/sessions/{id}
	GET  /openapi.yaml, /health, /info, /metrics

Browser sessions are tracked with the tabi_session cookie.
*/
package http
