package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/tabi/internal/logging"
	"github.com/aretw0/tabi/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Resource URIs.
const (
	DestinationsURI = "tabi://destinations"
	WorkflowURI     = "tabi://workflow"
)

// Service is the workflow the MCP tools drive.
type Service interface {
	Plan(ctx context.Context, sessionID string, req domain.TripRequest) (*domain.State, error)
	Destinations(ctx context.Context) ([]domain.Destination, error)
	Reset(ctx context.Context, sessionID string) error
}

// PlanTripArgs are the arguments of the plan_trip tool.
type PlanTripArgs struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Budget      float64 `json:"budget"`
	Duration    int     `json:"duration"`
	Purpose     string  `json:"purpose"`
	Notes       string  `json:"notes"`
	SessionID   string  `json:"session_id"`
}

// Server exposes the travel planner as an MCP server.
type Server struct {
	svc       Service
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(svc Service, version string, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		logger: logging.NewNop(),
		mcpServer: server.NewMCPServer("tabi-mcp", version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. to mount it on another transport.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is canceled.
// baseURL is the externally reachable address advertised to clients.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr, "base_url", baseURL)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: plan_trip
	planTool := mcp.NewTool("plan_trip",
		mcp.WithDescription("Generate candidate travel itineraries and practical advice for a trip."),
		mcp.WithString("origin", mcp.Required(), mcp.Description("Where the traveller starts from")),
		mcp.WithString("destination", mcp.Required(), mcp.Description("Place to visit, e.g. Kyoto")),
		mcp.WithNumber("duration", mcp.Required(), mcp.Description("Length of the stay in days (1-60)")),
		mcp.WithNumber("budget", mcp.Description("Total budget in yen; 0 or omitted means not specified")),
		mcp.WithString("purpose", mcp.Description("Comma-separated purposes, e.g. \"food, hot springs\" (default: sightseeing)")),
		mcp.WithString("notes", mcp.Description("Free-form additional requests")),
		mcp.WithString("session_id", mcp.Description("Reuse context gathered earlier under this ID")),
		mcp.WithOutputSchema[domain.Result](),
	)
	s.mcpServer.AddTool(planTool, mcp.NewStructuredToolHandler(s.handlePlanTrip))

	// TOOL: reset_session
	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Forget the destination context cached for a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to reset")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID := request.GetString("session_id", "")
		if sessionID == "" {
			return mcp.NewToolResultError("session_id is required"), nil
		}
		if err := s.svc.Reset(ctx, sessionID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
		}
		return mcp.NewToolResultText("session reset"), nil
	})
}

// handlePlanTrip runs the workflow. A pipeline failure is a normal result with stage "failed";
// only an invalid request is reported as a tool error.
func (s *Server) handlePlanTrip(ctx context.Context, request mcp.CallToolRequest, args PlanTripArgs) (domain.Result, error) {
	state, err := s.svc.Plan(ctx, args.SessionID, domain.TripRequest{
		Origin:      args.Origin,
		Destination: args.Destination,
		Budget:      args.Budget,
		Duration:    args.Duration,
		Purpose:     args.Purpose,
		Notes:       args.Notes,
	})
	if err != nil {
		s.logger.Warn("MCP plan_trip: request rejected", "err", err)
		return domain.Result{}, fmt.Errorf("plan_trip: %w", err)
	}
	return domain.NewResult(state), nil
}

func (s *Server) registerResources() {
	// EXPOSE: tabi://destinations
	s.mcpServer.AddResource(mcp.NewResource(DestinationsURI, "Knowledge base destinations",
		mcp.WithResourceDescription("Destinations with a local travel guide; planning them needs no web search."),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dests, err := s.svc.Destinations(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list destinations: %w", err)
		}
		type entry struct {
			ID      string   `json:"id"`
			Name    string   `json:"name"`
			Region  string   `json:"region,omitempty"`
			Aliases []string `json:"aliases,omitempty"`
		}
		out := make([]entry, 0, len(dests))
		for _, d := range dests {
			out = append(out, entry{ID: d.ID, Name: d.Title(), Region: d.Region, Aliases: d.Aliases})
		}
		jsonBytes, err := json.Marshal(out)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      DestinationsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	// EXPOSE: tabi://workflow
	s.mcpServer.AddResource(mcp.NewResource(WorkflowURI, "Workflow stages",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		edges := make([]map[string]domain.Stage, 0)
		for _, e := range domain.Edges() {
			edges = append(edges, map[string]domain.Stage{"from": e[0], "to": e[1]})
		}
		jsonBytes, _ := json.Marshal(edges)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      WorkflowURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
