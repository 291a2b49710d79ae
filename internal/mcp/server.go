// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the FlowPulse stream as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/flowpulse/internal/core"
	"github.com/valter-silva-au/flowpulse/internal/observability"
	"github.com/valter-silva-au/flowpulse/pkg/models"
)

// Server wraps the stream service and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	service     *core.StreamService
	alertEngine observability.AlertEngine
}

// NewServer creates a new MCP server backed by service. alertEngine may be
// nil, in which case get_alerts reports an error result.
func NewServer(service *core.StreamService, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		service:     service,
		alertEngine: alertEngine,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "flowpulse", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type eventOutput struct {
	ID        string  `json:"id"`
	Service   string  `json:"service"`
	LatencyMs float64 `json:"latencyMs"`
	Severity  string  `json:"severity"`
	TS        string  `json:"ts"`
}

type synthesizeEventInput struct {
	Seed   *int64 `json:"seed,omitempty" jsonschema:"epoch milliseconds to derive the event from. Defaults to now."`
	Append bool   `json:"append,omitempty" jsonschema:"prepend the event to the stored history"`
}

type synthesizeEventOutput struct {
	Event    eventOutput `json:"event"`
	Appended bool        `json:"appended"`
}

type summarizeEventsInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"severity filter (all, info, warn, error). Defaults to the stream's current filter."`
}

type summaryOutput struct {
	Filter     string `json:"filter"`
	Count      int    `json:"count"`
	AvgLatency int    `json:"avgLatency"`
	Info       int    `json:"info"`
	Warn       int    `json:"warn"`
	Error      int    `json:"error"`
}

type listEventsInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"severity filter (all, info, warn, error). Defaults to the stream's current filter."`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of events to return, newest first. 0 returns all."`
}

type listEventsOutput struct {
	Events []eventOutput `json:"events"`
	Count  int           `json:"count"`
}

type importEventsInput struct {
	JSON string `json:"json" jsonschema:"required,a JSON array of events to replace the stored history with"`
}

type importEventsOutput struct {
	Imported int    `json:"imported"`
	Message  string `json:"message"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "synthesize_event",
		Description: "Synthesize one latency event from a seed. The same seed always yields the same event.",
	}, s.handleSynthesizeEvent)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "summarize_events",
		Description: "Summarize the stored events: count, rounded average latency and per-severity counts.",
	}, s.handleSummarizeEvents)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_events",
		Description: "List stored events newest first, with an optional severity filter and limit.",
	}, s.handleListEvents)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "import_events",
		Description: "Validate a JSON array of events and replace the stored history with the valid ones (at most 200).",
	}, s.handleImportEvents)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (error rate, average latency, per-service error bursts).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleSynthesizeEvent(_ context.Context, _ *gomcp.CallToolRequest, input synthesizeEventInput) (*gomcp.CallToolResult, synthesizeEventOutput, error) {
	seed := time.Now().UnixMilli()
	if input.Seed != nil {
		seed = *input.Seed
	}

	event := core.Synthesize(seed)
	if input.Append {
		s.service.Append(event)
	}

	return nil, synthesizeEventOutput{Event: eventToOutput(event), Appended: input.Append}, nil
}

func (s *Server) handleSummarizeEvents(_ context.Context, _ *gomcp.CallToolRequest, input summarizeEventsInput) (*gomcp.CallToolResult, summaryOutput, error) {
	filter, err := s.resolveFilter(input.Filter)
	if err != nil {
		return errorResult(err.Error()), summaryOutput{}, nil
	}

	summary := core.Summarize(core.FilterBySeverity(s.service.State().Events, filter))
	out := summaryOutput{
		Filter:     string(filter),
		Count:      summary.Count,
		AvgLatency: summary.AvgLatency,
		Info:       summary.BySeverity.Info,
		Warn:       summary.BySeverity.Warn,
		Error:      summary.BySeverity.Error,
	}
	return nil, out, nil
}

func (s *Server) handleListEvents(_ context.Context, _ *gomcp.CallToolRequest, input listEventsInput) (*gomcp.CallToolResult, listEventsOutput, error) {
	if input.Limit < 0 {
		return errorResult("limit must not be negative"), listEventsOutput{}, nil
	}
	filter, err := s.resolveFilter(input.Filter)
	if err != nil {
		return errorResult(err.Error()), listEventsOutput{}, nil
	}

	events := core.FilterBySeverity(s.service.State().Events, filter)
	if input.Limit > 0 && len(events) > input.Limit {
		events = events[:input.Limit]
	}

	out := listEventsOutput{
		Events: make([]eventOutput, len(events)),
		Count:  len(events),
	}
	for i, e := range events {
		out.Events[i] = eventToOutput(e)
	}
	return nil, out, nil
}

func (s *Server) handleImportEvents(_ context.Context, _ *gomcp.CallToolRequest, input importEventsInput) (*gomcp.CallToolResult, importEventsOutput, error) {
	if input.JSON == "" {
		return errorResult("json is required"), importEventsOutput{}, nil
	}

	state, err := s.service.ImportText(input.JSON)
	if err != nil {
		return errorResult(core.ImportFailedStatus(err)), importEventsOutput{}, nil
	}

	return nil, importEventsOutput{Imported: len(state.Events), Message: state.Status}, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available"), getAlertsOutput{}, nil
	}

	alerts := s.alertEngine.Evaluate(s.service.State().Events)

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

// resolveFilter returns the stream's own filter when raw is empty.
func (s *Server) resolveFilter(raw string) (models.SeverityFilter, error) {
	if raw == "" {
		return s.service.State().Filter, nil
	}
	filter := models.SeverityFilter(raw)
	if !filter.IsValid() {
		return "", fmt.Errorf("invalid filter %q: must be one of all, info, warn, error", raw)
	}
	return filter, nil
}

func eventToOutput(e models.Event) eventOutput {
	return eventOutput{
		ID:        e.ID,
		Service:   e.Service,
		LatencyMs: e.LatencyMs,
		Severity:  string(e.Severity),
		TS:        e.TS,
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
