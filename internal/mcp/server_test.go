package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/flowpulse/internal/core"
	"github.com/valter-silva-au/flowpulse/internal/observability"
	"github.com/valter-silva-au/flowpulse/pkg/models"
)

// --- Fake implementations ---

type nopArchive struct{}

func (nopArchive) Export(string, []models.Event) (string, error) { return "", nil }
func (nopArchive) ImportFile(string) ([]models.Event, error)    { return nil, nil }

func newTestServer(t *testing.T, events ...models.Event) (*Server, *core.StreamService) {
	t.Helper()
	controller := core.NewStreamController(core.NewStreamState(models.DefaultSettings(), events))
	svc := core.NewStreamService(controller, nopArchive{}, nil)
	engine := observability.NewAlertEngine(observability.DefaultAlertThresholds())
	return NewServer(svc, engine, "test"), svc
}

func sampleEvents() []models.Event {
	return []models.Event{
		{ID: "a", Service: "api", LatencyMs: 120, Severity: models.SeverityInfo, TS: "t"},
		{ID: "b", Service: "worker", LatencyMs: 340, Severity: models.SeverityWarn, TS: "t"},
		{ID: "c", Service: "billing", LatencyMs: 560, Severity: models.SeverityError, TS: "t"},
	}
}

// --- Helpers ---

func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}

	return result
}

// decodeResult unmarshals the structured content of a successful result.
func decodeResult(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()
	if result.IsError {
		t.Fatalf("tool returned error: %s", extractText(result))
	}
	data, err := json.Marshal(result.StructuredContent)
	if err != nil {
		t.Fatalf("marshalling structured content: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("decoding structured content: %v\n%s", err, data)
	}
}

// extractText extracts the text from the first TextContent in a CallToolResult.
func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// --- Tests ---

func TestListTools(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	t1, t2 := gomcp.NewInMemoryTransports()
	go func() { _ = srv.MCPServer().Run(ctx, t1) }()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	res, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"synthesize_event", "summarize_events", "list_events", "import_events", "get_alerts"} {
		if !names[want] {
			t.Errorf("tool %s not registered", want)
		}
	}
}

func TestSynthesizeEvent(t *testing.T) {
	srv, svc := newTestServer(t)

	var out synthesizeEventOutput
	decodeResult(t, callTool(t, srv, "synthesize_event", map[string]any{"seed": 1700000000000}), &out)

	want := core.Synthesize(1700000000000)
	if out.Event.ID != want.ID || out.Event.LatencyMs != want.LatencyMs || out.Event.Service != want.Service {
		t.Errorf("event = %+v, want %+v", out.Event, want)
	}
	if out.Appended || len(svc.State().Events) != 0 {
		t.Error("synthesize without append changed the history")
	}
}

type recordingLogger struct {
	types []string
}

func (r *recordingLogger) LogEvent(_, eventType, _ string, _ map[string]any) error {
	r.types = append(r.types, eventType)
	return nil
}

func TestSynthesizeEventAppend(t *testing.T) {
	log := &recordingLogger{}
	controller := core.NewStreamController(core.NewStreamState(models.DefaultSettings(), nil))
	svc := core.NewStreamService(controller, nopArchive{}, log)
	srv := NewServer(svc, nil, "test")

	var out synthesizeEventOutput
	decodeResult(t, callTool(t, srv, "synthesize_event", map[string]any{"seed": 7, "append": true}), &out)

	if !out.Appended {
		t.Error("Appended = false")
	}
	if events := svc.State().Events; len(events) != 1 || events[0].ID != "evt-7" {
		t.Errorf("events = %+v", events)
	}
	if len(log.types) != 1 || log.types[0] != "event.appended" {
		t.Errorf("activity = %v, want [event.appended]", log.types)
	}
}

func TestSummarizeEvents(t *testing.T) {
	srv, _ := newTestServer(t, sampleEvents()...)

	var out summaryOutput
	decodeResult(t, callTool(t, srv, "summarize_events", map[string]any{}), &out)

	want := summaryOutput{Filter: "all", Count: 3, AvgLatency: 340, Info: 1, Warn: 1, Error: 1}
	if out != want {
		t.Errorf("summary = %+v, want %+v", out, want)
	}
}

func TestSummarizeEventsWithFilter(t *testing.T) {
	srv, _ := newTestServer(t, sampleEvents()...)

	var out summaryOutput
	decodeResult(t, callTool(t, srv, "summarize_events", map[string]any{"filter": "error"}), &out)
	if out.Count != 1 || out.AvgLatency != 560 || out.Filter != "error" {
		t.Errorf("summary = %+v", out)
	}
}

func TestSummarizeEventsInvalidFilter(t *testing.T) {
	srv, _ := newTestServer(t)
	result := callTool(t, srv, "summarize_events", map[string]any{"filter": "loud"})
	if !result.IsError || !strings.Contains(extractText(result), "invalid filter") {
		t.Errorf("result = %+v", result)
	}
}

func TestListEvents(t *testing.T) {
	srv, _ := newTestServer(t, sampleEvents()...)

	var out listEventsOutput
	decodeResult(t, callTool(t, srv, "list_events", map[string]any{"limit": 2}), &out)
	if out.Count != 2 || out.Events[0].ID != "a" || out.Events[1].ID != "b" {
		t.Errorf("events = %+v", out.Events)
	}
}

func TestListEventsUsesStreamFilter(t *testing.T) {
	srv, svc := newTestServer(t, sampleEvents()...)
	if _, err := svc.SetFilter("warn"); err != nil {
		t.Fatal(err)
	}

	var out listEventsOutput
	decodeResult(t, callTool(t, srv, "list_events", map[string]any{}), &out)
	if out.Count != 1 || out.Events[0].ID != "b" {
		t.Errorf("events = %+v", out.Events)
	}
}

func TestListEventsEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	var out listEventsOutput
	decodeResult(t, callTool(t, srv, "list_events", map[string]any{}), &out)
	if out.Count != 0 || out.Events == nil {
		t.Errorf("out = %+v, want empty list", out)
	}
}

func TestListEventsNegativeLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	result := callTool(t, srv, "list_events", map[string]any{"limit": -1})
	if !result.IsError {
		t.Error("expected error for negative limit")
	}
}

func TestImportEvents(t *testing.T) {
	srv, svc := newTestServer(t, sampleEvents()...)

	text := `[{"id":"evt-1","service":"api","latencyMs":200,"severity":"info","ts":"2026-01-01T00:00:00.000Z"},{"bad":true}]`
	var out importEventsOutput
	decodeResult(t, callTool(t, srv, "import_events", map[string]any{"json": text}), &out)

	if out.Imported != 1 || out.Message != "Imported 1 events." {
		t.Errorf("out = %+v", out)
	}
	if events := svc.State().Events; len(events) != 1 || events[0].Service != "api" {
		t.Errorf("events = %+v", events)
	}
}

func TestImportEventsRejected(t *testing.T) {
	srv, svc := newTestServer(t, sampleEvents()...)

	tests := []struct {
		name string
		json string
		want string
	}{
		{"not an array", `{"bad":true}`, "imported JSON must be an array"},
		{"no valid events", `[1,2]`, "no valid events found in JSON file"},
		{"not json", `nope`, "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, srv, "import_events", map[string]any{"json": tt.json})
			if !result.IsError {
				t.Fatal("expected error result")
			}
			if text := extractText(result); !strings.HasPrefix(text, "Import failed: ") || !strings.Contains(text, tt.want) {
				t.Errorf("text = %q", text)
			}
			if n := len(svc.State().Events); n != 3 {
				t.Errorf("rejected import changed events: %d", n)
			}
		})
	}
}

func TestImportEventsMissingJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	result := callTool(t, srv, "import_events", map[string]any{"json": ""})
	if !result.IsError || extractText(result) != "json is required" {
		t.Errorf("result text = %q", extractText(result))
	}
}

func TestGetAlerts(t *testing.T) {
	events := make([]models.Event, 12)
	for i := range events {
		events[i] = models.Event{ID: "e", Service: "api", LatencyMs: 650, Severity: models.SeverityError, TS: "t"}
	}
	srv, _ := newTestServer(t, events...)

	var out getAlertsOutput
	decodeResult(t, callTool(t, srv, "get_alerts", map[string]any{}), &out)
	if out.Count != 3 {
		t.Fatalf("Count = %d, want 3", out.Count)
	}
	if out.Alerts[0].ID != "error-rate" || out.Alerts[0].Severity != "high" {
		t.Errorf("first alert = %+v", out.Alerts[0])
	}
}

func TestGetAlertsEmpty(t *testing.T) {
	srv, _ := newTestServer(t, sampleEvents()...)

	var out getAlertsOutput
	decodeResult(t, callTool(t, srv, "get_alerts", map[string]any{}), &out)
	if out.Count != 0 {
		t.Errorf("Count = %d, want 0", out.Count)
	}
}

func TestGetAlertsDisabled(t *testing.T) {
	controller := core.NewStreamController(core.NewStreamState(models.DefaultSettings(), nil))
	srv := NewServer(core.NewStreamService(controller, nopArchive{}, nil), nil, "")

	result := callTool(t, srv, "get_alerts", map[string]any{})
	if !result.IsError || !strings.Contains(extractText(result), "not available") {
		t.Errorf("result text = %q", extractText(result))
	}
}
