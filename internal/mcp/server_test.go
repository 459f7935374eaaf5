package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/gokvo/internal/core"
	"github.com/valter-silva-au/gokvo/internal/observability"
)

// --- Fake implementations ---

type fakeMetricsCalculator struct {
	metrics *observability.Metrics
}

func (f *fakeMetricsCalculator) Calculate(_ time.Time) (*observability.Metrics, error) {
	return f.metrics, nil
}

// --- Test helpers ---

const personSchema = `{
	"__name__": "Person",
	"name": "Ada",
	"age": 36,
	"address": {"city": "London"},
	"born": {"__name__": "Time", "__package__": "time"}
}`

func newTestServer() *Server {
	return NewServer(core.NewGenerator(), nil, "test")
}

func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	// Connect server (non-blocking).
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

func callToolAllowError(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
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
		// Protocol-level error (e.g. schema validation) -- return nil.
		return nil
	}

	return result
}

// decodeResult fills out from the structured content, falling back to the
// text content.
func decodeResult(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()

	if result.StructuredContent != nil {
		data, _ := json.Marshal(result.StructuredContent)
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("unmarshalling structured content: %v", err)
		}
		return
	}
	text := extractText(result)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("unmarshalling text content: %v (text was: %s)", err, text)
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

// --- generate_kvo ---

func TestGenerateKVO(t *testing.T) {
	srv := newTestServer()

	result := callTool(t, srv, "generate_kvo", map[string]any{
		"schema":  personSchema,
		"package": "people",
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out generateOutput
	decodeResult(t, result, &out)

	if out.RootType != "Person" {
		t.Errorf("expected root type Person, got %s", out.RootType)
	}
	if out.Types != 2 {
		t.Errorf("expected 2 types, got %d", out.Types)
	}
	if out.Properties != 5 {
		t.Errorf("expected 5 properties, got %d", out.Properties)
	}
	for _, want := range []string{"package people", "func NewPerson() *Person", `"time"`, "func (o *Person) SetAge(v int64) error"} {
		if !strings.Contains(out.Source, want) {
			t.Errorf("generated source missing %q", want)
		}
	}
}

func TestGenerateKVODefaultPackage(t *testing.T) {
	srv := newTestServer()

	result := callTool(t, srv, "generate_kvo", map[string]any{
		"schema": "__name__: Flag\non: true\n",
		"format": "yaml",
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out generateOutput
	decodeResult(t, result, &out)
	if !strings.Contains(out.Source, "package model") {
		t.Errorf("expected default package model, got:\n%s", out.Source)
	}
}

func TestGenerateKVOErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		wantText string
	}{
		{"missing type name", map[string]any{"schema": `{"a": 1}`}, "__name__"},
		{"bad package", map[string]any{"schema": `{"__name__": "T", "a": 1}`, "package": "not-a-package"}, "not a valid Go package name"},
		{"bad format", map[string]any{"schema": `{"__name__": "T"}`, "format": "toml"}, "unsupported schema format"},
		{"null value", map[string]any{"schema": `{"__name__": "T", "a": null}`}, "In field T.a"},
		{"empty schema", map[string]any{"schema": "   "}, "schema is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, newTestServer(), "generate_kvo", tt.args)
			if !result.IsError {
				t.Fatal("expected error result")
			}
			if text := extractText(result); !strings.Contains(text, tt.wantText) {
				t.Errorf("expected error containing %q, got %q", tt.wantText, text)
			}
		})
	}
}

func TestGenerateKVOMissingSchema(t *testing.T) {
	// The SDK validates required fields at the schema level, so the call may
	// be rejected before it reaches the handler.
	result := callToolAllowError(t, newTestServer(), "generate_kvo", map[string]any{})
	if result == nil {
		return
	}
	if !result.IsError {
		t.Fatal("expected error result for missing schema")
	}
}

// --- inspect_kvo_schema ---

func TestInspectKVOSchema(t *testing.T) {
	result := callTool(t, newTestServer(), "inspect_kvo_schema", map[string]any{"schema": personSchema})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out inspectOutput
	decodeResult(t, result, &out)

	if out.RootType != "Person" {
		t.Errorf("expected root type Person, got %s", out.RootType)
	}
	if len(out.Types) != 2 {
		t.Fatalf("expected 2 types, got %d", len(out.Types))
	}
	if out.Types[0].Name != "PersonAddress" || out.Types[1].Name != "Person" {
		t.Errorf("expected nested type first, got %s, %s", out.Types[0].Name, out.Types[1].Name)
	}
	if len(out.Imports) != 1 || out.Imports[0].Path != "time" {
		t.Errorf("expected one import of time, got %+v", out.Imports)
	}
}

// --- simulate_kvo_updates ---

func TestSimulateKVOUpdates(t *testing.T) {
	result := callTool(t, newTestServer(), "simulate_kvo_updates", map[string]any{
		"schema": personSchema,
		"updates": []string{
			"age=37",
			"address.city=Paris",
			"age=old",
			"born=2020-01-01",
			"nope",
			"age=38",
		},
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out simulateOutput
	decodeResult(t, result, &out)

	if len(out.Results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(out.Results))
	}
	wantErr := []bool{false, false, true, true, true, false}
	for i, r := range out.Results {
		if (r.Error != "") != wantErr[i] {
			t.Errorf("result %d (%s): error = %q, want error %v", i, r.Update, r.Error, wantErr[i])
		}
	}

	if len(out.Notifications) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(out.Notifications))
	}
	first := out.Notifications[0]
	// Numbers come back through JSON as float64.
	if first.Path != "age" || first.Old != float64(36) || first.Current != float64(37) {
		t.Errorf("unexpected first notification %+v", first)
	}
	second := out.Notifications[1]
	if second.Path != "address.city" || second.Old != "London" || second.Current != "Paris" {
		t.Errorf("unexpected second notification %+v", second)
	}
	third := out.Notifications[2]
	if third.Old != float64(37) || third.Current != float64(38) {
		t.Errorf("expected old value of the previous update, got %+v", third)
	}

	var sawAge bool
	for _, f := range out.Final {
		if f.Path == "age" {
			sawAge = true
			if f.Value != float64(38) {
				t.Errorf("expected final age 38, got %v", f.Value)
			}
		}
	}
	if !sawAge {
		t.Error("final fields missing age")
	}
}

func TestSimulateKVOUpdatesInvalidSchema(t *testing.T) {
	result := callTool(t, newTestServer(), "simulate_kvo_updates", map[string]any{
		"schema":  `["not", "an", "object"]`,
		"updates": []string{},
	})
	if !result.IsError {
		t.Fatal("expected error result for non-object schema")
	}
}

// --- get_kvo_metrics ---

func TestGetMetrics(t *testing.T) {
	now := time.Now().UTC()
	mc := &fakeMetricsCalculator{
		metrics: &observability.Metrics{
			Runs:              5,
			FailedRuns:        1,
			TypesGenerated:    8,
			PropertiesEmitted: 30,
			RunsByRootType:    map[string]int{"Person": 4},
			EventCount:        42,
			OldestEvent:       &now,
			NewestEvent:       &now,
		},
	}
	srv := NewServer(core.NewGenerator(), mc, "test")

	result := callTool(t, srv, "get_kvo_metrics", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var m metricsOutput
	decodeResult(t, result, &m)

	if m.Runs != 5 {
		t.Errorf("expected 5 runs, got %d", m.Runs)
	}
	if m.RunsByRootType["Person"] != 4 {
		t.Errorf("expected 4 Person runs, got %d", m.RunsByRootType["Person"])
	}
	if m.EventCount != 42 {
		t.Errorf("expected 42 events, got %d", m.EventCount)
	}
	if m.OldestEvent == "" {
		t.Error("expected oldest event timestamp")
	}
}

func TestGetMetricsDisabled(t *testing.T) {
	result := callTool(t, newTestServer(), "get_kvo_metrics", map[string]any{})

	if !result.IsError {
		t.Fatal("expected error when metrics calculator is nil")
	}
	if extractText(result) == "" {
		t.Fatal("expected error message in result")
	}
}

func TestParseSince(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"7d", false},
		{"30d", false},
		{"24h", false},
		{"x", true},
		{"7w", true},
		{"abcd", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := parseSince(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseSince(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
