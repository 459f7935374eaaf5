// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the genkvo generator and live objects as tools for AI coding assistants.
package mcp

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/gokvo/internal/core"
	"github.com/valter-silva-au/gokvo/internal/observability"
	"github.com/valter-silva-au/gokvo/pkg/models"
)

// Server wraps the generator and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	generator   core.Generator
	metricsCalc observability.MetricsCalculator
}

// NewServer creates a new MCP server. metricsCalc may be nil if
// observability is disabled.
func NewServer(generator core.Generator, metricsCalc observability.MetricsCalculator, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		generator:   generator,
		metricsCalc: metricsCalc,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "genkvo", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type generateInput struct {
	Schema  string `json:"schema" jsonschema:"required,the object description as JSON or YAML text; the root needs a __name__ key"`
	Format  string `json:"format,omitempty" jsonschema:"json or yaml. Detected from the text when omitted."`
	Package string `json:"package,omitempty" jsonschema:"Go package name of the generated file. Defaults to model."`
}

type generateOutput struct {
	Source     string `json:"source"`
	RootType   string `json:"root_type"`
	Types      int    `json:"types"`
	Properties int    `json:"properties"`
}

type inspectInput struct {
	Schema string `json:"schema" jsonschema:"required,the object description as JSON or YAML text"`
	Format string `json:"format,omitempty" jsonschema:"json or yaml. Detected from the text when omitted."`
}

type inspectOutput struct {
	RootType string              `json:"root_type"`
	Types    []models.TypeSpec   `json:"types"`
	Imports  []models.ImportSpec `json:"imports"`
}

type simulateInput struct {
	Schema  string   `json:"schema" jsonschema:"required,the object description as JSON or YAML text"`
	Format  string   `json:"format,omitempty" jsonschema:"json or yaml. Detected from the text when omitted."`
	Updates []string `json:"updates" jsonschema:"required,updates applied in order, each written path=value (e.g. address.city=Paris)"`
}

type updateResult struct {
	Update string `json:"update"`
	Error  string `json:"error,omitempty"`
}

type simulateOutput struct {
	Notifications []core.Change    `json:"notifications"`
	Results       []updateResult   `json:"results"`
	Final         []core.LiveField `json:"final"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	Runs              int            `json:"runs"`
	FailedRuns        int            `json:"failed_runs"`
	TypesGenerated    int            `json:"types_generated"`
	PropertiesEmitted int            `json:"properties_emitted"`
	PropertyUpdates   int            `json:"property_updates"`
	RejectedUpdates   int            `json:"rejected_updates"`
	RunsByRootType    map[string]int `json:"runs_by_root_type"`
	EventCount        int            `json:"event_count"`
	OldestEvent       string         `json:"oldest_event,omitempty"`
	NewestEvent       string         `json:"newest_event,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "generate_kvo",
		Description: "Generate Go host types with observable properties from a JSON or YAML object description. Returns gofmt-formatted Go source.",
	}, s.handleGenerate)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "inspect_kvo_schema",
		Description: "List the types, properties and imports that generate_kvo would emit for an object description, without rendering code.",
	}, s.handleInspect)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "simulate_kvo_updates",
		Description: "Build a live object from an object description, apply path=value updates in order and return every change notification with its old and current value.",
	}, s.handleSimulate)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_kvo_metrics",
		Description: "Get aggregated generation and update metrics from the genkvo event log.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---

func (s *Server) handleGenerate(_ context.Context, _ *gomcp.CallToolRequest, input generateInput) (*gomcp.CallToolResult, generateOutput, error) {
	obj, err := parseSchemaText(input.Schema, input.Format)
	if err != nil {
		return errorResult(err.Error()), generateOutput{}, nil
	}

	pkg := input.Package
	if pkg == "" {
		pkg = core.DefaultConfig().Package
	}

	plan, err := s.generator.Plan(obj)
	if err != nil {
		return errorResult(err.Error()), generateOutput{}, nil
	}

	var buf bytes.Buffer
	if err := s.generator.Generate(models.GenerateOptions{Package: pkg}, obj, &buf); err != nil {
		return errorResult(err.Error()), generateOutput{}, nil
	}

	return nil, generateOutput{
		Source:     buf.String(),
		RootType:   plan.RootType,
		Types:      len(plan.Types),
		Properties: plan.PropertyCount(),
	}, nil
}

func (s *Server) handleInspect(_ context.Context, _ *gomcp.CallToolRequest, input inspectInput) (*gomcp.CallToolResult, inspectOutput, error) {
	obj, err := parseSchemaText(input.Schema, input.Format)
	if err != nil {
		return errorResult(err.Error()), emptyInspectOutput(), nil
	}

	plan, err := s.generator.Plan(obj)
	if err != nil {
		return errorResult(err.Error()), emptyInspectOutput(), nil
	}

	out := inspectOutput{
		RootType: plan.RootType,
		Types:    plan.Types,
		Imports:  plan.Imports,
	}
	if out.Imports == nil {
		out.Imports = []models.ImportSpec{}
	}
	return nil, out, nil
}

func (s *Server) handleSimulate(_ context.Context, _ *gomcp.CallToolRequest, input simulateInput) (*gomcp.CallToolResult, simulateOutput, error) {
	obj, err := parseSchemaText(input.Schema, input.Format)
	if err != nil {
		return errorResult(err.Error()), emptySimulateOutput(), nil
	}

	live, err := core.NewLiveObject(obj)
	if err != nil {
		return errorResult(err.Error()), emptySimulateOutput(), nil
	}

	out := emptySimulateOutput()
	live.Subscribe(func(c core.Change) {
		out.Notifications = append(out.Notifications, c)
	})

	for _, u := range input.Updates {
		res := updateResult{Update: u}
		path, raw, ok := strings.Cut(u, "=")
		if !ok {
			res.Error = fmt.Sprintf("update %q must be written path=value", u)
		} else if err := live.SetFromString(strings.TrimSpace(path), raw); err != nil {
			res.Error = err.Error()
		}
		out.Results = append(out.Results, res)
	}

	out.Final = live.Fields()
	if out.Final == nil {
		out.Final = []core.LiveField{}
	}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		Runs:              metrics.Runs,
		FailedRuns:        metrics.FailedRuns,
		TypesGenerated:    metrics.TypesGenerated,
		PropertiesEmitted: metrics.PropertiesEmitted,
		PropertyUpdates:   metrics.PropertyUpdates,
		RejectedUpdates:   metrics.RejectedUpdates,
		RunsByRootType:    metrics.RunsByRootType,
		EventCount:        metrics.EventCount,
	}
	if out.RunsByRootType == nil {
		out.RunsByRootType = make(map[string]int)
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

// --- Helpers ---

func parseSchemaText(text, format string) (models.ObjectSchema, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("schema is required")
	}
	f, err := core.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return core.ParseSchema(strings.NewReader(text), f)
}

func emptyInspectOutput() inspectOutput {
	return inspectOutput{
		Types:   []models.TypeSpec{},
		Imports: []models.ImportSpec{},
	}
}

func emptySimulateOutput() simulateOutput {
	return simulateOutput{
		Notifications: []core.Change{},
		Results:       []updateResult{},
		Final:         []core.LiveField{},
	}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		RunsByRootType: make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
