package observability

import (
	"fmt"
	"time"
)

// Metrics holds calculated metrics derived from the event log.
type Metrics struct {
	Runs              int            `json:"runs"`
	FailedRuns        int            `json:"failed_runs"`
	TypesGenerated    int            `json:"types_generated"`
	PropertiesEmitted int            `json:"properties_emitted"`
	PropertyUpdates   int            `json:"property_updates"`
	RejectedUpdates   int            `json:"rejected_updates"`
	RunsByRootType    map[string]int `json:"runs_by_root_type"`
	FailuresBySchema  map[string]int `json:"failures_by_schema"`
	EventCount        int            `json:"event_count"`
	OldestEvent       *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent       *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them into metrics.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		RunsByRootType:   make(map[string]int),
		FailuresBySchema: make(map[string]int),
	}

	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case EventSchemaGenerated:
			m.Runs++
			m.TypesGenerated += intData(event.Data, "types")
			m.PropertiesEmitted += intData(event.Data, "properties")
			if root, ok := event.Data["root_type"].(string); ok {
				m.RunsByRootType[root]++
			}
		case EventSchemaFailed:
			m.Runs++
			m.FailedRuns++
			if schema, ok := event.Data["schema"].(string); ok {
				m.FailuresBySchema[schema]++
			}
		case EventPropertyUpdated:
			if event.Level == "WARN" {
				m.RejectedUpdates++
			} else {
				m.PropertyUpdates++
			}
		}
	}

	return m, nil
}

// intData reads a numeric field that may have been round-tripped through
// JSON (float64) or written directly (int).
func intData(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
