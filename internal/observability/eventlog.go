package observability

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Event is one line of the genkvo event log: a generation run or a
// property update made through a live object.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Type    string         `json:"type"`
	RunID   string         `json:"run_id,omitempty"`
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// Event types.
const (
	EventSchemaGenerated = "schema.generated"
	EventSchemaFailed    = "schema.failed"
	EventPropertyUpdated = "property.updated"
)

// Event levels.
const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// EventFilter selects events on Read. Zero fields match everything.
type EventFilter struct {
	Since *time.Time
	Until *time.Time
	Type  string
	Level string
	RunID string

	// Schema matches the "schema" data field of generation events.
	Schema string
	// Path matches the "path" data field of property updates.
	Path string
}

// Matches reports whether e satisfies every set field of f.
func (f EventFilter) Matches(e Event) bool {
	switch {
	case f.Since != nil && e.Time.Before(*f.Since):
		return false
	case f.Until != nil && e.Time.After(*f.Until):
		return false
	case f.Type != "" && e.Type != f.Type:
		return false
	case f.Level != "" && e.Level != f.Level:
		return false
	case f.RunID != "" && e.RunID != f.RunID:
		return false
	case f.Schema != "" && e.Data["schema"] != f.Schema:
		return false
	case f.Path != "" && e.Data["path"] != f.Path:
		return false
	}
	return true
}

// EventLog appends events and reads them back.
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

// jsonlEventLog appends one JSON object per line to a file. Reads open the
// file separately, so a reader sees every event written before it started.
type jsonlEventLog struct {
	path string

	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONLEventLog opens (or creates) the log at path for appending.
func NewJSONLEventLog(path string) (EventLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{path: path, file: f, enc: json.NewEncoder(f)}, nil
}

func (l *jsonlEventLog) Write(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Encode writes the trailing newline.
	if err := l.enc.Encode(event); err != nil {
		return fmt.Errorf("writing %s event: %w", event.Type, err)
	}
	return nil
}

// Read returns the events matching filter in the order they were written.
// Lines that are not valid events are skipped. A missing file reads as empty.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	r := bufio.NewReader(f)
	for {
		// ReadBytes has no line limit; generation errors can be long.
		line, readErr := r.ReadBytes('\n')
		if line = bytes.TrimSpace(line); len(line) > 0 {
			var event Event
			if json.Unmarshal(line, &event) == nil && filter.Matches(event) {
				events = append(events, event)
			}
		}
		if readErr == io.EOF {
			return events, nil
		}
		if readErr != nil {
			return nil, fmt.Errorf("reading event log: %w", readErr)
		}
	}
}

func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}
