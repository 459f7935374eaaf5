package observability

import (
	"time"

	"github.com/google/uuid"
)

// Recorder writes the events of one genkvo invocation, stamping each with
// the same run ID. A Recorder with a nil EventLog drops every event, so
// callers do not need to check whether observability is enabled.
type Recorder struct {
	log   EventLog
	runID string
	now   func() time.Time
}

// NewRecorder creates a Recorder with a fresh run ID.
func NewRecorder(log EventLog) *Recorder {
	return &Recorder{
		log:   log,
		runID: uuid.NewString(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// RunID returns the ID attached to every event of this recorder.
func (r *Recorder) RunID() string {
	return r.runID
}

// SchemaGenerated records a successful generation run.
func (r *Recorder) SchemaGenerated(schema, rootType string, types, properties int) error {
	return r.write(LevelInfo, EventSchemaGenerated, "generated host types", map[string]any{
		"schema":     schema,
		"root_type":  rootType,
		"types":      types,
		"properties": properties,
	})
}

// SchemaFailed records a generation run that did not produce code.
func (r *Recorder) SchemaFailed(schema string, cause error) error {
	return r.write(LevelError, EventSchemaFailed, "generation failed", map[string]any{
		"schema": schema,
		"error":  cause.Error(),
	})
}

// PropertyUpdated records a property change made through a live object.
// A non-nil cause marks the update as rejected.
func (r *Recorder) PropertyUpdated(path string, old, current any, cause error) error {
	data := map[string]any{
		"path":    path,
		"old":     old,
		"current": current,
	}
	if cause != nil {
		data["error"] = cause.Error()
		return r.write(LevelWarn, EventPropertyUpdated, "property update rejected", data)
	}
	return r.write(LevelInfo, EventPropertyUpdated, "property updated", data)
}

func (r *Recorder) write(level, typ, msg string, data map[string]any) error {
	if r == nil || r.log == nil {
		return nil
	}
	return r.log.Write(Event{
		Time:    r.now(),
		Level:   level,
		Type:    typ,
		RunID:   r.runID,
		Message: msg,
		Data:    data,
	})
}
