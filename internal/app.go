// Package internal provides the App struct that wires the genkvo components
// together and initializes the CLI layer.
package internal

import (
	"os"
	"path/filepath"

	"github.com/valter-silva-au/gokvo/internal/cli"
	"github.com/valter-silva-au/gokvo/internal/core"
	"github.com/valter-silva-au/gokvo/internal/observability"
)

// EventLogFileName is the JSONL event log kept in the base path.
const EventLogFileName = ".genkvo_events.jsonl"

// App holds all service dependencies of genkvo.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Core services
	Generator core.Generator

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires all components. basePath is the directory that
// holds .kvoconfig and the event log.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)

	// --- Core services ---
	app.Generator = core.NewGenerator()

	// --- Observability ---
	eventLog, err := observability.NewJSONLEventLog(filepath.Join(basePath, EventLogFileName))
	if err == nil {
		app.EventLog = eventLog
		app.MetricsCalc = observability.NewMetricsCalculator(eventLog)
	}
	// Otherwise observability stays disabled; generation does not need it.

	// --- Wire CLI ---
	cli.ConfigMgr = app.ConfigMgr
	cli.Generator = app.Generator
	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the genkvo base directory. GENKVO_HOME wins;
// otherwise the nearest directory at or above the working directory that
// holds a .kvoconfig, falling back to the working directory itself.
func ResolveBasePath() string {
	if home := os.Getenv("GENKVO_HOME"); home != "" {
		return home
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	for dir := cwd; ; {
		if hasConfig(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}

func hasConfig(dir string) bool {
	for _, name := range []string{core.ConfigFileName, core.ConfigFileName + ".yaml", core.ConfigFileName + ".yml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
