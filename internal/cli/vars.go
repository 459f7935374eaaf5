package cli

import (
	"github.com/valter-silva-au/gokvo/internal/core"
	"github.com/valter-silva-au/gokvo/internal/observability"
)

// Service instances, set during app initialization in app.go.
var (
	ConfigMgr core.ConfigurationManager
	Generator core.Generator
)

// Observability service instances, set during app initialization in app.go.
// Both are nil when the event log could not be opened.
var (
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
)
