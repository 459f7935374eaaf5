package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/valter-silva-au/gokvo/internal/core"
	"github.com/valter-silva-au/gokvo/internal/observability"
	"github.com/valter-silva-au/gokvo/pkg/models"
)

// stdinSource is the schema argument that reads from standard input.
const stdinSource = "-"

// loadGeneratorConfig returns the .kvoconfig settings, or the defaults when
// no configuration manager is wired.
func loadGeneratorConfig() (*models.GeneratorConfig, error) {
	if ConfigMgr == nil {
		return core.DefaultConfig(), nil
	}
	cfg, err := ConfigMgr.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// resolveFormat lets a --format flag override the configured format.
func resolveFormat(flag string, cfg *models.GeneratorConfig) (models.SchemaFormat, error) {
	if flag == "" {
		return cfg.Format, nil
	}
	return core.ParseFormat(flag)
}

// readSchema reads an object description from the file at source, or from
// in when source is "-". Without an explicit format the file extension is
// used, and failing that the content is sniffed.
func readSchema(in io.Reader, source string, format models.SchemaFormat) (models.ObjectSchema, error) {
	if source == stdinSource {
		obj, err := core.ParseSchema(in, format)
		if err != nil {
			return nil, fmt.Errorf("parsing schema from stdin: %w", err)
		}
		return obj, nil
	}

	if format == models.FormatAuto {
		if detected, err := core.DetectFormat(source); err == nil {
			format = detected
		}
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("opening schema: %w", err)
	}
	defer func() { _ = f.Close() }()

	obj, err := core.ParseSchema(f, format)
	if err != nil {
		return nil, fmt.Errorf("parsing schema %s: %w", source, err)
	}
	return obj, nil
}

// newRecorder returns a recorder writing to the event log, or a no-op
// recorder when event logging is turned off in cfg.
func newRecorder(cfg *models.GeneratorConfig) *observability.Recorder {
	if !cfg.EventLog || EventLog == nil {
		return observability.NewRecorder(nil)
	}
	return observability.NewRecorder(EventLog)
}

func schemaLabel(source string) string {
	if source == stdinSource {
		return "stdin"
	}
	return source
}
