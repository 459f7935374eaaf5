package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/gokvo/internal/core"
	"github.com/valter-silva-au/gokvo/internal/observability"
	"github.com/valter-silva-au/gokvo/pkg/models"
)

var (
	generatePackage string
	generateFormat  string
	generateOutput  string
	generateWatch   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [schema-file]",
	Short: "Generate Go host types from an object description",
	Long: `Generate Go source from a JSON or YAML object description.

The outermost object names its type with the __name__ key. Every other key
becomes an observable property: nested objects become their own types, and
objects with both __name__ and __package__ refer to a type in another
package. The schema is read from standard input when the argument is
omitted or "-".

Flags override the package, format and output set in .kvoconfig. With
--watch the file is regenerated whenever the schema changes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Generator == nil {
			return fmt.Errorf("generator not initialized")
		}

		cfg, err := loadGeneratorConfig()
		if err != nil {
			return err
		}

		source := stdinSource
		if len(args) == 1 {
			source = args[0]
		}

		job, err := newGenerateJob(cmd, cfg, source)
		if err != nil {
			return err
		}

		if !generateWatch {
			return job.run()
		}
		if source == stdinSource || job.output == "" {
			return fmt.Errorf("--watch needs a schema file and --output")
		}

		// A broken schema at startup should not stop the watch.
		if err := job.run(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}

		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
		watcher, err := core.NewSchemaWatcher(source, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		return watcher.Run(ctx, job.run)
	},
}

// generateJob is one configured generation: where the schema comes from,
// how to read it and where the code goes.
type generateJob struct {
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	source   string
	format   models.SchemaFormat
	pkg      string
	output   string
	recorder *observability.Recorder
}

func newGenerateJob(cmd *cobra.Command, cfg *models.GeneratorConfig, source string) (*generateJob, error) {
	format, err := resolveFormat(generateFormat, cfg)
	if err != nil {
		return nil, err
	}

	job := &generateJob{
		in:       cmd.InOrStdin(),
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
		source:   source,
		format:   format,
		pkg:      cfg.Package,
		output:   cfg.Output,
		recorder: newRecorder(cfg),
	}
	if generatePackage != "" {
		job.pkg = generatePackage
	}
	if generateOutput != "" {
		job.output = generateOutput
	}
	return job, nil
}

// run generates once and records the outcome in the event log.
func (j *generateJob) run() error {
	plan, err := j.generate()
	if err != nil {
		_ = j.recorder.SchemaFailed(schemaLabel(j.source), err)
		return err
	}
	_ = j.recorder.SchemaGenerated(schemaLabel(j.source), plan.RootType, len(plan.Types), plan.PropertyCount())
	return nil
}

func (j *generateJob) generate() (*models.SchemaPlan, error) {
	obj, err := readSchema(j.in, j.source, j.format)
	if err != nil {
		return nil, err
	}

	plan, err := Generator.Plan(obj)
	if err != nil {
		return nil, fmt.Errorf("generating from %s: %w", schemaLabel(j.source), err)
	}

	opts := models.GenerateOptions{Package: j.pkg}
	if j.source != stdinSource {
		opts.Source = filepath.Base(j.source)
	}

	var buf bytes.Buffer
	if err := Generator.Generate(opts, obj, &buf); err != nil {
		return nil, fmt.Errorf("generating from %s: %w", schemaLabel(j.source), err)
	}

	if j.output == "" {
		if _, err := j.out.Write(buf.Bytes()); err != nil {
			return nil, fmt.Errorf("writing generated code: %w", err)
		}
		return plan, nil
	}

	if err := core.WriteGeneratedFile(j.output, buf.Bytes()); err != nil {
		return nil, err
	}
	fmt.Fprintf(j.errOut, "Generated %d type(s) with %d properties from %s into %s\n",
		len(plan.Types), plan.PropertyCount(), schemaLabel(j.source), j.output)
	return plan, nil
}

func init() {
	generateCmd.Flags().StringVar(&generatePackage, "package", "", "Go package name of the generated file (default from .kvoconfig)")
	generateCmd.Flags().StringVar(&generateFormat, "format", "", "Schema format: json or yaml (default: detect)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Write the generated code to this file instead of stdout")
	generateCmd.Flags().BoolVar(&generateWatch, "watch", false, "Regenerate whenever the schema file changes (needs --output)")
	rootCmd.AddCommand(generateCmd)
}
