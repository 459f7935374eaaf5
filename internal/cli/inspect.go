package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/gokvo/pkg/models"
)

var (
	inspectJSON   bool
	inspectFormat string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <schema-file>",
	Short: "List the types and properties a schema would generate",
	Long: `Collect the types, properties and imports that generate would emit for
an object description, without rendering any code.

Types are listed in generation order: nested types first, the root type
last. Use --json for machine-readable output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Generator == nil {
			return fmt.Errorf("generator not initialized")
		}

		cfg, err := loadGeneratorConfig()
		if err != nil {
			return err
		}
		format, err := resolveFormat(inspectFormat, cfg)
		if err != nil {
			return err
		}

		obj, err := readSchema(cmd.InOrStdin(), args[0], format)
		if err != nil {
			return err
		}
		plan, err := Generator.Plan(obj)
		if err != nil {
			return fmt.Errorf("inspecting %s: %w", schemaLabel(args[0]), err)
		}

		if inspectJSON {
			data, err := json.MarshalIndent(plan, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting plan as JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		renderPlan(cmd.OutOrStdout(), plan)
		return nil
	},
}

func renderPlan(w io.Writer, plan *models.SchemaPlan) {
	for i, t := range plan.Types {
		if i > 0 {
			fmt.Fprintln(w)
		}
		header := t.Name
		if t.Name == plan.RootType {
			header += " (root)"
		}
		fmt.Fprintln(w, headerStyle.Render(header))

		keyWidth, typeWidth := 0, 0
		for _, p := range t.Properties {
			keyWidth = max(keyWidth, len(p.Key))
			typeWidth = max(typeWidth, len(p.Type))
		}
		for _, p := range t.Properties {
			typ := styleForKind(p.Kind).Render(fmt.Sprintf("%-*s", typeWidth, p.Type))
			fmt.Fprintf(w, "  %-*s  %s  = %s\n", keyWidth, p.Key, typ, p.InitialValue)
		}
	}

	if len(plan.Imports) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Imports"))
		for _, imp := range plan.Imports {
			fmt.Fprintf(w, "  %s %q\n", imp.Alias, imp.Path)
		}
	}

	fmt.Fprintf(w, "\n%d type(s), %d properties\n", len(plan.Types), plan.PropertyCount())
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output the plan as JSON")
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "", "Schema format: json or yaml (default: detect)")
	rootCmd.AddCommand(inspectCmd)
}
