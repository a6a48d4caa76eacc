package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/xvierd/studyx/internal/config"
	"github.com/xvierd/studyx/internal/services"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export your study data",
	Long: `Export everything as a JSON backup (sessions, subjects, assignments, goals
and settings) or the session history as CSV.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", exportOutput, err)
			}
			defer f.Close()
			w = f
		}
		return runExport(cmd.Context(), w)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format: json or csv")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")
}

func runExport(ctx context.Context, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	switch exportFormat {
	case "csv":
		return app.backup.ExportSessionsCSV(ctx, w)
	case "json":
		settings := services.SettingsFromConfig(app.config)
		return app.backup.Export(ctx, w, &settings)
	default:
		return fmt.Errorf("unknown export format %q (use json or csv)", exportFormat)
	}
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Restore a JSON backup",
	Long: `Restore a backup written by "studyx export". Each collection present in the
file replaces the stored one; collections missing from the file are kept.
Settings in the backup are written to the config file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open backup: %w", err)
		}
		defer f.Close()

		result, err := app.backup.Import(context.Background(), f)
		if err != nil {
			return err
		}

		if result.Settings != nil {
			result.Settings.ApplyTo(app.config)
			if err := app.config.Validate(); err != nil {
				return fmt.Errorf("backup settings rejected: %w", err)
			}
			if err := config.SaveTo(app.configPath, app.config); err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}
		}

		if jsonOutput {
			return printJSON(cmd, map[string]any{
				"sessions":         result.Sessions,
				"subjects":         result.Subjects,
				"assignments":      result.Assignments,
				"goals":            result.Goals,
				"settings_applied": result.Settings != nil,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Imported %d subjects, %d sessions, %d assignments, %d goals\n",
			result.Subjects, result.Sessions, result.Assignments, result.Goals)
		if result.Settings != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "   Settings written to "+app.configPath)
		}
		return nil
	},
}
