package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvierd/studyx/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and edit settings",
	Long:  `View and edit the settings stored in ~/.studyx/config.toml.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every setting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		values := app.config.Values()
		if jsonOutput {
			return printJSON(cmd, values)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n", app.configPath)
		for _, key := range config.Keys() {
			fmt.Fprintf(out, "%-32s = %v\n", key, values[key])
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Change one setting, for example:

  studyx config set timer.focus_minutes 50
  studyx config set user.default_subject Physics`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Set(app.configPath, args[0], args[1]); err != nil {
			return fmt.Errorf("failed to set %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s = %s\n", args[0], args[1])
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), app.configPath)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configPathCmd)
}
