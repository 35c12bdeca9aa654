package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ariel-frischer/changelog2html/internal/config"
	clierrors "github.com/ariel-frischer/changelog2html/internal/errors"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage changelog2html configuration",
	Long: `Manage changelog2html configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (CHANGELOG2HTML_*)
  3. Project config (.changelog2html.yml, or the file given with --config)
  4. User config (~/.config/changelog2html/config.yml)
  5. Built-in defaults`,
	Example: `  # Show the effective configuration and where each value came from
  changelog2html config show

  # Create a commented project config
  changelog2html config init

  # Convert a legacy .changelog2html.json
  changelog2html config migrate`,
}

var (
	showJSON   bool
	initUser   bool
	initForce  bool
	migrateDry bool
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Effective(config.LoadOptions{
			ConfigFile:    configFile,
			WarningWriter: cmd.ErrOrStderr(),
		})
		if err != nil {
			if configFile != "" {
				if _, statErr := os.Stat(configFile); statErr != nil {
					return clierrors.ConfigFileNotFound(configFile)
				}
			}
			return clierrors.ConfigParseError(configPathForErrors(), err)
		}

		out := cmd.OutOrStdout()
		if showJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(settings)
		}

		width := 0
		for _, s := range settings {
			if len(s.Key) > width {
				width = len(s.Key)
			}
		}
		for _, s := range settings {
			fmt.Fprintf(out, "%-*s  %v  %s\n", width, s.Key, s.Value, cDim("("+string(s.Source)+")"))
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a commented config file",
	Long: `Create a config file listing every option with its default value.

By default the project config .changelog2html.yml is created in the current
directory. Use --user for ~/.config/changelog2html/config.yml. An existing file
is left unchanged unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ProjectConfigPath()
		if initUser {
			p, err := config.UserConfigPath()
			if err != nil {
				return clierrors.Wrap(err, clierrors.Configuration)
			}
			path = p
		}

		if _, err := os.Stat(path); err == nil && !initForce {
			return clierrors.NewConfigError(
				fmt.Sprintf("config already exists: %s", path),
				"Use --force to overwrite it",
			)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return clierrors.FileNotWritable(path, err)
		}
		if err := os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
			return clierrors.FileNotWritable(path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Created %s\n", cGreen("✓"), path)
		return nil
	},
}

var configMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Convert a legacy JSON project config to YAML",
	Long: `Convert .changelog2html.json to .changelog2html.yml.

The JSON file is kept as .changelog2html.json.bak. Nothing happens when the
YAML file already exists.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		legacy := config.DetectLegacyConfig()
		if legacy == "" {
			fmt.Fprintf(out, "No legacy config found at %s\n", config.LegacyProjectConfigPath())
			return nil
		}

		result, err := config.MigrateProjectConfig(migrateDry)
		if err != nil {
			return clierrors.WrapWithMessage(err, clierrors.Configuration,
				fmt.Sprintf("migrating %s failed", legacy),
				"Check that the file is valid JSON",
			)
		}
		if !result.Success {
			fmt.Fprintln(out, result.Message)
			return nil
		}

		if err := config.RemoveLegacyConfig(result.SourcePath, migrateDry); err != nil {
			return clierrors.Wrap(err, clierrors.Runtime)
		}
		if result.DryRun {
			fmt.Fprintf(out, "%s %s\n", cYellow("[dry-run]"), result.Message)
			return nil
		}
		fmt.Fprintf(out, "%s %s (backup: %s.bak)\n", cGreen("✓"), result.Message, result.SourcePath)
		return nil
	},
}

func init() {
	configCmd.GroupID = GroupConfiguration

	configShowCmd.Flags().BoolVar(&showJSON, "json", false, "JSON output")
	configInitCmd.Flags().BoolVar(&initUser, "user", false, "Create the user config instead of the project config")
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config")
	configMigrateCmd.Flags().BoolVar(&migrateDry, "dry-run", false, "Report what would change without writing")

	configCmd.AddCommand(configShowCmd, configInitCmd, configMigrateCmd)
	rootCmd.AddCommand(configCmd)
}

func configPathForErrors() string {
	if configFile != "" {
		return configFile
	}
	return config.ProjectConfigPath()
}
