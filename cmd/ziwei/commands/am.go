package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/ziwei/am"
	"github.com/teranos/ziwei/display"
	"github.com/teranos/ziwei/errors"
	"github.com/teranos/ziwei/sym"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: sym.Short("am"),
	Long: sym.AM + ` am — Manage ziwei configuration ("I am")

Configuration sources (later overrides earlier):
1. Default values
2. System config (/etc/ziwei/am.toml)
3. User config (~/.ziwei/am.toml)
4. Project config (./am.toml, searched upward)
5. Environment variables (ZIWEI_* prefix, e.g. ZIWEI_RULES_PATH)
6. Command line flags

Examples:
  ziwei am show                    # Show current configuration
  ziwei am show --format json      # Show configuration in JSON format
  ziwei am get rules.path          # Get a specific value
  ziwei am where                   # Show where each value comes from
  ziwei am init                    # Write a default ./am.toml`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., rules.path, eval.gender)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Args:  cobra.NoArgs,
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Args:  cobra.NoArgs,
	RunE:  runAmWhere,
}

var amInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default am.toml",
	Args:  cobra.NoArgs,
	RunE:  runAmInit,
}

func init() {
	amShowCmd.Flags().String("format", "toml", "Output format: toml, json, yaml")
	amInitCmd.Flags().String("path", am.ConfigFileName, "Where to write the config file")
	amInitCmd.Flags().Bool("force", false, "Overwrite an existing file, keeping a .back1 backup")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
	AmCmd.AddCommand(amInitCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	out := cmd.OutOrStdout()
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "toml":
		data, err := am.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "# ziwei configuration\n%s", data)
		return nil
	case "json":
		return display.Write(out, display.FormatJSON, cfg)
	case "yaml":
		return display.Write(out, display.FormatYAML, cfg)
	}
	return errors.NewInvalidRequestError("unsupported format: %s (supported: toml, json, yaml)", format)
}

func runAmGet(cmd *cobra.Command, args []string) error {
	setting, err := am.Lookup(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), setting.Value)
	if verbosity(cmd) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "source: %s (%s)\n", setting.Source, setting.SourcePath)
	}
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	// Load validates; a failure here carries the offending key.
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Fprintln(cmd.OutOrStdout(), pterm.Green("✓ Configuration is valid"))
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return errors.Wrap(err, "failed to get config introspection")
	}

	out := cmd.OutOrStdout()
	if intro.ConfigFile == "" {
		fmt.Fprintln(out, "No config file found; using defaults and environment")
	} else {
		fmt.Fprintf(out, "Config file: %s\n", intro.ConfigFile)
	}
	return display.RenderTable(out, display.SettingRows(intro.Settings), "no settings")
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	force, _ := cmd.Flags().GetBool("force")
	if err := am.WriteDefault(path, force); err != nil {
		return err
	}
	pterm.Fprintln(cmd.OutOrStdout(), pterm.Green("✓ Wrote "+path))
	return nil
}
