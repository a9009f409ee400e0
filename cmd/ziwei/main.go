package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/ziwei/am"
	"github.com/teranos/ziwei/cmd/ziwei/commands"
	"github.com/teranos/ziwei/errors"
	"github.com/teranos/ziwei/logger"
)

var rootCmd = &cobra.Command{
	Use:   "ziwei",
	Short: "ziwei - Zi Wei Dou Shu chart rule engine",
	Long: `ziwei - Zi Wei Dou Shu chart rule engine.

Evaluates a library of declarative interpretation rules against a natal
chart and reports every rule that fires, with the palaces that made it fire.

Available commands:
  eval    - Evaluate charts against the rule library
  audit   - Report suspicious rules in the library
  find    - Search rules by keyword
  tables  - Show the constant star and palace tables
  am      - Manage ziwei configuration ("I am")
  version - Build information

Examples:
  ziwei eval chart.json            # Firing rules for one chart
  ziwei eval -o json --details *.json
  ziwei audit --rules ziwei_rules.yaml
  ziwei am show                    # Show current configuration`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		if !cmd.Flags().Changed("log-json") {
			jsonLogs = am.GetBool("log.json")
		}
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON (default from am.toml log.json)")

	rootCmd.AddCommand(commands.EvalCmd)
	rootCmd.AddCommand(commands.AuditCmd)
	rootCmd.AddCommand(commands.FindCmd)
	rootCmd.AddCommand(commands.TablesCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err.Error())
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
