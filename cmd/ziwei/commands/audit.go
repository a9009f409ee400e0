package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/ziwei/display"
	"github.com/teranos/ziwei/errors"
	"github.com/teranos/ziwei/rules"
	"github.com/teranos/ziwei/sym"
)

// AuditCmd reports rules whose conditions look wrong
var AuditCmd = &cobra.Command{
	Use:   "audit",
	Short: sym.Short("audit"),
	Long: sym.Audit + ` audit — Report suspicious rules in the library

Flags rules with null or empty conditions, conditions that do not compile,
and descriptions whose keywords (無吉, 四馬, 空劫) have no matching clause.
Records that could not be decoded at all are listed without a rule id.

Examples:
  ziwei audit                        # Table of findings
  ziwei audit --output json          # Findings as JSON
  ziwei audit --strict               # Exit non-zero when anything is found`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	addLibraryFlags(AuditCmd)
	AuditCmd.Flags().StringP("output", "o", "", "Output format: table, json, yaml")
	AuditCmd.Flags().Bool("strict", false, "Fail when the audit reports any finding")
}

func runAudit(cmd *cobra.Command, args []string) error {
	s, err := resolve(cmd)
	if err != nil {
		return err
	}
	format, err := display.ParseFormat(s.Output)
	if err != nil {
		return err
	}
	lib, err := s.loadLibrary()
	if err != nil {
		return err
	}

	findings := rules.Audit(lib)
	out := cmd.OutOrStdout()
	if format == display.FormatTable {
		if err := display.RenderTable(out, display.FindingRows(findings), "no findings"); err != nil {
			return err
		}
	} else {
		if findings == nil {
			findings = []rules.Finding{}
		}
		if err := display.Write(out, format, findings); err != nil {
			return err
		}
	}

	if strict, _ := cmd.Flags().GetBool("strict"); strict && len(findings) > 0 {
		return errors.Newf("audit found %d issue(s) in %d rules", len(findings), len(lib.Rules))
	}
	if format == display.FormatTable && len(findings) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d finding(s) in %d rules\n", len(findings), len(lib.Rules))
	}
	return nil
}
