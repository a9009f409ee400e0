package commands

import (
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/teranos/ziwei/display"
	"github.com/teranos/ziwei/rules"
	"github.com/teranos/ziwei/sym"
)

// FindCmd searches the rule library by keyword
var FindCmd = &cobra.Command{
	Use:   "find <term>...",
	Short: sym.Short("find"),
	Long: sym.Find + ` find — Search rules by keyword

Every term must appear in the rule id, description or result text.
Quote a term to search for a phrase containing spaces.

Examples:
  ziwei find 命宮 地空
  ziwei find "利於 遠行"
  ziwei find --output yaml FH-2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFind,
}

func init() {
	addLibraryFlags(FindCmd)
	FindCmd.Flags().StringP("output", "o", "", "Output format: table, json, yaml")
}

func runFind(cmd *cobra.Command, args []string) error {
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

	// The shell already split the terms; quote them again so phrases survive.
	found, err := rules.Find(lib, shellquote.Join(args...))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == display.FormatTable {
		return display.RenderTable(out, display.RuleRows(found), "no rules found")
	}
	if found == nil {
		found = []rules.Rule{}
	}
	return display.Write(out, format, found)
}
