package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/ziwei/am"
	"github.com/teranos/ziwei/engine"
	"github.com/teranos/ziwei/internal/util"
	"github.com/teranos/ziwei/rules"
)

// CellWidth caps free-text cells in tables; JSON and YAML output is never cut.
const CellWidth = 60

// MatchRows builds the table rows for evaluation matches, header first
func MatchRows(matches []engine.Match, showDetails bool) [][]string {
	header := []string{"Rule", "Group", "Palaces", "Text"}
	if showDetails {
		header = append(header, "Details")
	}
	rows := [][]string{header}
	for _, m := range matches {
		row := []string{m.RuleID, m.RuleGroup, m.DetectedPalaceNames, util.Truncate(m.Text, CellWidth)}
		if showDetails {
			row = append(row, JoinDetails(m.Details))
		}
		rows = append(rows, row)
	}
	return rows
}

// FindingRows builds the table rows for audit findings, header first
func FindingRows(findings []rules.Finding) [][]string {
	rows := [][]string{{"Rule", "Kind", "Message"}}
	for _, f := range findings {
		id := f.RuleID
		if id == "" {
			id = "-"
		}
		rows = append(rows, []string{id, string(f.Kind), f.Message})
	}
	return rows
}

// RuleRows builds the table rows for a rule listing, header first
func RuleRows(rs []rules.Rule) [][]string {
	rows := [][]string{{"Rule", "Group", "Description", "Text"}}
	for _, r := range rs {
		rows = append(rows, []string{r.ID, r.Group(), util.Truncate(r.Description, CellWidth), util.Truncate(r.Result.Text, CellWidth)})
	}
	return rows
}

// SettingRows builds the table rows for configuration settings, header first
func SettingRows(settings []am.SettingInfo) [][]string {
	rows := [][]string{{"Key", "Value", "Source", "From"}}
	for _, s := range settings {
		rows = append(rows, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
	}
	return rows
}

// RenderTable writes rows with the first row as header. A table with no
// data rows prints empty instead.
func RenderTable(w io.Writer, rows [][]string, empty string) error {
	if len(rows) <= 1 {
		_, err := fmt.Fprintln(w, pterm.Gray(empty))
		return err
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// JoinDetails renders provenance entries on one line
func JoinDetails(details []engine.Detail) string {
	parts := make([]string, len(details))
	for i, d := range details {
		parts[i] = d.String()
	}
	return strings.Join(parts, " ")
}
