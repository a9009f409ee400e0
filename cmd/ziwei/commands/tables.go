package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/ziwei/chart"
	"github.com/teranos/ziwei/display"
	"github.com/teranos/ziwei/sym"
	"github.com/teranos/ziwei/tables"
)

// TablesCmd prints the constant tables in effect
var TablesCmd = &cobra.Command{
	Use:   "tables",
	Short: sym.Short("tables"),
	Long: sym.Tables + ` tables — Show the constant star and palace tables

Lists the star keys usable in conditions with their display names, or the
palace roles, or the stem transformation (四化) table. An override file set
through tables.path or --tables is applied on top of the built-in tables.

Examples:
  ziwei tables              # Stars
  ziwei tables --palaces    # Palace roles
  ziwei tables --si-hua     # Stem transformations`,
	Args: cobra.NoArgs,
	RunE: runTables,
}

func init() {
	TablesCmd.Flags().String("tables", "", "Constant tables override file")
	TablesCmd.Flags().StringP("output", "o", "", "Output format: table, json, yaml")
	TablesCmd.Flags().Bool("palaces", false, "Show palace roles instead of stars")
	TablesCmd.Flags().Bool("si-hua", false, "Show the stem transformation table instead of stars")
}

// StarEntry is one row of the star table
type StarEntry struct {
	Key   string `json:"key" yaml:"key"`
	Name  string `json:"name" yaml:"name"`
	Main  bool   `json:"main" yaml:"main"`
	Lucky bool   `json:"lucky" yaml:"lucky"`
}

// PalaceEntry is one row of the palace table
type PalaceEntry struct {
	Role string `json:"role" yaml:"role"`
	Name string `json:"name" yaml:"name"`
}

// SiHuaEntry is one stem with the stars it transforms
type SiHuaEntry struct {
	Stem string `json:"stem" yaml:"stem"`
	Lu   string `json:"hua_lu" yaml:"hua_lu"`
	Quan string `json:"hua_quan" yaml:"hua_quan"`
	Ke   string `json:"hua_ke" yaml:"hua_ke"`
	Ji   string `json:"hua_ji" yaml:"hua_ji"`
}

func runTables(cmd *cobra.Command, args []string) error {
	s, err := resolve(cmd)
	if err != nil {
		return err
	}
	format, err := display.ParseFormat(s.Output)
	if err != nil {
		return err
	}
	t, err := s.loadTables()
	if err != nil {
		return err
	}

	var (
		data any
		rows [][]string
	)
	switch {
	case flagSet(cmd, "si-hua"):
		entries := SiHuaTable(t)
		data = entries
		rows = [][]string{{"Stem", "化祿", "化權", "化科", "化忌"}}
		for _, e := range entries {
			rows = append(rows, []string{e.Stem, t.StarName(e.Lu), t.StarName(e.Quan), t.StarName(e.Ke), t.StarName(e.Ji)})
		}
	case flagSet(cmd, "palaces"):
		entries := PalaceTable(t)
		data = entries
		rows = [][]string{{"Role", "Name"}}
		for _, e := range entries {
			rows = append(rows, []string{e.Role, e.Name})
		}
	default:
		entries := StarTable(t)
		data = entries
		rows = [][]string{{"Key", "Name", "Set"}}
		for _, e := range entries {
			set := ""
			switch {
			case e.Main:
				set = "main"
			case e.Lucky:
				set = "lucky"
			}
			rows = append(rows, []string{e.Key, e.Name, set})
		}
	}

	if format == display.FormatTable {
		return display.RenderTable(cmd.OutOrStdout(), rows, "empty table")
	}
	return display.Write(cmd.OutOrStdout(), format, data)
}

// StarTable lists every star key in sorted order
func StarTable(t *tables.Tables) []StarEntry {
	keys := t.StarKeys()
	out := make([]StarEntry, len(keys))
	for i, k := range keys {
		out[i] = StarEntry{Key: k, Name: t.StarName(k), Main: t.IsMain(k), Lucky: t.IsLucky(k)}
	}
	return out
}

// PalaceTable lists the twelve roles in traditional order
func PalaceTable(t *tables.Tables) []PalaceEntry {
	out := make([]PalaceEntry, len(chart.Roles))
	for i, role := range chart.Roles {
		out[i] = PalaceEntry{Role: role, Name: t.PalaceName(role)}
	}
	return out
}

// SiHuaTable lists the transformations of every stem in stem order
func SiHuaTable(t *tables.Tables) []SiHuaEntry {
	out := make([]SiHuaEntry, 0, len(t.Stems))
	for _, stem := range t.Stems {
		e := SiHuaEntry{Stem: stem}
		e.Lu, _ = t.SiHuaStar(stem, tables.HuaLu)
		e.Quan, _ = t.SiHuaStar(stem, tables.HuaQuan)
		e.Ke, _ = t.SiHuaStar(stem, tables.HuaKe)
		e.Ji, _ = t.SiHuaStar(stem, tables.HuaJi)
		out = append(out, e)
	}
	return out
}

func flagSet(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}
