// Package sym defines the glyphs printed in front of ziwei command output.
// They are stable across CLI output and documentation.
package sym

// Command glyphs
const (
	Eval    = "⊨" // a rule holds on a chart
	Audit   = "⌬" // rule library inspection
	Find    = "⋈" // rule search
	Tables  = "▤" // constant tables
	AM      = "≡" // configuration
	Version = "⍟" // build info
)

// Markers used inside command output
const (
	Match  = "✦" // fired rule
	Skip   = "∅" // rule left out of evaluation
	Reload = "⟳" // rule library reloaded by the watcher
)

// entry binds a glyph to its command and description
type entry struct {
	glyph       string
	command     string
	description string
}

var registry = []entry{
	{Eval, "eval", "Evaluate charts against the rule library"},
	{Audit, "audit", "Report suspicious rules in the library"},
	{Find, "find", "Search rules by keyword"},
	{Tables, "tables", "Show the constant star and palace tables"},
	{AM, "am", "Configuration and its sources"},
	{Version, "version", "Build information"},
}

// SymbolToCommand maps glyph strings to their command names.
var SymbolToCommand = map[string]string{}

// CommandToSymbol maps command names to their glyph strings.
var CommandToSymbol = map[string]string{}

// CommandDescriptions provides one-line explanations per command.
var CommandDescriptions = map[string]string{}

func init() {
	for _, e := range registry {
		SymbolToCommand[e.glyph] = e.command
		CommandToSymbol[e.command] = e.glyph
		CommandDescriptions[e.command] = e.description
	}
}

// Short builds a cobra Short line: glyph, space, description
func Short(command string) string {
	glyph, ok := CommandToSymbol[command]
	if !ok {
		return CommandDescriptions[command]
	}
	return glyph + " " + CommandDescriptions[command]
}
