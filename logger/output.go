package logger

// Output controls what categories of information are shown at each verbosity level.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
//
//	0 (default) - matches, errors with hints
//	1 (-v)      - + library summaries (rules loaded, matches found)
//	2 (-vv)     - + skipped rules, timing, config loaded
//	3 (-vvv)    - + provenance details per match

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	OutputResults OutputCategory = iota // Match records, audit findings
	OutputErrors                        // Errors with hints

	OutputSummary // Rule/match counts

	OutputSkippedRules // Rules dropped by the runner
	OutputTiming       // Evaluation timing
	OutputConfig       // Config values loaded/applied

	OutputProvenance // Raw provenance entries
)

var categoryLevels = map[OutputCategory]int{
	OutputResults: VerbosityUser,
	OutputErrors:  VerbosityUser,

	OutputSummary: VerbosityInfo,

	OutputSkippedRules: VerbosityDebug,
	OutputTiming:       VerbosityDebug,
	OutputConfig:       VerbosityDebug,

	OutputProvenance: VerbosityTrace,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		return verbosity >= VerbosityTrace
	}
	return verbosity >= minLevel
}

var categoryNames = map[OutputCategory]string{
	OutputResults:      "results",
	OutputErrors:       "errors",
	OutputSummary:      "summary",
	OutputSkippedRules: "skipped-rules",
	OutputTiming:       "timing",
	OutputConfig:       "config",
	OutputProvenance:   "provenance",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}
