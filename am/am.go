// Package am holds the ziwei configuration ("I am"): which constant tables
// and rule library to load, and how evaluation results are rendered.
package am

// Config represents the ziwei configuration
type Config struct {
	Tables TablesConfig `mapstructure:"tables" toml:"tables" json:"tables" yaml:"tables"`
	Rules  RulesConfig  `mapstructure:"rules" toml:"rules" json:"rules" yaml:"rules"`
	Eval   EvalConfig   `mapstructure:"eval" toml:"eval" json:"eval" yaml:"eval"`
	Log    LogConfig    `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
}

// TablesConfig points at an optional constant tables override file.
// Empty path uses the embedded tables.
type TablesConfig struct {
	Path string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
}

// RulesConfig locates the rule library
type RulesConfig struct {
	Path   string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
	Format string `mapstructure:"format" toml:"format" json:"format" yaml:"format"` // auto, json, yaml
}

// EvalConfig controls chart evaluation defaults
type EvalConfig struct {
	Gender      string `mapstructure:"gender" toml:"gender" json:"gender" yaml:"gender"` // used when the chart document carries none
	Output      string `mapstructure:"output" toml:"output" json:"output" yaml:"output"` // table, json, yaml
	ShowDetails bool   `mapstructure:"show_details" toml:"show_details" json:"show_details" yaml:"show_details"`
}

// LogConfig configures the global logger
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
}

// File and directory permissions
const (
	DefaultDirPermissions  = 0o750
	DefaultFilePermissions = 0o644
)

// ConfigFileName is the name searched for in system, user and project locations
const ConfigFileName = "am.toml"
