package am

import "github.com/spf13/viper"

// Default values
const (
	DefaultRulesPath   = "ziwei_rules.json"
	DefaultRulesFormat = "auto"
	DefaultGender      = "M"
	DefaultOutput      = "table"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("tables.path", "")

	v.SetDefault("rules.path", DefaultRulesPath)
	v.SetDefault("rules.format", DefaultRulesFormat)

	v.SetDefault("eval.gender", DefaultGender)
	v.SetDefault("eval.output", DefaultOutput)
	v.SetDefault("eval.show_details", false)

	v.SetDefault("log.json", false)
}

// DefaultConfig returns the configuration produced by SetDefaults alone
func DefaultConfig() *Config {
	return &Config{
		Rules: RulesConfig{Path: DefaultRulesPath, Format: DefaultRulesFormat},
		Eval:  EvalConfig{Gender: DefaultGender, Output: DefaultOutput},
	}
}
