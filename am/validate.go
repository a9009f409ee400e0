package am

import (
	"github.com/teranos/ziwei/chart"
	"github.com/teranos/ziwei/errors"
	"github.com/teranos/ziwei/rules"
)

// Output formats accepted by eval.output
var OutputFormats = []string{"table", "json", "yaml"}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Rules.Path == "" {
		return errors.WithHint(
			errors.NewInvalidRequestError("rules.path cannot be empty"),
			"set rules.path in am.toml or "+EnvKey("rules.path"),
		)
	}
	if _, err := rules.ParseFormat(c.Rules.Format); err != nil {
		return errors.Wrap(err, "rules.format")
	}
	if _, err := chart.ParseGender(c.Eval.Gender); err != nil {
		return errors.Wrap(err, "eval.gender")
	}
	if !validOutput(c.Eval.Output) {
		return errors.WithHintf(
			errors.NewInvalidRequestError("eval.output %q is not supported", c.Eval.Output),
			"use one of %v", OutputFormats,
		)
	}
	return nil
}

func validOutput(s string) bool {
	for _, f := range OutputFormats {
		if s == f {
			return true
		}
	}
	return false
}
