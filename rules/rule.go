// Package rules is the rule library: rule records, the condition grammar
// and its compiler, loaders for JSON and YAML libraries, and the audit and
// search tools that operate on a library without a chart.
package rules

import (
	"github.com/go-viper/mapstructure/v2"

	"github.com/teranos/ziwei/errors"
)

// GrammarVersion is the condition grammar understood by this build.
// Versioned libraries declare a semver constraint against it.
const GrammarVersion = "1.1.0"

// Rule groups, derived from the root condition's flying_from.
const (
	// GroupStars covers stars-in-place rules.
	GroupStars = "A"
	// GroupLifeFlying covers transformations flown from the life palace.
	GroupLifeFlying = "B"
	// GroupCrossFlying covers transformations flown between other palaces.
	GroupCrossFlying = "C"
)

// Rule is one library record. Conditions stay raw until compiled so that a
// malformed tree only affects its own rule.
type Rule struct {
	ID          string `mapstructure:"id" json:"id" yaml:"id"`
	Category    string `mapstructure:"category" json:"category" yaml:"category"`
	Type        string `mapstructure:"type" json:"type,omitempty" yaml:"type,omitempty"`
	Description string `mapstructure:"description" json:"description" yaml:"description"`
	Conditions  any    `mapstructure:"conditions" json:"conditions" yaml:"conditions"`
	Result      Result `mapstructure:"result" json:"result" yaml:"result"`
}

// Result is the payload copied into a match. Fields other than text and
// tags are kept in Extra and passed through unchanged.
type Result struct {
	Text  string         `mapstructure:"text" json:"text" yaml:"text"`
	Tags  []string       `mapstructure:"tags" json:"tags,omitempty" yaml:"tags,omitempty"`
	Extra map[string]any `mapstructure:",remain" json:"-" yaml:"-"`
}

// Group classifies the rule by the flying_from key of its root condition
// only; nested flying_from is ignored.
func (r Rule) Group() string {
	m, ok := asMap(r.Conditions)
	if !ok {
		return GroupStars
	}
	from, ok := m["flying_from"]
	if !ok {
		return GroupStars
	}
	if from == "life" {
		return GroupLifeFlying
	}
	return GroupCrossFlying
}

// Compile compiles the rule's conditions.
func (r Rule) Compile() (Node, error) {
	n, err := Compile(r.Conditions)
	if err != nil {
		return nil, errors.Wrapf(err, "rule %s", r.ID)
	}
	return n, nil
}

// DecodeRule decodes one raw record. Scalars are weakly typed so numeric
// ids and single-string tags are accepted. A record without a result is
// rejected.
func DecodeRule(raw any) (Rule, error) {
	m, ok := asMap(raw)
	if !ok {
		return Rule{}, errors.NewInvalidRequestError("rule record must be an object, got %T", raw)
	}
	if res, present := m["result"]; !present || res == nil {
		return Rule{}, errors.NewInvalidRequestError("rule %q has no result", recordID(raw))
	}

	var r Rule
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &r,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return Rule{}, errors.Wrap(err, "failed to build rule decoder")
	}
	if err := dec.Decode(raw); err != nil {
		return Rule{}, errors.Wrap(err, "failed to decode rule record")
	}
	return r, nil
}
