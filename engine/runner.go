package engine

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/teranos/ziwei/chart"
	"github.com/teranos/ziwei/errors"
	"github.com/teranos/ziwei/logger"
	"github.com/teranos/ziwei/rules"
	"github.com/teranos/ziwei/tables"
)

// PalaceSeparator joins detected palace names.
const PalaceSeparator = "與"

// Placeholders are the generic palace references replaced in result text
// once the firing palaces are known.
var Placeholders = []string{"某宮", "該宮位", "那個宮位", "此宮"}

// Match is the record produced for a firing rule.
type Match struct {
	RuleID              string         `json:"rule_id" yaml:"rule_id"`
	Category            string         `json:"category" yaml:"category"`
	Description         string         `json:"description" yaml:"description"`
	Text                string         `json:"text" yaml:"text"`
	Tags                []string       `json:"tags" yaml:"tags"`
	RuleGroup           string         `json:"rule_group" yaml:"rule_group"`
	DetectedPalaceNames string         `json:"detected_palace_names" yaml:"detected_palace_names"`
	Extra               map[string]any `json:"-" yaml:"-"`
	Details             []Detail       `json:"details,omitempty" yaml:"details,omitempty"`
}

// Fields flattens the match into one map: extra result fields first, then
// the named fields, which win on collision.
func (m Match) Fields() map[string]any {
	out := make(map[string]any, len(m.Extra)+8)
	for k, v := range m.Extra {
		out[k] = v
	}
	out["rule_id"] = m.RuleID
	out["category"] = m.Category
	out["description"] = m.Description
	out["text"] = m.Text
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	out["tags"] = tags
	out["rule_group"] = m.RuleGroup
	out["detected_palace_names"] = m.DetectedPalaceNames
	if len(m.Details) > 0 {
		out["details"] = m.Details
	}
	return out
}

// MarshalJSON writes the flattened Fields.
func (m Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Fields())
}

// MarshalYAML writes the flattened Fields.
func (m Match) MarshalYAML() (any, error) {
	return m.Fields(), nil
}

// Skipped is a rule left out of evaluation.
type Skipped struct {
	RuleID string
	Err    error
}

type compiledRule struct {
	rule  rules.Rule
	root  rules.Node
	group string
}

// Runner evaluates a compiled rule list against charts. A Runner is
// read-only after construction and may be shared between goroutines.
type Runner struct {
	tables  *tables.Tables
	rules   []compiledRule
	skipped []Skipped
}

// NewRunner compiles every rule. Rules that fail to compile are recorded in
// Skipped and left out of every run.
func NewRunner(rs []rules.Rule, t *tables.Tables) *Runner {
	if t == nil {
		t = tables.Default()
	}
	log := logger.ComponentLogger("engine")

	r := &Runner{tables: t, rules: make([]compiledRule, 0, len(rs))}
	for _, rule := range rs {
		root, err := rule.Compile()
		if err != nil {
			log.Debugw("skipping rule", logger.FieldRuleID, rule.ID, logger.FieldError, err)
			r.skipped = append(r.skipped, Skipped{RuleID: rule.ID, Err: err})
			continue
		}
		r.rules = append(r.rules, compiledRule{rule: rule, root: root, group: rule.Group()})
	}
	return r
}

// Skipped returns the rules that failed to compile, in library order.
func (r *Runner) Skipped() []Skipped {
	return r.skipped
}

// Len is the number of runnable rules.
func (r *Runner) Len() int {
	return len(r.rules)
}

// Run evaluates every rule against c and returns the matches in rule
// order. A rule that fails during evaluation is logged and skipped.
func (r *Runner) Run(ctx context.Context, c *chart.Chart) []Match {
	log := logger.LoggerFromContext(ctx).Named("engine")
	start := time.Now()

	ev := NewEvaluator(c, r.tables)
	var matches []Match
	for _, cr := range r.rules {
		m, ok, err := r.evaluate(ev, cr)
		if err != nil {
			log.Debugw("rule failed during evaluation", logger.FieldRuleID, cr.rule.ID, logger.FieldError, err)
			continue
		}
		if ok {
			matches = append(matches, m)
		}
	}

	log.Debugw("evaluated rules",
		logger.FieldTotalCount, len(r.rules),
		logger.FieldCount, len(matches),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return matches
}

// Run compiles rs and evaluates it against c in one step.
func Run(ctx context.Context, c *chart.Chart, rs []rules.Rule, t *tables.Tables) []Match {
	return NewRunner(rs, t).Run(ctx, c)
}

func (r *Runner) evaluate(ev *Evaluator, cr compiledRule) (m Match, ok bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.AssertionFailedf("panic evaluating rule %s: %v", cr.rule.ID, p)
			ok = false
		}
	}()

	var details []Detail
	if !ev.Evaluate(cr.root, &details) {
		return Match{}, false, nil
	}
	return shape(cr, details), true, nil
}

// shape builds the match record and substitutes the detected palaces into
// the placeholders of text and description.
func shape(cr compiledRule, details []Detail) Match {
	res := cr.rule.Result
	m := Match{
		RuleID:      cr.rule.ID,
		Category:    cr.rule.Category,
		Description: cr.rule.Description,
		Text:        res.Text,
		Tags:        append([]string(nil), res.Tags...),
		RuleGroup:   cr.group,
		Details:     details,
	}
	if len(res.Extra) > 0 {
		m.Extra = make(map[string]any, len(res.Extra))
		for k, v := range res.Extra {
			m.Extra[k] = v
		}
	}

	names := DetectedPalaces(details)
	if len(names) == 0 {
		return m
	}
	m.DetectedPalaceNames = strings.Join(names, PalaceSeparator)

	pairs := make([]string, 0, 2*len(Placeholders))
	for _, ph := range Placeholders {
		pairs = append(pairs, ph, m.DetectedPalaceNames)
	}
	rep := strings.NewReplacer(pairs...)
	m.Text = rep.Replace(m.Text)
	m.Description = rep.Replace(m.Description)
	return m
}

// DetectedPalaces returns the unique palace names in details, in the order
// they were first recorded.
func DetectedPalaces(details []Detail) []string {
	seen := make(map[string]struct{}, len(details))
	var names []string
	for _, d := range details {
		if d.Palace == "" {
			continue
		}
		if _, dup := seen[d.Palace]; dup {
			continue
		}
		seen[d.Palace] = struct{}{}
		names = append(names, d.Palace)
	}
	return names
}
