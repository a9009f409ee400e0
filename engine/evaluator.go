// Package engine interprets compiled rule conditions against a chart.
//
// The Evaluator is a pure function of (chart, condition) apart from the
// provenance it appends to a caller-owned accumulator. The Runner walks a
// rule list and shapes firing rules into Match records.
package engine

import (
	"fmt"

	"github.com/teranos/ziwei/chart"
	"github.com/teranos/ziwei/rules"
	"github.com/teranos/ziwei/tables"
)

// DetailKind distinguishes provenance entries.
type DetailKind string

const (
	// DetailPalace records a palace that satisfied a leaf.
	DetailPalace DetailKind = "palace"
	// DetailFlying records the star a flown transformation landed on.
	DetailFlying DetailKind = "flying"
)

// Detail is one provenance entry.
type Detail struct {
	Kind   DetailKind `json:"kind" yaml:"kind"`
	Palace string     `json:"palace" yaml:"palace"`
	Star   string     `json:"star,omitempty" yaml:"star,omitempty"`
}

func (d Detail) String() string {
	if d.Kind == DetailFlying {
		return fmt.Sprintf("(飛入: %s之%s)", d.Palace, d.Star)
	}
	return "<" + d.Palace + ">"
}

// Evaluator evaluates conditions against one chart.
type Evaluator struct {
	chart  *chart.Chart
	tables *tables.Tables
}

// NewEvaluator binds a chart and the constant tables. A nil t uses the
// embedded defaults.
func NewEvaluator(c *chart.Chart, t *tables.Tables) *Evaluator {
	if t == nil {
		t = tables.Default()
	}
	return &Evaluator{chart: c, tables: t}
}

// Evaluate reports whether n holds. Leaves append provenance to acc only
// for the palace that satisfied them. Composites short-circuit and never
// remove entries, so acc keeps everything recorded before a false result.
func (e *Evaluator) Evaluate(n rules.Node, acc *[]Detail) bool {
	switch n := n.(type) {
	case *rules.Composite:
		return e.composite(n, acc)
	case *rules.Leaf:
		return e.leaf(n, acc)
	}
	return false
}

func (e *Evaluator) composite(c *rules.Composite, acc *[]Detail) bool {
	var ok bool
	switch c.Op {
	case rules.OpAnd:
		ok = true
		for _, sub := range c.Criteria {
			if !e.Evaluate(sub, acc) {
				ok = false
				break
			}
		}
	case rules.OpOr:
		for _, sub := range c.Criteria {
			if e.Evaluate(sub, acc) {
				ok = true
				break
			}
		}
	case rules.OpNot:
		if len(c.Criteria) == 1 {
			ok = !e.Evaluate(c.Criteria[0], acc)
		}
	}
	return ok
}

func (e *Evaluator) leaf(l *rules.Leaf, acc *[]Detail) bool {
	switch l.Target.Kind {
	case rules.TargetContext:
		if l.Has(rules.ClauseGender) {
			return e.chart.Gender() == l.Gender
		}
		return true
	case rules.TargetStar:
		return e.starLeaf(l)
	}

	for _, p := range e.targets(l.Target) {
		flown, ok := e.matchPalace(l, p)
		if !ok {
			continue
		}
		name := e.PalaceName(p)
		if flown != "" {
			*acc = append(*acc, Detail{Kind: DetailFlying, Palace: name, Star: e.tables.StarName(flown)})
		}
		*acc = append(*acc, Detail{Kind: DetailPalace, Palace: name})
		return true
	}
	return false
}

// starLeaf checks the transformation of one named star in a role palace.
// Only has_trans is meaningful here and it is read strictly.
func (e *Evaluator) starLeaf(l *rules.Leaf) bool {
	p, ok := e.chart.ByRole(l.Target.Base)
	if !ok || l.Star == "" {
		return false
	}
	s, ok := p.Star(l.Star)
	if !ok || !l.Has(rules.ClauseHasTrans) || s.Transformation == "" {
		return false
	}
	return contains(l.HasTrans, s.Transformation)
}

func (e *Evaluator) targets(t rules.Target) []*chart.Palace {
	switch t.Kind {
	case rules.TargetRole:
		if p, ok := e.chart.ByRole(t.Base); ok {
			return []*chart.Palace{p}
		}
	case rules.TargetTriangle:
		return e.chart.Triangle(t.Base)
	case rules.TargetClamp:
		return e.chart.Clamp(t.Base)
	case rules.TargetOpposite:
		if p, ok := e.chart.Opposite(t.Base); ok {
			return []*chart.Palace{p}
		}
	case rules.TargetBranch:
		if i, ok := e.tables.BranchIndex(t.Base); ok {
			return []*chart.Palace{e.chart.ByIndex(i)}
		}
	}
	return nil
}

// matchPalace checks every clause of l against p. For flying leaves it
// also returns the key of the star the transformation landed on.
func (e *Evaluator) matchPalace(l *rules.Leaf, p *chart.Palace) (flown string, ok bool) {
	if l.Has(rules.ClauseHasBranch) && !containsInt(l.HasBranch, p.Index) {
		return "", false
	}
	if l.Has(rules.ClauseHasStem) && p.Stem != l.HasStem {
		return "", false
	}
	if l.Has(rules.ClauseMatching) && !e.matchStar(l.Matching, p) {
		return "", false
	}
	if l.Has(rules.ClauseHasStar) && !hasAnyStar(p, l.HasStar) {
		return "", false
	}
	if l.Has(rules.ClauseNotHasStar) && hasAnyStar(p, l.NotHasStar) {
		return "", false
	}
	if l.Has(rules.ClauseHasTrans) && !hasAnyTrans(p, l.HasTrans) {
		return "", false
	}
	if l.Has(rules.ClauseSelfTrans) {
		k, ok := e.tables.SiHuaStar(p.Stem, l.SelfTrans)
		if !ok || !p.HasStar(k) {
			return "", false
		}
	}
	if l.Has(rules.ClauseFlying) {
		src, ok := e.chart.ByRole(l.FlyingFrom)
		if !ok {
			return "", false
		}
		k, ok := e.tables.SiHuaStar(src.Stem, l.Trans)
		if !ok || !p.HasStar(k) {
			return "", false
		}
		flown = k
	}
	if l.Has(rules.ClauseNoLucky) && e.anyStar(p, e.tables.IsLucky) {
		return "", false
	}
	if l.Has(rules.ClauseNoMain) && e.anyStar(p, e.tables.IsMain) {
		return "", false
	}
	return flown, true
}

// matchStar looks for a single star witnessing every field of m.
func (e *Evaluator) matchStar(m rules.StarMatch, p *chart.Palace) bool {
	for _, s := range p.Stars {
		if m.Key != "" && s.Key != m.Key {
			continue
		}
		if m.Trans != "" && s.Transformation != m.Trans {
			continue
		}
		if m.SelfTrans != "" {
			k, ok := e.tables.SiHuaStar(p.Stem, m.SelfTrans)
			if !ok || k != s.Key {
				continue
			}
		}
		return true
	}
	return false
}

func (e *Evaluator) anyStar(p *chart.Palace, in func(string) bool) bool {
	for _, s := range p.Stars {
		if in(s.Key) {
			return true
		}
	}
	return false
}

// PalaceName is the display name used in provenance. Palaces without a
// role are named after their branch.
func (e *Evaluator) PalaceName(p *chart.Palace) string {
	if p.Role != chart.RoleUnknown {
		return e.tables.PalaceName(p.Role)
	}
	branch := p.Branch
	if branch == "" && p.Index < len(e.tables.Branches) {
		branch = e.tables.Branches[p.Index]
	}
	return branch + "宮"
}

func hasAnyStar(p *chart.Palace, keys []string) bool {
	for _, k := range keys {
		if p.HasStar(k) {
			return true
		}
	}
	return false
}

func hasAnyTrans(p *chart.Palace, trans []string) bool {
	for _, t := range trans {
		if p.HasTransformation(t) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, n := range list {
		if n == v {
			return true
		}
	}
	return false
}
