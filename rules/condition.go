package rules

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/teranos/ziwei/chart"
	"github.com/teranos/ziwei/errors"
)

// Op is a composite logic operator.
type Op string

const (
	OpAnd Op = "AND"
	OpOr  Op = "OR"
	OpNot Op = "NOT"
)

// Node is a compiled condition: either *Composite or *Leaf.
type Node interface {
	node()
}

// Composite combines sub-conditions with AND, OR or NOT.
type Composite struct {
	Op       Op
	Criteria []Node
}

func (*Composite) node() {}

// TargetKind says how a leaf's target selects palaces.
type TargetKind int

const (
	// TargetNone never resolves; leaves with it are false.
	TargetNone TargetKind = iota
	TargetRole
	TargetTriangle
	TargetClamp
	TargetOpposite
	TargetBranch
	// TargetStar inspects one star in a role palace (<role>_star + star).
	TargetStar
	// TargetContext matches chart-wide attributes.
	TargetContext
)

// Target is a parsed target specifier. Base is the role key, or the
// branch key for TargetBranch.
type Target struct {
	Raw  string
	Kind TargetKind
	Base string
}

const (
	suffixTriangle = "_triangle"
	suffixClamp    = "_clamp"
	suffixOpposite = "_opposite"
	suffixStar     = "_star"
	prefixBranch   = "palace_"
	targetContext  = "context"
)

// ParseTarget classifies a target string. Role keys win over suffix forms.
func ParseTarget(raw string) Target {
	t := Target{Raw: raw}
	switch {
	case raw == "":
	case raw == targetContext:
		t.Kind = TargetContext
	case isRole(raw):
		t.Kind, t.Base = TargetRole, raw
	case strings.HasSuffix(raw, suffixTriangle):
		t.Kind, t.Base = TargetTriangle, strings.TrimSuffix(raw, suffixTriangle)
	case strings.HasSuffix(raw, suffixClamp):
		t.Kind, t.Base = TargetClamp, strings.TrimSuffix(raw, suffixClamp)
	case strings.HasSuffix(raw, suffixOpposite):
		t.Kind, t.Base = TargetOpposite, strings.TrimSuffix(raw, suffixOpposite)
	case strings.HasPrefix(raw, prefixBranch):
		t.Kind, t.Base = TargetBranch, strings.TrimPrefix(raw, prefixBranch)
	case strings.HasSuffix(raw, suffixStar):
		t.Kind, t.Base = TargetStar, strings.TrimSuffix(raw, suffixStar)
	}
	return t
}

func isRole(s string) bool {
	for _, r := range chart.Roles {
		if r == s {
			return true
		}
	}
	return false
}

// Clause is a bit set of the predicate clauses present on a leaf.
type Clause uint16

const (
	ClauseHasStar Clause = 1 << iota
	ClauseNotHasStar
	ClauseHasTrans
	ClauseSelfTrans
	ClauseMatching
	ClauseHasBranch
	ClauseHasStem
	ClauseFlying
	ClauseNoLucky
	ClauseNoMain
	ClauseGender
)

// StarMatch is the has_star_matching object. Empty fields are not checked.
type StarMatch struct {
	Key       string
	Trans     string
	SelfTrans string
}

// Leaf is a target plus predicate clauses, all of which must hold on the
// same palace.
type Leaf struct {
	Target  Target
	Clauses Clause

	HasStar    []string
	NotHasStar []string
	HasTrans   []string
	SelfTrans  string
	Matching   StarMatch
	HasBranch  []int
	HasStem    string
	FlyingFrom string
	Trans      string
	Gender     chart.Gender
	// Star names the inspected star for TargetStar leaves.
	Star string
}

func (*Leaf) node() {}

// Has reports whether clause c is present.
func (l *Leaf) Has(c Clause) bool {
	return l.Clauses&c != 0
}

// Compile turns a raw condition tree (as decoded from JSON or YAML) into
// typed nodes. Errors name the offending node path and wrap
// errors.ErrMalformedCondition or errors.ErrUnknownOperator.
func Compile(raw any) (Node, error) {
	return compileNode(raw, "conditions")
}

func compileNode(raw any, path string) (Node, error) {
	m, ok := asMap(raw)
	if !ok {
		if raw == nil {
			return nil, errors.NewMalformedConditionError(path, "condition is null")
		}
		return nil, errors.NewMalformedConditionError(path, "expected an object, got %T", raw)
	}
	if logic, ok := m["logic"]; ok {
		return compileComposite(m, logic, path)
	}
	return compileLeaf(m, path)
}

func compileComposite(m map[string]any, logic any, path string) (Node, error) {
	s, ok := logic.(string)
	if !ok {
		return nil, errors.NewMalformedConditionError(path+".logic", "expected a string, got %T", logic)
	}
	op := Op(s)
	switch op {
	case OpAnd, OpOr, OpNot:
	default:
		return nil, errors.Wrapf(errors.ErrUnknownOperator, "%s.logic: %q", path, s)
	}

	rawCriteria, ok := m["criteria"]
	if !ok {
		return nil, errors.NewMalformedConditionError(path, "%s without criteria", op)
	}
	list, ok := rawCriteria.([]any)
	if !ok {
		return nil, errors.NewMalformedConditionError(path+".criteria", "expected a list, got %T", rawCriteria)
	}
	if op == OpNot && len(list) != 1 {
		return nil, errors.NewMalformedConditionError(path+".criteria", "NOT takes exactly one condition, got %d", len(list))
	}

	c := &Composite{Op: op, Criteria: make([]Node, 0, len(list))}
	for i, sub := range list {
		n, err := compileNode(sub, fmt.Sprintf("%s.criteria[%d]", path, i))
		if err != nil {
			return nil, err
		}
		c.Criteria = append(c.Criteria, n)
	}
	return c, nil
}

func compileLeaf(m map[string]any, path string) (Node, error) {
	l := &Leaf{}

	if raw, ok := m["target"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, errors.NewMalformedConditionError(path+".target", "expected a string, got %T", raw)
		}
		l.Target = ParseTarget(s)
	}

	var err error
	field := func(key string) string { return path + "." + key }

	if raw, ok := m["has_star"]; ok {
		if l.HasStar, err = stringList(raw, field("has_star")); err != nil {
			return nil, err
		}
		l.Clauses |= ClauseHasStar
	}
	if raw, ok := m["not_has_star"]; ok {
		if l.NotHasStar, err = stringList(raw, field("not_has_star")); err != nil {
			return nil, err
		}
		l.Clauses |= ClauseNotHasStar
	}
	if raw, ok := m["has_trans"]; ok {
		if l.HasTrans, err = stringList(raw, field("has_trans")); err != nil {
			return nil, err
		}
		l.Clauses |= ClauseHasTrans
	}
	if raw, ok := m["self_trans"]; ok {
		if l.SelfTrans, err = str(raw, field("self_trans")); err != nil {
			return nil, err
		}
		l.Clauses |= ClauseSelfTrans
	}
	if raw, ok := m["has_star_matching"]; ok {
		if l.Matching, err = starMatch(raw, field("has_star_matching")); err != nil {
			return nil, err
		}
		l.Clauses |= ClauseMatching
	}
	if raw, ok := m["has_branch"]; ok {
		if l.HasBranch, err = intList(raw, field("has_branch")); err != nil {
			return nil, err
		}
		l.Clauses |= ClauseHasBranch
	}
	if raw, ok := m["has_stem"]; ok {
		if l.HasStem, err = str(raw, field("has_stem")); err != nil {
			return nil, err
		}
		l.Clauses |= ClauseHasStem
	}

	// flying_from only means something together with trans.
	rawFrom, hasFrom := m["flying_from"]
	rawTrans, hasTrans := m["trans"]
	if hasFrom && hasTrans {
		if l.FlyingFrom, err = str(rawFrom, field("flying_from")); err != nil {
			return nil, err
		}
		if l.Trans, err = str(rawTrans, field("trans")); err != nil {
			return nil, err
		}
		l.Clauses |= ClauseFlying
	}

	if raw, ok := m["no_lucky_stars"]; ok && truthy(raw) {
		l.Clauses |= ClauseNoLucky
	}
	if raw, ok := m["no_main_stars"]; ok && truthy(raw) {
		l.Clauses |= ClauseNoMain
	}

	if raw, ok := m["gender"]; ok {
		s, err := str(raw, field("gender"))
		if err != nil {
			return nil, err
		}
		if g, perr := chart.ParseGender(s); perr == nil {
			l.Gender = g
		} else {
			l.Gender = chart.Gender(s)
		}
		l.Clauses |= ClauseGender
	}

	if raw, ok := m["star"]; ok {
		if l.Star, err = str(raw, field("star")); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func starMatch(raw any, path string) (StarMatch, error) {
	m, ok := asMap(raw)
	if !ok {
		return StarMatch{}, errors.NewMalformedConditionError(path, "expected an object, got %T", raw)
	}
	var sm StarMatch
	var err error
	fields := []struct {
		key string
		dst *string
	}{{"key", &sm.Key}, {"trans", &sm.Trans}, {"self_trans", &sm.SelfTrans}}
	for _, f := range fields {
		key, dst := f.key, f.dst
		v, ok := m[key]
		if !ok {
			continue
		}
		if *dst, err = str(v, path+"."+key); err != nil {
			return StarMatch{}, err
		}
		if *dst == "" {
			return StarMatch{}, errors.NewMalformedConditionError(path+"."+key, "empty value")
		}
	}
	return sm, nil
}

// asMap accepts the map shapes produced by encoding/json, yaml.v3 and
// mapstructure.
func asMap(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = v
		}
		return out, true
	}
	return nil, false
}

func str(raw any, path string) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", errors.NewMalformedConditionError(path, "expected a string, got %T", raw)
	}
	return s, nil
}

// stringList accepts a single string or a list of strings.
func stringList(raw any, path string) ([]string, error) {
	switch v := raw.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.NewMalformedConditionError(fmt.Sprintf("%s[%d]", path, i), "expected a string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, errors.NewMalformedConditionError(path, "expected a string or list of strings, got %T", raw)
}

// intList accepts a list of integers. JSON numbers arrive as float64 and
// must be integral.
func intList(raw any, path string) ([]int, error) {
	list, ok := raw.([]any)
	if !ok {
		if ints, ok := raw.([]int); ok {
			return ints, nil
		}
		return nil, errors.NewMalformedConditionError(path, "expected a list of integers, got %T", raw)
	}
	out := make([]int, 0, len(list))
	for i, item := range list {
		n, ok := toInt(item)
		if !ok {
			return nil, errors.NewMalformedConditionError(fmt.Sprintf("%s[%d]", path, i), "expected an integer, got %v", item)
		}
		out = append(out, n)
	}
	return out, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// truthy reads an idiom flag. The string "false" counts as false, unlike
// other non-empty strings.
func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b != "" && b != "false"
	case nil:
		return false
	}
	n, ok := toInt(v)
	return !ok || n != 0
}

// Keys returns every key used anywhere in a raw condition tree, sorted.
func Keys(raw any) []string {
	seen := map[string]struct{}{}
	walk(raw, func(key string, _ any) {
		seen[key] = struct{}{}
	})
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// walk visits every key/value pair of every object in a raw tree.
func walk(raw any, visit func(key string, value any)) {
	if m, ok := asMap(raw); ok {
		for k, v := range m {
			visit(k, v)
			walk(v, visit)
		}
		return
	}
	if list, ok := raw.([]any); ok {
		for _, item := range list {
			walk(item, visit)
		}
	}
}
