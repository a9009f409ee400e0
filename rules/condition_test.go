package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teranos/ziwei/chart"
	"github.com/teranos/ziwei/errors"
)

func decodeJSON(t *testing.T, js string) any {
	t.Helper()
	var raw any
	require.NoError(t, json.Unmarshal([]byte(js), &raw))
	return raw
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		raw  string
		kind TargetKind
		base string
	}{
		{"life", TargetRole, "life"},
		{"friends", TargetRole, "friends"},
		{"life_triangle", TargetTriangle, "life"},
		{"wealth_clamp", TargetClamp, "wealth"},
		{"career_opposite", TargetOpposite, "career"},
		{"palace_yin", TargetBranch, "yin"},
		{"spouse_star", TargetStar, "spouse"},
		{"context", TargetContext, ""},
		{"", TargetNone, ""},
		{"heaven", TargetNone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseTarget(tt.raw)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.base, got.Base)
			assert.Equal(t, tt.raw, got.Raw)
		})
	}
}

func TestCompileLeaf(t *testing.T) {
	n, err := Compile(decodeJSON(t, `{
		"target": "life_triangle",
		"has_star": "di_kong",
		"not_has_star": ["zuo_fu", "you_bi"],
		"has_trans": ["hua_ji"],
		"self_trans": "hua_lu",
		"has_star_matching": {"key": "lian_zhen", "trans": "hua_ji"},
		"has_branch": [2, 5, 8, 11],
		"has_stem": "甲",
		"flying_from": "life",
		"trans": "hua_ke",
		"no_lucky_stars": true,
		"no_main_stars": false,
		"brightness": "廟"
	}`))
	require.NoError(t, err)

	leaf, ok := n.(*Leaf)
	require.True(t, ok)
	assert.Equal(t, TargetTriangle, leaf.Target.Kind)
	assert.Equal(t, []string{"di_kong"}, leaf.HasStar)
	assert.Equal(t, []string{"zuo_fu", "you_bi"}, leaf.NotHasStar)
	assert.Equal(t, []string{"hua_ji"}, leaf.HasTrans)
	assert.Equal(t, "hua_lu", leaf.SelfTrans)
	assert.Equal(t, StarMatch{Key: "lian_zhen", Trans: "hua_ji"}, leaf.Matching)
	assert.Equal(t, []int{2, 5, 8, 11}, leaf.HasBranch)
	assert.Equal(t, "甲", leaf.HasStem)
	assert.Equal(t, "life", leaf.FlyingFrom)
	assert.Equal(t, "hua_ke", leaf.Trans)

	for _, c := range []Clause{ClauseHasStar, ClauseNotHasStar, ClauseHasTrans, ClauseSelfTrans,
		ClauseMatching, ClauseHasBranch, ClauseHasStem, ClauseFlying, ClauseNoLucky} {
		assert.True(t, leaf.Has(c), "clause %d", c)
	}
	assert.False(t, leaf.Has(ClauseNoMain), "false idiom is not a clause")
	assert.False(t, leaf.Has(ClauseGender))
}

func TestCompileIdiomFlags(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{`true`, true},
		{`false`, false},
		{`"yes"`, true},
		{`"false"`, false},
		{`""`, false},
		{`1`, true},
		{`0`, false},
		{`null`, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			n, err := Compile(decodeJSON(t, `{"target": "life", "no_lucky_stars": `+tt.value+`, "no_main_stars": `+tt.value+`}`))
			require.NoError(t, err)
			leaf := n.(*Leaf)
			assert.Equal(t, tt.want, leaf.Has(ClauseNoLucky))
			assert.Equal(t, tt.want, leaf.Has(ClauseNoMain))
		})
	}
}

func TestCompileFlyingNeedsTrans(t *testing.T) {
	n, err := Compile(decodeJSON(t, `{"target": "spouse", "flying_from": "life"}`))
	require.NoError(t, err)
	assert.False(t, n.(*Leaf).Has(ClauseFlying))

	n, err = Compile(decodeJSON(t, `{"target": "spouse", "trans": "hua_lu"}`))
	require.NoError(t, err)
	assert.False(t, n.(*Leaf).Has(ClauseFlying))
}

func TestCompileGender(t *testing.T) {
	n, err := Compile(decodeJSON(t, `{"target": "context", "gender": "女"}`))
	require.NoError(t, err)
	leaf := n.(*Leaf)
	assert.True(t, leaf.Has(ClauseGender))
	assert.Equal(t, chart.Female, leaf.Gender)

	n, err = Compile(decodeJSON(t, `{"target": "context", "gender": "X"}`))
	require.NoError(t, err)
	assert.Equal(t, chart.Gender("X"), n.(*Leaf).Gender, "unparseable gender never matches")
}

func TestCompileComposite(t *testing.T) {
	n, err := Compile(decodeJSON(t, `{"logic": "OR", "criteria": [
		{"target": "life", "has_star": "zi_wei"},
		{"logic": "NOT", "criteria": [{"target": "life", "has_star": "po_jun"}]}
	]}`))
	require.NoError(t, err)

	c, ok := n.(*Composite)
	require.True(t, ok)
	assert.Equal(t, OpOr, c.Op)
	require.Len(t, c.Criteria, 2)
	not, ok := c.Criteria[1].(*Composite)
	require.True(t, ok)
	assert.Equal(t, OpNot, not.Op)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name     string
		cond     string
		path     string
		operator bool
	}{
		{"null", `null`, "conditions", false},
		{"string", `"life"`, "conditions", false},
		{"unknown operator", `{"logic": "XOR", "criteria": []}`, "conditions.logic", true},
		{"lowercase operator", `{"logic": "and", "criteria": []}`, "conditions.logic", true},
		{"padded operator", `{"logic": " OR", "criteria": []}`, "conditions.logic", true},
		{"logic not a string", `{"logic": 1, "criteria": []}`, "conditions.logic", false},
		{"missing criteria", `{"logic": "AND"}`, "conditions", false},
		{"criteria not a list", `{"logic": "AND", "criteria": {}}`, "conditions.criteria", false},
		{"NOT arity", `{"logic": "NOT", "criteria": []}`, "conditions.criteria", false},
		{"nested path", `{"logic": "AND", "criteria": [{"target": "life"}, {"target": "life", "has_branch": ["zi"]}]}`,
			"conditions.criteria[1].has_branch[0]", false},
		{"fractional branch", `{"target": "life", "has_branch": [2.5]}`, "conditions.has_branch[0]", false},
		{"star list element", `{"target": "life", "has_star": ["zi_wei", 3]}`, "conditions.has_star[1]", false},
		{"matching not object", `{"target": "life", "has_star_matching": "zi_wei"}`, "conditions.has_star_matching", false},
		{"matching empty key", `{"target": "life", "has_star_matching": {"key": ""}}`, "conditions.has_star_matching.key", false},
		{"target not string", `{"target": ["life"]}`, "conditions.target", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(decodeJSON(t, tt.cond))
			require.Error(t, err)
			assert.True(t, errors.IsMalformedConditionError(err))
			assert.Equal(t, tt.operator, errors.Is(err, errors.ErrUnknownOperator))
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestCompileYAMLShapes(t *testing.T) {
	var raw any
	require.NoError(t, yaml.Unmarshal([]byte(`
logic: AND
criteria:
  - target: travel
    has_branch: [2, 5, 8, 11]
  - target: travel
    has_star: [tian_ma, lu_cun]
`), &raw))

	n, err := Compile(raw)
	require.NoError(t, err)
	c := n.(*Composite)
	assert.Equal(t, []int{2, 5, 8, 11}, c.Criteria[0].(*Leaf).HasBranch)
	assert.Equal(t, []string{"tian_ma", "lu_cun"}, c.Criteria[1].(*Leaf).HasStar)
}

func TestKeys(t *testing.T) {
	raw := decodeJSON(t, `{"logic": "AND", "criteria": [{"target": "life", "no_lucky_stars": true}]}`)
	assert.Equal(t, []string{"criteria", "logic", "no_lucky_stars", "target"}, Keys(raw))
}
