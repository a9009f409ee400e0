package display

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teranos/ziwei/am"
	"github.com/teranos/ziwei/engine"
	"github.com/teranos/ziwei/errors"
	"github.com/teranos/ziwei/rules"
)

var sample = []engine.Match{{
	RuleID:              "FH-20001",
	Description:         "命宮宮干飛化權入兄弟宮",
	Text:                "我對兄弟展現企圖心",
	Tags:                []string{"飛化"},
	RuleGroup:           rules.GroupLifeFlying,
	DetectedPalaceNames: "兄弟宮",
	Extra:               map[string]any{"severity": 2},
	Details: []engine.Detail{
		{Kind: engine.DetailPalace, Palace: "兄弟宮"},
		{Kind: engine.DetailFlying, Palace: "兄弟宮", Star: "天機"},
	},
}}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "TABLE": FormatTable, "json": FormatJSON, "yml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("csv")
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sample))

	out := buf.String()
	assert.Contains(t, out, `"rule_id": "FH-20001"`)
	assert.Contains(t, out, `"severity": 2`)
	assert.Contains(t, out, "我對兄弟展現企圖心", "no unicode escaping")
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("]\n")))
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, sample))

	var back []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	require.Len(t, back, 1)
	assert.Equal(t, "FH-20001", back[0]["rule_id"])
	assert.Equal(t, "B", back[0]["rule_group"])
	assert.Equal(t, 2, back[0]["severity"])
}

func TestWriteTableFormatIsNotGeneric(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, FormatTable, sample))
}

func TestMatchRows(t *testing.T) {
	rows := MatchRows(sample, false)
	assert.Equal(t, [][]string{
		{"Rule", "Group", "Palaces", "Text"},
		{"FH-20001", "B", "兄弟宮", "我對兄弟展現企圖心"},
	}, rows)

	rows = MatchRows(sample, true)
	require.Len(t, rows, 2)
	assert.Equal(t, "Details", rows[0][4])
	assert.Equal(t, "<兄弟宮> (飛入: 兄弟宮之天機)", rows[1][4])
}

func TestRowsTruncateLongText(t *testing.T) {
	long := engine.Match{RuleID: "L", Text: strings.Repeat("財", CellWidth+5)}
	rows := MatchRows([]engine.Match{long}, false)
	assert.Equal(t, CellWidth, utf8.RuneCountInString(rows[1][3]))
	assert.True(t, strings.HasSuffix(rows[1][3], "…"))
}

func TestOtherRows(t *testing.T) {
	findings := FindingRows([]rules.Finding{
		{Kind: rules.FindingRejectedRecord, Message: "record is not an object"},
		{RuleID: "W-09", Kind: rules.FindingMissingKongJie, Message: "m"},
	})
	assert.Equal(t, []string{"-", "rejected_record", "record is not an object"}, findings[1])
	assert.Equal(t, "W-09", findings[2][0])

	rs := RuleRows([]rules.Rule{{ID: "L-01", Description: "d", Result: rules.Result{Text: "t"}}})
	assert.Equal(t, []string{"L-01", "A", "d", "t"}, rs[1])

	settings := SettingRows([]am.SettingInfo{{Key: "eval.show_details", Value: true, Source: am.SourceDefault, SourcePath: "built-in default"}})
	assert.Equal(t, []string{"eval.show_details", "true", "default", "built-in default"}, settings[1])
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTable(&buf, MatchRows(sample, false), "no matches"))
	assert.Contains(t, buf.String(), "FH-20001")
	assert.Contains(t, buf.String(), "兄弟宮")

	buf.Reset()
	require.NoError(t, RenderTable(&buf, MatchRows(nil, false), "no matches"))
	assert.Contains(t, buf.String(), "no matches")
}
