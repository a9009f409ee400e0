package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ziwei/errors"
	"github.com/teranos/ziwei/internal/util"
)

const frontendChart = `{
  "gender": "女",
  "palaces": [
    {"id": 0, "palaceName": "命宮", "gan": "甲", "zhi": "子", "stars": [
      {"name": "紫微 (廟)", "type": "major"},
      {"name": "廉貞(旺)", "transformation": "化祿"},
      {"name": "化忌"},
      {"name": "羊刃"},
      {"name": "不存在的星"}
    ]},
    {"id": 2, "palaceName": "【夫妻宮】", "gan": "丙", "zhi": "寅", "stars": [
      {"name": "天同", "trans": "hua_lu", "brightness": "平"}
    ]},
    {"id": 7, "palaceName": "交友宮", "gan": "辛", "zhi": "未", "stars": []},
    {"id": -1, "palaceName": "身宮", "stars": [{"name": "太陽"}]},
    {"palaceName": "父母宮", "stars": [{"name": "太陰"}]}
  ]
}`

func TestDecodeDocumentObject(t *testing.T) {
	doc, err := DecodeDocument([]byte(frontendChart))
	require.NoError(t, err)
	assert.Equal(t, "女", doc.Gender)
	require.Len(t, doc.Palaces, 5)
	assert.Nil(t, doc.Palaces[4].ID)
}

func TestDecodeDocumentList(t *testing.T) {
	doc, err := DecodeDocument([]byte(` [{"id": 3, "palaceName": "財帛宮", "gan": "戊", "zhi": "卯", "stars": []}]`))
	require.NoError(t, err)
	assert.Empty(t, doc.Gender)
	require.Len(t, doc.Palaces, 1)
	assert.Equal(t, 3, *doc.Palaces[0].ID)
}

func TestDecodeDocumentErrors(t *testing.T) {
	_, err := DecodeDocument([]byte("  "))
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = DecodeDocument([]byte(`{"palaces": 3}`))
	assert.Error(t, err)
}

func TestFromRecords(t *testing.T) {
	doc, err := DecodeDocument([]byte(frontendChart))
	require.NoError(t, err)
	gender, err := ParseGender(doc.Gender)
	require.NoError(t, err)

	c, err := FromRecords(doc.Palaces, gender, nil)
	require.NoError(t, err)
	assert.Equal(t, Female, c.Gender())

	life, ok := c.ByRole(RoleLife)
	require.True(t, ok)
	assert.Equal(t, 0, life.Index)
	assert.Equal(t, "甲", life.Stem)
	assert.Equal(t, "子", life.Branch)
	assert.Equal(t, []Star{
		{Key: "zi_wei", Brightness: "廟"},
		{Key: "lian_zhen", Transformation: "hua_lu", Brightness: "旺"},
		{Key: "hua_ji"},
		{Key: "qing_yang"},
	}, life.Stars)
	assert.True(t, life.HasTransformation("hua_ji"), "pseudo-star from display name")

	spouse, ok := c.ByRole(RoleSpouse)
	require.True(t, ok)
	assert.Equal(t, 2, spouse.Index)
	assert.Equal(t, []Star{{Key: "tian_tong", Transformation: "hua_lu", Brightness: "平"}}, spouse.Stars)

	friends, ok := c.ByRole(RoleFriends)
	require.True(t, ok, "交友宮 alias")
	assert.Equal(t, 7, friends.Index)

	_, ok = c.ByRole(RoleParents)
	assert.False(t, ok, "record without id is ignored")

	for _, i := range []int{1, 3, 4, 5, 6, 8, 9, 10, 11} {
		p := c.ByIndex(i)
		assert.Equal(t, RoleUnknown, p.Role, "index %d", i)
		assert.Empty(t, p.Stars, "index %d", i)
	}
}

func TestFromRecordsDuplicates(t *testing.T) {
	id := util.Ptr[int]
	records := []PalaceRecord{
		{ID: id(0), PalaceName: "命宮", Gan: "甲"},
		{ID: id(0), PalaceName: "命宮", Gan: "乙"},
		{ID: id(4), PalaceName: "財帛宮"},
		{ID: id(9), PalaceName: "財帛宮"},
		{ID: id(12), PalaceName: "官祿宮"},
	}

	c, err := FromRecords(records, Male, nil)
	require.NoError(t, err)

	life, _ := c.ByRole(RoleLife)
	assert.Equal(t, "乙", life.Stem, "later record for the same index wins")

	wealth, ok := c.ByRole(RoleWealth)
	require.True(t, ok)
	assert.Equal(t, 9, wealth.Index, "higher index keeps a duplicated role")
	assert.Equal(t, RoleUnknown, c.ByIndex(4).Role)

	_, ok = c.ByRole(RoleCareer)
	assert.False(t, ok, "out-of-range index is ignored")
}

func TestFromRecordsEmpty(t *testing.T) {
	c, err := FromRecords(nil, Male, nil)
	require.NoError(t, err)
	assert.Len(t, c.Palaces(), PalaceCount)
	_, ok := c.ByRole(RoleLife)
	assert.False(t, ok)
}

func TestCleanStarName(t *testing.T) {
	tests := []struct {
		raw, name, note string
	}{
		{"紫微", "紫微", ""},
		{"紫微 (廟)", "紫微", "廟"},
		{"紫微(廟)", "紫微", "廟"},
		{"紫微（陷）", "紫微", "陷"},
		{" 天府 旺", "天府", ""},
	}
	for _, tt := range tests {
		name, note := cleanStarName(tt.raw)
		assert.Equal(t, tt.name, name, tt.raw)
		assert.Equal(t, tt.note, note, tt.raw)
	}
}
