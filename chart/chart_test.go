package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ziwei/errors"
)

// traditional lays the twelve roles out counter-clockwise from life at lifeIndex.
func traditional(t *testing.T, lifeIndex int) *Chart {
	t.Helper()
	palaces := make([]*Palace, PalaceCount)
	for i, role := range Roles {
		idx := wrap(lifeIndex - i)
		palaces[idx] = NewPalace(idx, role, "", "")
	}
	c, err := New(palaces, Male)
	require.NoError(t, err)
	return c
}

func TestGeometry(t *testing.T) {
	for life := 0; life < PalaceCount; life++ {
		c := traditional(t, life)
		for _, role := range Roles {
			p, ok := c.ByRole(role)
			require.True(t, ok, role)

			tri := c.Triangle(role)
			require.Len(t, tri, 3)
			assert.Same(t, p, tri[0])
			assert.Equal(t, (p.Index+4)%12, tri[1].Index)
			assert.Equal(t, (p.Index+8)%12, tri[2].Index)

			clamp := c.Clamp(role)
			require.Len(t, clamp, 2)
			assert.Equal(t, (p.Index+11)%12, clamp[0].Index)
			assert.Equal(t, (p.Index+1)%12, clamp[1].Index)

			opp, ok := c.Opposite(role)
			require.True(t, ok)
			assert.Equal(t, (p.Index+6)%12, opp.Index)

			for off := -13; off <= 13; off++ {
				rel, ok := c.Relative(role, off)
				require.True(t, ok)
				assert.Equal(t, ((p.Index+off)%12+12)%12, rel.Index)
			}
		}
	}
}

func TestTraditionalLayout(t *testing.T) {
	c := traditional(t, 2)

	// Career and wealth sit on life's triangle; travel is opposite.
	tri := c.Triangle(RoleLife)
	assert.Equal(t, RoleCareer, tri[1].Role)
	assert.Equal(t, RoleWealth, tri[2].Role)
	opp, _ := c.Opposite(RoleLife)
	assert.Equal(t, RoleTravel, opp.Role)
	clamp := c.Clamp(RoleLife)
	assert.Equal(t, RoleSiblings, clamp[0].Role)
	assert.Equal(t, RoleParents, clamp[1].Role)
}

func TestUnknownRoleResolvesNothing(t *testing.T) {
	palaces := make([]*Palace, PalaceCount)
	for i := range palaces {
		palaces[i] = NewPalace(i, "", "", "")
	}
	palaces[5].Role = RoleLife
	c, err := New(palaces, Female)
	require.NoError(t, err)

	_, ok := c.ByRole(RoleUnknown)
	assert.False(t, ok)
	_, ok = c.ByRole(RoleSpouse)
	assert.False(t, ok)
	assert.Nil(t, c.Triangle(RoleSpouse))
	assert.Nil(t, c.Clamp("heaven"))
	_, ok = c.Opposite(RoleKids)
	assert.False(t, ok)

	assert.Equal(t, Female, c.Gender())
	assert.Equal(t, 5, c.ByIndex(-7).Index)
	assert.Equal(t, 5, c.ByIndex(17).Index)
}

func TestNewValidation(t *testing.T) {
	full := func() []*Palace {
		out := make([]*Palace, PalaceCount)
		for i := range out {
			out[i] = NewPalace(i, RoleUnknown, "", "")
		}
		return out
	}

	tests := []struct {
		name   string
		mutate func([]*Palace) []*Palace
		msg    string
	}{
		{"too few", func(p []*Palace) []*Palace { return p[:11] }, "needs 12 palaces"},
		{"nil palace", func(p []*Palace) []*Palace { p[3] = nil; return p }, "nil palace"},
		{"index out of range", func(p []*Palace) []*Palace { p[3].Index = 12; return p }, "out of range"},
		{"duplicate index", func(p []*Palace) []*Palace { p[3].Index = 4; return p }, "duplicate palace index 4"},
		{"duplicate role", func(p []*Palace) []*Palace {
			p[1].Role, p[7].Role = RoleLife, RoleLife
			return p
		}, "role life assigned to palaces 1 and 7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.mutate(full()), Male)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidRequestError(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	_, err := New(full(), Male)
	assert.NoError(t, err, "unknown may repeat")
}

func TestPalacesAreOrderedCopies(t *testing.T) {
	c := traditional(t, 0)
	ps := c.Palaces()
	require.Len(t, ps, PalaceCount)
	for i, p := range ps {
		assert.Equal(t, i, p.Index)
	}
	ps[0] = nil
	assert.NotNil(t, c.ByIndex(0), "caller cannot replace chart palaces")
}

func TestPalaceStars(t *testing.T) {
	p := NewPalace(0, RoleLife, "甲", "子").
		AddStar(Star{Key: "lian_zhen", Transformation: "hua_lu", Brightness: "廟"}).
		AddStar(Star{Key: "hua_ji"})

	assert.True(t, p.HasStar("lian_zhen"))
	assert.False(t, p.HasStar("po_jun"))

	s, ok := p.Star("lian_zhen")
	require.True(t, ok)
	assert.Equal(t, "lian_zhen(hua_lu)", s.String())

	assert.True(t, p.HasTransformation("hua_lu"))
	assert.True(t, p.HasTransformation("hua_ji"), "pseudo-star counts")
	assert.False(t, p.HasTransformation("hua_ke"))
	assert.Equal(t, "[0]life:lian_zhen(hua_lu),hua_ji", p.String())
}

func TestParseGender(t *testing.T) {
	for in, want := range map[string]Gender{
		"M": Male, "m": Male, "male": Male, " Male ": Male, "男": Male,
		"F": Female, "female": Female, "女": Female,
	} {
		got, err := ParseGender(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseGender("x")
	assert.True(t, errors.IsInvalidRequestError(err))
}
