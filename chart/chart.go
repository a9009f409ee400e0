// Package chart is the in-memory model of a twelve-palace Zi-Wei Dou Shu chart.
//
// A Chart is built once per evaluation (see FromRecords) and treated as
// immutable. Navigation is purely geometric: palaces sit at indices 0..11,
// matching the twelve earthly branches 子..亥, and relative positions wrap
// modulo 12.
package chart

import (
	"fmt"
	"strings"

	"github.com/teranos/ziwei/errors"
)

// PalaceCount is the number of palaces on every chart.
const PalaceCount = 12

// Role keys naming a palace's topic in the person's life.
const (
	RoleLife     = "life"
	RoleSiblings = "siblings"
	RoleSpouse   = "spouse"
	RoleKids     = "kids"
	RoleWealth   = "wealth"
	RoleHealth   = "health"
	RoleTravel   = "travel"
	RoleFriends  = "friends"
	RoleCareer   = "career"
	RoleProperty = "property"
	RoleFortune  = "fortune"
	RoleParents  = "parents"
	RoleUnknown  = "unknown"
)

// Roles lists the twelve role keys in traditional order.
var Roles = []string{
	RoleLife, RoleSiblings, RoleSpouse, RoleKids, RoleWealth, RoleHealth,
	RoleTravel, RoleFriends, RoleCareer, RoleProperty, RoleFortune, RoleParents,
}

// Relative offsets used by the geometric target specifiers.
var (
	TriangleOffsets = []int{0, 4, 8}
	ClampOffsets    = []int{-1, 1}
)

// OppositeOffset is the offset of the palace directly across.
const OppositeOffset = 6

// Gender of the chart owner.
type Gender string

const (
	Male   Gender = "M"
	Female Gender = "F"
)

// ParseGender accepts M/F, male/female and 男/女 in any case.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "男":
		return Male, nil
	case "f", "female", "女":
		return Female, nil
	}
	return "", errors.NewInvalidRequestError("unknown gender %q (expected M or F)", s)
}

// Star is one occurrence of a named body inside a palace.
type Star struct {
	Key            string `json:"key" yaml:"key"`
	Transformation string `json:"transformation,omitempty" yaml:"transformation,omitempty"`
	// Brightness is carried for display only; the evaluator ignores it.
	Brightness string `json:"brightness,omitempty" yaml:"brightness,omitempty"`
}

func (s Star) String() string {
	if s.Transformation != "" {
		return fmt.Sprintf("%s(%s)", s.Key, s.Transformation)
	}
	return s.Key
}

// Palace is one of the twelve positions on a chart.
type Palace struct {
	Index  int    `json:"index" yaml:"index"`
	Role   string `json:"role" yaml:"role"`
	Stem   string `json:"stem,omitempty" yaml:"stem,omitempty"`
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Stars  []Star `json:"stars" yaml:"stars"`
}

// NewPalace creates an empty palace. An empty role becomes RoleUnknown.
func NewPalace(index int, role, stem, branch string) *Palace {
	if role == "" {
		role = RoleUnknown
	}
	return &Palace{Index: index, Role: role, Stem: stem, Branch: branch}
}

// AddStar appends a star, keeping declaration order.
func (p *Palace) AddStar(s Star) *Palace {
	p.Stars = append(p.Stars, s)
	return p
}

// HasStar reports whether the palace contains a star with the given key.
func (p *Palace) HasStar(key string) bool {
	_, ok := p.Star(key)
	return ok
}

// Star returns the first star with the given key.
func (p *Palace) Star(key string) (Star, bool) {
	for _, s := range p.Stars {
		if s.Key == key {
			return s, true
		}
	}
	return Star{}, false
}

// HasTransformation reports whether some star carries trans. Rule libraries
// also encode transformations as pseudo-stars whose key is the
// transformation itself, so those count too.
func (p *Palace) HasTransformation(trans string) bool {
	for _, s := range p.Stars {
		if s.Transformation == trans || s.Key == trans {
			return true
		}
	}
	return false
}

func (p *Palace) String() string {
	stars := make([]string, len(p.Stars))
	for i, s := range p.Stars {
		stars[i] = s.String()
	}
	return fmt.Sprintf("[%d]%s:%s", p.Index, p.Role, strings.Join(stars, ","))
}

// Chart is the aggregate of exactly twelve palaces plus the owner's gender.
type Chart struct {
	palaces [PalaceCount]*Palace
	byRole  map[string]*Palace
	gender  Gender
}

// New builds a chart and its indices. The palaces must cover indices 0..11
// exactly once, and every role other than RoleUnknown may appear at most once.
func New(palaces []*Palace, gender Gender) (*Chart, error) {
	if len(palaces) != PalaceCount {
		return nil, errors.NewInvalidRequestError("chart needs %d palaces, got %d", PalaceCount, len(palaces))
	}

	c := &Chart{byRole: make(map[string]*Palace, PalaceCount), gender: gender}
	for _, p := range palaces {
		if p == nil {
			return nil, errors.NewInvalidRequestError("nil palace")
		}
		if p.Index < 0 || p.Index >= PalaceCount {
			return nil, errors.NewInvalidRequestError("palace index %d out of range", p.Index)
		}
		if c.palaces[p.Index] != nil {
			return nil, errors.NewInvalidRequestError("duplicate palace index %d", p.Index)
		}
		c.palaces[p.Index] = p

		if p.Role == RoleUnknown {
			continue
		}
		if prev, dup := c.byRole[p.Role]; dup {
			return nil, errors.NewInvalidRequestError("role %s assigned to palaces %d and %d", p.Role, prev.Index, p.Index)
		}
		c.byRole[p.Role] = p
	}
	return c, nil
}

// Gender returns the chart owner's gender.
func (c *Chart) Gender() Gender {
	return c.gender
}

// Palaces returns the palaces ordered by index.
func (c *Chart) Palaces() []*Palace {
	out := make([]*Palace, PalaceCount)
	copy(out, c.palaces[:])
	return out
}

// ByRole returns the palace holding role. RoleUnknown never resolves.
func (c *Chart) ByRole(role string) (*Palace, bool) {
	p, ok := c.byRole[role]
	return p, ok
}

// ByIndex returns the palace at index mod 12; negative indices wrap.
func (c *Chart) ByIndex(index int) *Palace {
	return c.palaces[wrap(index)]
}

// Relative returns the palace at (base.Index + offset) mod 12.
func (c *Chart) Relative(role string, offset int) (*Palace, bool) {
	base, ok := c.byRole[role]
	if !ok {
		return nil, false
	}
	return c.ByIndex(base.Index + offset), true
}

// Opposite returns the palace across from role (對宮, offset +6).
func (c *Chart) Opposite(role string) (*Palace, bool) {
	return c.Relative(role, OppositeOffset)
}

// Triangle returns role's palace and the palaces at +4 and +8 (三方).
// The base palace comes first. Unknown roles yield nil.
func (c *Chart) Triangle(role string) []*Palace {
	return c.offsets(role, TriangleOffsets)
}

// Clamp returns the two palaces flanking role (夾, offsets -1 and +1).
func (c *Chart) Clamp(role string) []*Palace {
	return c.offsets(role, ClampOffsets)
}

func (c *Chart) offsets(role string, offsets []int) []*Palace {
	base, ok := c.byRole[role]
	if !ok {
		return nil
	}
	out := make([]*Palace, 0, len(offsets))
	for _, off := range offsets {
		out = append(out, c.ByIndex(base.Index+off))
	}
	return out
}

func wrap(i int) int {
	return ((i % PalaceCount) + PalaceCount) % PalaceCount
}
