// Package tables holds the process-wide constant tables of the chart rule
// engine: star display names, palace role names, transformation names, the
// Si-Hua (四化) table and the lucky/main star sets.
//
// Tables are decoded from TOML once and never mutated afterwards. The
// embedded tables.toml is the default; Load overlays an operator-supplied
// file on top of it.
package tables

import (
	_ "embed"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/teranos/ziwei/errors"
)

//go:embed tables.toml
var defaultTOML []byte

// Transformation keys, in Si-Hua slot order.
const (
	HuaLu   = "hua_lu"
	HuaQuan = "hua_quan"
	HuaKe   = "hua_ke"
	HuaJi   = "hua_ji"
)

// TransformationKeys lists the four transformation keys in slot order.
var TransformationKeys = []string{HuaLu, HuaQuan, HuaKe, HuaJi}

// Sets groups the star-key sets used by the no_lucky_stars and no_main_stars idioms.
type Sets struct {
	Lucky []string `toml:"lucky"`
	Main  []string `toml:"main"`
}

// Tables is the decoded constant data. Use the accessor methods; the
// exported fields exist for decoding and display only.
type Tables struct {
	Stems           []string                     `toml:"stems"`
	Branches        []string                     `toml:"branches"`
	BranchKeys      []string                     `toml:"branch_keys"`
	Palaces         map[string]string            `toml:"palaces"`
	PalaceAliases   map[string]string            `toml:"palace_aliases"`
	Transformations map[string]string            `toml:"transformations"`
	Stars           map[string]string            `toml:"stars"`
	StarAliases     map[string]string            `toml:"star_aliases"`
	Sets            Sets                         `toml:"sets"`
	SiHua           map[string]map[string]string `toml:"si_hua"`

	starByName  map[string]string
	transByName map[string]string
	lucky       map[string]struct{}
	main        map[string]struct{}
	branchIndex map[string]int
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
	defaultErr    error
)

// Default returns the embedded tables. It panics if the embedded file is
// broken, which is a build defect rather than a runtime condition.
func Default() *Tables {
	defaultOnce.Do(func() {
		defaultTables, defaultErr = Parse(defaultTOML)
	})
	if defaultErr != nil {
		panic(errors.Wrap(defaultErr, "embedded tables.toml is invalid"))
	}
	return defaultTables
}

// Parse decodes a complete tables document and validates it.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	md, err := toml.Decode(string(data), &t)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode tables")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, errors.WithHint(
			errors.Newf("unknown keys in tables: %s", strings.Join(keys, ", ")),
			"check spelling against the embedded tables.toml")
	}
	if err := t.index(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Load reads an override file and overlays it on the embedded defaults.
// An empty path returns the defaults.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}

	var overlay Tables
	if _, err := toml.DecodeFile(path, &overlay); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithHint(errors.NewNotFoundError("tables file %s", path),
				"set tables.path to an existing file or leave it empty for the built-in tables")
		}
		return nil, errors.Wrapf(err, "failed to decode tables file %s", path)
	}

	merged := Default().clone()
	merged.overlay(&overlay)
	if err := merged.index(); err != nil {
		return nil, errors.Wrapf(err, "tables file %s", path)
	}
	return merged, nil
}

func (t *Tables) clone() *Tables {
	c := &Tables{
		Stems:           append([]string(nil), t.Stems...),
		Branches:        append([]string(nil), t.Branches...),
		BranchKeys:      append([]string(nil), t.BranchKeys...),
		Palaces:         copyMap(t.Palaces),
		PalaceAliases:   copyMap(t.PalaceAliases),
		Transformations: copyMap(t.Transformations),
		Stars:           copyMap(t.Stars),
		StarAliases:     copyMap(t.StarAliases),
		Sets: Sets{
			Lucky: append([]string(nil), t.Sets.Lucky...),
			Main:  append([]string(nil), t.Sets.Main...),
		},
		SiHua: make(map[string]map[string]string, len(t.SiHua)),
	}
	for stem, slots := range t.SiHua {
		c.SiHua[stem] = copyMap(slots)
	}
	return c
}

func (t *Tables) overlay(o *Tables) {
	if len(o.Stems) > 0 {
		t.Stems = o.Stems
	}
	if len(o.Branches) > 0 {
		t.Branches = o.Branches
	}
	if len(o.BranchKeys) > 0 {
		t.BranchKeys = o.BranchKeys
	}
	mergeInto(t.Palaces, o.Palaces)
	mergeInto(t.PalaceAliases, o.PalaceAliases)
	mergeInto(t.Transformations, o.Transformations)
	mergeInto(t.Stars, o.Stars)
	mergeInto(t.StarAliases, o.StarAliases)
	if len(o.Sets.Lucky) > 0 {
		t.Sets.Lucky = o.Sets.Lucky
	}
	if len(o.Sets.Main) > 0 {
		t.Sets.Main = o.Sets.Main
	}
	for stem, slots := range o.SiHua {
		if t.SiHua[stem] == nil {
			t.SiHua[stem] = make(map[string]string, len(slots))
		}
		mergeInto(t.SiHua[stem], slots)
	}
}

// index validates the tables and builds the reverse lookups.
func (t *Tables) index() error {
	if len(t.Branches) != 12 || len(t.BranchKeys) != 12 {
		return errors.Newf("expected 12 branches and 12 branch keys, got %d and %d", len(t.Branches), len(t.BranchKeys))
	}
	if len(t.Palaces) == 0 || len(t.Stars) == 0 {
		return errors.New("palace and star tables must not be empty")
	}
	for _, stem := range t.Stems {
		slots, ok := t.SiHua[stem]
		if !ok {
			return errors.Newf("si_hua has no entry for stem %s", stem)
		}
		for _, trans := range TransformationKeys {
			star, ok := slots[trans]
			if !ok {
				return errors.Newf("si_hua.%s is missing %s", stem, trans)
			}
			if _, known := t.Stars[star]; !known {
				return errors.Newf("si_hua.%s.%s names unknown star %q", stem, trans, star)
			}
		}
	}

	t.starByName = make(map[string]string, len(t.Stars)+len(t.StarAliases))
	for key, name := range t.Stars {
		t.starByName[name] = key
	}
	for alias, key := range t.StarAliases {
		t.starByName[alias] = key
	}

	t.transByName = make(map[string]string, len(t.Transformations))
	for key, name := range t.Transformations {
		t.transByName[name] = key
	}

	t.lucky = toSet(t.Sets.Lucky)
	t.main = toSet(t.Sets.Main)

	t.branchIndex = make(map[string]int, 24)
	for i := range t.Branches {
		t.branchIndex[t.Branches[i]] = i
		t.branchIndex[t.BranchKeys[i]] = i
	}
	return nil
}

// StarName returns the display name of a star key, or the key itself when unknown.
func (t *Tables) StarName(key string) string {
	if name, ok := t.Stars[key]; ok {
		return name
	}
	return key
}

// StarKey resolves a display name (or alias) to a star key.
func (t *Tables) StarKey(name string) (string, bool) {
	key, ok := t.starByName[name]
	return key, ok
}

// PalaceName returns the display name of a role key, or the key itself when unknown.
func (t *Tables) PalaceName(role string) string {
	if name, ok := t.Palaces[role]; ok {
		return name
	}
	return role
}

// RoleForName derives a role key from a display palace name by substring
// match against canonical names first, then aliases. Both passes run in
// sorted order so the result does not depend on map iteration.
func (t *Tables) RoleForName(display string) (string, bool) {
	for _, role := range sortedKeys(t.Palaces) {
		if strings.Contains(display, t.Palaces[role]) {
			return role, true
		}
	}
	for _, alias := range sortedKeys(t.PalaceAliases) {
		if strings.Contains(display, alias) {
			return t.PalaceAliases[alias], true
		}
	}
	return "", false
}

// IsRole reports whether key names a palace role.
func (t *Tables) IsRole(key string) bool {
	_, ok := t.Palaces[key]
	return ok
}

// TransformationKey accepts either a transformation key (hua_lu) or its
// display name (化祿) and returns the key.
func (t *Tables) TransformationKey(v string) (string, bool) {
	if _, ok := t.Transformations[v]; ok {
		return v, true
	}
	key, ok := t.transByName[v]
	return key, ok
}

// SiHuaStar returns the star key that stem transforms with trans.
func (t *Tables) SiHuaStar(stem, trans string) (string, bool) {
	slots, ok := t.SiHua[stem]
	if !ok {
		return "", false
	}
	star, ok := slots[trans]
	return star, ok && star != ""
}

// IsLucky reports membership in the lucky set (lu_cun and tian_ma included).
func (t *Tables) IsLucky(key string) bool {
	_, ok := t.lucky[key]
	return ok
}

// IsMain reports membership in the fourteen main stars.
func (t *Tables) IsMain(key string) bool {
	_, ok := t.main[key]
	return ok
}

// BranchIndex resolves a branch given as Chinese character (子) or
// romanised key (zi) to its palace index 0..11.
func (t *Tables) BranchIndex(branch string) (int, bool) {
	i, ok := t.branchIndex[branch]
	return i, ok
}

// StarKeys returns all star keys, sorted.
func (t *Tables) StarKeys() []string {
	return sortedKeys(t.Stars)
}

func toSet(keys []string) map[string]struct{} {
	s := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func copyMap(m map[string]string) map[string]string {
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func mergeInto(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
