package chart

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/teranos/ziwei/errors"
	"github.com/teranos/ziwei/tables"
)

// StarRecord is one star entry as sent by the chart front-end.
type StarRecord struct {
	Name           string `json:"name" yaml:"name"`
	Type           string `json:"type,omitempty" yaml:"type,omitempty"`
	Transformation string `json:"transformation,omitempty" yaml:"transformation,omitempty"`
	Trans          string `json:"trans,omitempty" yaml:"trans,omitempty"`
	Brightness     string `json:"brightness,omitempty" yaml:"brightness,omitempty"`
}

// PalaceRecord is one palace as sent by the chart front-end. ID is the
// palace index; records without an ID or with ID -1 are ignored.
type PalaceRecord struct {
	ID         *int         `json:"id" yaml:"id"`
	PalaceName string       `json:"palaceName" yaml:"palaceName"`
	Gan        string       `json:"gan" yaml:"gan"`
	Zhi        string       `json:"zhi" yaml:"zhi"`
	Stars      []StarRecord `json:"stars" yaml:"stars"`
}

// Document is a chart file: the palace records plus an optional gender.
type Document struct {
	Gender  string         `json:"gender,omitempty" yaml:"gender,omitempty"`
	Palaces []PalaceRecord `json:"palaces" yaml:"palaces"`
}

// DecodeDocument accepts either a bare JSON list of palace records or an
// object {"gender": ..., "palaces": [...]}.
func DecodeDocument(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Document{}, errors.NewInvalidRequestError("empty chart document")
	}

	if trimmed[0] == '[' {
		var records []PalaceRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return Document{}, errors.Wrap(err, "failed to decode palace records")
		}
		return Document{Palaces: records}, nil
	}

	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Document{}, errors.Wrap(err, "failed to decode chart document")
	}
	return doc, nil
}

// FromRecords builds a Chart from front-end palace records.
//
// Every index without a record becomes an empty RoleUnknown palace. When
// two records claim the same index the later one wins; when two palaces
// derive the same role, the one at the higher index keeps it and the other
// becomes RoleUnknown.
func FromRecords(records []PalaceRecord, gender Gender, t *tables.Tables) (*Chart, error) {
	if t == nil {
		t = tables.Default()
	}

	var byIndex [PalaceCount]*Palace
	for i := range byIndex {
		byIndex[i] = NewPalace(i, RoleUnknown, "", "")
	}

	for _, rec := range records {
		if rec.ID == nil || *rec.ID < 0 || *rec.ID >= PalaceCount {
			continue
		}
		idx := *rec.ID

		role, ok := t.RoleForName(rec.PalaceName)
		if !ok {
			role = RoleUnknown
		}
		p := NewPalace(idx, role, strings.TrimSpace(rec.Gan), strings.TrimSpace(rec.Zhi))
		for _, sr := range rec.Stars {
			if star, ok := starFromRecord(sr, t); ok {
				p.AddStar(star)
			}
		}
		byIndex[idx] = p
	}

	owner := make(map[string]int, PalaceCount)
	for i, p := range byIndex {
		if p.Role == RoleUnknown {
			continue
		}
		if prev, dup := owner[p.Role]; dup {
			byIndex[prev].Role = RoleUnknown
		}
		owner[p.Role] = i
	}

	return New(byIndex[:], gender)
}

// starFromRecord maps a display star entry to a Star. Entries named 化祿,
// 化權, 化科 or 化忌 become pseudo-stars keyed by the transformation.
// Unrecognised names are dropped.
func starFromRecord(sr StarRecord, t *tables.Tables) (Star, bool) {
	name, brightness := cleanStarName(sr.Name)
	if sr.Brightness != "" {
		brightness = sr.Brightness
	}

	if trans, ok := t.TransformationKey(name); ok && name != trans {
		return Star{Key: trans}, true
	}

	key, ok := t.StarKey(name)
	if !ok {
		return Star{}, false
	}

	star := Star{Key: key, Brightness: brightness}
	raw := sr.Transformation
	if raw == "" {
		raw = sr.Trans
	}
	if raw != "" {
		if trans, ok := t.TransformationKey(strings.TrimSpace(raw)); ok {
			star.Transformation = trans
		}
	}
	return star, true
}

// cleanStarName strips annotations such as "紫微 (廟)" or "紫微(廟)" and
// returns the bare name plus the annotation, if any.
func cleanStarName(raw string) (name, annotation string) {
	s := strings.TrimSpace(raw)
	for _, open := range []string{"(", "（"} {
		if i := strings.Index(s, open); i >= 0 {
			annotation = strings.Trim(s[i:], " ()（）")
			s = s[:i]
		}
	}
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s), annotation
}
