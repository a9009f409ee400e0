package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/teranos/ziwei/errors"
	"github.com/teranos/ziwei/logger"
)

// Format of a rule library file.
type Format string

const (
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts auto, json, yaml and yml. Empty means auto.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.NewInvalidRequestError("unknown rule library format %q", s)
}

// Rejected is a record that could not be decoded into a Rule.
type Rejected struct {
	Index int
	ID    string
	Err   error
}

// Library is an ordered rule list plus the optional envelope metadata.
//
// A library file is either a bare list of rule records or an envelope:
//
//	{"version": "2024.3", "engine": "^1.0", "rules": [...]}
//
// where engine is a semver constraint checked against GrammarVersion.
type Library struct {
	Source   string
	Version  string
	Engine   string
	Rules    []Rule
	Rejected []Rejected
}

// Load reads and parses a library file. FormatAuto picks the decoder from
// the file extension, falling back to content sniffing.
func Load(path string, format Format) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithHint(errors.NewNotFoundError("rule library %s", path),
				"set rules.path in am.toml or pass --rules")
		}
		return nil, errors.Wrapf(err, "failed to read rule library %s", path)
	}

	if format == FormatAuto {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			format = FormatYAML
		case ".json":
			format = FormatJSON
		}
	}

	lib, err := Parse(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "rule library %s", path)
	}
	lib.Source = path
	return lib, nil
}

// Parse decodes a library from bytes.
func Parse(data []byte, format Format) (*Library, error) {
	if format == FormatAuto {
		format = sniff(data)
	}

	var raw any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrap(err, "failed to decode JSON rule library")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrap(err, "failed to decode YAML rule library")
		}
	default:
		return nil, errors.NewInvalidRequestError("unknown rule library format %q", format)
	}

	lib := &Library{}
	records, err := lib.unwrap(raw)
	if err != nil {
		return nil, err
	}

	log := logger.ComponentLogger("rules")
	for i, rec := range records {
		r, err := DecodeRule(rec)
		if err != nil {
			id := recordID(rec)
			log.Warnw("rejected rule record", "index", i, logger.FieldRuleID, id, logger.FieldError, err)
			lib.Rejected = append(lib.Rejected, Rejected{Index: i, ID: id, Err: err})
			continue
		}
		lib.Rules = append(lib.Rules, r)
	}
	return lib, nil
}

// unwrap returns the record list, reading and checking the envelope if present.
func (l *Library) unwrap(raw any) ([]any, error) {
	if list, ok := raw.([]any); ok {
		return list, nil
	}
	m, ok := asMap(raw)
	if !ok {
		return nil, errors.NewInvalidRequestError("rule library must be a list or an object with rules, got %T", raw)
	}

	if v, ok := m["version"]; ok && v != nil {
		l.Version = toString(v)
	}
	if v, ok := m["engine"]; ok && v != nil {
		l.Engine = toString(v)
		if err := CheckEngine(l.Engine); err != nil {
			return nil, err
		}
	}

	list, ok := m["rules"].([]any)
	if !ok {
		return nil, errors.NewInvalidRequestError("rule library object has no rules list")
	}
	return list, nil
}

// CheckEngine verifies that GrammarVersion satisfies the constraint.
func CheckEngine(constraint string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidRequest, "engine constraint %q: %v", constraint, err)
	}
	v := semver.MustParse(GrammarVersion)
	if ok, reasons := c.Validate(v); !ok {
		msgs := make([]string, len(reasons))
		for i, r := range reasons {
			msgs[i] = r.Error()
		}
		return errors.WithHintf(
			errors.Wrapf(errors.ErrIncompatibleLibrary, "grammar %s does not satisfy %q: %s", GrammarVersion, constraint, strings.Join(msgs, "; ")),
			"this build understands condition grammar %s", GrammarVersion)
	}
	return nil
}

func sniff(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON
	}
	return FormatYAML
}

func recordID(rec any) string {
	m, ok := asMap(rec)
	if !ok {
		return ""
	}
	if id, ok := m["id"]; ok && id != nil {
		return toString(id)
	}
	return ""
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
