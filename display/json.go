// Package display renders command results for the terminal.
package display

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teranos/ziwei/errors"
)

// Format selects how results are written
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat accepts table, json and yaml (or yml)
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.WithHint(
		errors.NewInvalidRequestError("unknown output format %q", s),
		"use table, json or yaml",
	)
}

// MarshalJSON marshals JSON with two-space indentation and no HTML escaping,
// so that Chinese text and <palace> markers stay readable
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, "failed to marshal JSON")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalYAML marshals YAML with two-space indentation
func MarshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, "failed to marshal YAML")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to marshal YAML")
	}
	return buf.Bytes(), nil
}

// Write encodes v as JSON or YAML. Tables are rendered by the typed helpers.
func Write(w io.Writer, format Format, v any) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = MarshalJSON(v)
		if err == nil {
			data = append(data, '\n')
		}
	case FormatYAML:
		data, err = MarshalYAML(v)
	default:
		return errors.AssertionFailedf("format %q has no generic encoder", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// OutputJSON marshals and prints JSON to w
func OutputJSON(w io.Writer, v any) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
