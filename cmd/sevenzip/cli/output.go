// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/sevenzip/lib/codec"
)

// JSONOutput is an embeddable struct that adds --json output support to
// a command's parameter struct. Embedding it provides the --json flag
// (via struct tag processing in [BindFlags]) and the [EmitJSON] method
// for conditional JSON output.
//
// Usage:
//
//	type listParams struct {
//	    cli.JSONOutput
//	    Technical bool `json:"technical" flag:"technical,t" desc:"..."`
//	}
//
//	// In Run:
//	if done, err := params.EmitJSON(entries); done {
//	    return err
//	}
//	// ... text formatting ...
type JSONOutput struct {
	OutputJSON bool `json:"-" flag:"json" desc:"output as JSON"`
}

// EmitJSON writes result as indented JSON to stdout if --json is set.
// Returns (true, nil) on success, (true, err) on write failure, or
// (false, nil) when --json is not set and the caller should proceed
// with text formatting.
//
// Nil slices are normalized to empty slices before serialization, so
// callers never need to guard against null JSON output.
func (j *JSONOutput) EmitJSON(result any) (bool, error) {
	if !j.OutputJSON {
		return false, nil
	}
	return true, WriteJSON(os.Stdout, normalizeNilSlice(result))
}

// Format is a structured output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"

	// FormatCBORDiagnostic is the CBOR encoding rendered as RFC 8949
	// diagnostic notation.
	FormatCBORDiagnostic Format = "cbor-diag"
)

// ParseFormat parses a --format value.
func ParseFormat(name string) (Format, error) {
	switch format := Format(name); format {
	case FormatYAML, FormatJSON, FormatCBOR, FormatCBORDiagnostic:
		return format, nil
	}
	return "", fmt.Errorf("unknown format %q (want yaml, json, cbor or cbor-diag)", name)
}

// Write encodes value to w in format. YAML uses `yaml` tags, JSON and
// CBOR use `json` tags.
func Write(w io.Writer, format Format, value any) error {
	value = normalizeNilSlice(value)
	switch format {
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(value); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return encoder.Close()
	case FormatJSON:
		return WriteJSON(w, value)
	case FormatCBOR:
		if err := codec.NewEncoder(w).Encode(value); err != nil {
			return fmt.Errorf("encoding cbor: %w", err)
		}
		return nil
	case FormatCBORDiagnostic:
		data, err := codec.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding cbor: %w", err)
		}
		notation, err := codec.Diagnose(data)
		if err != nil {
			return fmt.Errorf("rendering cbor diagnostic notation: %w", err)
		}
		_, err = fmt.Fprintln(w, notation)
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}

// WriteJSON marshals value as indented JSON and writes it to w.
func WriteJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// normalizeNilSlice returns an empty slice of the same type if value
// is a nil slice, so that JSON serialization produces [] instead of
// null. Returns value unchanged for all other types.
func normalizeNilSlice(value any) any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Slice && v.IsNil() {
		return reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	return value
}
