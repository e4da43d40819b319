// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestBindFlags_BasicTypes(t *testing.T) {
	type params struct {
		Format   string   `flag:"format,f" desc:"output format"`
		Solid    bool     `flag:"solid,s" desc:"solid archive"`
		Jobs     int      `flag:"jobs" desc:"parallel decoders"`
		Limit    uint64   `flag:"max-header-size" desc:"header size limit"`
		Methods  []string `flag:"method" desc:"coder chain"`
		Untagged string   // no flag tag: skipped
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	err := flagSet.Parse([]string{
		"-f", "json",
		"-s",
		"--jobs", "4",
		"--max-header-size", "1099511627776",
		"--method", "bcj,lzma2",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Format != "json" {
		t.Errorf("Format = %q, want %q", p.Format, "json")
	}
	if !p.Solid {
		t.Error("Solid = false, want true")
	}
	if p.Jobs != 4 {
		t.Errorf("Jobs = %d, want 4", p.Jobs)
	}
	if p.Limit != 1099511627776 {
		t.Errorf("Limit = %d, want 1099511627776", p.Limit)
	}
	if !reflect.DeepEqual(p.Methods, []string{"bcj", "lzma2"}) {
		t.Errorf("Methods = %v, want [bcj lzma2]", p.Methods)
	}
	if flagSet.Lookup("untagged") != nil {
		t.Error("untagged field was bound")
	}
}

func TestBindFlags_Defaults(t *testing.T) {
	type params struct {
		Algorithm string   `flag:"algorithm" default:"crc32"`
		Encode    bool     `flag:"encode-header" default:"true"`
		Jobs      int      `flag:"jobs" default:"8"`
		Chain     []string `flag:"method" default:"bcj,lzma2"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Algorithm != "crc32" || !p.Encode || p.Jobs != 8 {
		t.Errorf("defaults = %+v", p)
	}
	if !reflect.DeepEqual(p.Chain, []string{"bcj", "lzma2"}) {
		t.Errorf("Chain = %v", p.Chain)
	}
}

func TestBindFlags_EmbeddedStruct(t *testing.T) {
	type params struct {
		JSONOutput
		Technical bool `flag:"technical,t"`
	}

	var p params
	flagSet := FlagsFromParams("list", &p)
	if err := flagSet.Parse([]string{"--json", "-t"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !p.OutputJSON || !p.Technical {
		t.Errorf("params = %+v, want both set", p)
	}
}

func TestBindFlags_Errors(t *testing.T) {
	tests := []struct {
		name   string
		params any
		want   string
	}{
		{"not a pointer", struct{}{}, "pointer to a struct"},
		{"unsupported type", &struct {
			Ratio float32 `flag:"ratio"`
		}{}, "unsupported type"},
		{"bad default", &struct {
			Jobs int `flag:"jobs" default:"many"`
		}{}, "default for --jobs"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := BindFlags(test.params, pflag.NewFlagSet("test", pflag.ContinueOnError))
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("BindFlags = %v, want error containing %q", err, test.want)
			}
		})
	}
}
