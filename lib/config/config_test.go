// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if !reflect.DeepEqual(cfg.Compression.Chain, []string{"lzma2"}) {
		t.Errorf("expected chain=[lzma2], got %v", cfg.Compression.Chain)
	}
	if !cfg.Header.Encode {
		t.Error("expected header.encode=true")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log_level=info, got %s", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestLoad_WithoutSevenzipConfig(t *testing.T) {
	t.Setenv("SEVENZIP_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_WithSevenzipConfig(t *testing.T) {
	path := writeConfig(t, "sevenzip.yaml", `
solid: true
compression:
  chain: [bcj, lzma]
  dict_size: 1048576
header:
  encode: false
log_level: debug
`)
	t.Setenv("SEVENZIP_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !cfg.Solid {
		t.Error("expected solid=true")
	}
	if !reflect.DeepEqual(cfg.Compression.Chain, []string{"bcj", "lzma"}) {
		t.Errorf("expected chain=[bcj lzma], got %v", cfg.Compression.Chain)
	}
	if cfg.Compression.DictSize != 1<<20 {
		t.Errorf("expected dict_size=1048576, got %d", cfg.Compression.DictSize)
	}
	// Unset keys keep their defaults.
	if cfg.Compression.Level != 5 {
		t.Errorf("expected level=5, got %d", cfg.Compression.Level)
	}
	if cfg.Header.Encode {
		t.Error("expected header.encode=false")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log_level=debug, got %s", cfg.LogLevel)
	}
}

func TestLoadFile_JSONC(t *testing.T) {
	path := writeConfig(t, "sevenzip.jsonc", `{
  // Store only, for already-compressed inputs.
  "compression": {"chain": ["copy"], "level": 0,},
  "max_header_size": 1024,
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if !reflect.DeepEqual(cfg.Compression.Chain, []string{"copy"}) {
		t.Errorf("expected chain=[copy], got %v", cfg.Compression.Chain)
	}
	if cfg.MaxHeaderSize != 1024 {
		t.Errorf("expected max_header_size=1024, got %d", cfg.MaxHeaderSize)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestProfiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
		chain   []string
		level   int
	}{
		{
			name:    "builtin",
			content: "profile: ultra\n",
			chain:   []string{"bcj", "lzma2"},
			level:   9,
		},
		{
			name: "custom",
			content: `
profile: text
profiles:
  text:
    chain: [delta, lzma2]
    delta_distance: 2
`,
			chain: []string{"delta", "lzma2"},
			level: 5,
		},
		{
			name: "custom shadows builtin",
			content: `
profile: fast
profiles:
  fast:
    chain: [lz4]
`,
			chain: []string{"lz4"},
			level: 5,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := LoadFile(writeConfig(t, "sevenzip.yaml", test.content))
			if err != nil {
				t.Fatalf("LoadFile() failed: %v", err)
			}
			if !reflect.DeepEqual(cfg.Compression.Chain, test.chain) {
				t.Errorf("expected chain=%v, got %v", test.chain, cfg.Compression.Chain)
			}
			if cfg.Compression.Level != test.level {
				t.Errorf("expected level=%d, got %d", test.level, cfg.Compression.Level)
			}
		})
	}

	if _, err := LoadFile(writeConfig(t, "sevenzip.yaml", "profile: nonsense\n")); err == nil {
		t.Error("expected error for unknown profile")
	}

	cfg := Default()
	if err := cfg.ApplyProfile("store"); err != nil {
		t.Fatalf("ApplyProfile(store): %v", err)
	}
	if cfg.Profile != "store" || !reflect.DeepEqual(cfg.Compression.Chain, []string{"copy"}) {
		t.Errorf("after ApplyProfile(store): profile=%q chain=%v", cfg.Profile, cfg.Compression.Chain)
	}
	for _, name := range ProfileNames() {
		if err := Default().ApplyProfile(name); err != nil {
			t.Errorf("built-in profile %q: %v", name, err)
		}
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("SEVENZIP_TEST_SECRETS", "/secrets")

	tests := []struct {
		input    string
		expected string
	}{
		{"${SEVENZIP_TEST_SECRETS}/archive.pass", "/secrets/archive.pass"},
		{"${SEVENZIP_TEST_UNSET:-/fallback}/pass", "/fallback/pass"},
		{"${SEVENZIP_TEST_UNSET}", ""},
		{"/plain/path", "/plain/path"},
	}
	for _, test := range tests {
		if got := expandVars(test.input); got != test.expected {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.expected)
		}
	}
}

func TestPassword(t *testing.T) {
	dir := t.TempDir()
	passwordPath := filepath.Join(dir, "pass")
	if err := os.WriteFile(passwordPath, []byte("hunter2\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SEVENZIP_TEST_DIR", dir)

	cfg, err := LoadFile(writeConfig(t, "sevenzip.yaml", "password_file: ${SEVENZIP_TEST_DIR}/pass\n"))
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	password, err := cfg.Password()
	if err != nil {
		t.Fatalf("Password() failed: %v", err)
	}
	if password != "hunter2" {
		t.Errorf("expected password hunter2, got %q", password)
	}

	if password, err := Default().Password(); err != nil || password != "" {
		t.Errorf("Default().Password() = %q, %v", password, err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty chain", func(c *Config) { c.Compression.Chain = nil }, "compression.chain"},
		{"level too high", func(c *Config) { c.Compression.Level = 10 }, "compression.level"},
		{"negative delta", func(c *Config) { c.Compression.DeltaDistance = -1 }, "delta_distance"},
		{"header chain", func(c *Config) { c.Header.Chain = nil }, "header.chain"},
		{"log level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.modify(cfg)
			err := cfg.Validate()
			if test.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("expected error containing %q, got %v", test.wantErr, err)
			}
		})
	}
}
