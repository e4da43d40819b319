// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the sevenzip tool.
//
// Configuration is loaded from a single file specified by:
//   - SEVENZIP_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. When neither is given
// the tool runs on [Default].
//
// The file may select a compression profile (store, fast, normal,
// ultra, or one it defines itself) whose values override the base
// compression settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Config is the configuration of the sevenzip tool.
type Config struct {
	// PasswordFile holds the password for encrypted archives. Empty
	// means prompt on a terminal when a password is needed.
	PasswordFile string `yaml:"password_file"`

	// Profile names an entry of Profiles (or a built-in profile)
	// whose values override Compression.
	Profile string `yaml:"profile"`

	// Compression configures the coder chain for file data.
	Compression CompressionConfig `yaml:"compression"`

	// Header configures how the archive header is stored.
	Header HeaderConfig `yaml:"header"`

	// Solid stores all file data in a single folder.
	Solid bool `yaml:"solid"`

	// MaxHeaderSize rejects archives whose next header is larger.
	// Zero uses the library default.
	MaxHeaderSize uint64 `yaml:"max_header_size"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Profiles adds or replaces named compression profiles.
	Profiles map[string]CompressionConfig `yaml:"profiles,omitempty"`
}

// CompressionConfig configures a coder chain.
type CompressionConfig struct {
	// Chain lists method names (see the method registry), applied in
	// order: the first sits closest to the original data.
	Chain []string `yaml:"chain"`

	// Level is the encoder effort, 0 to 9. Methods without levels
	// ignore it.
	Level int `yaml:"level"`

	// DictSize is the LZMA/LZMA2 dictionary size in bytes. Zero uses
	// the encoder default.
	DictSize uint32 `yaml:"dict_size"`

	// DeltaDistance is the byte distance of the delta filter.
	DeltaDistance int `yaml:"delta_distance"`
}

// HeaderConfig configures header storage.
type HeaderConfig struct {
	// Encode stores the header compressed as an ENCODED_HEADER.
	Encode bool `yaml:"encode"`

	// Chain is the coder chain for the encoded header.
	Chain []string `yaml:"chain"`
}

// builtinProfiles are always available by name.
var builtinProfiles = map[string]CompressionConfig{
	"store":  {Chain: []string{"copy"}},
	"fast":   {Chain: []string{"zstd"}, Level: 1},
	"normal": {Chain: []string{"lzma2"}, Level: 5, DictSize: 16 << 20},
	"ultra":  {Chain: []string{"bcj", "lzma2"}, Level: 9, DictSize: 64 << 20},
}

// Default returns the default configuration: LZMA2 file data, an
// LZMA-encoded header, and non-solid folders.
func Default() *Config {
	return &Config{
		Compression: CompressionConfig{
			Chain:    []string{"lzma2"},
			Level:    5,
			DictSize: 8 << 20,
		},
		Header: HeaderConfig{
			Encode: true,
			Chain:  []string{"lzma"},
		},
		LogLevel: "info",
	}
}

// Load loads configuration from the SEVENZIP_CONFIG environment
// variable, or returns [Default] when it is unset.
func Load() (*Config, error) {
	configPath := os.Getenv("SEVENZIP_CONFIG")
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Files ending
// in .jsonc or .json are read as JSON with comments; anything else is
// YAML.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := cfg.ApplyProfile(cfg.Profile); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonc", ".json":
		// JSON is a subset of YAML, so after stripping comments and
		// trailing commas the YAML decoder handles it with the same
		// field tags.
		data = jsonc.ToJSON(data)
	}
	return yaml.Unmarshal(data, c)
}

// ApplyProfile selects a profile by name and overlays its non-zero
// values on Compression. Profiles defined in the file shadow built-in
// profiles of the same name. An empty name is a no-op.
func (c *Config) ApplyProfile(name string) error {
	if name == "" {
		return nil
	}
	profile, ok := c.Profiles[name]
	if !ok {
		profile, ok = builtinProfiles[name]
	}
	if !ok {
		return fmt.Errorf("unknown profile %q", name)
	}
	c.Profile = name

	if len(profile.Chain) > 0 {
		c.Compression.Chain = profile.Chain
	}
	if profile.Level != 0 {
		c.Compression.Level = profile.Level
	}
	if profile.DictSize != 0 {
		c.Compression.DictSize = profile.DictSize
	}
	if profile.DeltaDistance != 0 {
		c.Compression.DeltaDistance = profile.DeltaDistance
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	c.PasswordFile = expandVars(c.PasswordFile)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Compression.Chain) == 0 {
		errs = append(errs, errors.New("compression.chain must name at least one method"))
	}
	if c.Compression.Level < 0 || c.Compression.Level > 9 {
		errs = append(errs, fmt.Errorf("compression.level %d must be between 0 and 9", c.Compression.Level))
	}
	if c.Compression.DeltaDistance < 0 || c.Compression.DeltaDistance > 256 {
		errs = append(errs, fmt.Errorf("compression.delta_distance %d must be between 0 and 256", c.Compression.DeltaDistance))
	}
	if c.Header.Encode && len(c.Header.Chain) == 0 {
		errs = append(errs, errors.New("header.chain must name at least one method when header.encode is set"))
	}

	logLevels := []string{"debug", "info", "warn", "error"}
	if !contains(logLevels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level must be one of: %v", logLevels))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Password reads PasswordFile, without its trailing newline. It
// returns "" when no password file is configured.
func (c *Config) Password() (string, error) {
	if c.PasswordFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.PasswordFile)
	if err != nil {
		return "", fmt.Errorf("reading password file: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// ProfileNames lists the built-in profile names.
func ProfileNames() []string {
	return []string{"store", "fast", "normal", "ultra"}
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
