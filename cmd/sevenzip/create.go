// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bureau-foundation/sevenzip/cmd/sevenzip/cli"
	"github.com/bureau-foundation/sevenzip/lib/sevenzip"
)

type createParams struct {
	sessionParams
	Profile      string   `json:"profile"       flag:"profile"       desc:"compression profile: store, fast, normal, ultra, or one defined in the config file"`
	Methods      []string `json:"methods"       flag:"method,m"      desc:"coder chain for file data, in order (e.g. -m bcj,lzma2)"`
	Level        int      `json:"level"         flag:"level,l"       desc:"compression level 0-9 (default from config)" default:"-1"`
	HeaderMethod []string `json:"header_method" flag:"header-method" desc:"coder chain for the encoded header"`
	PlainHeader  bool     `json:"plain_header"  flag:"plain-header"  desc:"store the header uncompressed"`
	Solid        bool     `json:"solid"         flag:"solid,s"       desc:"pack all file data into one folder"`
	Force        bool     `json:"force"         flag:"force,f"       desc:"overwrite an existing archive"`
}

func createCommand() *cli.Command {
	var params createParams

	return &cli.Command{
		Name:    "create",
		Summary: "Create an archive from named files",
		Description: `Create a 7z archive holding exactly the named paths, in order. A
directory becomes a directory entry; its contents are not added unless
named too (pair with find(1) to archive a tree). Symbolic links are
stored as links, with the target as the entry's content and the Unix
mode in the high attribute bits.

The coder chain comes from the configuration's compression section,
a --profile, or an explicit --method list; flags win over the
configuration. Include "aes" in the chain to encrypt file data. The
header is compressed unless --plain-header is given.

The archive is written to a temporary file next to the target and
renamed into place, so a failed run never leaves a partial archive.`,
		Usage:  "sevenzip create [flags] <archive> <file>...",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "Archive a tree with the default chain",
				Command:     "sevenzip create backup.7z $(find project | sort)",
			},
			{
				Description: "Solid archive with the x86 filter and maximum compression",
				Command:     "sevenzip create --solid --profile ultra tools.7z bin/*",
			},
			{
				Description: "Encrypt file data",
				Command:     "sevenzip create -m lzma2,aes --password-file ~/.secrets/backup secret.7z notes.txt",
			},
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) < 2 {
				return fmt.Errorf("create takes an archive path and at least one file, got %d arguments", len(args))
			}
			return runCreate(ctx, args[0], args[1:], &params)
		},
	}
}

func runCreate(ctx context.Context, target string, inputs []string, params *createParams) error {
	if !params.Force {
		if _, err := os.Lstat(target); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", target)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	s, err := newSession(&params.sessionParams, "create")
	if err != nil {
		return err
	}
	cfg := s.config
	if params.Profile != "" {
		if err := cfg.ApplyProfile(params.Profile); err != nil {
			return err
		}
	}
	if len(params.Methods) > 0 {
		cfg.Compression.Chain = params.Methods
	}
	if params.Level >= 0 {
		cfg.Compression.Level = params.Level
	}
	if len(params.HeaderMethod) > 0 {
		cfg.Header.Chain = params.HeaderMethod
	}
	if params.PlainHeader {
		cfg.Header.Encode = false
	}
	if params.Solid {
		cfg.Solid = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	encrypting := slices.Contains(cfg.Compression.Chain, "aes") ||
		(cfg.Header.Encode && slices.Contains(cfg.Header.Chain, "aes"))
	if encrypting && s.password == "" {
		if err := s.prompt(); err != nil {
			return err
		}
	}

	registry := s.registry()
	options := sevenzip.WriterOptions{Solid: cfg.Solid}
	if options.Methods, err = chain(registry, cfg.Compression.Chain); err != nil {
		return err
	}
	if cfg.Header.Encode {
		if options.HeaderMethods, err = chain(registry, cfg.Header.Chain); err != nil {
			return err
		}
	}
	writer := sevenzip.NewWriter(registry, options)

	var contentBytes uint64
	seen := make(map[string]bool)
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		stored, err := entryName(input)
		if err != nil {
			return err
		}
		if stored == "" {
			return fmt.Errorf("%q does not name a file", input)
		}
		if seen[stored] {
			return fmt.Errorf("%s named twice", stored)
		}
		seen[stored] = true
		size, err := addPath(writer, input, stored)
		if err != nil {
			return fmt.Errorf("adding %s: %w", input, err)
		}
		contentBytes += size
	}

	if err := writeAtomically(target, writer); err != nil {
		return err
	}
	s.logger.Info("archive created",
		"archive", target,
		"entries", writer.Len(),
		"bytes", contentBytes,
		"methods", strings.Join(cfg.Compression.Chain, " "),
		"solid", cfg.Solid,
		"encoded_header", cfg.Header.Encode,
	)
	return nil
}

// entryName converts a filesystem path to an archive name: slash
// separated, relative, and free of ".." elements.
func entryName(name string) (string, error) {
	cleaned := path.Clean(filepath.ToSlash(name))
	cleaned = strings.TrimLeft(cleaned, "/")
	if volume := filepath.VolumeName(name); volume != "" {
		cleaned = strings.TrimLeft(strings.TrimPrefix(cleaned, filepath.ToSlash(volume)), "/")
	}
	if cleaned == "." {
		return "", nil
	}
	for element := range strings.SplitSeq(cleaned, "/") {
		if element == ".." {
			return "", fmt.Errorf("path %q escapes the archive root", name)
		}
	}
	return cleaned, nil
}

// unixAttributes packs a file mode into the high half of the
// attributes word.
func unixAttributes(mode fs.FileMode) uint32 {
	unix := uint32(mode.Perm())
	switch {
	case mode.IsDir():
		unix |= 0o040000
	case mode&fs.ModeSymlink != 0:
		unix |= 0o120000
	default:
		unix |= 0o100000
	}
	attributes := sevenzip.AttributeUnixExtension | unix<<16
	if mode.IsDir() {
		attributes |= sevenzip.AttributeDirectory
	} else {
		attributes |= sevenzip.AttributeArchive
	}
	if mode.Perm()&0o222 == 0 {
		attributes |= sevenzip.AttributeReadOnly
	}
	return attributes
}

// addPath adds the file at name under the archive name stored and
// returns the number of content bytes added.
func addPath(writer *sevenzip.Writer, name, stored string) (uint64, error) {
	info, err := os.Lstat(name)
	if err != nil {
		return 0, err
	}
	mode := info.Mode()
	file := sevenzip.File{
		Name:             stored,
		Attributes:       sevenzip.Some(unixAttributes(mode)),
		ModificationTime: sevenzip.Some(sevenzip.FiletimeFromTime(info.ModTime())),
	}

	var content []byte
	switch {
	case mode.IsDir():
		writer.AddDirectory(stored, info.ModTime())
		return 0, nil
	case mode&fs.ModeSymlink != 0:
		link, err := os.Readlink(name)
		if err != nil {
			return 0, err
		}
		content = []byte(filepath.ToSlash(link))
	case mode.IsRegular():
		content, err = os.ReadFile(name)
		if err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("%s: unsupported file type %s", name, mode.Type())
	}
	writer.AddFile(file, content)
	return uint64(len(content)), nil
}

// writeAtomically writes the archive to a temporary file in the
// target's directory and renames it over target.
func writeAtomically(target string, writer *sevenzip.Writer) error {
	temporary, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary archive: %w", err)
	}
	defer os.Remove(temporary.Name())

	if _, err := writer.WriteTo(temporary); err != nil {
		temporary.Close()
		return err
	}
	if err := temporary.Sync(); err != nil {
		temporary.Close()
		return fmt.Errorf("syncing %s: %w", temporary.Name(), err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", temporary.Name(), err)
	}
	if err := os.Chmod(temporary.Name(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(temporary.Name(), target); err != nil {
		return fmt.Errorf("renaming archive into place: %w", err)
	}
	return nil
}
