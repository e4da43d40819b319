// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/bureau-foundation/sevenzip/cmd/sevenzip/cli"
	"github.com/bureau-foundation/sevenzip/lib/config"
	"github.com/bureau-foundation/sevenzip/lib/method"
	"github.com/bureau-foundation/sevenzip/lib/sevenzip"
)

// sessionParams are the flags shared by every command that reads or
// writes an archive.
type sessionParams struct {
	ConfigPath   string `json:"config"        flag:"config"        desc:"configuration file (default $SEVENZIP_CONFIG)"`
	PasswordFile string `json:"password_file" flag:"password-file" desc:"file holding the archive password"`
	AskPassword  bool   `json:"ask_password"  flag:"password,p"    desc:"prompt for the archive password"`
}

// promptPassword reads a password from the terminal with echo
// disabled.
var promptPassword = func() (string, error) {
	stdinFileDescriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFileDescriptor) {
		return "", errors.New("no terminal available for interactive password prompt (use --password-file)")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(stdinFileDescriptor)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}

// session carries the loaded configuration and password through one
// command invocation.
type session struct {
	config   *config.Config
	logger   *slog.Logger
	password string
	prompted bool
}

func newSession(params *sessionParams, command string) (*session, error) {
	var cfg *config.Config
	var err error
	if params.ConfigPath != "" {
		cfg, err = config.LoadFile(params.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if params.PasswordFile != "" {
		cfg.PasswordFile = params.PasswordFile
	}
	password, err := cfg.Password()
	if err != nil {
		return nil, err
	}

	s := &session{
		config:   cfg,
		logger:   cli.NewCommandLogger(cli.ParseLevel(cfg.LogLevel)).With("command", command),
		password: password,
	}
	if params.AskPassword && password == "" {
		if err := s.prompt(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// prompt asks for a password once per session.
func (s *session) prompt() error {
	s.prompted = true
	password, err := promptPassword()
	if err != nil {
		return err
	}
	s.password = password
	return nil
}

// registry builds a method registry from the configuration and the
// current password.
func (s *session) registry() *method.Registry {
	return method.NewRegistry(method.Options{
		Password:      s.password,
		Level:         s.config.Compression.Level,
		DictSize:      s.config.Compression.DictSize,
		DeltaDistance: s.config.Compression.DeltaDistance,
	})
}

// withPassword runs operation, and when it fails for lack of a
// password, prompts for one and runs it once more.
func (s *session) withPassword(operation func(*method.Registry) error) error {
	err := operation(s.registry())
	if err == nil || !errors.Is(err, method.ErrPasswordRequired) || s.password != "" || s.prompted {
		return err
	}
	if promptErr := s.prompt(); promptErr != nil {
		s.logger.Debug("password prompt unavailable", "error", promptErr)
		return err
	}
	return operation(s.registry())
}

// chain resolves configured method names to method ids.
func chain(registry *method.Registry, names []string) ([][]byte, error) {
	methods := make([][]byte, 0, len(names))
	for _, name := range names {
		m, ok := registry.LookupName(name)
		if !ok {
			return nil, fmt.Errorf("unknown method %q (known: %v)", name, registry.Names())
		}
		methods = append(methods, []byte(m.ID))
	}
	return methods, nil
}

// archive is an opened archive file.
type archive struct {
	path     string
	file     *os.File
	reader   *sevenzip.Reader
	registry *method.Registry
}

// open opens and parses the archive at path. When folders are
// encrypted and no password is known yet, it prompts once so later
// decoding succeeds.
func (s *session) open(path string) (*archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	a := &archive{path: path, file: file}

	load := func(registry *method.Registry) error {
		reader, err := sevenzip.NewReader(file, registry, sevenzip.ReaderOptions{
			Logger:        s.logger,
			MaxHeaderSize: s.config.MaxHeaderSize,
		})
		if err != nil {
			return err
		}
		a.reader, a.registry = reader, registry
		return nil
	}
	if err := s.withPassword(load); err != nil {
		file.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if a.encrypted() && s.password == "" && !s.prompted {
		if err := s.prompt(); err != nil {
			s.logger.Warn("archive is encrypted and no password is available", "error", err)
		} else if err := load(s.registry()); err != nil {
			file.Close()
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
	}
	return a, nil
}

func (a *archive) Close() error {
	return a.file.Close()
}

// encrypted reports whether any folder runs through 7zAES.
func (a *archive) encrypted() bool {
	for _, folder := range a.reader.Header().MainStreams.Folders() {
		for _, coder := range folder.Coders {
			if coder.Method == method.AES {
				return true
			}
		}
	}
	return false
}

// folderResult is the outcome of decoding one folder.
type folderResult struct {
	folder     int
	substreams [][]byte
	err        error
}

// decodeFolders decodes every folder with up to jobs decoders running
// at once and hands the results to visit in folder order. It stops at
// the first error visit returns.
func (a *archive) decodeFolders(ctx context.Context, jobs int, visit func(folderResult) error) error {
	count := a.reader.NumFolders()
	if jobs < 1 {
		jobs = 1
	}

	results := make([]chan folderResult, count)
	for i := range results {
		results[i] = make(chan folderResult, 1)
	}
	// On early return, done stops the feeder before wg.Wait collects
	// the workers.
	var wg sync.WaitGroup
	defer wg.Wait()
	work := make(chan int)
	done := make(chan struct{})
	defer close(done)

	for range min(jobs, count) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for folder := range work {
				result := folderResult{folder: folder}
				if err := ctx.Err(); err != nil {
					result.err = err
				} else {
					result.substreams, result.err = a.reader.Substreams(folder)
				}
				results[folder] <- result
			}
		}()
	}
	go func() {
		defer close(work)
		for folder := range count {
			select {
			case work <- folder:
			case <-done:
				return
			}
		}
	}()

	for folder := range count {
		if err := visit(<-results[folder]); err != nil {
			return err
		}
	}
	return nil
}
