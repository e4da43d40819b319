// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/sevenzip/lib/method"
	"github.com/bureau-foundation/sevenzip/lib/testutil"
)

func openSample(t *testing.T, params *createParams) *archive {
	t.Helper()
	archivePath, _ := createSample(t, params)
	s, err := newSession(&sessionParams{}, "test")
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	a, err := s.open(archivePath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestDecodeFoldersInOrder(t *testing.T) {
	a := openSample(t, newCreateParams())
	for _, jobs := range []int{0, 1, 2, 8} {
		var order []int
		err := a.decodeFolders(context.Background(), jobs, func(result folderResult) error {
			if result.err != nil {
				return result.err
			}
			if len(result.substreams) != 1 {
				t.Errorf("jobs=%d folder %d: %d substreams, want 1", jobs, result.folder, len(result.substreams))
			}
			order = append(order, result.folder)
			return nil
		})
		if err != nil {
			t.Fatalf("jobs=%d: decodeFolders: %v", jobs, err)
		}
		if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
			t.Errorf("jobs=%d: visit order %v, want [0 1 2]", jobs, order)
		}
	}
}

func TestDecodeFoldersStopsEarly(t *testing.T) {
	a := openSample(t, newCreateParams())
	stop := errors.New("stop")

	done := make(chan struct{})
	var err error
	visited := 0
	go func() {
		defer close(done)
		err = a.decodeFolders(context.Background(), 1, func(folderResult) error {
			visited++
			return stop
		})
	}()
	testutil.RequireClosed(t, done, 10*time.Second, "decodeFolders returning after visit fails")

	if !errors.Is(err, stop) {
		t.Errorf("decodeFolders returned %v, want the visit error", err)
	}
	if visited != 1 {
		t.Errorf("visited %d folders, want 1", visited)
	}
}

func TestWithPasswordPromptsOnce(t *testing.T) {
	t.Setenv("SEVENZIP_CONFIG", "")
	prompts := 0
	original := promptPassword
	promptPassword = func() (string, error) {
		prompts++
		return "pw", nil
	}
	t.Cleanup(func() { promptPassword = original })

	s, err := newSession(&sessionParams{}, "test")
	if err != nil {
		t.Fatal(err)
	}
	calls := 0
	err = s.withPassword(func(*method.Registry) error {
		calls++
		if s.password == "" {
			return method.ErrPasswordRequired
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withPassword: %v", err)
	}
	if calls != 2 || prompts != 1 {
		t.Errorf("calls=%d prompts=%d, want 2 and 1", calls, prompts)
	}

	// A session that already prompted does not prompt again.
	err = s.withPassword(func(*method.Registry) error { return method.ErrPasswordRequired })
	if !errors.Is(err, method.ErrPasswordRequired) || prompts != 1 {
		t.Errorf("second withPassword: err=%v prompts=%d", err, prompts)
	}
}

func TestAskPasswordFlag(t *testing.T) {
	t.Setenv("SEVENZIP_CONFIG", "")
	original := promptPassword
	promptPassword = func() (string, error) { return "asked", nil }
	t.Cleanup(func() { promptPassword = original })

	s, err := newSession(&sessionParams{AskPassword: true}, "test")
	if err != nil {
		t.Fatal(err)
	}
	if s.password != "asked" || !s.prompted {
		t.Errorf("password=%q prompted=%v, want asked and true", s.password, s.prompted)
	}
}
