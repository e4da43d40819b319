// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/bureau-foundation/sevenzip/cmd/sevenzip/cli"
)

type testParams struct {
	sessionParams
	cli.JSONOutput
	Jobs int `json:"jobs" flag:"jobs,j" desc:"folders to decode in parallel (default: number of CPUs)"`
}

func testCommand() *cli.Command {
	var params testParams

	return &cli.Command{
		Name:    "test",
		Summary: "Decode every folder and verify stored checksums",
		Description: `Decode each folder of an archive and check the folder CRC and every
stored substream CRC. Folders are independent, so they are decoded in
parallel; results are reported in folder order.

Exits with status 2 when any folder fails.`,
		Usage:  "sevenzip test [flags] <archive>",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "Verify an archive",
				Command:     "sevenzip test backup.7z",
			},
			{
				Description: "Verify an encrypted archive with the password in a file",
				Command:     "sevenzip test --password-file ~/.secrets/backup backup.7z",
			},
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("test takes exactly one archive path, got %d arguments", len(args))
			}
			return runTest(ctx, os.Stdout, args[0], &params)
		},
	}
}

// folderCheck is the outcome of verifying one folder.
type folderCheck struct {
	Folder     int    `json:"folder"`
	Substreams int    `json:"substreams"`
	Bytes      uint64 `json:"bytes"`
	Error      string `json:"error,omitempty"`
}

// testReport is the result of "sevenzip test".
type testReport struct {
	Archive string        `json:"archive"`
	Folders []folderCheck `json:"folders"`
	Failed  int           `json:"failed"`
}

func runTest(ctx context.Context, w io.Writer, path string, params *testParams) error {
	s, err := newSession(&params.sessionParams, "test")
	if err != nil {
		return err
	}
	a, err := s.open(path)
	if err != nil {
		return err
	}
	defer a.Close()

	jobs := params.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	report := testReport{Archive: path, Folders: []folderCheck{}}
	err = a.decodeFolders(ctx, jobs, func(result folderResult) error {
		check := folderCheck{Folder: result.folder, Substreams: len(result.substreams)}
		for _, substream := range result.substreams {
			check.Bytes += uint64(len(substream))
		}
		if result.err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			check.Error = result.err.Error()
			report.Failed++
			s.logger.Debug("folder failed", "folder", result.folder, "error", result.err)
		}
		report.Folders = append(report.Folders, check)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("archive tested",
		"archive", path,
		"folders", len(report.Folders),
		"failed", report.Failed,
		"jobs", jobs,
	)

	if done, err := params.EmitJSON(report); done {
		if err != nil {
			return err
		}
	} else if err := writeTestReport(w, report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return &cli.ExitError{Code: 2}
	}
	return nil
}

func writeTestReport(w io.Writer, report testReport) error {
	for _, check := range report.Folders {
		if check.Error != "" {
			if _, err := fmt.Fprintf(w, "folder %d: FAILED: %s\n", check.Folder, check.Error); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "folder %d: ok (%d substreams, %d bytes)\n", check.Folder, check.Substreams, check.Bytes); err != nil {
			return err
		}
	}
	if report.Failed > 0 {
		_, err := fmt.Fprintf(w, "%s: %d of %d folders failed\n", report.Archive, report.Failed, len(report.Folders))
		return err
	}
	_, err := fmt.Fprintf(w, "%s: everything is ok\n", report.Archive)
	return err
}
