// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bureau-foundation/sevenzip/cmd/sevenzip/cli"
	"github.com/bureau-foundation/sevenzip/lib/sevenzip"
)

type listParams struct {
	sessionParams
	cli.JSONOutput
	Technical bool `json:"technical" flag:"technical,t" desc:"show folder and offset of every entry"`
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List archive entries",
		Description: `List the entries of an archive with modification time, attributes,
size, stored CRC-32 and name. With --technical, also show where each
entry's data lives: its folder, substream and offset within the
folder's unpacked output.`,
		Usage:  "sevenzip list [flags] <archive>",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "List entries",
				Command:     "sevenzip list backup.7z",
			},
			{
				Description: "Machine-readable listing",
				Command:     "sevenzip list --json backup.7z",
			},
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("list takes exactly one archive path, got %d arguments", len(args))
			}
			return runList(os.Stdout, args[0], &params)
		},
	}
}

// listEntry is one row of "sevenzip list".
type listEntry struct {
	Name       string     `json:"name"`
	Size       uint64     `json:"size"`
	CRC        *string    `json:"crc,omitempty"`
	Modified   *time.Time `json:"modified,omitempty"`
	Attributes string     `json:"attributes"`
	Mode       string     `json:"mode"`
	Directory  bool       `json:"directory"`
	Folder     int        `json:"folder"`
	Substream  int        `json:"substream"`
	Offset     uint64     `json:"offset"`
}

func newListEntry(entry *sevenzip.Entry) listEntry {
	return listEntry{
		Name:       entry.File.Name,
		Size:       entry.Size,
		CRC:        digestReport(entry.CRC),
		Modified:   timeReport(entry.File.ModificationTime),
		Attributes: attributeString(entry.File),
		Mode:       entry.File.Mode().String(),
		Directory:  entry.File.IsDir(),
		Folder:     entry.Folder,
		Substream:  entry.Substream,
		Offset:     entry.Offset,
	}
}

func runList(w io.Writer, path string, params *listParams) error {
	s, err := newSession(&params.sessionParams, "list")
	if err != nil {
		return err
	}
	a, err := s.open(path)
	if err != nil {
		return err
	}
	defer a.Close()

	entries := make([]listEntry, 0, len(a.reader.Entries()))
	for i := range a.reader.Entries() {
		entries = append(entries, newListEntry(&a.reader.Entries()[i]))
	}
	if done, err := params.EmitJSON(entries); done {
		return err
	}

	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', tabwriter.AlignRight)
	if params.Technical {
		fmt.Fprintf(tw, "Modified\tAttr\tSize\tCRC\tFolder\tOffset\t  Name\n")
	} else {
		fmt.Fprintf(tw, "Modified\tAttr\tSize\tCRC\t  Name\n")
	}

	var totalSize uint64
	files, directories := 0, 0
	for _, entry := range entries {
		modified := ""
		if entry.Modified != nil {
			modified = entry.Modified.UTC().Format(time.DateTime)
		}
		crc := ""
		if entry.CRC != nil {
			crc = *entry.CRC
		}
		if params.Technical {
			folder, offset := "-", "-"
			if entry.Folder >= 0 {
				folder, offset = fmt.Sprint(entry.Folder), fmt.Sprint(entry.Offset)
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t  %s\n", modified, entry.Attributes, entry.Size, crc, folder, offset, entry.Name)
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t  %s\n", modified, entry.Attributes, entry.Size, crc, entry.Name)
		}
		totalSize += entry.Size
		if entry.Directory {
			directories++
		} else {
			files++
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%d files, %d directories, %d bytes\n", files, directories, totalSize)
	return err
}

// attributeString renders attributes the way 7-Zip lists them: one
// column each for directory, read-only, hidden, system and archive.
func attributeString(file *sevenzip.File) string {
	flags := []byte(".....")
	if file.IsDir() {
		flags[0] = 'D'
	}
	if attributes, ok := file.Attributes.Get(); ok {
		if attributes&sevenzip.AttributeReadOnly != 0 {
			flags[1] = 'R'
		}
		if attributes&sevenzip.AttributeHidden != 0 {
			flags[2] = 'H'
		}
		if attributes&sevenzip.AttributeSystem != 0 {
			flags[3] = 'S'
		}
		if attributes&sevenzip.AttributeArchive != 0 {
			flags[4] = 'A'
		}
	}
	return string(flags)
}
