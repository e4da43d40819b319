// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/bureau-foundation/sevenzip/cmd/sevenzip/cli"
	"github.com/bureau-foundation/sevenzip/lib/testutil"
)

// infoFields parses "Label: value" lines from writeSummary.
func infoFields(t *testing.T, output string) map[string]string {
	t.Helper()
	fields := make(map[string]string)
	for line := range strings.Lines(output) {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			t.Fatalf("malformed info line %q", line)
		}
		fields[label] = strings.TrimSpace(value)
	}
	return fields
}

func TestInfo(t *testing.T) {
	tests := []struct {
		name        string
		params      func() *createParams
		wantHeader  string
		wantMethods string
		wantSolid   string
	}{
		{
			name:        "defaults",
			params:      newCreateParams,
			wantHeader:  "encoded",
			wantMethods: "lzma2",
			wantSolid:   "no",
		},
		{
			name: "solid copy with plain header",
			params: func() *createParams {
				params := newCreateParams()
				params.Methods = []string{"copy"}
				params.PlainHeader = true
				params.Solid = true
				return params
			},
			wantHeader:  "plain",
			wantMethods: "copy",
			wantSolid:   "yes",
		},
		{
			name: "filter chain",
			params: func() *createParams {
				params := newCreateParams()
				params.Methods = []string{"delta", "zstd"}
				return params
			},
			wantHeader:  "encoded",
			wantMethods: "delta zstd",
			wantSolid:   "no",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			archivePath, _ := createSample(t, test.params())

			var output bytes.Buffer
			if err := runInfo(&output, false, archivePath, &infoParams{}); err != nil {
				t.Fatalf("runInfo: %v", err)
			}
			fields := infoFields(t, output.String())

			if !strings.HasPrefix(fields["Header"], test.wantHeader+",") {
				t.Errorf("Header = %q, want %s", fields["Header"], test.wantHeader)
			}
			if fields["Methods"] != test.wantMethods {
				t.Errorf("Methods = %q, want %q", fields["Methods"], test.wantMethods)
			}
			if fields["Solid"] != test.wantSolid {
				t.Errorf("Solid = %q, want %q", fields["Solid"], test.wantSolid)
			}
			if fields["Files"] != "4" {
				t.Errorf("Files = %q, want 4", fields["Files"])
			}
			if fields["Directories"] != "2" {
				t.Errorf("Directories = %q, want 2", fields["Directories"])
			}
			if fields["Encrypted"] != "no" {
				t.Errorf("Encrypted = %q, want no", fields["Encrypted"])
			}
			if fields["Version"] != "0.4" {
				t.Errorf("Version = %q, want 0.4", fields["Version"])
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB (1024 bytes)"},
		{3 << 20, "3.0 MiB (3145728 bytes)"},
	}
	for _, test := range tests {
		if got := formatSize(test.size); got != test.want {
			t.Errorf("formatSize(%d) = %q, want %q", test.size, got, test.want)
		}
	}
}

func TestList(t *testing.T) {
	archivePath, files := createSample(t, newCreateParams())

	var output bytes.Buffer
	if err := runList(&output, archivePath, &listParams{}); err != nil {
		t.Fatalf("runList: %v", err)
	}
	text := output.String()
	for _, name := range sampleEntries {
		if !strings.Contains(text, "  "+name+"\n") {
			t.Errorf("listing missing %s:\n%s", name, text)
		}
	}
	var total int
	for _, content := range files {
		total += len(content)
	}
	footer := "4 files, 2 directories, " + strconv.Itoa(total) + " bytes\n"
	if !strings.HasSuffix(text, footer) {
		t.Errorf("listing footer: want %q in\n%s", footer, text)
	}
	want := formatCRC32([]byte(files["data/a.txt"]))
	if !strings.Contains(text, want) {
		t.Errorf("listing missing CRC %s for data/a.txt:\n%s", want, text)
	}

	output.Reset()
	if err := runList(&output, archivePath, &listParams{Technical: true}); err != nil {
		t.Fatalf("runList --technical: %v", err)
	}
	if !strings.Contains(output.String(), "Folder") || !strings.Contains(output.String(), "Offset") {
		t.Errorf("technical listing missing columns:\n%s", output.String())
	}
}

func formatCRC32(data []byte) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(data))
}

func TestAttributeString(t *testing.T) {
	archivePath, _ := createSample(t, newCreateParams())
	s, err := newSession(&sessionParams{}, "test")
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	a, err := s.open(archivePath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer a.Close()

	for _, entry := range a.reader.Entries() {
		got := attributeString(entry.File)
		want := "....A"
		if entry.File.IsDir() {
			want = "D...."
		}
		if got != want {
			t.Errorf("%s: attributes %q, want %q", entry.File.Name, got, want)
		}
	}
}

func TestDump(t *testing.T) {
	params := newCreateParams()
	params.Methods = []string{"bcj", "lzma"}
	archivePath, _ := createSample(t, params)

	t.Run("json", func(t *testing.T) {
		var output bytes.Buffer
		if err := runDump(&output, archivePath, &dumpParams{Format: "json"}); err != nil {
			t.Fatalf("runDump: %v", err)
		}
		var report headerReport
		if err := json.Unmarshal(output.Bytes(), &report); err != nil {
			t.Fatalf("decoding dump: %v\n%s", err, output.String())
		}
		if !report.EncodedHeader {
			t.Error("EncodedHeader = false, want true")
		}
		if len(report.Files) != 6 {
			t.Fatalf("got %d files, want 6", len(report.Files))
		}
		// One folder per non-empty file.
		if len(report.Folders) != 3 {
			t.Fatalf("got %d folders, want 3", len(report.Folders))
		}
		coders := report.Folders[0].Coders
		if len(coders) != 2 || coders[0].Method != "bcj" || coders[1].Method != "lzma" {
			t.Errorf("folder 0 coders = %+v, want bcj then lzma", coders)
		}
		if report.PackInfo == nil || len(report.PackInfo.Sizes) != 3 {
			t.Errorf("pack info = %+v, want 3 pack streams", report.PackInfo)
		}
		if len(report.Substreams) != 3 {
			t.Errorf("got %d substreams, want 3", len(report.Substreams))
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var output bytes.Buffer
		if err := runDump(&output, archivePath, &dumpParams{Format: "yaml"}); err != nil {
			t.Fatalf("runDump: %v", err)
		}
		for _, want := range []string{"signature:", "folders:", "method: bcj", "name: data/sub/c.txt"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("yaml dump missing %q", want)
			}
		}
	})

	t.Run("cbor", func(t *testing.T) {
		var first, second bytes.Buffer
		if err := runDump(&first, archivePath, &dumpParams{Format: "cbor"}); err != nil {
			t.Fatalf("runDump: %v", err)
		}
		if err := runDump(&second, archivePath, &dumpParams{Format: "cbor"}); err != nil {
			t.Fatalf("runDump: %v", err)
		}
		if !bytes.Equal(first.Bytes(), second.Bytes()) {
			t.Error("cbor dumps of the same archive differ")
		}
		var decoded map[string]any
		if err := cbor.Unmarshal(first.Bytes(), &decoded); err != nil {
			t.Fatalf("decoding cbor dump: %v", err)
		}
		files, ok := decoded["files"].([]any)
		if !ok || len(files) != 6 {
			t.Errorf("cbor files = %v, want 6 entries", decoded["files"])
		}
	})

	t.Run("cbor-diag", func(t *testing.T) {
		var output bytes.Buffer
		if err := runDump(&output, archivePath, &dumpParams{Format: "cbor-diag"}); err != nil {
			t.Fatalf("runDump: %v", err)
		}
		for _, want := range []string{`"signature": {`, `"name": "data/sub/c.txt"`} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("cbor-diag dump missing %q", want)
			}
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		err := runDump(&bytes.Buffer{}, archivePath, &dumpParams{Format: "xml"})
		if err == nil {
			t.Fatal("expected an error for an unknown format")
		}
	})
}

func TestTest(t *testing.T) {
	params := newCreateParams()
	params.Methods = []string{"copy"}
	params.PlainHeader = true
	archivePath, files := createSample(t, params)

	var output bytes.Buffer
	if err := runTest(context.Background(), &output, archivePath, &testParams{Jobs: 2}); err != nil {
		t.Fatalf("runTest on an intact archive: %v\n%s", err, output.String())
	}
	if !strings.Contains(output.String(), "everything is ok") {
		t.Errorf("output = %q, want success summary", output.String())
	}

	// With the copy method the first pack stream is the first file's
	// content verbatim, right after the 32-byte signature header.
	data, err := os.ReadFile(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data[32:], []byte(files["data/a.txt"])) {
		t.Fatalf("first pack stream does not hold data/a.txt")
	}
	data[32] ^= 0xff
	if err := os.WriteFile(archivePath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	output.Reset()
	err = runTest(context.Background(), &output, archivePath, &testParams{Jobs: 2})
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Fatalf("runTest on a corrupt archive returned %v, want exit code 2", err)
	}
	text := output.String()
	if !strings.Contains(text, "folder 0: FAILED") {
		t.Errorf("output missing folder 0 failure:\n%s", text)
	}
	if !strings.Contains(text, "folder 1: ok") || !strings.Contains(text, "folder 2: ok") {
		t.Errorf("output should report the other folders ok:\n%s", text)
	}
	if !strings.Contains(text, "1 of 3 folders failed") {
		t.Errorf("output missing failure summary:\n%s", text)
	}
}

func TestTestCanceled(t *testing.T) {
	archivePath, _ := createSample(t, newCreateParams())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := runTest(ctx, &bytes.Buffer{}, archivePath, &testParams{Jobs: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("runTest with canceled context returned %v, want context.Canceled", err)
	}
}

func TestHash(t *testing.T) {
	for _, solid := range []bool{false, true} {
		name := "non-solid"
		if solid {
			name = "solid"
		}
		t.Run(name, func(t *testing.T) {
			params := newCreateParams()
			params.Solid = solid
			archivePath, files := createSample(t, params)

			var output bytes.Buffer
			if err := runHash(context.Background(), &output, archivePath, &hashParams{Algorithm: "sha256"}); err != nil {
				t.Fatalf("runHash: %v", err)
			}

			var want strings.Builder
			for _, name := range []string{"data/a.txt", "data/b.txt", "data/empty", "data/sub/c.txt"} {
				sum := sha256.Sum256([]byte(files[name]))
				want.WriteString(hex.EncodeToString(sum[:]) + "  " + name + "\n")
			}
			if output.String() != want.String() {
				t.Errorf("hash output:\n%s\nwant:\n%s", output.String(), want.String())
			}
		})
	}
}

func TestHashCRC32MatchesList(t *testing.T) {
	archivePath, files := createSample(t, newCreateParams())

	var output bytes.Buffer
	if err := runHash(context.Background(), &output, archivePath, &hashParams{Algorithm: "crc32"}); err != nil {
		t.Fatalf("runHash: %v", err)
	}
	want := formatCRC32([]byte(files["data/sub/c.txt"])) + "  data/sub/c.txt\n"
	if !strings.Contains(output.String(), want) {
		t.Errorf("hash output missing %q:\n%s", want, output.String())
	}

	if err := runHash(context.Background(), &output, archivePath, &hashParams{Algorithm: "md5"}); err == nil {
		t.Error("expected an error for an unknown algorithm")
	}
}

func TestEncryptedArchive(t *testing.T) {
	prompts := 0
	original := promptPassword
	promptPassword = func() (string, error) {
		prompts++
		return "correct horse", nil
	}
	t.Cleanup(func() { promptPassword = original })

	params := newCreateParams()
	params.Methods = []string{"lzma2", "aes"}
	archivePath, files := createSample(t, params)
	if prompts != 1 {
		t.Fatalf("create prompted %d times, want 1", prompts)
	}

	var output bytes.Buffer
	if err := runInfo(&output, false, archivePath, &infoParams{}); err != nil {
		t.Fatalf("runInfo: %v", err)
	}
	if fields := infoFields(t, output.String()); fields["Encrypted"] != "yes" {
		t.Errorf("Encrypted = %q, want yes", fields["Encrypted"])
	}

	output.Reset()
	if err := runHash(context.Background(), &output, archivePath, &hashParams{Algorithm: "sha256"}); err != nil {
		t.Fatalf("runHash with prompted password: %v", err)
	}
	sum := sha256.Sum256([]byte(files["data/a.txt"]))
	if !strings.Contains(output.String(), hex.EncodeToString(sum[:])+"  data/a.txt\n") {
		t.Errorf("hash output missing data/a.txt digest:\n%s", output.String())
	}

	t.Run("password file", func(t *testing.T) {
		prompts = 0
		passwordFile := testutil.WriteFile(t, "password", []byte("correct horse\n"))
		var output bytes.Buffer
		params := &testParams{sessionParams: sessionParams{PasswordFile: passwordFile}}
		if err := runTest(context.Background(), &output, archivePath, params); err != nil {
			t.Fatalf("runTest: %v\n%s", err, output.String())
		}
		if prompts != 0 {
			t.Errorf("prompted %d times with a password file", prompts)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		passwordFile := testutil.WriteFile(t, "password", []byte("wrong"))
		params := &testParams{sessionParams: sessionParams{PasswordFile: passwordFile}}
		err := runTest(context.Background(), &bytes.Buffer{}, archivePath, params)
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != 2 {
			t.Fatalf("runTest with the wrong password returned %v, want exit code 2", err)
		}
	})

	t.Run("no terminal", func(t *testing.T) {
		promptPassword = func() (string, error) {
			return "", errors.New("no terminal")
		}
		err := runHash(context.Background(), &bytes.Buffer{}, archivePath, &hashParams{Algorithm: "crc32"})
		if err == nil {
			t.Fatal("expected hashing without a password to fail")
		}
	})
}

func TestCreate(t *testing.T) {
	t.Run("refuses to overwrite", func(t *testing.T) {
		archivePath, _ := createSample(t, newCreateParams())
		err := runCreate(context.Background(), archivePath, sampleEntries, newCreateParams())
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Fatalf("second create returned %v, want already exists", err)
		}

		params := newCreateParams()
		params.Force = true
		params.Methods = []string{"copy"}
		if err := runCreate(context.Background(), archivePath, []string{"data/a.txt"}, params); err != nil {
			t.Fatalf("create --force: %v", err)
		}
		var output bytes.Buffer
		if err := runInfo(&output, false, archivePath, &infoParams{}); err != nil {
			t.Fatalf("runInfo: %v", err)
		}
		if fields := infoFields(t, output.String()); fields["Files"] != "1" || fields["Methods"] != "copy" {
			t.Errorf("overwritten archive: %v", fields)
		}
	})

	t.Run("rejects parent paths", func(t *testing.T) {
		t.Setenv("SEVENZIP_CONFIG", "")
		dir := t.TempDir()
		inner := filepath.Join(dir, "inner")
		if err := os.Mkdir(inner, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "outside.txt"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Chdir(inner)

		archivePath := filepath.Join(inner, "escape.7z")
		err := runCreate(context.Background(), archivePath, []string{"../outside.txt"}, newCreateParams())
		if err == nil || !strings.Contains(err.Error(), "escapes the archive root") {
			t.Fatalf("runCreate returned %v, want escape error", err)
		}
		if _, err := os.Stat(archivePath); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("failed create left %s behind", archivePath)
		}
	})

	t.Run("unknown method", func(t *testing.T) {
		t.Setenv("SEVENZIP_CONFIG", "")
		t.Chdir(t.TempDir())
		if err := os.WriteFile("file", []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		params := newCreateParams()
		params.Methods = []string{"ppmd"}
		err := runCreate(context.Background(), "out.7z", []string{"file"}, params)
		if err == nil || !strings.Contains(err.Error(), `unknown method "ppmd"`) {
			t.Fatalf("runCreate returned %v, want unknown method", err)
		}
	})

	t.Run("directories are not traversed", func(t *testing.T) {
		t.Setenv("SEVENZIP_CONFIG", "")
		dir := t.TempDir()
		t.Chdir(dir)
		sampleTree(t, dir)
		archivePath := filepath.Join(dir, "shallow.7z")
		if err := runCreate(context.Background(), archivePath, []string{"data"}, newCreateParams()); err != nil {
			t.Fatalf("runCreate: %v", err)
		}
		var output bytes.Buffer
		if err := runInfo(&output, false, archivePath, &infoParams{}); err != nil {
			t.Fatalf("runInfo: %v", err)
		}
		fields := infoFields(t, output.String())
		if fields["Files"] != "0" || fields["Directories"] != "1" || fields["Folders"] != "0" {
			t.Errorf("directory-only archive: %v", fields)
		}
	})

	t.Run("duplicate names", func(t *testing.T) {
		t.Setenv("SEVENZIP_CONFIG", "")
		dir := t.TempDir()
		t.Chdir(dir)
		sampleTree(t, dir)
		err := runCreate(context.Background(), "dup.7z", []string{"data/a.txt", "./data/a.txt"}, newCreateParams())
		if err == nil || !strings.Contains(err.Error(), "named twice") {
			t.Fatalf("runCreate returned %v, want duplicate error", err)
		}
	})

	t.Run("profile", func(t *testing.T) {
		params := newCreateParams()
		params.Profile = "store"
		params.PlainHeader = true
		archivePath, _ := createSample(t, params)
		var output bytes.Buffer
		if err := runInfo(&output, false, archivePath, &infoParams{}); err != nil {
			t.Fatalf("runInfo: %v", err)
		}
		fields := infoFields(t, output.String())
		if fields["Methods"] != "copy" || !strings.HasPrefix(fields["Header"], "plain,") {
			t.Errorf("store profile archive: %v", fields)
		}
	})

	t.Run("config file", func(t *testing.T) {
		configPath := testutil.WriteFile(t, "sevenzip.yaml", []byte(`
compression:
  chain: [deflate]
header:
  encode: false
solid: true
`))
		params := newCreateParams()
		params.ConfigPath = configPath
		archivePath, _ := createSample(t, params)

		var output bytes.Buffer
		if err := runInfo(&output, false, archivePath, &infoParams{}); err != nil {
			t.Fatalf("runInfo: %v", err)
		}
		fields := infoFields(t, output.String())
		if fields["Methods"] != "deflate" || fields["Solid"] != "yes" || !strings.HasPrefix(fields["Header"], "plain,") {
			t.Errorf("config-driven archive: %v", fields)
		}
	})

	t.Run("symlink", func(t *testing.T) {
		t.Setenv("SEVENZIP_CONFIG", "")
		dir := t.TempDir()
		t.Chdir(dir)
		if err := os.Mkdir("tree", 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile("tree/target.txt", []byte("target"), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := os.Symlink("target.txt", "tree/link"); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}
		archivePath := filepath.Join(dir, "links.7z")
		if err := runCreate(context.Background(), archivePath, []string{"tree", "tree/link", "tree/target.txt"}, newCreateParams()); err != nil {
			t.Fatalf("runCreate: %v", err)
		}

		var output bytes.Buffer
		if err := runDump(&output, archivePath, &dumpParams{Format: "json"}); err != nil {
			t.Fatalf("runDump: %v", err)
		}
		var report headerReport
		if err := json.Unmarshal(output.Bytes(), &report); err != nil {
			t.Fatal(err)
		}
		modes := make(map[string]string)
		for _, file := range report.Files {
			modes[file.Name] = file.Mode
		}
		if modes["tree/link"] != "Lrwxrwxrwx" {
			t.Errorf("link mode = %q, want Lrwxrwxrwx", modes["tree/link"])
		}
		if modes["tree/target.txt"] != "-rw-------" {
			t.Errorf("target mode = %q, want -rw-------", modes["tree/target.txt"])
		}

		output.Reset()
		if err := runHash(context.Background(), &output, archivePath, &hashParams{Algorithm: "sha256"}); err != nil {
			t.Fatalf("runHash: %v", err)
		}
		sum := sha256.Sum256([]byte("target.txt"))
		if !strings.Contains(output.String(), hex.EncodeToString(sum[:])+"  tree/link\n") {
			t.Errorf("link content should be its target:\n%s", output.String())
		}
	})
}

func TestEntryName(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "data/a.txt", want: "data/a.txt"},
		{input: "./data//sub/", want: "data/sub"},
		{input: "/abs/path", want: "abs/path"},
		{input: ".", want: ""},
		{input: "data/../other", want: "other"},
		{input: "../escape", wantErr: true},
		{input: "a/../../escape", wantErr: true},
	}
	for _, test := range tests {
		got, err := entryName(test.input)
		if test.wantErr {
			if err == nil {
				t.Errorf("entryName(%q) = %q, want error", test.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("entryName(%q): %v", test.input, err)
			continue
		}
		if got != test.want {
			t.Errorf("entryName(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestUnixAttributes(t *testing.T) {
	tests := []struct {
		name string
		mode os.FileMode
		want uint32
	}{
		{"regular", 0o644, 0x8000 | 0o100644<<16 | 0x20},
		{"read-only", 0o444, 0x8000 | 0o100444<<16 | 0x20 | 0x01},
		{"directory", os.ModeDir | 0o755, 0x8000 | 0o040755<<16 | 0x10},
		{"symlink", os.ModeSymlink | 0o777, 0x8000 | 0o120777<<16 | 0x20},
	}
	for _, test := range tests {
		if got := unixAttributes(test.mode); got != test.want {
			t.Errorf("%s: unixAttributes = %#x, want %#x", test.name, got, test.want)
		}
	}
}
