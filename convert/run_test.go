package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cli "github.com/urfave/cli/v3"
	"golang.org/x/text/encoding/charmap"

	"prosekit/common"
	"prosekit/config"
	"prosekit/document"
	"prosekit/state"
)

const sampleHTML = `<h2>Title</h2><p>Hello <strong>world</strong></p>`

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = testLogger(t)
	env.Cfg = cfg
	return ctx, env
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
}

type zipEntry struct {
	name    string
	content string
	nonUTF8 bool
}

func writeZip(t *testing.T, path string, entries ...zipEntry) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate, NonUTF8: e.nonUTF8})
		if err != nil {
			t.Fatalf("Failed to create zip entry: %v", err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("Failed to write zip entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	writeFile(t, path, buf.String())
}

func assertHTML(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected output %s: %v", path, err)
	}
	if string(data) != sampleHTML {
		t.Errorf("Output %s = %s, want %s", path, data, sampleHTML)
	}
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Output %s should not exist, stat error = %v", path, err)
	}
}

func TestProcess_NonExistentPath(t *testing.T) {
	ctx, env := setupTestEnv(t)

	err := process(ctx, "/nonexistent/path/file.json", t.TempDir(), common.FormatHTML, env.Log)
	if err == nil || !strings.Contains(err.Error(), "input source was not found") {
		t.Errorf("Expected not found error, got: %v", err)
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, env := setupTestEnv(t)
	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()

	tmpDir := t.TempDir()
	if err := process(cancelCtx, tmpDir, tmpDir, common.FormatHTML, env.Log); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled error, got %v", err)
	}
}

func TestProcess_Directory(t *testing.T) {
	ctx, env := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()

	writeFile(t, filepath.Join(srcDir, "a.json"), sampleJSON)
	writeFile(t, filepath.Join(srcDir, "sub", "b.md"), "## Title\n\nHello **world**\n")
	writeFile(t, filepath.Join(srcDir, "sub", "c.htm"), sampleHTML)
	writeFile(t, filepath.Join(srcDir, "notes.txt"), "not a document")
	writeFile(t, filepath.Join(srcDir, "bad.json"), `{"type":"doc","content":[{"type":"video"}]}`)

	if err := process(ctx, srcDir, dstDir, common.FormatHTML, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	assertHTML(t, filepath.Join(dstDir, "a.html"))
	assertHTML(t, filepath.Join(dstDir, "sub", "b.html"))
	assertHTML(t, filepath.Join(dstDir, "sub", "c.html"))
	assertMissing(t, filepath.Join(dstDir, "notes.html"))
	// invalid documents are reported and leave nothing behind
	assertMissing(t, filepath.Join(dstDir, "bad.html"))
}

func TestProcess_DirectoryNoDirs(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.NoDirs = true
	srcDir, dstDir := t.TempDir(), t.TempDir()

	writeFile(t, filepath.Join(srcDir, "deep", "er", "a.json"), sampleJSON)

	if err := process(ctx, srcDir, dstDir, common.FormatHTML, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	assertHTML(t, filepath.Join(dstDir, "a.html"))
}

func TestProcess_DirectoryWithTail(t *testing.T) {
	ctx, env := setupTestEnv(t)
	tmpDir := t.TempDir()

	err := process(ctx, filepath.Join(tmpDir, "missing.json"), t.TempDir(), common.FormatHTML, env.Log)
	if err == nil || !strings.Contains(err.Error(), "input source was not found") {
		t.Errorf("Expected not found error, got: %v", err)
	}
}

func TestProcess_SingleFile(t *testing.T) {
	ctx, env := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "nested", "doc.html")
	writeFile(t, src, sampleHTML)

	if err := process(ctx, src, dstDir, common.FormatJSON, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dstDir, "doc.json"))
	if err != nil {
		t.Fatalf("Expected output: %v", err)
	}
	if string(data) != sampleJSON+"\n" {
		t.Errorf("Output = %s", data)
	}
}

func TestProcess_ExistingOutput(t *testing.T) {
	ctx, env := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "doc.json")
	writeFile(t, src, sampleJSON)
	out := filepath.Join(dstDir, "doc.html")
	writeFile(t, out, "old")

	err := process(ctx, src, dstDir, common.FormatHTML, env.Log)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("Expected existing output error, got: %v", err)
	}
	if data, _ := os.ReadFile(out); string(data) != "old" {
		t.Errorf("Existing output was modified: %s", data)
	}

	env.Overwrite = true
	if err := process(ctx, src, dstDir, common.FormatHTML, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	assertHTML(t, out)
}

func TestProcess_NotDocument(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, src, "text")

	err := process(ctx, src, t.TempDir(), common.FormatHTML, env.Log)
	if err == nil || !strings.Contains(err.Error(), "not recognized") {
		t.Errorf("Expected not recognized error, got: %v", err)
	}
}

func TestProcess_InvalidDocument(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := filepath.Join(t.TempDir(), "doc.json")
	writeFile(t, src, `{"type":"doc","content":[{"type":"text","text":"loose"}]}`)
	dstDir := t.TempDir()

	if err := process(ctx, src, dstDir, common.FormatHTML, env.Log); err == nil {
		t.Fatal("Expected error for invalid document")
	}
	assertMissing(t, filepath.Join(dstDir, "doc.html"))
}

func TestProcess_Archive(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := filepath.Join(t.TempDir(), "docs.zip")
	writeZip(t, src,
		zipEntry{name: "docs/a.json", content: sampleJSON},
		zipEntry{name: "docs/b.md", content: "## Title\n\nHello **world**\n"},
		zipEntry{name: "other/c.html", content: sampleHTML},
		zipEntry{name: "other/readme.txt", content: "skip"},
	)

	t.Run("whole archive", func(t *testing.T) {
		dstDir := t.TempDir()
		if err := process(ctx, src, dstDir, common.FormatHTML, env.Log); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		assertHTML(t, filepath.Join(dstDir, "docs", "a.html"))
		assertHTML(t, filepath.Join(dstDir, "docs", "b.html"))
		assertHTML(t, filepath.Join(dstDir, "other", "c.html"))
	})

	t.Run("path inside archive", func(t *testing.T) {
		dstDir := t.TempDir()
		if err := process(ctx, filepath.Join(src, "docs"), dstDir, common.FormatHTML, env.Log); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		assertHTML(t, filepath.Join(dstDir, "docs", "a.html"))
		assertMissing(t, filepath.Join(dstDir, "other", "c.html"))
	})
}

func TestProcess_ArchiveInDirectory(t *testing.T) {
	ctx, env := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	writeZip(t, filepath.Join(srcDir, "pack", "docs.zip"), zipEntry{name: "a.json", content: sampleJSON})

	if err := process(ctx, srcDir, dstDir, common.FormatHTML, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	assertHTML(t, filepath.Join(dstDir, "pack", "a.html"))
}

func TestProcess_ArchiveCodePage(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.CodePage = charmap.CodePage866

	name, err := charmap.CodePage866.NewEncoder().String("Привет.json")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	src := filepath.Join(t.TempDir(), "old.zip")
	writeZip(t, src, zipEntry{name: name, content: sampleJSON, nonUTF8: true})

	dstDir := t.TempDir()
	if err := process(ctx, src, dstDir, common.FormatHTML, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	assertHTML(t, filepath.Join(dstDir, "Привет.html"))
}

func TestProcessDocument_Report(t *testing.T) {
	ctx, env := setupTestEnv(t)
	rpt, err := (&config.ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	env.Rpt = rpt

	dstDir := t.TempDir()
	if err := processDocument(ctx, strings.NewReader(sampleJSON), filepath.Join("a", "doc.json"), common.FormatJSON, dstDir, common.FormatHTML, env.Log); err != nil {
		t.Fatalf("processDocument() error = %v", err)
	}
	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	r, err := zip.OpenReader(rpt.Name())
	if err != nil {
		t.Fatalf("Unable to open report: %v", err)
	}
	defer r.Close()
	found := false
	for _, f := range r.File {
		if f.Name == "result/a/doc.html" {
			found = true
		}
	}
	if !found {
		t.Error("Conversion result is not stored in report")
	}
}

func TestIsArchiveFile(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "a.zip")
	writeZip(t, zipPath, zipEntry{name: "a.json", content: sampleJSON})
	jsonPath := filepath.Join(dir, "a.json")
	writeFile(t, jsonPath, sampleJSON)
	emptyPath := filepath.Join(dir, "empty")
	writeFile(t, emptyPath, "")

	for path, want := range map[string]bool{zipPath: true, jsonPath: false, emptyPath: false} {
		got, err := isArchiveFile(path)
		if err != nil {
			t.Fatalf("isArchiveFile(%s) error = %v", path, err)
		}
		if got != want {
			t.Errorf("isArchiveFile(%s) = %v, want %v", path, got, want)
		}
	}
	if _, err := isArchiveFile(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func testCommand(action cli.ActionFunc, out *bytes.Buffer, in string) *cli.Command {
	return &cli.Command{
		Name:   "test",
		Writer: out,
		Reader: strings.NewReader(in),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "to", Value: "html"},
			&cli.BoolFlag{Name: "nodirs"},
			&cli.BoolFlag{Name: "overwrite"},
			&cli.BoolFlag{Name: "sanitize"},
			&cli.BoolFlag{Name: "markdown"},
			&cli.IntFlag{Name: "indent"},
			&cli.StringFlag{Name: "force-zip-cp"},
		},
		Action: action,
	}
}

func TestRun(t *testing.T) {
	ctx, env := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(srcDir, "x", "a.md"), "## Title\n\nHello **world**\n")

	var out bytes.Buffer
	cmd := testCommand(Run, &out, "")
	if err := cmd.Run(ctx, []string{"test", "--to", "markdown", "--nodirs", "--force-zip-cp", "no-such-charset", srcDir, dstDir}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// markdown could not be produced, html is used instead
	assertHTML(t, filepath.Join(dstDir, "a.html"))
	if !env.NoDirs || env.Overwrite || env.CodePage != nil {
		t.Errorf("Unexpected environment: nodirs=%v overwrite=%v codepage=%v", env.NoDirs, env.Overwrite, env.CodePage)
	}
}

func TestRun_NoSource(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	var out bytes.Buffer
	if err := testCommand(Run, &out, "").Run(ctx, []string{"test"}); err == nil {
		t.Error("Expected error without source")
	}
}

func TestCommands(t *testing.T) {
	t.Run("validate", func(t *testing.T) {
		ctx, _ := setupTestEnv(t)
		var out bytes.Buffer
		if err := testCommand(Validate, &out, sampleJSON).Run(ctx, []string{"test"}); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
		bad := `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"paragraph"}]}]}`
		if err := testCommand(Validate, &out, bad).Run(ctx, []string{"test"}); err == nil {
			t.Error("Expected validation error")
		}
		link := `{"type":"doc","content":[{"type":"paragraph","content":[` +
			`{"type":"text","text":"x","marks":[{"type":"link","attrs":{"href":"/x"}}]}]}]}`
		if err := testCommand(Validate, &out, link).Run(ctx, []string{"test"}); err != nil {
			t.Errorf("Validate() of linked text error = %v", err)
		}
	})

	t.Run("html", func(t *testing.T) {
		ctx, _ := setupTestEnv(t)
		var out bytes.Buffer
		if err := testCommand(HTML, &out, sampleJSON).Run(ctx, []string{"test"}); err != nil {
			t.Fatalf("HTML() error = %v", err)
		}
		if out.String() != sampleHTML {
			t.Errorf("HTML() = %s", out.String())
		}
	})

	t.Run("html to file", func(t *testing.T) {
		ctx, _ := setupTestEnv(t)
		dir := t.TempDir()
		src, dst := filepath.Join(dir, "doc.json"), filepath.Join(dir, "doc.html")
		writeFile(t, src, sampleJSON)
		var out bytes.Buffer
		if err := testCommand(HTML, &out, "").Run(ctx, []string{"test", src, dst}); err != nil {
			t.Fatalf("HTML() error = %v", err)
		}
		assertHTML(t, dst)
		if out.Len() != 0 {
			t.Errorf("Nothing expected on output, got %s", out.String())
		}
	})

	t.Run("parse markdown", func(t *testing.T) {
		ctx, _ := setupTestEnv(t)
		var out bytes.Buffer
		if err := testCommand(Parse, &out, "## Title\n\nHello **world**\n").Run(ctx, []string{"test", "--markdown"}); err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		doc, err := document.ParseBytes(out.Bytes())
		if err != nil {
			t.Fatalf("ParseBytes() error = %v", err)
		}
		if !doc.Equal(sampleDoc()) {
			t.Errorf("Parse() = %s", out.String())
		}
	})

	t.Run("parse html indented", func(t *testing.T) {
		ctx, _ := setupTestEnv(t)
		var out bytes.Buffer
		if err := testCommand(Parse, &out, sampleHTML).Run(ctx, []string{"test", "--indent", "2", "-"}); err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if !strings.Contains(out.String(), "\n  \"content\": [") {
			t.Errorf("Parse() output is not indented: %s", out.String())
		}
	})

	t.Run("tree", func(t *testing.T) {
		ctx, _ := setupTestEnv(t)
		var out bytes.Buffer
		if err := testCommand(Tree, &out, sampleJSON).Run(ctx, []string{"test"}); err != nil {
			t.Fatalf("Tree() error = %v", err)
		}
		if out.String() != Dump(sampleDoc()) {
			t.Errorf("Tree() = %s", out.String())
		}
	})

	t.Run("missing input", func(t *testing.T) {
		ctx, _ := setupTestEnv(t)
		var out bytes.Buffer
		if err := testCommand(HTML, &out, "").Run(ctx, []string{"test", filepath.Join(t.TempDir(), "none.json")}); err == nil {
			t.Error("Expected error for missing input")
		}
	})
}
