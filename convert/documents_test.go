package convert

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"prosekit/common"
	"prosekit/config"
	"prosekit/document"
	"prosekit/schema"
)

const sampleJSON = `{"type":"doc","content":[` +
	`{"type":"heading","attrs":{"level":2},"content":[{"type":"text","text":"Title"}]},` +
	`{"type":"paragraph","content":[{"type":"text","text":"Hello "},{"type":"text","text":"world","marks":[{"type":"strong"}]}]}]}`

func testSchema(t *testing.T, log *zap.Logger) *schema.Schema {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	s, err := schema.NewBuilder(schema.DefaultRegistry(), log).Build(cfg.Editor.SchemaConfig(), nil)
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}
	return s
}

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func sampleDoc() *document.Node {
	return document.NewNode(schema.NodeDoc, nil,
		document.NewNode(schema.NodeHeading, schema.Attrs{"level": 2.0}, document.NewText("Title")),
		document.NewNode(schema.NodeParagraph, nil,
			document.NewText("Hello "),
			document.NewText("world", &document.Mark{Type: schema.MarkStrong})),
	)
}

func TestRead(t *testing.T) {
	log := testLogger(t)
	s := testSchema(t, log)

	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(sampleJSON)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	cp1251, err := charmap.Windows1251.NewEncoder().String(`<html><head><meta charset="windows-1251"></head><body><h2>Title</h2><p>Hello <b>world</b></p></body></html>`)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	tests := []struct {
		name   string
		input  string
		format common.Format
	}{
		{"json", sampleJSON, common.FormatJSON},
		{"json with utf-8 bom", "\ufeff" + sampleJSON, common.FormatJSON},
		{"json in utf-16", utf16, common.FormatJSON},
		{"html", `<h2>Title</h2><p>Hello <strong>world</strong></p>`, common.FormatHTML},
		{"html in code page", cp1251, common.FormatHTML},
		{"markdown", "## Title\n\nHello **world**\n", common.FormatMarkdown},
		{"markdown with bom", "\ufeff## Title\n\nHello **world**\n", common.FormatMarkdown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Read(strings.NewReader(tt.input), tt.format, s, log)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !doc.Equal(sampleDoc()) {
				t.Errorf("Read() = %s", Dump(doc))
			}
		})
	}
}

func TestRead_Cyrillic(t *testing.T) {
	log := testLogger(t)
	s := testSchema(t, log)

	input, err := charmap.Windows1251.NewEncoder().String(`<html><head><meta charset="windows-1251"></head><body><p>Привет</p></body></html>`)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	doc, err := Read(strings.NewReader(input), common.FormatHTML, s, log)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := doc.TextContent(); got != "Привет" {
		t.Errorf("TextContent() = %q, want %q", got, "Привет")
	}
}

func TestRead_Errors(t *testing.T) {
	log := testLogger(t)
	s := testSchema(t, log)

	if _, err := Read(strings.NewReader("{broken"), common.FormatJSON, s, log); err == nil {
		t.Error("Expected error for malformed JSON")
	}
	if _, err := Read(strings.NewReader("[]"), common.FormatJSON, s, log); err == nil {
		t.Error("Expected error for non-object JSON")
	}
	if _, err := Read(strings.NewReader(""), common.Format(42), s, log); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestWrite(t *testing.T) {
	log := testLogger(t)
	s := testSchema(t, log)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, sampleDoc(), common.FormatJSON, s, Options{}, log); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if got := buf.String(); got != sampleJSON+"\n" {
			t.Errorf("Write() = %s", got)
		}
	})

	t.Run("json indented", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, sampleDoc(), common.FormatJSON, s, Options{Indent: 2}, log); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if !strings.HasPrefix(buf.String(), "{\n  \"type\": \"doc\",\n") {
			t.Errorf("Write() = %s", buf.String())
		}
		doc, err := document.ParseBytes(buf.Bytes())
		if err != nil {
			t.Fatalf("ParseBytes() error = %v", err)
		}
		if !doc.Equal(sampleDoc()) {
			t.Error("Indented JSON does not round trip")
		}
	})

	t.Run("html", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, sampleDoc(), common.FormatHTML, s, Options{}, log); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if want := `<h2>Title</h2><p>Hello <strong>world</strong></p>`; buf.String() != want {
			t.Errorf("Write() = %s, want %s", buf.String(), want)
		}
	})

	t.Run("markdown is not writable", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, sampleDoc(), common.FormatMarkdown, s, Options{}, log); err == nil {
			t.Error("Expected error for markdown output")
		}
	})

	t.Run("invalid document", func(t *testing.T) {
		var buf bytes.Buffer
		bad := document.NewNode(schema.NodeDoc, nil, document.NewNode("video", nil))
		if err := Write(&buf, bad, common.FormatJSON, s, Options{}, log); err == nil {
			t.Error("Expected validation error")
		}
		if buf.Len() != 0 {
			t.Errorf("Nothing should be written for invalid document, got %s", buf.String())
		}
	})
}

func TestRenderHTML_Sanitize(t *testing.T) {
	log := testLogger(t)
	s := testSchema(t, log)

	doc := document.NewNode(schema.NodeDoc, nil,
		document.NewNode(schema.NodeParagraph, nil,
			document.NewText("x", &document.Mark{Type: schema.MarkLink, Attrs: schema.Attrs{"href": "javascript:alert(1)"}})))

	raw, err := RenderHTML(doc, s, Options{}, log)
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if !strings.Contains(raw, "javascript:") {
		t.Fatalf("Unsanitized output should keep href, got %s", raw)
	}

	clean, err := RenderHTML(doc, s, Options{Sanitize: true}, log)
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if strings.Contains(clean, "javascript:") || !strings.Contains(clean, "x") {
		t.Errorf("Sanitized output = %s", clean)
	}
}

func TestRenderHTML_Classes(t *testing.T) {
	log := testLogger(t)
	s := testSchema(t, log)

	doc := document.NewNode(schema.NodeDoc, nil,
		document.NewNode(schema.NodeParagraph, nil,
			document.NewNode(schema.NodeImage, schema.Attrs{"src": "a.png", "alt": "a"})))
	out, err := RenderHTML(doc, s, Options{Sanitize: true}, log)
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if !strings.Contains(out, `class="prose-image"`) {
		t.Errorf("Configured class missing, got %s", out)
	}
}

func TestDump(t *testing.T) {
	out := Dump(sampleDoc())
	for _, want := range []string{
		"doc size=20\n",
		`0 heading level="2"`,
		`1 text: "Title"`,
		"7 paragraph\n",
		`8 text: "Hello "`,
		`14 text +strong: "world"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump() missing %q in\n%s", want, out)
		}
	}

	if got := Dump(document.EmptyDoc()); got != "doc size=0\n" {
		t.Errorf("Dump(empty) = %q", got)
	}
}
