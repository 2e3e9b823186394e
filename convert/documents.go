package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"prosekit/common"
	"prosekit/document"
	"prosekit/schema"
	"prosekit/utils/debug"
)

// Options control how documents are written.
type Options struct {
	// Sanitize runs produced HTML through policy derived from schema.
	Sanitize bool
	// Indent pretty prints output, whitespace between inline elements may
	// change.
	Indent int
}

// dropBOM decodes UTF-16 input marked with BOM and strips UTF-8 BOM.
func dropBOM(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(transform.Nop))
}

// Read decodes document from r. HTML and Markdown go through schema parse
// rules, JSON is taken as is and has to be validated separately.
func Read(r io.Reader, format common.Format, s *schema.Schema, log *zap.Logger) (*document.Node, error) {
	switch format {
	case common.FormatJSON:
		return document.Parse(dropBOM(r))
	case common.FormatHTML:
		cr, err := charset.NewReader(r, "text/html")
		if err != nil {
			return nil, fmt.Errorf("unable to detect encoding: %w", err)
		}
		return document.NewParser(s, log).Parse(cr)
	case common.FormatMarkdown:
		data, err := io.ReadAll(dropBOM(r))
		if err != nil {
			return nil, err
		}
		return document.FromMarkdown(data, s, log)
	default:
		return nil, fmt.Errorf("unable to read %s documents", format)
	}
}

// Write validates doc and encodes it to w.
func Write(w io.Writer, doc *document.Node, format common.Format, s *schema.Schema, opts Options, log *zap.Logger) error {
	if err := document.Validate(doc, s); err != nil {
		return err
	}

	var data []byte
	switch format {
	case common.FormatJSON:
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("unable to encode document: %w", err)
		}
		data = raw
		if opts.Indent > 0 {
			var buf bytes.Buffer
			if err := json.Indent(&buf, raw, "", fmt.Sprintf("%*s", opts.Indent, "")); err != nil {
				return err
			}
			data = buf.Bytes()
		}
		data = append(data, '\n')
	case common.FormatHTML:
		out, err := RenderHTML(doc, s, opts, log)
		if err != nil {
			return err
		}
		data = []byte(out)
	default:
		return fmt.Errorf("unable to write %s documents", format)
	}
	_, err := w.Write(data)
	return err
}

// RenderHTML serializes doc using schema serializers.
func RenderHTML(doc *document.Node, s *schema.Schema, opts Options, log *zap.Logger) (string, error) {
	tree, err := document.NewSerializer(s, log).Tree(doc)
	if err != nil {
		return "", err
	}
	if opts.Indent > 0 {
		tree.Indent(opts.Indent)
	}
	out, err := tree.WriteToString()
	if err != nil {
		return "", err
	}
	if opts.Sanitize {
		out = s.SanitizePolicy().Sanitize(out)
	}
	return out, nil
}

// Dump returns document tree with node positions.
func Dump(doc *document.Node) string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "%s size=%d", doc.Type, doc.ContentSize())
	pos := 0
	for _, child := range doc.Content {
		dumpNode(tw, child, 1, pos)
		pos += child.Size()
	}
	return tw.String()
}

func dumpNode(tw *debug.TreeWriter, n *document.Node, depth, pos int) {
	if n.IsText() {
		label := fmt.Sprintf("%d text", pos)
		for _, m := range n.Marks {
			label += " +" + m.Type
		}
		tw.TextBlock(depth, label, n.Text)
		return
	}

	attrs := make([]string, 0, 2*len(n.Attrs))
	for _, k := range n.Attrs.Keys() {
		v, ok := schema.FormatAttr(n.Attrs[k])
		if !ok {
			continue
		}
		attrs = append(attrs, k, v)
	}
	tw.Node(depth, pos, n.Type, attrs...)

	inner := pos + 1
	for _, child := range n.Content {
		dumpNode(tw, child, depth+1, inner)
		inner += child.Size()
	}
}
