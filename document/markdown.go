package document

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"prosekit/schema"
)

// FromMarkdown converts CommonMark source (with GitHub extensions) into a
// document: markdown is rendered to HTML first and then parsed with schema
// parse rules, so whatever schema does not allow is dropped the same way
// it is for HTML input.
func FromMarkdown(source []byte, s *schema.Schema, log *zap.Logger) (*Node, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
	var buf bytes.Buffer
	if err := md.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("unable to convert markdown: %w", err)
	}
	return NewParser(s, log).Parse(&buf)
}
