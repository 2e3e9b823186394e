// Package common keeps enums shared by configuration and commands.
package common

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format of document files.
type Format int

const (
	// FormatJSON is serialized document tree.
	FormatJSON Format = iota
	FormatHTML
	// FormatMarkdown could only be read.
	FormatMarkdown
)

var formatNames = []string{"json", "html", "markdown"}

var formatExts = map[string]Format{
	".json":     FormatJSON,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
}

func (f Format) String() string {
	if f.IsValid() {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// IsValid reports whether f is one of known formats.
func (f Format) IsValid() bool {
	return f >= FormatJSON && int(f) < len(formatNames)
}

// Writable reports whether documents could be produced in format f.
func (f Format) Writable() bool {
	return f == FormatJSON || f == FormatHTML
}

// Ext returns file extension for documents in format f.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatHTML:
		return ".html"
	case FormatMarkdown:
		return ".md"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

// ParseFormat converts name to Format, case insensitive.
func ParseFormat(name string) (Format, error) {
	for i, n := range formatNames {
		if strings.EqualFold(n, name) {
			return Format(i), nil
		}
	}
	return 0, fmt.Errorf("%q is not a valid format, try [%s]", name, strings.Join(formatNames, ", "))
}

// FormatNames returns names of all formats.
func FormatNames() []string {
	return append([]string(nil), formatNames...)
}

// WritableFormatNames returns names of formats documents could be produced in.
func WritableFormatNames() []string {
	var out []string
	for i, n := range formatNames {
		if Format(i).Writable() {
			out = append(out, n)
		}
	}
	return out
}

// FormatFromPath detects format by file extension.
func FormatFromPath(name string) (Format, bool) {
	f, ok := formatExts[strings.ToLower(filepath.Ext(name))]
	return f, ok
}

func (f Format) MarshalText() ([]byte, error) {
	if !f.IsValid() {
		return nil, fmt.Errorf("invalid format %d", int(f))
	}
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(text []byte) error {
	v, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
