package schema

import (
	"strings"
	"testing"
)

func TestSanitizePolicy(t *testing.T) {
	s, err := Build(Config{
		AllowedNodes: []string{NodeParagraph, NodeHeading, NodeImage, NodeTable},
		AllowedMarks: []string{MarkLink, MarkStrong},
		ClassNames:   map[string]string{NodeHeading: "title"},
	}, nil, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	p := s.SanitizePolicy()

	tests := []struct {
		name    string
		in      string
		keep    []string
		dropped []string
	}{
		{
			name:    "script removed",
			in:      `<p>hi<script>alert(1)</script></p>`,
			keep:    []string{"<p>hi</p>"},
			dropped: []string{"script", "alert"},
		},
		{
			name:    "heading class kept on every level",
			in:      `<h3 class="title" onclick="x()">T</h3>`,
			keep:    []string{`<h3 class="title">T</h3>`},
			dropped: []string{"onclick"},
		},
		{
			name:    "image attributes",
			in:      `<img src="a.png" alt="x" data-image-id="42" data-caption="c" width="5">`,
			keep:    []string{`src="a.png"`, `alt="x"`, `data-image-id="42"`, `data-caption="c"`},
			dropped: []string{"width"},
		},
		{
			name:    "cell attributes",
			in:      `<table><tbody><tr><td colspan="2" data-colwidth="10,20" bgcolor="red">x</td></tr></tbody></table>`,
			keep:    []string{`colspan="2"`, `data-colwidth="10,20"`, "<tbody>"},
			dropped: []string{"bgcolor"},
		},
		{
			name:    "unknown element stripped",
			in:      `<p><marquee>m</marquee><b>b</b></p>`,
			keep:    []string{"<b>b</b>"},
			dropped: []string{"marquee"},
		},
		{
			name:    "javascript url",
			in:      `<a href="javascript:alert(1)">x</a>`,
			dropped: []string{"javascript"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := p.Sanitize(tt.in)
			for _, want := range tt.keep {
				if !strings.Contains(out, want) {
					t.Errorf("Sanitize(%q) = %q, missing %q", tt.in, out, want)
				}
			}
			for _, bad := range tt.dropped {
				if strings.Contains(out, bad) {
					t.Errorf("Sanitize(%q) = %q, contains %q", tt.in, out, bad)
				}
			}
		})
	}
}

func TestFormatAttr(t *testing.T) {
	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{nil, "", false},
		{"a", "a", true},
		{false, "false", true},
		{1.0, "1", true},
		{2.5, "2.5", true},
		{[]any{100.0, 200.0}, "100,200", true},
	}
	for _, tt := range tests {
		got, ok := FormatAttr(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FormatAttr(%v) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
