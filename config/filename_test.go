package config

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report", "report"},
		{"a/b", "ab"},
		{"..hidden", "hidden"},
		{"tab\there", "tabhere"},
		{"trailing. . ", "trailing"},
		{"Привет мир", "Привет мир"},
		{"", "_bad_file_name_"},
		{"/../", "_bad_file_name_"},
	}
	for _, tt := range tests {
		if got := CleanFileName(tt.in); got != tt.want {
			t.Errorf("CleanFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := CleanFileName(strings.Repeat("я", 200))
	if len(long) > maxFileNameBytes || !utf8.ValidString(long) {
		t.Errorf("CleanFileName() of long name = %d bytes, valid=%v", len(long), utf8.ValidString(long))
	}
}
