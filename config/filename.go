package config

import (
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxFileNameBytes keeps generated names below common file system limits
// leaving room for extension.
const maxFileNameBytes = 240

// CleanFileName makes name usable as base file name: characters reserved by
// platform and control characters are removed, leading dots and trailing
// spaces or dots are trimmed and overly long names are cut at rune boundary.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if unicode.IsControl(sym) || strings.ContainsRune(reservedChars+string(os.PathSeparator)+string(os.PathListSeparator), sym) {
			return -1
		}
		return sym
	}, in)
	out = strings.TrimRight(strings.TrimLeft(out, "."), ". ")
	for len(out) > maxFileNameBytes {
		_, size := utf8.DecodeLastRuneInString(out)
		out = out[:len(out)-size]
	}
	if len(out) == 0 {
		out = "_bad_file_name_"
	}
	return out
}
