package nameutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PascalCase joins the underscore-separated segments of s, upper-casing the
// first letter of each ("skip_build_archive" → "SkipBuildArchive"). Empty
// segments are dropped; the remaining characters keep their case.
func PascalCase(s string) string {
	var b strings.Builder
	for _, segment := range strings.Split(s, "_") {
		if segment == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(segment)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(segment[size:])
	}
	return b.String()
}
