package options

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	constructorRe = regexp.MustCompile(`\s*FastlaneCore::ConfigItem\.new\(`)
	keyLineRe     = regexp.MustCompile(`(?:^|[\s(,])key:\s*:([A-Za-z0-9_]+)`)
	plainValueRe  = regexp.MustCompile(`^(true|false|-?\d+)$`)
)

// ExtractFields turns one block into a JSON object literal holding every
// field that could be read from it. It reports false when the block produced
// no field at all.
//
// Rules:
//   - The constructor call is stripped from the first line.
//   - A "key: :identifier" line yields "name" and nothing else.
//   - The first content line after the name line fixes the base indent;
//     deeper lines (nested arrays, hashes, verify blocks) are skipped whole.
//   - Lines reading "end" are skipped.
//   - Trailing comments are cut unless the last '#' sits inside a quote.
//   - Lines are split on their first colon; lines without one are skipped.
//   - Values must be quoted strings, nil, true, false or an integer.
//     Anything else, including bare constants such as "type: Array", is
//     dropped.
func ExtractFields(block Block) (string, bool) {
	if len(block) == 0 {
		return "", false
	}

	var fields []string
	baseIndent := -1
	nameSeen := false
	for i, line := range block {
		if i == 0 {
			line = constructorRe.ReplaceAllString(line, "")
		}

		if m := keyLineRe.FindStringSubmatch(line); m != nil {
			fields = append(fields, `"name":"`+m[1]+`"`)
			nameSeen = true
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if baseIndent >= 0 && indent > baseIndent {
			continue
		}
		if strings.TrimRight(trimmed, ",)") == "end" {
			continue
		}
		if nameSeen && baseIndent < 0 {
			baseIndent = indent
		}

		line = strings.TrimRight(stripComment(line), " \t,)\r")
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}

		literal, ok := normalizeLiteral(value)
		if !ok {
			continue
		}
		fields = append(fields, `"`+key+`":`+literal)
	}

	if len(fields) == 0 {
		return "", false
	}
	return "{" + strings.Join(fields, ",") + "}", true
}

// stripComment cuts the line at its last '#' when that '#' comes after the
// last quote character.
func stripComment(line string) string {
	hash := strings.LastIndex(line, commentMarker)
	if hash >= 0 && hash > strings.LastIndexAny(line, `'"`) {
		return line[:hash]
	}
	return line
}

// normalizeLiteral rewrites a source value as a JSON literal.
func normalizeLiteral(value string) (string, bool) {
	switch {
	case strings.HasPrefix(value, "'"):
		return quoteJSON(unquoteSingle(value)), true
	case strings.HasPrefix(value, `"`):
		return quoteJSON(unquoteDouble(value)), true
	case value == "nil":
		return `""`, true
	case plainValueRe.MatchString(value):
		return value, true
	}
	return "", false
}

// unquoteSingle reads a single-quoted literal up to its first unescaped
// closing quote. Only \' and \\ are escapes.
func unquoteSingle(value string) string {
	body := value[1:]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) && (body[i+1] == '\'' || body[i+1] == '\\') {
			b.WriteByte(body[i+1])
			i++
			continue
		}
		if c == '\'' {
			break
		}
		b.WriteByte(c)
	}
	return b.String()
}

// unquoteDouble reads a double-quoted literal. A literal cut short (by
// comment stripping or a line break) is closed first. The body runs from the
// first to the last quote: \" and \\ are escapes, bare quotes inside the body
// are kept, and any other backslash is literal.
func unquoteDouble(value string) string {
	if !closedDouble(value) {
		if strings.HasSuffix(value, `\`) {
			value = strings.TrimRight(value, `\" `)
		}
		value += `"`
	}

	end := strings.LastIndex(value, `"`)
	if end < 1 {
		return ""
	}
	body := value[1:end]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) && (body[i+1] == '"' || body[i+1] == '\\') {
			b.WriteByte(body[i+1])
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// closedDouble reports whether value ends with an unescaped closing quote.
func closedDouble(value string) bool {
	if len(value) < 2 || !strings.HasSuffix(value, `"`) {
		return false
	}
	slashes := 0
	for i := len(value) - 2; i > 0 && value[i] == '\\'; i-- {
		slashes++
	}
	return slashes%2 == 0
}

func quoteJSON(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}
