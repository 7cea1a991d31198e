package options

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// excerptWidth bounds the diagnostic excerpt attached to a BlockParseError.
const excerptWidth = 45

// Property is the normalized description of one option.
type Property struct {
	Name        string
	Description string
	EnvName     string
	Type        string // raw type hint, e.g. "Array"
	IsString    bool
	Optional    bool
	Sensitive   bool
	ShortOption string
	IsAction    bool // declared by an action rather than a tool
}

// BlockParseError reports a block whose extracted text could not be read as
// a Property.
type BlockParseError struct {
	Source  string
	Excerpt string
	Err     error
}

func (e *BlockParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("options: %s: %v near %q", e.Source, e.Err, e.Excerpt)
	}
	return fmt.Sprintf("options: %v near %q", e.Err, e.Excerpt)
}

func (e *BlockParseError) Unwrap() error { return e.Err }

// Assemble builds a Property from the JSON text produced by ExtractFields.
//
// Missing keys take their defaults (is_string true, every other flag false)
// and unknown keys are ignored. Text without a name is not an option
// declaration: Assemble returns (nil, nil) for it. Malformed text, or a known
// key holding the wrong kind of value, returns a *BlockParseError.
func Assemble(text string, isAction bool) (*Property, error) {
	if text == "" {
		return nil, nil
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, &BlockParseError{Excerpt: excerpt(text, errorOffset(err)), Err: err}
	}

	b := propertyBuilder{fields: fields}
	name := b.str("name")
	if b.err == nil && name == "" {
		return nil, nil
	}

	p := &Property{
		Name:        name,
		Description: b.str("description"),
		EnvName:     b.str("env_name"),
		Type:        b.str("type"),
		IsString:    b.flag("is_string", true),
		Optional:    b.flag("optional", false),
		Sensitive:   b.flag("sensitive", false),
		ShortOption: b.str("short_option"),
		IsAction:    isAction,
	}
	if b.err != nil {
		return nil, &BlockParseError{Excerpt: excerpt(text, -1), Err: b.err}
	}
	return p, nil
}

// propertyBuilder reads typed values out of a decoded field set, keeping the
// first type mismatch it meets.
type propertyBuilder struct {
	fields map[string]any
	err    error
}

func (b *propertyBuilder) str(key string) string {
	raw, ok := b.fields[key]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		b.fail(key, "string", raw)
		return ""
	}
	return s
}

// flag reads a boolean. The integers 0 and 1 count as false and true, and
// nil (decoded as "") leaves the default.
func (b *propertyBuilder) flag(key string, def bool) bool {
	raw, ok := b.fields[key]
	if !ok {
		return def
	}
	switch v := raw.(type) {
	case bool:
		return v
	case float64:
		if v == 0 || v == 1 {
			return v == 1
		}
	case string:
		if v == "" {
			return def
		}
	}
	b.fail(key, "boolean", raw)
	return def
}

func (b *propertyBuilder) fail(key, want string, got any) {
	if b.err == nil {
		b.err = fmt.Errorf("field %q: expected %s, got %T", key, want, got)
	}
}

func errorOffset(err error) int {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return int(syntaxErr.Offset)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return int(typeErr.Offset)
	}
	return -1
}

// excerpt returns at most excerptWidth bytes of text ending near offset.
func excerpt(text string, offset int) string {
	start := 0
	if offset > excerptWidth {
		start = offset - excerptWidth
	}
	if start > len(text) {
		start = len(text)
	}
	end := start + excerptWidth
	if end > len(text) {
		end = len(text)
	}
	return strings.ToValidUTF8(text[start:end], "")
}
