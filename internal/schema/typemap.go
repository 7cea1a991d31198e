package schema

import (
	"strings"

	"github.com/thellimist/lanemeta/internal/options"
)

// listHints mark descriptions of options that take comma separated values.
var listHints = []string{"comma-separated", "comma separated"}

// valueType decides the argument type of a property.
//
// Priority:
//   - a comma separated hint in the description → list
//   - is_string false → bool
//   - an Array type hint → list
//   - otherwise string
func valueType(p options.Property) ValueType {
	help := strings.ToLower(p.Description)
	for _, hint := range listHints {
		if strings.Contains(help, hint) {
			return TypeStringList
		}
	}
	if !p.IsString {
		return TypeBool
	}
	if p.Type == "Array" {
		return TypeStringList
	}
	return TypeString
}
