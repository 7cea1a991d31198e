package schema

import (
	"strings"

	"github.com/thellimist/lanemeta/internal/nameutil"
)

// reservedNames maps identifiers that collide with keywords of the generated
// code to fixed replacements. Keys are lower-case.
var reservedNames = map[string]string{
	"readonly": "ReadOnlyFlag",
	"private":  "PrivateFlag",
	"params":   "ParamsValue",
	"base":     "BaseValue",
}

// ArgumentName converts a snake_case option key into the PascalCase argument
// name, renaming keyword collisions case-insensitively.
func ArgumentName(key string) string {
	name := nameutil.PascalCase(key)
	if replacement, ok := reservedNames[strings.ToLower(name)]; ok {
		return replacement
	}
	return name
}

// argumentFormat returns the invocation template for an option key. Actions
// take key:value pairs, tools take long flags.
func argumentFormat(key string, isAction bool) string {
	if isAction {
		return key + ":{value}"
	}
	return "--" + key + "={value}"
}
