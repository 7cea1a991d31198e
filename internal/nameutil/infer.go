package nameutil

import (
	"net/url"
	"path"
	"strings"
)

// rubyExt is the extension carried by option source files.
const rubyExt = ".rb"

// SourceName returns the option source name for a listed file name, and
// false when the file is not a Ruby source ("gym.rb" → "gym").
func SourceName(fileName string) (string, bool) {
	if !strings.HasSuffix(fileName, rubyExt) {
		return "", false
	}
	name := strings.TrimSuffix(path.Base(fileName), rubyExt)
	if name == "" {
		return "", false
	}
	return name, true
}

// InferSourceName derives a source name from a location such as
// https://raw.githubusercontent.com/.../actions/upload_to_testflight.rb.
// It returns "" when the location names no Ruby file.
func InferSourceName(location string) string {
	p := location
	if u, err := url.Parse(location); err == nil && u.Path != "" {
		p = u.Path
	}
	name, _ := SourceName(path.Base(p))
	return name
}

// DefiniteArgument returns the leading command-line argument that selects a
// tool ("gym") or runs an action ("run upload_to_testflight").
func DefiniteArgument(name string, isAction bool) string {
	lower := strings.ToLower(name)
	if isAction {
		return "run " + lower
	}
	return lower
}
