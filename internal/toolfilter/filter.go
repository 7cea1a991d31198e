package toolfilter

import (
	"fmt"
	"strings"

	"github.com/thellimist/lanemeta/internal/fetch"
)

// ParseList splits a comma-separated string into a deduplicated, trimmed
// list of names. Empty entries are removed and order is preserved (first
// occurrence wins on duplicates).
func ParseList(csv string) []string {
	if csv == "" {
		return nil
	}
	return Dedupe(strings.Split(csv, ","))
}

// Dedupe trims names and drops empty and repeated entries, keeping order.
func Dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var result []string
	for _, n := range names {
		name := strings.TrimSpace(n)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}
	return result
}

// ExcludeNames drops every source whose name appears in names. It keeps
// action sources from duplicating a primary tool.
func ExcludeNames(sources []fetch.Source, names []string) []fetch.Source {
	if len(names) == 0 {
		return sources
	}
	skip := make(map[string]struct{}, len(names))
	for _, n := range names {
		skip[n] = struct{}{}
	}
	var result []fetch.Source
	for _, s := range sources {
		if _, ok := skip[s.Name]; !ok {
			result = append(result, s)
		}
	}
	return result
}

// FilterSources applies include or exclude filtering to listed sources.
//
// Rules:
//   - Both include and exclude non-empty → error.
//   - Include mode: only the named sources are kept, in listing order. A
//     name with no matching source is an error, with a suggestion when one
//     is close (Levenshtein <= 3).
//   - Exclude mode: the named sources are removed. Excluding everything is
//     allowed.
//   - Both empty → sources are returned unchanged.
func FilterSources(sources []fetch.Source, include, exclude []string) ([]fetch.Source, error) {
	if len(include) > 0 && len(exclude) > 0 {
		return nil, fmt.Errorf("--include-actions and --exclude-actions cannot be used together")
	}
	if len(include) == 0 {
		return ExcludeNames(sources, exclude), nil
	}

	byName := make(map[string]struct{}, len(sources))
	available := make([]string, 0, len(sources))
	for _, s := range sources {
		byName[s.Name] = struct{}{}
		available = append(available, s.Name)
	}

	wanted := make(map[string]struct{}, len(include))
	for _, name := range include {
		if _, ok := byName[name]; !ok {
			msg := fmt.Sprintf("action '%s' not found in the action listing", name)
			if suggestion := Suggest(name, available); suggestion != "" {
				msg += fmt.Sprintf(". Did you mean '%s'?", suggestion)
			}
			return nil, fmt.Errorf("%s", msg)
		}
		wanted[name] = struct{}{}
	}

	var result []fetch.Source
	for _, s := range sources {
		if _, ok := wanted[s.Name]; ok {
			result = append(result, s)
		}
	}
	return result, nil
}
