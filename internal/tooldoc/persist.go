package tooldoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// suggestionSuffix is appended to the output path when a differing document
// already exists.
const suggestionSuffix = ".new"

// Outcome describes what Write did.
type Outcome int

const (
	// Unchanged means the file on disk already held the same bytes.
	Unchanged Outcome = iota
	// Created means the document was written to its own path.
	Created
	// Suggested means a differing file existed and the document was written
	// next to it with the ".new" suffix.
	Suggested
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Created:
		return "created"
	case Suggested:
		return "suggested"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Marshal renders doc in its canonical form: two-space indented JSON without
// HTML escaping, ending with a newline.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("tooldoc: encode %s: %w", doc.Name, err)
	}
	return buf.Bytes(), nil
}

// Path returns the output path of the document named name inside dir.
func Path(dir, name string) string {
	return filepath.Join(dir, name+".json")
}

// Write persists data as <dir>/<name>.json without clobbering curated files.
//
// Rules:
//   - Same bytes already on disk → nothing is written (Unchanged).
//   - A differing file exists → data goes to "<path>.new" (Suggested) and the
//     original is left alone. A "<path>.new" already holding data is not
//     rewritten.
//   - No file → data is written, creating dir as needed (Created).
//
// It returns the path that holds data.
func Write(dir, name string, data []byte) (string, Outcome, error) {
	path := Path(dir, name)

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if bytes.Equal(existing, data) {
			return path, Unchanged, nil
		}
		suggestion := path + suggestionSuffix
		if pending, err := os.ReadFile(suggestion); err == nil && bytes.Equal(pending, data) {
			return suggestion, Suggested, nil
		}
		if err := os.WriteFile(suggestion, data, 0644); err != nil {
			return "", Unchanged, fmt.Errorf("tooldoc: write %s: %w", suggestion, err)
		}
		return suggestion, Suggested, nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", Unchanged, fmt.Errorf("tooldoc: read %s: %w", path, err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", Unchanged, fmt.Errorf("tooldoc: create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", Unchanged, fmt.Errorf("tooldoc: write %s: %w", path, err)
	}
	return path, Created, nil
}
