package options

import (
	"errors"
	"strings"
)

// Parse extracts every option declared in one option source.
//
// Blocks that fail to parse are reported in the returned error slice and do
// not stop the remaining blocks. A source without an option region yields
// no properties and no errors.
func Parse(source, sourceName string, isAction bool) ([]Property, []error) {
	lines := strings.Split(source, "\n")

	var props []Property
	var errs []error
	for _, block := range SplitBlocks(Region(lines)) {
		text, ok := ExtractFields(block)
		if !ok {
			continue
		}
		p, err := Assemble(text, isAction)
		if err != nil {
			var parseErr *BlockParseError
			if errors.As(err, &parseErr) {
				parseErr.Source = sourceName
			}
			errs = append(errs, err)
			continue
		}
		if p == nil {
			continue
		}
		props = append(props, *p)
	}
	return props, errs
}
