package options

import "strings"

const (
	optionsHeader    = "def self.available_options"
	declarationToken = "FastlaneCore::ConfigItem.new"
	commentMarker    = "#"
)

// Block holds the raw lines of a single option declaration.
type Block []string

// Region returns the lines of the option list declared after the
// available_options header.
//
// The region opens after the first line whose trimmed form starts or ends
// with "[" and closes before the first later line whose trimmed form starts
// with "]". Both delimiters are required: a source without the header or
// without the closing bracket has no region and yields nil.
func Region(lines []string) []string {
	headerSeen := false
	start := -1
	for i, line := range lines {
		if !headerSeen {
			headerSeen = strings.Contains(line, optionsHeader)
			continue
		}
		trimmed := strings.TrimSpace(line)
		if start < 0 {
			if strings.HasPrefix(trimmed, "[") || strings.HasSuffix(trimmed, "[") {
				start = i + 1
			}
			continue
		}
		if strings.HasPrefix(trimmed, "]") {
			return lines[start:i]
		}
	}
	return nil
}

// SplitBlocks partitions region lines into one Block per declaration.
//
// A block begins at every line whose trimmed form starts with the
// ConfigItem constructor. Blank lines and full-line comments are dropped.
// Lines seen before the first constructor belong to the first block, and the
// last block is always returned, even when empty.
func SplitBlocks(region []string) []Block {
	var blocks []Block
	var current Block
	inBlock := false
	for _, line := range region {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, commentMarker) {
			continue
		}
		if strings.HasPrefix(trimmed, declarationToken) {
			if inBlock {
				blocks = append(blocks, current)
				current = nil
			}
			inBlock = true
		}
		current = append(current, line)
	}
	return append(blocks, current)
}
