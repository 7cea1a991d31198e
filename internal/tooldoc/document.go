package tooldoc

import (
	"fmt"

	"github.com/thellimist/lanemeta/internal/nameutil"
	"github.com/thellimist/lanemeta/internal/schema"
)

// Layout selects how Tasks are laid out in a Document.
type Layout string

const (
	// LayoutFlat lists every argument of every section directly under Tasks.
	LayoutFlat Layout = "flat"
	// LayoutGrouped emits one task per section, wrapping its arguments in a
	// settings class.
	LayoutGrouped Layout = "grouped"
)

// ParseLayout validates a layout name. The empty string selects LayoutFlat.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case "", LayoutFlat:
		return LayoutFlat, nil
	case LayoutGrouped:
		return LayoutGrouped, nil
	default:
		return "", fmt.Errorf("tooldoc: unknown layout %q (must be %q or %q)", s, LayoutFlat, LayoutGrouped)
	}
}

// Document is the persisted metadata of one tool. Field order is the
// serialization order; empty fields are omitted.
type Document struct {
	Schema           string   `json:"$schema,omitempty"`
	License          []string `json:"License,omitempty"`
	References       []string `json:"References,omitempty"`
	CustomExecutable bool     `json:"CustomExecutable,omitempty"`
	Name             string   `json:"Name"`
	Tasks            []any    `json:"Tasks,omitempty"`
}

// Section is the contribution of one option source to a Document.
type Section struct {
	Name      string            // Source name (tool or action)
	IsAction  bool              // Source is an action rather than a tool
	Location  string            // Where the source text was read from
	Arguments []schema.Argument // Arguments derived from the source
}

// Task is the grouped-layout entry for one section.
type Task struct {
	Postfix          string        `json:"Postfix"`
	DefiniteArgument string        `json:"DefiniteArgument"`
	SettingsClass    SettingsClass `json:"SettingsClass"`
}

// SettingsClass carries the arguments of a grouped task.
type SettingsClass struct {
	BaseClass  string            `json:"BaseClass,omitempty"`
	Properties []schema.Argument `json:"Properties"`
}

// Options controls how Build assembles a Document.
type Options struct {
	Name      string   // Tool name, also the output file stem
	Schema    string   // Value of $schema
	License   []string // License lines
	Layout    Layout
	BaseClass string // Settings base class for LayoutGrouped
}

// Build assembles a Document from sections, in the order given. References
// list the location of every section.
func Build(opts Options, sections []Section) *Document {
	doc := &Document{
		Schema:           opts.Schema,
		License:          opts.License,
		CustomExecutable: true,
		Name:             opts.Name,
	}

	for _, s := range sections {
		if s.Location != "" {
			doc.References = append(doc.References, s.Location)
		}
		if opts.Layout == LayoutGrouped {
			doc.Tasks = append(doc.Tasks, Task{
				Postfix:          nameutil.PascalCase(s.Name),
				DefiniteArgument: nameutil.DefiniteArgument(s.Name, s.IsAction),
				SettingsClass: SettingsClass{
					BaseClass:  opts.BaseClass,
					Properties: s.Arguments,
				},
			})
			continue
		}
		for _, arg := range s.Arguments {
			doc.Tasks = append(doc.Tasks, arg)
		}
	}
	return doc
}

// ArgumentCount returns the number of arguments across sections.
func ArgumentCount(sections []Section) int {
	n := 0
	for _, s := range sections {
		n += len(s.Arguments)
	}
	return n
}
