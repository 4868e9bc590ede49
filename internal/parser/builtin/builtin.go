// Package builtin registers the parsers that ship with around-the-grounds.
package builtin

import (
	"github.com/pfrederiksen/around-the-grounds/internal/parser"
	"github.com/pfrederiksen/around-the-grounds/internal/parser/hivey"
	"github.com/pfrederiksen/around-the-grounds/internal/parser/sfta"
	"github.com/pfrederiksen/around-the-grounds/internal/parser/sheets"
	"github.com/pfrederiksen/around-the-grounds/internal/parser/textsearch"
)

// Register adds every built-in parser type to reg.
func Register(reg *parser.Registry) {
	reg.Register(textsearch.Type, textsearch.New)
	reg.Register(sheets.Type, sheets.New)
	reg.Register(hivey.Type, hivey.New)
	reg.Register(sfta.Type, sfta.New)
}

// NewRegistry returns a Registry with the built-in parsers registered.
func NewRegistry() *parser.Registry {
	reg := parser.NewRegistry()
	Register(reg)
	return reg
}
