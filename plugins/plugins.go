// Package plugins contains the plugins shipped with the wiki renderer.
package plugins

import (
	"github.com/iedon/wikimarkup-go/plugin"
)

// Plugin ids accepted by the render.plugins configuration key.
const (
	TOCID             = "toc"
	SyntaxHighlightID = "syntaxhighlight"
	MinifyID          = "minify"
)

// Builtin returns every bundled plugin in their run order. Minify runs
// last so it sees the final document.
func Builtin() ([]plugin.Plugin, error) {
	highlight, err := NewSyntaxHighlight(DefaultStyle)
	if err != nil {
		return nil, err
	}
	return []plugin.Plugin{
		NewTOC(),
		highlight,
		NewMinify(),
	}, nil
}

// Registry registers the bundled plugins and enables the given ids.
func Registry(enabled ...string) (*plugin.List, error) {
	builtin, err := Builtin()
	if err != nil {
		return nil, err
	}
	list, err := plugin.NewList(builtin...)
	if err != nil {
		return nil, err
	}
	if err := list.Enable(enabled...); err != nil {
		return nil, err
	}
	return list, nil
}
