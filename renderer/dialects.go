// Package renderer provides the markup dialects available to the render pipeline.
package renderer

import (
	"sort"
	"strings"

	"github.com/iedon/wikimarkup-go/markup"
)

var dialects = map[string]func() markup.Parser{
	"markdown":   func() markup.Parser { return NewMarkdown() },
	"commonmark": func() markup.Parser { return NewCommonMark() },
}

// Lookup constructs the dialect registered under name. Names are case-insensitive.
func Lookup(name string) (markup.Parser, bool) {
	build, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return build(), true
}

// Names lists the registered dialects.
func Names() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
