package plugins

import (
	"strings"

	"github.com/iedon/wikimarkup-go/plugin"
	"github.com/iedon/wikimarkup-go/toc"
)

// TOC expands the {TOC} placeholder and anchors every heading.
type TOC struct {
	plugin.Base
	builder *toc.Builder
}

// NewTOC returns the table of contents plugin.
func NewTOC() *TOC {
	return &TOC{builder: toc.New()}
}

func (p *TOC) ID() string { return TOCID }

// AfterParse only touches documents that ask for a table of contents.
func (p *TOC) AfterParse(html string) (string, error) {
	if !strings.Contains(html, toc.Placeholder) {
		return html, nil
	}
	return p.builder.Build(html), nil
}
