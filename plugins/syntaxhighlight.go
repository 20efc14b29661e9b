package plugins

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"

	"github.com/iedon/wikimarkup-go/plugin"
	"github.com/iedon/wikimarkup-go/renderer"
)

// DefaultStyle is the chroma style used for highlighted code.
const DefaultStyle = "github"

// SyntaxHighlight adds the stylesheet for code highlighted by the markdown dialect.
type SyntaxHighlight struct {
	plugin.Base
	head string
}

// NewSyntaxHighlight generates the stylesheet for the named chroma style.
// Unknown styles fall back to chroma's default.
func NewSyntaxHighlight(style string) (*SyntaxHighlight, error) {
	formatter := chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.WithAllClasses(true),
		chromahtml.ClassPrefix(renderer.ClassPrefix),
	)
	var buf bytes.Buffer
	if err := formatter.WriteCSS(&buf, styles.Get(style)); err != nil {
		return nil, fmt.Errorf("syntax highlight css: %w", err)
	}

	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	sheet, err := m.String("text/css", buf.String())
	if err != nil {
		return nil, fmt.Errorf("minify highlight css: %w", err)
	}
	return &SyntaxHighlight{head: "<style>" + sheet + "</style>"}, nil
}

func (p *SyntaxHighlight) ID() string { return SyntaxHighlightID }

func (p *SyntaxHighlight) HeadContent() string { return p.head }
