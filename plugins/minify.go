package plugins

import (
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	mhtml "github.com/tdewolff/minify/v2/html"

	"github.com/iedon/wikimarkup-go/plugin"
)

// Minify compacts the rendered HTML.
type Minify struct {
	plugin.Base
	m *minify.M
}

// NewMinify keeps end tags and quotes so the output stays a valid fragment.
func NewMinify() *Minify {
	m := minify.New()
	m.Add("text/html", &mhtml.Minifier{
		KeepEndTags:      true,
		KeepQuotes:       true,
		KeepDocumentTags: true,
	})
	m.AddFunc("text/css", css.Minify)
	return &Minify{m: m}
}

func (p *Minify) ID() string { return MinifyID }

func (p *Minify) AfterParse(html string) (string, error) {
	return p.m.String("text/html", html)
}
