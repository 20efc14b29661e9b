package pipeline

import "encoding/json"

// RenderedPage is the result of one render. It is read-only once Render returns.
type RenderedPage struct {
	html      string
	cacheable bool
	head      string
	footer    string
	pre       string
	post      string
}

// NewRenderedPage wraps html as a cacheable page without extra fragments.
func NewRenderedPage(html string) *RenderedPage {
	return &RenderedPage{html: html, cacheable: true}
}

// HTML is the rendered body.
func (p *RenderedPage) HTML() string { return p.html }

// IsCacheable reports whether the page may be reused for the same page version.
func (p *RenderedPage) IsCacheable() bool { return p.cacheable }

// HeadHTML belongs in the document head.
func (p *RenderedPage) HeadHTML() string { return p.head }

// FooterHTML belongs before the end of the document body.
func (p *RenderedPage) FooterHTML() string { return p.footer }

// PreContainerHTML is placed before the content container.
func (p *RenderedPage) PreContainerHTML() string { return p.pre }

// PostContainerHTML is placed after the content container.
func (p *RenderedPage) PostContainerHTML() string { return p.post }

func (p *RenderedPage) String() string { return p.html }

// WithHTML returns a copy of the page with its body replaced.
func (p *RenderedPage) WithHTML(html string) *RenderedPage {
	c := *p
	c.html = html
	return &c
}

type renderedPageJSON struct {
	HTML              string `json:"html"`
	IsCacheable       bool   `json:"isCacheable"`
	HeadHTML          string `json:"headHtml,omitempty"`
	FooterHTML        string `json:"footerHtml,omitempty"`
	PreContainerHTML  string `json:"preContainerHtml,omitempty"`
	PostContainerHTML string `json:"postContainerHtml,omitempty"`
}

// MarshalJSON encodes the page for API responses.
func (p *RenderedPage) MarshalJSON() ([]byte, error) {
	return json.Marshal(renderedPageJSON{
		HTML:              p.html,
		IsCacheable:       p.cacheable,
		HeadHTML:          p.head,
		FooterHTML:        p.footer,
		PreContainerHTML:  p.pre,
		PostContainerHTML: p.post,
	})
}
