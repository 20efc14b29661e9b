package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iedon/wikimarkup-go/markup"
)

func newRewriter(spacesAsDashes bool) *rewriter {
	return &rewriter{
		pages:          wikiPages,
		urls:           DefaultURLs{BaseURL: "/base/"},
		attachments:    "/attachments",
		spacesAsDashes: spacesAsDashes,
		logger:         discard(),
	}
}

func TestRewriteFoundPage(t *testing.T) {
	ev := markup.NewLinkEvent("My-first-page", "")
	newRewriter(true).link(ev)

	assert.Equal(t, "/base/wiki/5/my-first-page", ev.Href)
	assert.Equal(t, "My First Page", ev.Text)
	assert.True(t, ev.IsInternalLink)
	assert.Empty(t, ev.CSSClass)
	assert.Equal(t, "My-first-page", ev.OriginalHref)
}

func TestRewriteDashesOnlyForDashedDialects(t *testing.T) {
	ev := markup.NewLinkEvent("My-first-page", "x")
	newRewriter(false).link(ev)
	assert.Equal(t, "/base/pages/new?title=My-first-page", ev.Href)
	assert.Equal(t, MissingPageLinkClass, ev.CSSClass)
	assert.Equal(t, "x", ev.Text)
}

func TestRewriteAnchorsAndEscapes(t *testing.T) {
	r := newRewriter(false)

	ev := markup.NewLinkEvent("My%20First%20Page#usage", "docs")
	r.link(ev)
	assert.Equal(t, "/base/wiki/5/my-first-page#usage", ev.Href)
	assert.Equal(t, "docs", ev.Text)

	ev = markup.NewLinkEvent("Home%23intro", "")
	r.link(ev)
	assert.Equal(t, "/base/wiki/1/home#intro", ev.Href)
	assert.Equal(t, "Home", ev.Text)
}

func TestRewriteMissingPage(t *testing.T) {
	ev := markup.NewLinkEvent("Not Written", "")
	newRewriter(true).link(ev)
	assert.Equal(t, "/base/pages/new?title=Not+Written", ev.Href)
	assert.Equal(t, MissingPageLinkClass, ev.CSSClass)
	assert.Equal(t, "Not Written", ev.Text)
}

func TestRewriteExternal(t *testing.T) {
	cases := map[string]string{
		"https://example.org":  "https://example.org",
		"HTTP://EXAMPLE.ORG":   "HTTP://EXAMPLE.ORG",
		"www.example.org":      "http://www.example.org",
		"mailto:ops@example":   "mailto:ops@example",
		"tag:example.org,2024": "tag:example.org,2024",
	}
	r := newRewriter(true)
	r.newWindow = true
	for href, want := range cases {
		ev := markup.NewLinkEvent(href, "x")
		r.link(ev)
		assert.Equal(t, want, ev.Href, href)
		assert.False(t, ev.IsInternalLink, href)
		assert.Equal(t, ExternalLinkClass, ev.CSSClass, href)
		assert.Equal(t, "_blank", ev.Target, href)
	}
}

func TestRewriteInPageAnchor(t *testing.T) {
	r := newRewriter(true)
	r.newWindow = true
	ev := markup.NewLinkEvent("#section", "x")
	r.link(ev)
	assert.Equal(t, "#section", ev.Href)
	assert.False(t, ev.IsInternalLink)
	assert.Empty(t, ev.CSSClass)
	assert.Empty(t, ev.Target)
}

func TestRewriteAttachmentsAndSpecial(t *testing.T) {
	r := newRewriter(true)

	ev := markup.NewLinkEvent("attachment:report.pdf", "r")
	r.link(ev)
	assert.Equal(t, "/attachments/report.pdf", ev.Href)
	assert.True(t, ev.IsInternalLink)

	ev = markup.NewLinkEvent("~/img/logo.png", "l")
	r.link(ev)
	assert.Equal(t, "/attachments/img/logo.png", ev.Href)

	ev = markup.NewLinkEvent("Special:AllPages", "all")
	r.link(ev)
	assert.Equal(t, "/base/wiki/Special:AllPages", ev.Href)
}

func TestRewriteImages(t *testing.T) {
	r := newRewriter(true)

	ev := markup.NewImageEvent("file:diagram.svg", "d")
	r.image(ev)
	assert.Equal(t, "/attachments/diagram.svg", ev.Src)

	ev = markup.NewImageEvent("photos/cat.jpg", "c")
	r.image(ev)
	assert.Equal(t, "/attachments/photos/cat.jpg", ev.Src)

	ev = markup.NewImageEvent("https://cdn.example/cat.jpg", "c")
	r.image(ev)
	assert.Equal(t, "https://cdn.example/cat.jpg", ev.Src)
}

func TestDefaultURLs(t *testing.T) {
	u := DefaultURLs{}
	assert.Equal(t, "/wiki/7/caf-menu", u.PageURL(7, "Caf? Menu"))
	assert.Equal(t, "/pages/new?title=a%26b", u.NewPageURL("a&b"))
	assert.Equal(t, "/wiki/Special:Recent%20Changes", u.SpecialURL("Recent Changes"))
}
