package renderer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iedon/wikimarkup-go/markup"
)

func TestLookup(t *testing.T) {
	p, ok := Lookup("Markdown")
	require.True(t, ok)
	assert.True(t, p.SpacesAsDashes())
	assert.Equal(t, "markdown", p.Syntax().Dialect)

	p, ok = Lookup("commonmark")
	require.True(t, ok)
	assert.False(t, p.SpacesAsDashes())

	_, ok = Lookup("creole")
	assert.False(t, ok)
	assert.Equal(t, []string{"commonmark", "markdown"}, Names())
}

func TestTransformBasics(t *testing.T) {
	out, err := NewMarkdown().Transform("**bold** {TOC}\n# Heading A\n## Heading B", markup.Hooks{})
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>bold</strong> {TOC}")
	assert.Contains(t, out, "<h1>Heading A</h1>")
	assert.Contains(t, out, "<h2>Heading B</h2>")
}

func TestTransformFiresLinkHook(t *testing.T) {
	var seen []*markup.LinkEvent
	hooks := markup.Hooks{Link: func(ev *markup.LinkEvent) {
		seen = append(seen, ev)
		ev.Href = "/wiki/5/my-first-page"
		ev.AddClass("wiki-link")
		ev.Target = "_blank"
	}}
	out, err := NewMarkdown().Transform("see [the page](My-first-page) now", hooks)
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, "My-first-page", seen[0].OriginalHref)
	assert.Equal(t, "the page", seen[0].Text)
	assert.Contains(t, out, `<a href="/wiki/5/my-first-page" class="wiki-link" target="_blank">the page</a>`)
}

func TestTransformFiresHookForAutolinks(t *testing.T) {
	var seen []string
	hooks := markup.Hooks{Link: func(ev *markup.LinkEvent) {
		seen = append(seen, ev.OriginalHref)
		ev.AddClass("outside")
	}}
	out, err := NewMarkdown().Transform("visit www.example.com or mail <me@example.com>", hooks)
	require.NoError(t, err)

	assert.Equal(t, []string{"http://www.example.com"}, seen)
	assert.Contains(t, out, `<a href="http://www.example.com" class="outside">www.example.com</a>`)
	assert.Contains(t, out, `href="mailto:me@example.com"`)
}

func TestTransformReplacesLinkText(t *testing.T) {
	hooks := markup.Hooks{Link: func(ev *markup.LinkEvent) {
		if ev.Text == "" {
			ev.Text = "Home <Page>"
		}
	}}
	out, err := NewMarkdown().Transform("[](Home)", hooks)
	require.NoError(t, err)
	assert.Contains(t, out, `<a href="Home">Home &lt;Page&gt;</a>`)
}

func TestTransformFiresImageHook(t *testing.T) {
	var alt string
	hooks := markup.Hooks{Image: func(ev *markup.ImageEvent) {
		alt = ev.Text
		ev.Src = "/attachments/cat.png"
	}}
	out, err := NewCommonMark().Transform("![a cat](File:cat.png)", hooks)
	require.NoError(t, err)
	assert.Equal(t, "a cat", alt)
	assert.Contains(t, out, `src="/attachments/cat.png"`)
	assert.Contains(t, out, `alt="a cat"`)
}

func TestTransformHighlightsCode(t *testing.T) {
	out, err := NewMarkdown().Transform("```go\nfunc main() {}\n```\n", markup.Hooks{})
	require.NoError(t, err)
	assert.Contains(t, out, `<pre tabindex="0" class="z-chroma z-code language-go" data-lang="go">`)
	assert.True(t, strings.Contains(out, `class="z-`))
}

func TestTransformStripsFrontMatter(t *testing.T) {
	src := "---\ntitle: Notes\n---\nbody\n"
	md := NewMarkdown()
	out, err := md.Transform(src, markup.Hooks{})
	require.NoError(t, err)
	assert.NotContains(t, out, "title:")
	assert.Contains(t, out, "<p>body</p>")

	fm, err := md.Meta(src)
	require.NoError(t, err)
	assert.Equal(t, "Notes", fm["title"])
}

func TestTransformRecoversHookPanic(t *testing.T) {
	hooks := markup.Hooks{Link: func(*markup.LinkEvent) { panic("lookup exploded") }}
	_, err := NewMarkdown().Transform("[x](y)", hooks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lookup exploded")
}
