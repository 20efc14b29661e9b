package toc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbers(nodes []*Heading) []string {
	var out []string
	var walk func([]*Heading)
	walk = func(list []*Heading) {
		for _, n := range list {
			out = append(out, n.Number())
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}

func TestTreeNumbering(t *testing.T) {
	roots := Tree(`<h1>A</h1><h2>B</h2><h2>C</h2><h1>D</h1>`)
	require.Len(t, roots, 2)
	assert.Equal(t, []string{"1", "1.1", "1.2", "2"}, numbers(roots))
	assert.Equal(t, "B", roots[0].Children[0].Title)
	assert.Same(t, roots[0], roots[0].Children[1].Parent)
	assert.Nil(t, roots[1].Parent)
}

func TestTreeWalksUpToShallowerAncestor(t *testing.T) {
	roots := Tree(`<h1>A</h1><h3>B</h3><h4>C</h4><h2>D</h2><h3>E</h3>`)
	require.Len(t, roots, 1)
	assert.Equal(t, []string{"1", "1.1", "1.1.1", "1.2", "1.2.1"}, numbers(roots))
	assert.Equal(t, "D", roots[0].Children[1].Title)
}

func TestTreeFallsBackToLevelTwo(t *testing.T) {
	roots := Tree(`<h2>Intro</h2><h3>Detail</h3><h2>Usage</h2>`)
	require.Len(t, roots, 2)
	assert.Equal(t, []string{"1", "1.1", "2"}, numbers(roots))
	assert.Equal(t, 3, roots[0].Children[0].Level)
}

func TestTreeDeeperFirstHeadingBecomesRoot(t *testing.T) {
	roots := Tree(`<h3>Early</h3><h1>Main</h1>`)
	require.Len(t, roots, 2)
	assert.Equal(t, "Early", roots[0].Title)
	assert.Equal(t, "2", roots[1].Number())
}

func TestTreeUniqueIDs(t *testing.T) {
	roots := Tree(`<h1>Setup</h1><h1>Setup</h1><h1>Setup-1</h1><h1> </h1>`)
	require.Len(t, roots, 4)
	assert.Equal(t, "setup", roots[0].ID)
	assert.Equal(t, "setup-1", roots[1].ID)
	assert.Equal(t, "setup-1-1", roots[2].ID)
	assert.Equal(t, "section", roots[3].ID)
}

func TestTreeCollectsNestedText(t *testing.T) {
	roots := Tree("<h1>Hello <em>big</em>\n world</h1>")
	require.Len(t, roots, 1)
	assert.Equal(t, "Hello big world", roots[0].Title)
}

func TestBuildInsertsAnchorsAndTOC(t *testing.T) {
	doc := `<p>{TOC}</p><h1>Heading A</h1><h2>Heading B</h2>`
	out := New().Build(doc)

	assert.Contains(t, out, `<h1><a name="heading-a"></a>Heading A</h1>`)
	assert.Contains(t, out, `<h2><a name="heading-b"></a>Heading B</h2>`)
	assert.NotContains(t, out, Placeholder)
	assert.Contains(t, out, `<li><a href="#heading-a">1 Heading A</a><ul><li><a href="#heading-b">1.1 Heading B</a></li></ul></li>`)
	assert.Contains(t, out, `<div class="toc-title">Contents`)
	assert.True(t, strings.HasPrefix(out, `<p><div class="toc">`))
}

func TestBuildReplacesEveryPlaceholder(t *testing.T) {
	out := New().Build(`{TOC}<h1>X</h1>{TOC}`)
	assert.Equal(t, 2, strings.Count(out, `<div class="toc">`))
}

func TestBuildWithoutHeadings(t *testing.T) {
	assert.Equal(t, "<p>menu</p>", New().Build("<p>{TOC}menu</p>"))
	assert.Equal(t, "<p>plain</p>", New().Build("<p>plain</p>"))
}

func TestBuildPreservesSourceBytes(t *testing.T) {
	doc := `<p class=x>a &amp; b &#x3C;</p><h1 id="keep">T</h1>`
	out := New().Build(doc)
	assert.Equal(t, `<p class=x>a &amp; b &#x3C;</p><h1 id="keep"><a name="t"></a>T</h1>`, out)
}

func TestBuildEscapesTitles(t *testing.T) {
	b := &Builder{Title: "Index <1>"}
	out := b.Build(`{TOC}<h1>a &lt; b</h1>`)
	assert.Contains(t, out, "Index &lt;1&gt;")
	assert.Contains(t, out, `1 a &lt; b</a>`)
}
