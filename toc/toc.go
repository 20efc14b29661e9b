// Package toc builds a table of contents from the headings of rendered HTML.
package toc

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/iedon/wikimarkup-go/markup"
)

// Placeholder is replaced by the generated table of contents.
const Placeholder = "{TOC}"

// Heading is one node of the heading tree.
type Heading struct {
	ID       string
	Title    string
	Level    int
	Children []*Heading
	// Parent is nil for root headings.
	Parent *Heading

	position int
}

// Position is the 1-based index of the heading among its siblings.
func (h *Heading) Position() int {
	return h.position
}

// Number returns the dotted outline number, outermost first, e.g. "1.2".
func (h *Heading) Number() string {
	parts := make([]string, 0, 4)
	for n := h; n != nil; n = n.Parent {
		parts = append(parts, strconv.Itoa(n.position))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

func (h *Heading) addChild(child *Heading) {
	child.Parent = h
	h.Children = append(h.Children, child)
	child.position = len(h.Children)
}

// Builder renders tables of contents.
type Builder struct {
	// Title is shown in the TOC title bar.
	Title string
}

// New returns a builder with the default title.
func New() *Builder {
	return &Builder{Title: "Contents"}
}

// Tree parses the headings of doc into a tree and returns its roots.
func Tree(doc string) []*Heading {
	roots, _ := buildTree(scanHeadings(doc))
	return roots
}

// Build inserts an anchor into every heading of doc and replaces each
// Placeholder with the table of contents. A document without headings
// has its placeholders removed.
func (b *Builder) Build(doc string) string {
	found := scanHeadings(doc)
	roots, ordered := buildTree(found)
	if len(ordered) == 0 {
		return strings.ReplaceAll(doc, Placeholder, "")
	}
	anchored := insertAnchors(doc, ordered)
	return strings.ReplaceAll(anchored, Placeholder, b.render(roots))
}

type scanned struct {
	level int
	title string
}

// scanHeadings returns every h1-h6 in document order, with its text.
func scanHeadings(doc string) []scanned {
	z := xhtml.NewTokenizer(strings.NewReader(doc))
	var (
		out     []scanned
		current *scanned
		text    strings.Builder
	)
	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			return out
		case xhtml.StartTagToken:
			name, _ := z.TagName()
			if level := headingLevel(name); level > 0 && current == nil {
				current = &scanned{level: level}
				text.Reset()
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			if level := headingLevel(name); level > 0 && current != nil && level == current.level {
				current.title = strings.Join(strings.Fields(text.String()), " ")
				out = append(out, *current)
				current = nil
			}
		case xhtml.TextToken:
			if current != nil {
				text.Write(z.Text())
			}
		}
	}
}

func headingLevel(name []byte) int {
	if len(name) != 2 || (name[0] != 'h' && name[0] != 'H') {
		return 0
	}
	if name[1] < '1' || name[1] > '6' {
		return 0
	}
	return int(name[1] - '0')
}

// buildTree links the headings into a tree. Level-1 headings are the
// roots; when the document has none, level-2 headings are.
func buildTree(found []scanned) (roots []*Heading, ordered []*Heading) {
	rootLevel := 2
	for _, h := range found {
		if h.level == 1 {
			rootLevel = 1
			break
		}
	}

	used := make(map[string]int)
	var prev *Heading
	for _, h := range found {
		if h.level < rootLevel {
			continue
		}
		node := &Heading{ID: uniqueID(used, h.title), Title: h.title, Level: h.level}
		switch {
		case prev == nil:
			roots = appendRoot(roots, node)
		case node.Level > prev.Level:
			prev.addChild(node)
		default:
			ancestor := prev.Parent
			for ancestor != nil && ancestor.Level >= node.Level {
				ancestor = ancestor.Parent
			}
			if ancestor == nil {
				roots = appendRoot(roots, node)
			} else {
				ancestor.addChild(node)
			}
		}
		ordered = append(ordered, node)
		prev = node
	}
	return roots, ordered
}

func appendRoot(roots []*Heading, node *Heading) []*Heading {
	roots = append(roots, node)
	node.position = len(roots)
	return roots
}

func uniqueID(used map[string]int, title string) string {
	base := markup.Slugify(title)
	id := base
	for {
		count := used[id]
		used[id] = count + 1
		if count == 0 {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, count)
	}
}

// insertAnchors copies doc verbatim, adding an anchor right after the
// start tag of each included heading.
func insertAnchors(doc string, ordered []*Heading) string {
	z := xhtml.NewTokenizer(strings.NewReader(doc))
	var buf bytes.Buffer
	buf.Grow(len(doc) + len(ordered)*32)
	next := 0
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			if z.Err() != io.EOF {
				buf.Write(z.Raw())
			}
			return buf.String()
		}
		buf.Write(z.Raw())
		if tt != xhtml.StartTagToken || next >= len(ordered) {
			continue
		}
		name, _ := z.TagName()
		if level := headingLevel(name); level > 0 && level == ordered[next].Level {
			fmt.Fprintf(&buf, `<a name="%s"></a>`, html.EscapeString(ordered[next].ID))
			next++
		}
	}
}

func (b *Builder) render(roots []*Heading) string {
	var sb strings.Builder
	sb.WriteString(`<div class="toc">`)
	sb.WriteString(`<div class="toc-title">`)
	sb.WriteString(html.EscapeString(b.Title))
	sb.WriteString(` <span class="toc-showhide">[<a href="#" class="toc-toggle" data-show="show" data-hide="hide">hide</a>]</span></div>`)
	sb.WriteString(`<div class="toc-list">`)
	renderList(&sb, roots)
	sb.WriteString(`</div></div>`)
	return sb.String()
}

func renderList(sb *strings.Builder, nodes []*Heading) {
	sb.WriteString("<ul>")
	for _, n := range nodes {
		fmt.Fprintf(sb, `<li><a href="#%s">%s %s</a>`, html.EscapeString(n.ID), n.Number(), html.EscapeString(n.Title))
		if len(n.Children) > 0 {
			renderList(sb, n.Children)
		}
		sb.WriteString("</li>")
	}
	sb.WriteString("</ul>")
}
