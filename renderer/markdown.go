package renderer

import (
	"bytes"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlRenderer "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/iedon/wikimarkup-go/markup"
)

// ClassPrefix is prepended to the chroma classes of highlighted code.
const ClassPrefix = "z-"

var hooksKey = parser.NewContextKey()

// Markdown is a goldmark-backed dialect.
type Markdown struct {
	name           string
	md             goldmark.Markdown
	spacesAsDashes bool
}

// NewMarkdown constructs the GitHub-flavored dialect with syntax highlighting.
// Link targets written with dashes for spaces resolve to their titled page.
func NewMarkdown() *Markdown {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.DefinitionList,
			extension.Footnote,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
					chromahtml.WithAllClasses(true),
					chromahtml.ClassPrefix(ClassPrefix),
					chromahtml.PreventSurroundingPre(true),
				),
				highlighting.WithWrapperRenderer(codeWrapper),
			),
			meta.Meta,
		),
		goldmark.WithParserOptions(
			parser.WithAttribute(),
			parser.WithASTTransformers(util.Prioritized(linkTransformer{}, 100)),
		),
		goldmark.WithRendererOptions(
			htmlRenderer.WithUnsafe(),
		),
	)
	return &Markdown{name: "markdown", md: md, spacesAsDashes: true}
}

// NewCommonMark constructs a plain CommonMark dialect without extensions.
func NewCommonMark() *Markdown {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(linkTransformer{}, 100)),
		),
		goldmark.WithRendererOptions(
			htmlRenderer.WithUnsafe(),
		),
	)
	return &Markdown{name: "commonmark", md: md}
}

// Name returns the dialect name used in configuration.
func (m *Markdown) Name() string {
	return m.name
}

// SpacesAsDashes implements markup.Parser.
func (m *Markdown) SpacesAsDashes() bool {
	return m.spacesAsDashes
}

// Syntax implements markup.Parser.
func (m *Markdown) Syntax() markup.Syntax {
	return markup.Syntax{
		Dialect:       m.name,
		Bold:          "**text**",
		Italic:        "*text*",
		Link:          "[text](Page-Title)",
		Image:         "![alt](File:image.png)",
		Heading:       "# Heading",
		BulletedList:  "- item",
		NumberedList:  "1. item",
		CodeBlock:     "```lang",
		HorizontalRow: "---",
	}
}

// Transform converts the markdown into HTML, firing the hooks for every
// link and image before the document is rendered.
func (m *Markdown) Transform(src string, hooks markup.Hooks) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s: %v", m.name, rec)
		}
	}()

	source := []byte(src)
	pc := parser.NewContext()
	pc.Set(hooksKey, hooks)
	doc := m.md.Parser().Parse(text.NewReader(source), parser.WithContext(pc))

	var buf bytes.Buffer
	if err := m.md.Renderer().Render(&buf, source, doc); err != nil {
		return "", fmt.Errorf("render %s: %w", m.name, err)
	}
	return buf.String(), nil
}

// Meta returns the front matter of the document, if any.
func (m *Markdown) Meta(src string) (map[string]interface{}, error) {
	pc := parser.NewContext()
	m.md.Parser().Parse(text.NewReader([]byte(src)), parser.WithContext(pc))
	return meta.TryGet(pc)
}

// linkTransformer hands links and images to the render hooks and writes
// the rewritten values back into the tree.
type linkTransformer struct{}

func (linkTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	hooks, ok := pc.Get(hooksKey).(markup.Hooks)
	if !ok || (hooks.Link == nil && hooks.Image == nil) {
		return
	}
	source := reader.Source()

	var nodes []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Link, *ast.Image:
			nodes = append(nodes, n)
		case *ast.AutoLink:
			if n.(*ast.AutoLink).AutoLinkType == ast.AutoLinkURL {
				nodes = append(nodes, n)
			}
		}
		return ast.WalkContinue, nil
	})

	for _, n := range nodes {
		switch node := n.(type) {
		case *ast.Link:
			label := extractText(node, source)
			ev := markup.NewLinkEvent(string(node.Destination), label)
			hooks.FireLink(ev)
			node.Destination = []byte(ev.Href)
			if ev.CSSClass != "" {
				node.SetAttributeString("class", []byte(ev.CSSClass))
			}
			if ev.Target != "" {
				node.SetAttributeString("target", []byte(ev.Target))
			}
			if ev.Text != label {
				node.RemoveChildren(node)
				node.AppendChild(node, ast.NewString([]byte(ev.Text)))
			}
		case *ast.AutoLink:
			// Rewritten autolinks become plain links so class and
			// target render like any other link.
			label := string(node.Label(source))
			ev := markup.NewLinkEvent(string(node.URL(source)), label)
			hooks.FireLink(ev)
			link := ast.NewLink()
			link.Destination = []byte(ev.Href)
			if ev.CSSClass != "" {
				link.SetAttributeString("class", []byte(ev.CSSClass))
			}
			if ev.Target != "" {
				link.SetAttributeString("target", []byte(ev.Target))
			}
			link.AppendChild(link, ast.NewString([]byte(ev.Text)))
			node.Parent().ReplaceChild(node.Parent(), node, link)
		case *ast.Image:
			ev := markup.NewImageEvent(string(node.Destination), extractText(node, source))
			hooks.FireImage(ev)
			node.Destination = []byte(ev.Src)
		}
	}
}

func extractText(root ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if n == root || !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(source))
		case *ast.String:
			sb.Write(node.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func codeWrapper(w util.BufWriter, ctx highlighting.CodeBlockContext, entering bool) {
	lang := "text"
	if raw, ok := ctx.Language(); ok && len(raw) > 0 {
		lang = string(raw)
	}
	lang = string(util.EscapeHTML([]byte(lang)))
	if entering {
		_, _ = fmt.Fprintf(w, `<pre tabindex="0" class="z-chroma z-code language-%[1]s" data-lang="%[1]s"><code class="language-%[1]s" data-lang="%[1]s">`, lang)
		return
	}
	_, _ = w.WriteString("</code></pre>\n")
}
