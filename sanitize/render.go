package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

var voidElements = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {}, "hr": {}, "img": {},
	"input": {}, "keygen": {}, "link": {}, "meta": {}, "param": {}, "source": {},
	"track": {}, "wbr": {},
}

var rawTextElements = map[string]struct{}{
	"iframe": {}, "noembed": {}, "noframes": {}, "noscript": {}, "plaintext": {},
	"script": {}, "style": {}, "xmp": {},
}

// render serializes a filtered tree. Attribute values were already encoded
// by CleanAttributeValue and are written verbatim.
func render(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if n.Parent != nil {
			if _, raw := rawTextElements[n.Parent.Data]; raw {
				sb.WriteString(n.Data)
				return
			}
		}
		sb.WriteString(html.EscapeString(n.Data))
	case html.ElementNode:
		sb.WriteByte('<')
		sb.WriteString(n.Data)
		for _, attr := range n.Attr {
			sb.WriteByte(' ')
			sb.WriteString(attr.Key)
			sb.WriteString(`="`)
			sb.WriteString(attr.Val)
			sb.WriteByte('"')
		}
		sb.WriteByte('>')
		if _, void := voidElements[n.Data]; void {
			return
		}
		// The parser drops one newline after these start tags.
		if c := n.FirstChild; c != nil && c.Type == html.TextNode && strings.HasPrefix(c.Data, "\n") {
			switch n.Data {
			case "pre", "listing", "textarea":
				sb.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			render(sb, c)
		}
		sb.WriteString("</")
		sb.WriteString(n.Data)
		sb.WriteByte('>')
	}
}
