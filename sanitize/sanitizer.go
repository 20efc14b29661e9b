// Package sanitize filters untrusted HTML down to a whitelist of elements and attributes.
package sanitize

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Source supplies the whitelist for a sanitize call.
type Source interface {
	Get() (*Whitelist, error)
}

// ExemptFunc reports whether an attribute that the element does not
// allow should be kept anyway.
type ExemptFunc func(element, attr, value string) bool

// Sanitizer removes non-whitelisted markup from HTML fragments.
type Sanitizer struct {
	source Source
	exempt ExemptFunc
	logger *slog.Logger
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithExemption installs the single attribute exemption hook.
func WithExemption(fn ExemptFunc) Option {
	return func(s *Sanitizer) {
		s.exempt = fn
	}
}

// WithLogger sets the logger used to report whitelist failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sanitizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a sanitizer reading its whitelist from source.
func New(source Source, opts ...Option) *Sanitizer {
	s := &Sanitizer{source: source, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	scriptPatterns  = []*regexp.Regexp{looseWord("javascript"), looseWord("script")}
	stylePatterns   = []*regexp.Regexp{looseWord("expression"), looseWord("behavior")}
	urlPatterns     = []*regexp.Regexp{looseWord("mocha")}
	fragmentContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
)

// looseWord matches word case-insensitively with any run of whitespace
// or control characters between its letters.
func looseWord(word string) *regexp.Regexp {
	parts := make([]string, 0, len(word))
	for _, r := range word {
		parts = append(parts, regexp.QuoteMeta(string(r)))
	}
	return regexp.MustCompile(`(?i)` + strings.Join(parts, `[\s\x00-\x20]*`))
}

// Sanitize returns fragment with every element outside the whitelist
// removed and every surviving attribute filtered and encoded. When no
// whitelist can be loaded the whole fragment is escaped as text.
func (s *Sanitizer) Sanitize(fragment string) string {
	wl, err := s.source.Get()
	if err != nil {
		s.logger.Error("sanitize", "error", err)
		return html.EscapeString(fragment)
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), fragmentContext)
	if err != nil {
		s.logger.Warn("sanitize", "error", err)
		return html.EscapeString(fragment)
	}

	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	removeDisallowed(root, wl)
	s.filterAttributes(root, wl)

	var sb strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		render(&sb, c)
	}
	return sb.String()
}

// removeDisallowed drops non-whitelisted elements, comments and doctypes
// depth-first. Children are visited last to first so removal never skips
// a sibling.
func removeDisallowed(parent *html.Node, wl *Whitelist) {
	for c := parent.LastChild; c != nil; {
		prev := c.PrevSibling
		switch c.Type {
		case html.ElementNode:
			if !wl.AllowsElement(c.Data) {
				parent.RemoveChild(c)
			} else {
				removeDisallowed(c, wl)
			}
		case html.CommentNode, html.DoctypeNode:
			parent.RemoveChild(c)
		}
		c = prev
	}
}

func (s *Sanitizer) filterAttributes(n *html.Node, wl *Whitelist) {
	if n.Type == html.ElementNode && n.Parent != nil {
		kept := n.Attr[:0]
		for _, attr := range n.Attr {
			if attr.Namespace != "" {
				continue
			}
			key := strings.ToLower(attr.Key)
			if !wl.AllowsAttribute(n.Data, key) && (s.exempt == nil || !s.exempt(n.Data, key, attr.Val)) {
				continue
			}
			value, ok := wl.FilterValue(key, attr.Val)
			if !ok {
				continue
			}
			kept = append(kept, html.Attribute{Key: key, Val: CleanAttributeValue(key, value)})
		}
		n.Attr = kept
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.filterAttributes(c, wl)
	}
}

// CleanAttributeValue strips script vectors from an attribute value and
// encodes everything outside [0-9A-Za-z] as a numeric character reference.
// The input is the decoded attribute value.
func CleanAttributeValue(attr, value string) string {
	patterns := scriptPatterns
	switch strings.ToLower(attr) {
	case "style":
		patterns = append(append([]*regexp.Regexp{}, scriptPatterns...), stylePatterns...)
	case "href", "src":
		patterns = append(append([]*regexp.Regexp{}, scriptPatterns...), urlPatterns...)
	}
	// Removing one word can join the text around it into another.
	for {
		before := value
		for _, re := range patterns {
			value = re.ReplaceAllString(value, "")
		}
		if value == before {
			break
		}
	}
	return encodeValue(value)
}

func encodeValue(value string) string {
	var sb strings.Builder
	sb.Grow(len(value))
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			sb.WriteRune(r)
		case isControl(r):
			sb.WriteString("&#xFFFD;")
		default:
			fmt.Fprintf(&sb, "&#x%02X;", r)
		}
	}
	return sb.String()
}

func isControl(r rune) bool {
	if r <= 0x1F {
		return r != '\t' && r != '\n' && r != '\r'
	}
	return r >= 0x7F && r <= 0x9F
}
