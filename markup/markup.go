// Package markup holds the data shared between dialect parsers and the render pipeline.
package markup

// Parser transforms wiki markup of one dialect into HTML.
//
// Transform must invoke the hooks synchronously, once per link or image it
// emits, before it returns. The hooks may rewrite the event in place.
type Parser interface {
	Transform(text string, hooks Hooks) (string, error)
	// SpacesAsDashes reports whether the dialect encodes spaces in link
	// targets as dashes.
	SpacesAsDashes() bool
	Syntax() Syntax
}

// Hooks are the per-call callbacks a parser fires while transforming.
// Nil hooks are skipped.
type Hooks struct {
	Link  func(*LinkEvent)
	Image func(*ImageEvent)
}

// FireLink invokes the link hook when one is set.
func (h Hooks) FireLink(ev *LinkEvent) {
	if h.Link != nil {
		h.Link(ev)
	}
}

// FireImage invokes the image hook when one is set.
func (h Hooks) FireImage(ev *ImageEvent) {
	if h.Image != nil {
		h.Image(ev)
	}
}

// LinkEvent describes one link occurrence found during parsing.
type LinkEvent struct {
	OriginalHref   string
	Href           string
	Text           string
	Target         string
	CSSClass       string
	IsInternalLink bool
}

// NewLinkEvent returns an event whose rewritten href starts as the original.
func NewLinkEvent(href, text string) *LinkEvent {
	return &LinkEvent{OriginalHref: href, Href: href, Text: text, IsInternalLink: true}
}

// AddClass appends a CSS class, keeping classes space separated.
func (e *LinkEvent) AddClass(class string) {
	if e.CSSClass == "" {
		e.CSSClass = class
		return
	}
	e.CSSClass += " " + class
}

// ImageEvent describes one image occurrence found during parsing.
type ImageEvent struct {
	OriginalSrc string
	Src         string
	Text        string
}

// NewImageEvent returns an event whose rewritten src starts as the original.
func NewImageEvent(src, alt string) *ImageEvent {
	return &ImageEvent{OriginalSrc: src, Src: src, Text: alt}
}

// PageRef identifies an existing wiki page.
type PageRef struct {
	ID    int
	Title string
}

// Syntax lists a dialect's markup tokens for help screens.
type Syntax struct {
	Dialect       string
	Bold          string
	Italic        string
	Underline     string
	Link          string
	Image         string
	Heading       string
	BulletedList  string
	NumberedList  string
	CodeBlock     string
	HorizontalRow string
}
