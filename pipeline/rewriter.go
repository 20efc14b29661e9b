package pipeline

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/iedon/wikimarkup-go/markup"
)

// CSS classes added to rewritten links.
const (
	ExternalLinkClass    = "external-link"
	MissingPageLinkClass = "missing-page-link"
)

// PageLookup resolves page titles to existing pages.
type PageLookup interface {
	PageByTitle(title string) (markup.PageRef, bool, error)
}

var (
	externalPrefixes = []string{"http://", "https://", "www.", "mailto:", "#", "tag:"}
	hrefAnchor       = regexp.MustCompile(`^(.*?)((?:#|%23).*)$`)
)

// rewriter resolves link and image targets while a dialect transforms markup.
// It holds no per-render state.
type rewriter struct {
	pages          PageLookup
	urls           URLBuilder
	attachments    string
	newWindow      bool
	spacesAsDashes bool
	logger         *slog.Logger
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func isExternal(href string) bool {
	for _, prefix := range externalPrefixes {
		if hasPrefixFold(href, prefix) {
			return true
		}
	}
	return false
}

func (r *rewriter) hooks() markup.Hooks {
	return markup.Hooks{Link: r.link, Image: r.image}
}

func (r *rewriter) link(ev *markup.LinkEvent) {
	href := strings.TrimSpace(ev.OriginalHref)

	if isExternal(href) {
		ev.IsInternalLink = false
		if strings.HasPrefix(href, "#") {
			return
		}
		ev.AddClass(ExternalLinkClass)
		if hasPrefixFold(href, "www.") {
			ev.Href = "http://" + href
		}
		if r.newWindow {
			ev.Target = "_blank"
		}
		return
	}

	switch {
	case hasPrefixFold(href, "attachment:"):
		ev.Href = r.attachmentURL(href[len("attachment:"):])
	case strings.HasPrefix(href, "~/"):
		ev.Href = r.attachmentURL(href[len("~/"):])
	case hasPrefixFold(href, "special:"):
		ev.Href = r.urls.SpecialURL(href[len("special:"):])
	default:
		r.pageLink(ev, href)
	}
}

func (r *rewriter) pageLink(ev *markup.LinkEvent, href string) {
	title, anchor := href, ""
	if m := hrefAnchor.FindStringSubmatch(href); m != nil {
		title, anchor = m[1], m[2]
		if strings.HasPrefix(anchor, "%23") {
			anchor = "#" + anchor[len("%23"):]
		}
	}
	if decoded, err := url.PathUnescape(title); err == nil {
		title = decoded
	}
	title = strings.TrimSpace(title)
	if title == "" {
		ev.Href = anchor
		return
	}

	candidates := []string{title}
	if r.spacesAsDashes && strings.Contains(title, "-") {
		candidates = []string{strings.ReplaceAll(title, "-", " "), title}
	}

	for _, candidate := range candidates {
		ref, found := r.lookup(candidate)
		if !found {
			continue
		}
		ev.Href = r.urls.PageURL(ref.ID, ref.Title) + anchor
		if ev.Text == "" {
			ev.Text = ref.Title
		}
		return
	}

	missing := candidates[0]
	ev.Href = r.urls.NewPageURL(missing)
	ev.AddClass(MissingPageLinkClass)
	if ev.Text == "" {
		ev.Text = missing
	}
}

func (r *rewriter) lookup(title string) (markup.PageRef, bool) {
	if r.pages == nil {
		return markup.PageRef{}, false
	}
	ref, found, err := r.pages.PageByTitle(title)
	if err != nil {
		r.logger.Warn("page lookup failed", "title", title, "error", err)
		return markup.PageRef{}, false
	}
	return ref, found
}

func (r *rewriter) image(ev *markup.ImageEvent) {
	src := strings.TrimSpace(ev.OriginalSrc)
	if isExternal(src) {
		return
	}
	if hasPrefixFold(src, "file:") {
		src = src[len("file:"):]
	}
	ev.Src = r.attachmentURL(src)
}

func (r *rewriter) attachmentURL(name string) string {
	return strings.TrimRight(r.attachments, "/") + "/" + strings.TrimLeft(name, "/")
}
