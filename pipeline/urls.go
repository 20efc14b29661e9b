package pipeline

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/iedon/wikimarkup-go/markup"
)

// URLBuilder produces the wiki's internal URLs.
type URLBuilder interface {
	PageURL(id int, title string) string
	NewPageURL(title string) string
	SpecialURL(name string) string
}

// DefaultURLs lays pages out under /wiki relative to BaseURL.
type DefaultURLs struct {
	BaseURL string
}

func (u DefaultURLs) base() string {
	return strings.TrimRight(u.BaseURL, "/")
}

func (u DefaultURLs) PageURL(id int, title string) string {
	return u.base() + "/wiki/" + strconv.Itoa(id) + "/" + markup.Slugify(title)
}

func (u DefaultURLs) NewPageURL(title string) string {
	return u.base() + "/pages/new?title=" + url.QueryEscape(title)
}

func (u DefaultURLs) SpecialURL(name string) string {
	return u.base() + "/wiki/Special:" + url.PathEscape(name)
}
