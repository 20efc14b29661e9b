package main

import (
	"context"
	"errors"

	"github.com/iedon/wikimarkup-go/markup"
	"github.com/iedon/wikimarkup-go/pagestore"
)

// noPages is the page store used by --render: it holds nothing and
// refuses writes.
type noPages struct{}

func (noPages) PageByTitle(string) (markup.PageRef, bool, error) {
	return markup.PageRef{}, false, nil
}

func (noPages) Get(context.Context, int) (pagestore.Page, error) {
	return pagestore.Page{}, pagestore.ErrNotFound
}

func (noPages) ByTitle(context.Context, string) (pagestore.Page, error) {
	return pagestore.Page{}, pagestore.ErrNotFound
}

func (noPages) Create(context.Context, string, string) (pagestore.Page, error) {
	return pagestore.Page{}, errors.New("page store is read-only in render mode")
}
