package site

import "errors"

// ErrMenuMissing signals that no page carries the configured menu title.
var ErrMenuMissing = errors.New("menu page missing")
