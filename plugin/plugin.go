// Package plugin runs text plugins around the markup parser.
package plugin

import (
	"fmt"
	"strings"
	"sync"
)

// Plugin hooks into a render before and after the markup is parsed.
//
// IsCacheable is read after each hook call; a plugin that changes the
// text and reports false makes the whole render non-cacheable.
type Plugin interface {
	ID() string
	BeforeParse(markup string) (string, error)
	AfterParse(html string) (string, error)
	HeadContent() string
	FooterContent() string
	PreContainerHTML() string
	PostContainerHTML() string
	IsCacheable() bool
}

// Base provides no-op hooks for plugins to embed.
type Base struct{}

func (Base) BeforeParse(markup string) (string, error) { return markup, nil }
func (Base) AfterParse(html string) (string, error)    { return html, nil }
func (Base) HeadContent() string                       { return "" }
func (Base) FooterContent() string                     { return "" }
func (Base) PreContainerHTML() string                  { return "" }
func (Base) PostContainerHTML() string                 { return "" }
func (Base) IsCacheable() bool                         { return true }

// Registry supplies the plugins enabled for a render, in run order.
type Registry interface {
	EnabledPlugins() []Plugin
}

// List is an ordered, concurrency-safe plugin registry. Plugins run in
// registration order; only enabled ones are returned.
type List struct {
	mu      sync.RWMutex
	plugins []Plugin
	enabled map[string]bool
}

// NewList registers the provided plugins, all disabled.
func NewList(plugins ...Plugin) (*List, error) {
	l := &List{enabled: make(map[string]bool)}
	for _, p := range plugins {
		if err := l.Register(p); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Register appends a plugin. Ids must be unique and non-empty.
func (l *List) Register(p Plugin) error {
	if p == nil {
		return fmt.Errorf("cannot register nil plugin")
	}
	id := strings.TrimSpace(p.ID())
	if id == "" {
		return fmt.Errorf("plugin id required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.plugins {
		if existing.ID() == id {
			return fmt.Errorf("plugin %s already registered", id)
		}
	}
	l.plugins = append(l.plugins, p)
	return nil
}

// Enable turns on the named plugins. Unknown ids are an error.
func (l *List) Enable(ids ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		found := false
		for _, p := range l.plugins {
			if p.ID() == id {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("plugin %s not found", id)
		}
		l.enabled[id] = true
	}
	return nil
}

// Disable turns off the named plugins.
func (l *List) Disable(ids ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		delete(l.enabled, id)
	}
}

// IsEnabled reports whether the plugin id is enabled.
func (l *List) IsEnabled(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabled[id]
}

// EnabledPlugins returns the enabled plugins in registration order.
func (l *List) EnabledPlugins() []Plugin {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Plugin, 0, len(l.plugins))
	for _, p := range l.plugins {
		if l.enabled[p.ID()] {
			out = append(out, p)
		}
	}
	return out
}

// Error records a plugin hook that failed.
type Error struct {
	Plugin string
	Hook   string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("plugin %s %s: %v", e.Plugin, e.Hook, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
