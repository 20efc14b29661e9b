package sanitize

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/iedon/wikimarkup-go/fsutil"
)

//go:embed default_whitelist.yaml
var defaultWhitelist []byte

// Whitelist lists the elements, attributes and attribute values a
// sanitized document may contain. Names are matched case-insensitively.
type Whitelist struct {
	Elements        map[string][]string `yaml:"elements"`
	AttributeValues map[string][]string `yaml:"attributeValues"`

	elements map[string]map[string]struct{}
	values   map[string]map[string]struct{}
}

// ParseWhitelist decodes a YAML whitelist resource.
func ParseWhitelist(data []byte) (*Whitelist, error) {
	wl := &Whitelist{}
	if err := yaml.Unmarshal(data, wl); err != nil {
		return nil, fmt.Errorf("parse whitelist: %w", err)
	}
	if len(wl.Elements) == 0 {
		return nil, fmt.Errorf("parse whitelist: no elements defined")
	}
	wl.compile()
	return wl, nil
}

// LoadWhitelist reads the whitelist at path, or the embedded default when path is empty.
func LoadWhitelist(path string) (*Whitelist, error) {
	data, err := fsutil.ReadResource(path, defaultWhitelist)
	if err != nil {
		return nil, fmt.Errorf("whitelist: %w", err)
	}
	return ParseWhitelist(data)
}

// DefaultWhitelist returns the embedded whitelist.
func DefaultWhitelist() *Whitelist {
	wl, err := ParseWhitelist(defaultWhitelist)
	if err != nil {
		panic(err)
	}
	return wl
}

func (w *Whitelist) compile() {
	w.elements = make(map[string]map[string]struct{}, len(w.Elements))
	for element, attrs := range w.Elements {
		set := make(map[string]struct{}, len(attrs))
		for _, attr := range attrs {
			set[strings.ToLower(strings.TrimSpace(attr))] = struct{}{}
		}
		w.elements[strings.ToLower(strings.TrimSpace(element))] = set
	}
	w.values = make(map[string]map[string]struct{}, len(w.AttributeValues))
	for attr, tokens := range w.AttributeValues {
		set := make(map[string]struct{}, len(tokens))
		for _, token := range tokens {
			set[strings.ToLower(strings.TrimSpace(token))] = struct{}{}
		}
		w.values[strings.ToLower(strings.TrimSpace(attr))] = set
	}
}

// AllowsElement reports whether the element may appear in output.
func (w *Whitelist) AllowsElement(element string) bool {
	_, ok := w.elements[strings.ToLower(element)]
	return ok
}

// AllowsAttribute reports whether element may carry attr.
func (w *Whitelist) AllowsAttribute(element, attr string) bool {
	attrs, ok := w.elements[strings.ToLower(element)]
	if !ok {
		return false
	}
	_, ok = attrs[strings.ToLower(attr)]
	return ok
}

// FilterValue keeps only the allowed value tokens of a restricted
// attribute. It reports false when nothing allowed remains.
// Unrestricted attributes pass through unchanged.
func (w *Whitelist) FilterValue(attr, value string) (string, bool) {
	allowed, ok := w.values[strings.ToLower(attr)]
	if !ok {
		return value, true
	}
	kept := make([]string, 0, 2)
	for _, token := range strings.Fields(value) {
		if _, ok := allowed[strings.ToLower(token)]; ok {
			kept = append(kept, token)
		}
	}
	if len(kept) == 0 {
		return "", false
	}
	return strings.Join(kept, " "), true
}

// WhitelistCache loads a whitelist once and shares it between renders
// until Invalidate is called.
type WhitelistCache struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	current atomic.Pointer[Whitelist]
	stale   atomic.Bool
}

// NewWhitelistCache returns a cache for the whitelist resource at path.
// An empty path selects the embedded default.
func NewWhitelistCache(path string, logger *slog.Logger) *WhitelistCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &WhitelistCache{path: strings.TrimSpace(path), logger: logger}
}

// Path reports the resource path backing the cache.
func (c *WhitelistCache) Path() string {
	return c.path
}

// Get returns the cached whitelist, loading it on first use or after an
// invalidation. A failed reload keeps serving the previous whitelist.
func (c *WhitelistCache) Get() (*Whitelist, error) {
	if wl := c.current.Load(); wl != nil && !c.stale.Load() {
		return wl, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.current.Load()
	if prev != nil && !c.stale.Load() {
		return prev, nil
	}

	c.stale.Store(false)
	wl, err := LoadWhitelist(c.path)
	if err != nil {
		if prev != nil {
			c.logger.Warn("whitelist reload", "path", c.path, "error", err)
			return prev, nil
		}
		return nil, err
	}
	c.current.Store(wl)
	return wl, nil
}

// Invalidate forces the next Get to re-read the resource.
func (c *WhitelistCache) Invalidate() {
	c.stale.Store(true)
}
