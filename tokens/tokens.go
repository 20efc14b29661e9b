// Package tokens substitutes custom regex tokens in rendered HTML.
package tokens

import (
	_ "embed"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/iedon/wikimarkup-go/fsutil"
)

//go:embed default_tokens.yaml
var defaultTokens []byte

// Token is one search pattern and the HTML that replaces its matches.
type Token struct {
	Name            string `yaml:"name"`
	Description     string `yaml:"description"`
	SearchPattern   string `yaml:"searchPattern"`
	HTMLReplacement string `yaml:"htmlReplacement"`
	SanitizeContent bool   `yaml:"sanitizeContent"`
	// Plugin limits the token to renders where the named plugin is enabled.
	Plugin string `yaml:"plugin"`

	pattern *regexp.Regexp
}

// Pattern returns the compiled search pattern.
func (t *Token) Pattern() *regexp.Regexp {
	return t.pattern
}

// PatternError reports a token that could not be compiled or applied.
type PatternError struct {
	Token string
	Err   error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("token %q: %v", e.Token, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

type document struct {
	Tokens []*Token `yaml:"tokens"`
}

// Compile prepares a token for use. Patterns match in single-line mode,
// so "." also matches newlines.
func Compile(tok *Token) error {
	if strings.TrimSpace(tok.SearchPattern) == "" {
		return &PatternError{Token: tok.Name, Err: fmt.Errorf("empty search pattern")}
	}
	re, err := regexp.Compile("(?s)" + tok.SearchPattern)
	if err != nil {
		return &PatternError{Token: tok.Name, Err: err}
	}
	tok.pattern = re
	return nil
}

// Parse decodes a YAML token list. Tokens whose pattern does not compile
// are dropped with a warning; the rest keep their declared order.
func Parse(data []byte, logger *slog.Logger) ([]*Token, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tokens: %w", err)
	}
	list := make([]*Token, 0, len(doc.Tokens))
	for _, tok := range doc.Tokens {
		if tok == nil {
			continue
		}
		if err := Compile(tok); err != nil {
			logger.Warn("token dropped", "token", tok.Name, "error", err)
			continue
		}
		list = append(list, tok)
	}
	return list, nil
}

// Load reads the token list at path, or the embedded default when path is empty.
func Load(path string, logger *slog.Logger) ([]*Token, error) {
	data, err := fsutil.ReadResource(path, defaultTokens)
	if err != nil {
		return nil, fmt.Errorf("tokens: %w", err)
	}
	return Parse(data, logger)
}

// Cache keeps compiled token lists for the lifetime of the process, keyed
// by resource path. Edits to a cached resource need a restart to apply.
type Cache struct {
	logger *slog.Logger

	mu      sync.Mutex
	entries sync.Map
}

// NewCache returns an empty token cache.
func NewCache(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{logger: logger}
}

// Load returns the cached list for path, reading it on first use.
// Failed loads are not cached.
func (c *Cache) Load(path string) ([]*Token, error) {
	key := strings.TrimSpace(path)
	if list, ok := c.entries.Load(key); ok {
		return list.([]*Token), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if list, ok := c.entries.Load(key); ok {
		return list.([]*Token), nil
	}
	list, err := Load(key, c.logger)
	if err != nil {
		return nil, err
	}
	c.entries.Store(key, list)
	return list, nil
}
