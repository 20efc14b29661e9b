package tokens

import (
	"fmt"
	"log/slog"
	"strings"
)

// Sanitizer cleans the HTML a SanitizeContent token produces.
type Sanitizer interface {
	Sanitize(fragment string) string
}

// Replacer applies an ordered token list to HTML.
type Replacer struct {
	tokens    []*Token
	sanitizer Sanitizer
	active    func(plugin string) bool
	failed    func(token string)
	logger    *slog.Logger
}

// Option configures a Replacer.
type Option func(*Replacer)

// WithSanitizer sanitizes each replacement of SanitizeContent tokens.
func WithSanitizer(s Sanitizer) Option {
	return func(r *Replacer) {
		r.sanitizer = s
	}
}

// WithPluginFilter reports whether the plugin a token names is enabled.
func WithPluginFilter(fn func(plugin string) bool) Option {
	return func(r *Replacer) {
		r.active = fn
	}
}

// WithFailureHook is called with the token name whenever a token is skipped.
func WithFailureHook(fn func(token string)) Option {
	return func(r *Replacer) {
		r.failed = fn
	}
}

// WithLogger sets the logger for skipped tokens.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Replacer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReplacer returns a replacer for compiled tokens. Uncompiled tokens are ignored.
func NewReplacer(list []*Token, opts ...Option) *Replacer {
	r := &Replacer{logger: slog.Default()}
	for _, tok := range list {
		if tok != nil && tok.pattern != nil {
			r.tokens = append(r.tokens, tok)
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tokens returns the tokens in application order.
func (r *Replacer) Tokens() []*Token {
	return append([]*Token(nil), r.tokens...)
}

// Apply runs every token in declared order; each token sees the output
// of the ones before it. A token that fails is skipped.
func (r *Replacer) Apply(html string) string {
	for _, tok := range r.tokens {
		if tok.Plugin != "" && (r.active == nil || !r.active(tok.Plugin)) {
			continue
		}
		out, err := r.applyToken(tok, html)
		if err != nil {
			r.logger.Warn("token skipped", "token", tok.Name, "error", &PatternError{Token: tok.Name, Err: err})
			if r.failed != nil {
				r.failed(tok.Name)
			}
			continue
		}
		html = out
	}
	return html
}

func (r *Replacer) applyToken(tok *Token, src string) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	if !tok.SanitizeContent || r.sanitizer == nil {
		return tok.pattern.ReplaceAllString(src, tok.HTMLReplacement), nil
	}

	matches := tok.pattern.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return src, nil
	}
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(src[last:m[0]])
		expanded := tok.pattern.ExpandString(nil, tok.HTMLReplacement, src, m)
		sb.WriteString(r.sanitizer.Sanitize(string(expanded)))
		last = m[1]
	}
	sb.WriteString(src[last:])
	return sb.String(), nil
}
