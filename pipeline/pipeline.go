// Package pipeline renders wiki markup into sanitized, cacheable HTML.
package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iedon/wikimarkup-go/markup"
	"github.com/iedon/wikimarkup-go/metrics"
	"github.com/iedon/wikimarkup-go/plugin"
	"github.com/iedon/wikimarkup-go/renderer"
	"github.com/iedon/wikimarkup-go/sanitize"
	"github.com/iedon/wikimarkup-go/tokens"
)

// DefaultAttachmentsPath is used when Settings.AttachmentsPath is empty.
const DefaultAttachmentsPath = "/attachments"

// Settings select the dialect and the resources of a pipeline.
type Settings struct {
	Dialect                  string
	AttachmentsPath          string
	UseHTMLWhitelist         bool
	WhitelistPath            string
	TokensPath               string
	CacheTokens              bool
	ExternalLinksInNewWindow bool
}

// Options are the collaborators of a pipeline. Only Settings is required.
type Options struct {
	Settings Settings
	Pages    PageLookup
	Plugins  plugin.Registry
	URLs     URLBuilder
	// Whitelists overrides the whitelist cache built from Settings.WhitelistPath.
	Whitelists *sanitize.WhitelistCache
	// Tokens is the cache consulted when CacheTokens is set. Share one
	// cache between pipelines to load each token file once; when nil the
	// pipeline loads into a cache of its own.
	Tokens *tokens.Cache
	// Parser overrides the dialect named in Settings.
	Parser  markup.Parser
	Logger  *slog.Logger
	Metrics metrics.Recorder
}

// Pipeline renders markup of one dialect. It is safe for concurrent use.
type Pipeline struct {
	settings  Settings
	dialect   string
	parser    markup.Parser
	sanitizer *sanitize.Sanitizer
	tokens    []*tokens.Token
	runner    *plugin.Runner
	rewriter  *rewriter
	logger    *slog.Logger
	metrics   metrics.Recorder
}

// New builds a pipeline. An unknown dialect or an unreadable resource
// returns a *ConfigError.
func New(opts Options) (*Pipeline, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := opts.Metrics
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	settings := opts.Settings
	if strings.TrimSpace(settings.AttachmentsPath) == "" {
		settings.AttachmentsPath = DefaultAttachmentsPath
	}

	p := &Pipeline{settings: settings, logger: logger, metrics: recorder}

	p.parser = opts.Parser
	if p.parser == nil {
		parser, ok := renderer.Lookup(settings.Dialect)
		if !ok {
			return nil, &ConfigError{Setting: "dialect", Err: fmt.Errorf("%w %q", ErrUnknownDialect, settings.Dialect)}
		}
		p.parser = parser
	}
	p.dialect = p.parser.Syntax().Dialect
	if p.dialect == "" {
		p.dialect = strings.ToLower(strings.TrimSpace(settings.Dialect))
	}

	if settings.UseHTMLWhitelist {
		cache := opts.Whitelists
		if cache == nil {
			cache = sanitize.NewWhitelistCache(settings.WhitelistPath, logger)
		}
		if _, err := cache.Get(); err != nil {
			return nil, &ConfigError{Setting: "whitelistPath", Err: err}
		}
		p.sanitizer = sanitize.New(cache, sanitize.WithExemption(missingPageMarker), sanitize.WithLogger(logger))
	}

	list, err := loadTokens(opts, logger)
	if err != nil {
		return nil, &ConfigError{Setting: "tokensPath", Err: err}
	}
	p.tokens = list

	p.runner = plugin.NewRunner(opts.Plugins, logger, func(e *plugin.Error) {
		recorder.IncPluginFailure(e.Plugin, e.Hook)
	})

	urls := opts.URLs
	if urls == nil {
		urls = DefaultURLs{}
	}
	p.rewriter = &rewriter{
		pages:          opts.Pages,
		urls:           urls,
		attachments:    settings.AttachmentsPath,
		newWindow:      settings.ExternalLinksInNewWindow,
		spacesAsDashes: p.parser.SpacesAsDashes(),
		logger:         logger,
	}
	return p, nil
}

func loadTokens(opts Options, logger *slog.Logger) ([]*tokens.Token, error) {
	path := opts.Settings.TokensPath
	if !opts.Settings.CacheTokens {
		return tokens.Load(path, logger)
	}
	cache := opts.Tokens
	if cache == nil {
		cache = tokens.NewCache(logger)
	}
	return cache.Load(path)
}

// missingPageMarker keeps the class that flags links to pages not yet written.
func missingPageMarker(element, attr, value string) bool {
	return element == "a" && attr == "class" && strings.Contains(value, MissingPageLinkClass)
}

// Dialect returns the name of the dialect in use.
func (p *Pipeline) Dialect() string {
	return p.dialect
}

// Syntax returns the dialect's markup tokens for help screens.
func (p *Pipeline) Syntax() markup.Syntax {
	return p.parser.Syntax()
}

// Settings returns the effective settings.
func (p *Pipeline) Settings() Settings {
	return p.settings
}

// Tokens returns the token list applied by every render.
func (p *Pipeline) Tokens() []*tokens.Token {
	return append([]*tokens.Token(nil), p.tokens...)
}

// Render turns markup into a page. Only a dialect failure returns an
// error; plugin and token failures degrade the output instead.
func (p *Pipeline) Render(text string) (*RenderedPage, error) {
	start := time.Now()
	run := p.runner.Begin()

	text = run.BeforeParse(text)

	html, err := p.parser.Transform(text, p.rewriter.hooks())
	if err != nil {
		p.metrics.IncRenderOutcome(metrics.OutcomeParseError)
		return nil, &ParseError{Dialect: p.dialect, Err: err}
	}

	if p.sanitizer != nil {
		html = p.sanitizer.Sanitize(html)
	}

	html = p.replacer(run).Apply(html)
	html = run.AfterParse(html)

	page := NewRenderedPage(html)
	page.cacheable = run.Cacheable()
	page.head = run.HeadHTML()
	page.footer = run.FooterHTML()
	page.pre = run.PreContainerHTML()
	page.post = run.PostContainerHTML()

	p.metrics.ObserveRenderDuration(p.dialect, time.Since(start))
	if page.cacheable {
		p.metrics.IncRenderOutcome(metrics.OutcomeSuccess)
	} else {
		p.metrics.IncRenderOutcome(metrics.OutcomeNotCacheable)
	}
	return page, nil
}

func (p *Pipeline) replacer(run *plugin.Run) *tokens.Replacer {
	opts := []tokens.Option{
		tokens.WithPluginFilter(run.IsEnabled),
		tokens.WithFailureHook(p.metrics.IncTokenFailure),
		tokens.WithLogger(p.logger),
	}
	if p.sanitizer != nil {
		opts = append(opts, tokens.WithSanitizer(p.sanitizer))
	}
	return tokens.NewReplacer(p.tokens, opts...)
}
