package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/iedon/wikimarkup-go/config"
	"github.com/iedon/wikimarkup-go/markup"
	"github.com/iedon/wikimarkup-go/metrics"
	"github.com/iedon/wikimarkup-go/pagestore"
	"github.com/iedon/wikimarkup-go/pipeline"
	"github.com/iedon/wikimarkup-go/plugin"
	"github.com/iedon/wikimarkup-go/plugins"
	"github.com/iedon/wikimarkup-go/sanitize"
	"github.com/iedon/wikimarkup-go/tokens"
	"github.com/iedon/wikimarkup-go/toc"
)

// Store is the page storage the service renders from.
type Store interface {
	pipeline.PageLookup
	Get(ctx context.Context, id int) (pagestore.Page, error)
	ByTitle(ctx context.Context, title string) (pagestore.Page, error)
	Create(ctx context.Context, title, content string) (pagestore.Page, error)
}

// RenderedDocument pairs a stored page with its rendering.
type RenderedDocument struct {
	Page     pagestore.Page         `json:"page"`
	Rendered *pipeline.RenderedPage `json:"rendered"`
	Cached   bool                   `json:"cached"`
}

// Service wires configuration, storage and the render pipeline together.
type Service struct {
	cfg     *config.Config
	store   Store
	logger  *slog.Logger
	metrics metrics.Recorder

	registry   *plugin.List
	whitelists *sanitize.WhitelistCache
	tokens     *tokens.Cache
	toc        *toc.Builder

	pipeline atomic.Pointer[pipeline.Pipeline]
	cache    *PageCache
}

// NewService builds the plugin registry and the first pipeline.
func NewService(cfg *config.Config, store Store, logger *slog.Logger, recorder metrics.Recorder) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	registry, err := plugins.Registry(cfg.Render.Plugins...)
	if err != nil {
		return nil, fmt.Errorf("plugins: %w", err)
	}
	svc := &Service{
		cfg:        cfg,
		store:      store,
		logger:     logger,
		metrics:    recorder,
		registry:   registry,
		whitelists: sanitize.NewWhitelistCache(cfg.Render.WhitelistPath, logger),
		tokens:     tokens.NewCache(logger),
		toc:        toc.New(),
		cache:      newPageCache(),
	}
	if err := svc.Rebuild(); err != nil {
		return nil, err
	}
	return svc, nil
}

// Settings maps the render configuration onto pipeline settings.
func Settings(cfg *config.Config) pipeline.Settings {
	return pipeline.Settings{
		Dialect:                  cfg.Render.Dialect,
		AttachmentsPath:          cfg.Render.AttachmentsPath,
		UseHTMLWhitelist:         cfg.Render.UseHTMLWhitelist,
		WhitelistPath:            cfg.Render.WhitelistPath,
		TokensPath:               cfg.Render.TokensPath,
		CacheTokens:              cfg.Render.CacheTokens,
		ExternalLinksInNewWindow: cfg.Render.ExternalLinksInNewWindow,
	}
}

// Rebuild constructs a fresh pipeline and swaps it in. Renders in flight
// finish on the previous one. Cached pages are dropped.
func (s *Service) Rebuild() error {
	p, err := pipeline.New(pipeline.Options{
		Settings:   Settings(s.cfg),
		Pages:      s.store,
		Plugins:    s.registry,
		URLs:       pipeline.DefaultURLs{BaseURL: s.cfg.BaseURL},
		Whitelists: s.whitelists,
		Tokens:     s.tokens,
		Logger:     s.logger,
		Metrics:    s.metrics,
	})
	if err != nil {
		return err
	}
	s.pipeline.Store(p)
	s.cache.Clear()
	return nil
}

// Pipeline returns the pipeline currently in use.
func (s *Service) Pipeline() *pipeline.Pipeline {
	return s.pipeline.Load()
}

// Syntax describes the configured dialect for help screens.
func (s *Service) Syntax() markup.Syntax {
	return s.Pipeline().Syntax()
}

// RenderPreview renders unsaved markup. Previews are never cached.
func (s *Service) RenderPreview(content string) (*pipeline.RenderedPage, error) {
	return s.Pipeline().Render(content)
}

// RenderPage renders the stored page with id, reusing a cached rendering
// of the same page version when one exists.
func (s *Service) RenderPage(ctx context.Context, id int) (*RenderedDocument, error) {
	page, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.render(page)
}

// SavePage stores a new page and returns its rendering.
func (s *Service) SavePage(ctx context.Context, title, content string) (*RenderedDocument, error) {
	page, err := s.store.Create(ctx, title, content)
	if err != nil {
		return nil, err
	}
	// Links elsewhere may have pointed at this title while it was missing.
	s.cache.Clear()
	return s.render(page)
}

// RenderMenu renders the menu page and expands its table of contents.
func (s *Service) RenderMenu(ctx context.Context) (*pipeline.RenderedPage, error) {
	page, err := s.store.ByTitle(ctx, s.cfg.Pages.MenuTitle)
	if err != nil {
		if errors.Is(err, pagestore.ErrNotFound) {
			return nil, fmt.Errorf("menu page %q: %w", s.cfg.Pages.MenuTitle, ErrMenuMissing)
		}
		return nil, err
	}
	doc, err := s.render(page)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(doc.Rendered.HTML(), toc.Placeholder) {
		return doc.Rendered, nil
	}
	return doc.Rendered.WithHTML(s.toc.Build(doc.Rendered.HTML())), nil
}

func (s *Service) render(page pagestore.Page) (*RenderedDocument, error) {
	key := cacheKey{id: page.ID, version: page.UpdatedAt.UnixMilli()}
	if rendered, ok := s.cache.Get(key); ok {
		return &RenderedDocument{Page: page, Rendered: rendered, Cached: true}, nil
	}
	generation := s.cache.Generation()
	rendered, err := s.Pipeline().Render(page.Content)
	if err != nil {
		return nil, err
	}
	if rendered.IsCacheable() {
		s.cache.Put(key, rendered, generation)
	}
	return &RenderedDocument{Page: page, Rendered: rendered}, nil
}
