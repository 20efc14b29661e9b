package plugin

import (
	"fmt"
	"log/slog"
	"strings"
)

// Runner executes the enabled plugins of a registry.
type Runner struct {
	registry Registry
	logger   *slog.Logger
	failed   func(*Error)
}

// NewRunner builds a runner. onFailure, when set, observes every hook failure.
func NewRunner(registry Registry, logger *slog.Logger, onFailure func(*Error)) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{registry: registry, logger: logger, failed: onFailure}
}

// Begin snapshots the enabled plugins for a single render.
func (r *Runner) Begin() *Run {
	var plugins []Plugin
	if r.registry != nil {
		plugins = r.registry.EnabledPlugins()
	}
	return &Run{
		plugins:         plugins,
		logger:          r.logger,
		failed:          r.failed,
		beforeCacheable: true,
		afterCacheable:  true,
	}
}

// Run carries the plugin state of one render. It is not safe for concurrent use.
type Run struct {
	plugins []Plugin
	logger  *slog.Logger
	failed  func(*Error)

	beforeCacheable bool
	afterCacheable  bool
	head            strings.Builder
	footer          strings.Builder
}

// Plugins returns the plugins captured for this run.
func (r *Run) Plugins() []Plugin {
	return append([]Plugin(nil), r.plugins...)
}

// IsEnabled reports whether the run includes the plugin id.
func (r *Run) IsEnabled(id string) bool {
	for _, p := range r.plugins {
		if p.ID() == id {
			return true
		}
	}
	return false
}

// BeforeParse passes the markup through every plugin and collects head
// and footer content.
func (r *Run) BeforeParse(markup string) string {
	for _, p := range r.plugins {
		in := markup
		out, ok := r.transform(p, "BeforeParse", p.BeforeParse, in)
		if ok {
			markup = out
			if out != in {
				r.beforeCacheable = r.beforeCacheable && r.cacheable(p)
			}
		}
		r.head.WriteString(r.content(p, "HeadContent", p.HeadContent))
		r.footer.WriteString(r.content(p, "FooterContent", p.FooterContent))
	}
	return markup
}

// AfterParse passes the rendered HTML through every plugin.
func (r *Run) AfterParse(html string) string {
	for _, p := range r.plugins {
		in := html
		out, ok := r.transform(p, "AfterParse", p.AfterParse, in)
		if ok {
			html = out
			if out != in {
				r.afterCacheable = r.afterCacheable && r.cacheable(p)
			}
		}
	}
	return html
}

// PreContainerHTML concatenates the plugins' pre-container fragments.
func (r *Run) PreContainerHTML() string {
	var sb strings.Builder
	for _, p := range r.plugins {
		sb.WriteString(r.content(p, "PreContainerHTML", p.PreContainerHTML))
	}
	return sb.String()
}

// PostContainerHTML concatenates the plugins' post-container fragments.
func (r *Run) PostContainerHTML() string {
	var sb strings.Builder
	for _, p := range r.plugins {
		sb.WriteString(r.content(p, "PostContainerHTML", p.PostContainerHTML))
	}
	return sb.String()
}

// HeadHTML returns the head content collected during BeforeParse.
func (r *Run) HeadHTML() string {
	return r.head.String()
}

// FooterHTML returns the footer content collected during BeforeParse.
func (r *Run) FooterHTML() string {
	return r.footer.String()
}

// Cacheable is true when neither parse phase ran a non-cacheable plugin
// that changed its input.
func (r *Run) Cacheable() bool {
	return r.beforeCacheable && r.afterCacheable
}

func (r *Run) transform(p Plugin, hook string, fn func(string) (string, error), in string) (out string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.report(p, hook, fmt.Errorf("panic: %v", rec))
			out, ok = in, false
		}
	}()
	out, err := fn(in)
	if err != nil {
		r.report(p, hook, err)
		return in, false
	}
	return out, true
}

func (r *Run) content(p Plugin, hook string, fn func() string) (out string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.report(p, hook, fmt.Errorf("panic: %v", rec))
			out = ""
		}
	}()
	return fn()
}

func (r *Run) cacheable(p Plugin) (cacheable bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.report(p, "IsCacheable", fmt.Errorf("panic: %v", rec))
			cacheable = false
		}
	}()
	return p.IsCacheable()
}

func (r *Run) report(p Plugin, hook string, err error) {
	perr := &Error{Plugin: safeID(p), Hook: hook, Err: err}
	r.logger.Warn("plugin hook failed", "plugin", perr.Plugin, "hook", hook, "error", err)
	if r.failed != nil {
		r.failed(perr)
	}
}

func safeID(p Plugin) (id string) {
	defer func() {
		if recover() != nil {
			id = fmt.Sprintf("%T", p)
		}
	}()
	return p.ID()
}
