package site

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/iedon/wikimarkup-go/fsutil"
)

type resourceKind int

const (
	whitelistResource resourceKind = iota + 1
	tokensResource
)

// Watch reloads render resources when their files change. It blocks
// until ctx is done.
func (s *Service) Watch(ctx context.Context) error {
	targets := make(map[string]resourceKind)
	if paths := fsutil.ResourcePaths(s.cfg.Render.WhitelistPath); len(paths) == 1 {
		targets[paths[0]] = whitelistResource
	}
	if paths := fsutil.ResourcePaths(s.cfg.Render.TokensPath); len(paths) == 1 {
		if _, shared := targets[paths[0]]; !shared {
			targets[paths[0]] = tokensResource
		}
	}
	if len(targets) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files on save, so watch the directory.
	dirs := map[string]struct{}{}
	for path := range targets {
		dir := filepath.Dir(path)
		if _, ok := dirs[dir]; ok {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = struct{}{}
	}
	s.logger.Info("watching render resources", "files", len(targets))

	var (
		mu      sync.Mutex
		pending = map[resourceKind]*time.Timer{}
	)
	defer func() {
		mu.Lock()
		for _, timer := range pending {
			timer.Stop()
		}
		mu.Unlock()
	}()
	debounce := s.cfg.Render.WatchDebounce()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			kind, tracked := targets[filepath.Clean(event.Name)]
			if !tracked || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			mu.Lock()
			if timer, ok := pending[kind]; ok {
				timer.Stop()
			}
			pending[kind] = time.AfterFunc(debounce, func() { s.resourceChanged(kind) })
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("resource watcher", "error", err)
		}
	}
}

func (s *Service) resourceChanged(kind resourceKind) {
	switch kind {
	case whitelistResource:
		s.whitelists.Invalidate()
		s.cache.Clear()
		s.logger.Info("whitelist changed", "path", s.whitelists.Path())
	case tokensResource:
		if s.cfg.Render.CacheTokens {
			s.logger.Warn("tokens changed; restart to apply while render.cacheTokens is set", "path", s.cfg.Render.TokensPath)
			return
		}
		if err := s.Rebuild(); err != nil {
			s.logger.Error("reload tokens", "path", s.cfg.Render.TokensPath, "error", err)
			return
		}
		s.logger.Info("tokens reloaded", "path", s.cfg.Render.TokensPath)
	}
}
