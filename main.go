package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	flag "github.com/spf13/pflag"

	"github.com/iedon/wikimarkup-go/config"
	"github.com/iedon/wikimarkup-go/metrics"
	"github.com/iedon/wikimarkup-go/pagestore"
	"github.com/iedon/wikimarkup-go/server"
	"github.com/iedon/wikimarkup-go/site"
	"github.com/iedon/wikimarkup-go/toc"
)

func main() {
	cfgPath := flag.StringP("config", "c", "config.json", "path to configuration file")
	renderPath := flag.String("render", "", "render a markup file (- for stdin) to stdout and exit")
	menuFlag := flag.Bool("menu", false, "with --render, expand the table of contents like the menu page")
	showVersion := flag.BoolP("version", "v", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(SERVER_SIGNATURE)
		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	logOut := os.Stdout
	if *renderPath != "" {
		logOut = os.Stderr
	}
	logger := newLogger(logOut, cfg.LogLevel)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(reg)

	if *renderPath != "" {
		if err := renderFile(cfg, logger, recorder, *renderPath, *menuFlag); err != nil {
			logger.Error("render", "error", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("starting", "version", SERVER_VERSION, "dialect", cfg.Render.Dialect, "plugins", cfg.Render.Plugins)

	store, err := pagestore.Open(cfg.Pages.Database)
	if err != nil {
		logger.Error("page store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	svc, err := site.NewService(cfg, store, logger, recorder)
	if err != nil {
		logger.Error("service", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Render.WatchResources {
		go func() {
			if err := svc.Watch(ctx); err != nil {
				logger.Warn("watch", "error", err)
			}
		}()
	}

	srv := server.New(cfg, svc, logger, serverHeader(cfg), metrics.HTTPHandler(reg))
	if err := srv.Start(ctx); err != nil {
		logger.Error("server", "error", err)
		os.Exit(1)
	}
}

// renderFile renders one document without a page database; every link
// resolves as a missing page.
func renderFile(cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder, path string, menu bool) error {
	var (
		src []byte
		err error
	)
	if path == "-" {
		src, err = io.ReadAll(os.Stdin)
	} else {
		src, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	svc, err := site.NewService(cfg, noPages{}, logger, recorder)
	if err != nil {
		return err
	}
	rendered, err := svc.RenderPreview(string(src))
	if err != nil {
		return err
	}
	html := rendered.HTML()
	if menu && strings.Contains(html, toc.Placeholder) {
		html = toc.New().Build(html)
	}

	out := os.Stdout
	for _, part := range []string{rendered.HeadHTML(), rendered.PreContainerHTML(), html, rendered.PostContainerHTML(), rendered.FooterHTML()} {
		if part == "" {
			continue
		}
		if _, err := fmt.Fprintln(out, part); err != nil {
			return err
		}
	}
	return nil
}

func serverHeader(cfg *config.Config) string {
	if header := strings.TrimSpace(cfg.ServerHeader); header != "" {
		return header
	}
	return SERVER_SIGNATURE
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
