// Command streamprobe ranks embed providers by how reliably they stream a
// title.
//
// Usage:
//
//	streamprobe -type movie -id 27205                   # probe every provider once
//	streamprobe -type tv -id 1396 -season 1 -episode 1  # episode URLs
//	streamprobe -config streamprobe.yaml -every 6h -serve :8080
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/streamprobe/history"
	"github.com/hazyhaar/streamprobe/probe"
	"github.com/hazyhaar/streamprobe/reportapi"
)

type flags struct {
	configPath string
	mediaType  string
	id         int
	season     int
	episode    int
	title      string

	concurrency int
	duration    int // seconds, whole run
	stream      int // seconds, per provider
	output      string
	visible     bool

	registry   string
	providers  string
	historyDB  string
	historyMax int
	serve      string
	every      time.Duration
	logLevel   string
	noColor    bool
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "path to streamprobe.yaml config file")
	flag.StringVar(&f.mediaType, "type", "movie", "media type: movie or tv")
	flag.IntVar(&f.id, "id", 0, "TMDB id of the title to probe")
	flag.IntVar(&f.season, "season", 1, "season number (tv)")
	flag.IntVar(&f.episode, "episode", 1, "episode number (tv)")
	flag.StringVar(&f.title, "title", "", "title shown in history")
	flag.IntVar(&f.concurrency, "concurrency", 2, "providers probed in parallel")
	flag.IntVar(&f.duration, "duration", 600, "time budget for the whole run, in seconds")
	flag.IntVar(&f.stream, "stream", 120, "streaming sample window per provider, in seconds")
	flag.StringVar(&f.output, "output", "provider-results.json", "report output path")
	flag.BoolVar(&f.visible, "visible", false, "run Chrome headful")
	flag.StringVar(&f.registry, "registry", "default", "built-in provider list: default or verified")
	flag.StringVar(&f.providers, "providers", "", "comma-separated provider names to keep")
	flag.StringVar(&f.historyDB, "history", "", "SQLite path for run history (default in-memory)")
	flag.IntVar(&f.historyMax, "history-max", 10, "runs kept in history")
	flag.StringVar(&f.serve, "serve", "", "serve the report API on this address")
	flag.DurationVar(&f.every, "every", 0, "repeat the run at this interval")
	flag.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.BoolVar(&f.noColor, "no-color", false, "disable coloured console output")
	flag.Parse()

	var level slog.Level
	switch f.logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, f); err != nil {
		logger.Error("streamprobe: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, f flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	media, err := cfg.MediaItem()
	if err != nil {
		return err
	}
	reg, err := cfg.BuildRegistry()
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sinks, err := probe.SinksFromConfig(cfg, logger, os.Stdout, reg.Len())
	if err != nil {
		return err
	}
	if len(cfg.Sinks) == 0 {
		sinks = append(sinks,
			probe.NewConsoleSink(os.Stdout, reg.Len(), !f.noColor),
			probe.NewFileSink(f.output))
	}
	sinks = append(sinks, probe.NewHistorySink(store, cfg.History.MinPlaybackRatio))

	h := probe.New(cfg, reg, logger, sinks...)
	if err := h.Start(ctx); err != nil {
		return err
	}
	defer h.Stop()

	if cfg.Server.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           reportapi.New(store, reportapi.WithLogger(logger)).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("streamprobe: report api listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("streamprobe: report api", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if _, err := h.Run(ctx, media); err != nil {
		return err
	}

	if cfg.Run.Every > 0 {
		ticker := time.NewTicker(cfg.Run.Every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := h.Run(ctx, media); err != nil {
					logger.Error("streamprobe: run failed", "error", err)
				}
			}
		}
	}

	if cfg.Server.Addr != "" {
		<-ctx.Done()
	}
	return nil
}

// loadConfig reads the YAML file when given, then applies the flags the
// operator set explicitly.
func loadConfig(f flags) (*probe.Config, error) {
	cfg := probe.DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = probe.LoadConfigFile(f.configPath); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	set := make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	explicit := func(name string) bool { return set[name] || f.configPath == "" }

	if explicit("type") {
		cfg.Media.Type = f.mediaType
	}
	if explicit("id") {
		cfg.Media.ID = f.id
	}
	if explicit("season") {
		cfg.Media.Season = f.season
	}
	if explicit("episode") {
		cfg.Media.Episode = f.episode
	}
	if set["title"] {
		cfg.Media.Title = f.title
	}
	if explicit("concurrency") {
		cfg.Run.Concurrency = f.concurrency
	}
	if explicit("duration") {
		cfg.Run.Budget = time.Duration(f.duration) * time.Second
	}
	if explicit("stream") {
		cfg.Run.StreamDuration = time.Duration(f.stream) * time.Second
	}
	if set["visible"] {
		cfg.Browser.Visible = f.visible
	}
	if set["registry"] {
		cfg.Registry = f.registry
	}
	if set["providers"] {
		cfg.Only = probe.SplitList(f.providers)
	}
	if set["history"] {
		cfg.History.Path = f.historyDB
	}
	if set["history-max"] {
		cfg.History.Max = f.historyMax
	}
	if set["serve"] {
		cfg.Server.Addr = f.serve
	}
	if set["every"] {
		cfg.Run.Every = f.every
	}
	return cfg, nil
}

func openHistory(cfg *probe.Config) (history.Store, error) {
	if cfg.History.Path == "" {
		return history.NewMemory(cfg.History.Max), nil
	}
	return history.OpenSQLite(cfg.History.Path, cfg.History.Max)
}
