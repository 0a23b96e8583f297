package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	httpadapter "github.com/mcortelli/pathwatch/internal/adapters/primary/http"
	"github.com/mcortelli/pathwatch/internal/adapters/secondary/caching"
	"github.com/mcortelli/pathwatch/internal/adapters/secondary/config"
	"github.com/mcortelli/pathwatch/internal/adapters/secondary/fsevents"
	"github.com/mcortelli/pathwatch/internal/adapters/secondary/matcher"
	"github.com/mcortelli/pathwatch/internal/adapters/secondary/physical"
	"github.com/mcortelli/pathwatch/internal/adapters/secondary/polling"
	"github.com/mcortelli/pathwatch/internal/domain/entities"
	"github.com/mcortelli/pathwatch/internal/domain/ports"
	"github.com/mcortelli/pathwatch/internal/domain/services"
)

var (
	// Watch command flags
	port           int
	host           string
	usePolling     bool
	pollIntervalMs int
	noCache        bool
	noServer       bool
	filters        []string
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory for changes matching glob patterns",
	Long: `Observe a directory tree and report every change matching the
configured glob patterns. Events are broadcast to WebSocket clients on
/events; with --no-server they are printed to stdout instead.

Example:
  pathwatch watch .
  pathwatch watch /srv/data -f "**/*.json" -f "conf/"
  pathwatch watch . --poll --poll-interval-ms 1000`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (default from config)")
	watchCmd.Flags().StringVar(&host, "host", "", "HTTP host (default from config)")
	watchCmd.Flags().BoolVar(&usePolling, "poll", false, "Use polling instead of OS file events")
	watchCmd.Flags().IntVar(&pollIntervalMs, "poll-interval-ms", 0, "Polling interval in milliseconds")
	watchCmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable the metadata cache")
	watchCmd.Flags().BoolVar(&noServer, "no-server", false, "Do not start the HTTP event server")
	watchCmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "Glob filter to watch (repeatable)")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving directory: %w", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", root)
	}

	cfg, err := loadConfig(ctx, root)
	if err != nil {
		return err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Logging.Level = "debug"
	}

	logger := newLogger(cfg.Logging)

	provider, cleanup, err := buildProvider(root, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var cached *caching.Provider
	serving := ports.FileProvider(provider)
	if cfg.Cache.Enabled {
		cached, err = caching.NewProvider(provider, cfg.Cache.Size, cfg.Cache.WatchFilter, logger)
		if err != nil {
			return fmt.Errorf("creating cache: %w", err)
		}
		defer cached.Close()
		serving = cached
	}

	kind := entities.WatchKindEvent
	if cfg.Watch.UsePolling {
		kind = entities.WatchKindPolling
	}

	notifier := newNotifier(cfg, serving, cached, logger)
	feed := services.NewChangeFeedService(provider, notifier, kind, logger)
	if err := feed.Start(ctx, cfg.Watch.Filters); err != nil {
		return fmt.Errorf("starting watch: %w", err)
	}
	defer func() { _ = feed.Stop() }()

	logger.Info("watching", slog.String("root", root), slog.Any("filters", cfg.Watch.Filters))

	if server, ok := notifier.(*httpadapter.Server); ok {
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	}

	<-ctx.Done()
	return nil
}

// loadConfig merges global config, local config and CLI flags.
func loadConfig(ctx context.Context, root string) (*entities.Config, error) {
	loader := config.NewTOMLLoader()
	merger := config.NewConfigMerger()

	global, err := loader.LoadGlobal(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading global config: %w", err)
	}
	local, err := loader.LoadLocal(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("loading local config: %w", err)
	}

	cfg := merger.Merge(global, local)
	cfg = merger.ApplyFlags(cfg, map[string]interface{}{
		"port":             port,
		"host":             host,
		"root":             root,
		"filters":          filters,
		"poll":             usePolling,
		"poll-interval-ms": pollIntervalMs,
		"no-cache":         noCache,
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildProvider assembles the physical provider with the configured watch
// strategy.
func buildProvider(root string, cfg *entities.Config, logger *slog.Logger) (*physical.Provider, func(), error) {
	factory := matcher.NewDoublestarFactory()

	if cfg.Watch.UsePolling {
		poller := polling.NewWatcher(root, cfg.Watch.GetPollInterval(), ports.NewRealClock(), factory, logger)
		provider, err := physical.NewProvider(root, poller)
		if err != nil {
			poller.Stop()
			return nil, nil, err
		}
		return provider, poller.Stop, nil
	}

	osWatcher, err := fsevents.NewWatcher(root, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating os watcher: %w", err)
	}
	filesWatcher := physical.NewFilesWatcher(osWatcher, factory, logger)
	provider, err := physical.NewProvider(root, filesWatcher)
	if err != nil {
		_ = filesWatcher.Close()
		return nil, nil, err
	}
	return provider, func() { _ = filesWatcher.Close() }, nil
}

// newNotifier selects the event sink: the HTTP server, or stdout when the
// server is disabled.
func newNotifier(cfg *entities.Config, serving ports.FileProvider, cached *caching.Provider, logger *slog.Logger) ports.ChangeNotifier {
	if noServer {
		return stdoutNotifier{}
	}

	server := httpadapter.NewServer(serving, &cfg.Server, logger)
	if cached != nil {
		server.SetStatsSource(cached)
	}
	return server
}

// stdoutNotifier prints change events to standard output.
type stdoutNotifier struct{}

func (stdoutNotifier) NotifyChange(event entities.ChangeEvent) {
	fmt.Printf("%s  %-7s  %s\n", event.Timestamp.Format("15:04:05.000"), event.Kind, event.Filter)
}

// newLogger builds the process logger from config.
func newLogger(cfg entities.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.JSONFormat {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
