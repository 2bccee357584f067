package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sigil/sigil/config"
	"github.com/sigil/sigil/pkg/api"
	"github.com/sigil/sigil/pkg/api/events"
	"github.com/sigil/sigil/pkg/api/handlers"
	"github.com/sigil/sigil/pkg/logger"
	"github.com/sigil/sigil/pkg/metrics"
	"github.com/sigil/sigil/pkg/sigil"
	"github.com/sigil/sigil/pkg/telemetry/tracing"
	"github.com/sigil/sigil/pkg/version"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")
	helpFlag    = flag.Bool("help", false, "Print help information")
	watchFlag   = flag.Bool("watch-config", false, "Reload hot-reloadable settings on config file changes")

	// CLI overrides
	appName    = flag.String("app-name", "", "Override app name")
	serverPort = flag.Int("port", 0, "Override server port")
	logLevel   = flag.String("log-level", "", "Override log level")
	debugMode  = flag.Bool("debug", false, "Enable debug mode")
)

func main() {
	flag.Parse()

	if *helpFlag {
		printHelp()
		os.Exit(0)
	}

	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath, buildOverrides())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration:\n%s\n", err)
		os.Exit(1)
	}

	logCfg := &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if cfg.App.Debug || *debugMode {
		logCfg.Level = logger.DebugLevel
	}
	log := logger.New(logCfg)
	logger.SetGlobal(log)

	log.Info("Starting sigild",
		"version", version.Version,
		"buildTime", version.BuildTime,
		"gitCommit", version.GitCommit,
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Metrics manager doubles as the dispatch metrics recorder.
	metricsManager := metrics.NewManager(metrics.Config{
		Enabled:             cfg.Metrics.Enabled,
		Port:                cfg.Metrics.Port,
		Path:                cfg.Metrics.Path,
		HTTPDurationBuckets: metrics.DefaultConfig().HTTPDurationBuckets,
	})
	sigil.SetMetricsRecorder(metricsManager)
	defer sigil.SetMetricsRecorder(nil)

	if metricsManager.Enabled() {
		go func() {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			if err := metricsManager.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				log.Error("Metrics server error", "error", err)
			}
		}()
	}

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.App.Name, version.Version)
	if err != nil {
		log.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// The daemon serves the process-wide registry so embedded code and
	// the HTTP surface see the same signals.
	registry := sigil.Default()
	linkSet := handlers.NewLinkSet()
	broadcaster := events.NewBroadcaster()

	if err := materializeTopology(cfg, registry, linkSet, broadcaster, log); err != nil {
		log.Error("Failed to materialize configured topology", "error", err)
		os.Exit(1)
	}
	metricsManager.SetRegistrySize(registry.Len())

	var ready atomic.Bool
	onRegistryChange := func(n int) { metricsManager.SetRegistrySize(n) }

	apiHandlers := api.Handlers{
		Signals: handlers.NewSignalsHandler(registry, broadcaster, log, onRegistryChange),
		Links:   handlers.NewLinksHandler(linkSet, registry, log),
		Health:  handlers.NewHealthHandler(ready.Load),
		Watch: handlers.NewWatchHandler(broadcaster, log, metricsManager,
			cfg.Server.WebSocket.AllowedOrigins,
			cfg.Server.WebSocket.MaxClients,
			cfg.Server.WebSocket.SendBuffer),
		Metrics:        metricsManager,
		TracingEnabled: cfg.Tracing.Enabled,
	}

	router := api.NewRouter(&cfg.Server, log, apiHandlers)
	httpServer := api.NewServer(&cfg.Server, log, router)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	var watcher *config.Watcher
	if *watchFlag && *configPath != "" {
		watcher, err = config.NewWatcher(*configPath)
		if err != nil {
			log.Error("Failed to create config watcher", "error", err)
			os.Exit(1)
		}
		watcher.OnChange(func(updated *config.Config) {
			applyHotReload(config.ExtractHotReloadable(updated), registry, log)
		})
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				log.Error("Config watcher error", "error", err)
			}
		}()
		log.Info("Watching configuration file", "path", *configPath)
	}

	ready.Store(true)
	log.Info("sigild is running",
		"http_addr", cfg.Server.Addr(),
		"metrics_port", cfg.Metrics.Port,
		"signals", registry.Len(),
	)

	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErrChan:
		log.Error("HTTP server error", "error", err)
	case <-ctx.Done():
		log.Info("Context cancelled")
	}
	ready.Store(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			log.Error("Error stopping config watcher", "error", err)
		}
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", "error", err)
	}

	// Close the watch stream after the server so in-flight websocket
	// writers see the close instead of racing it.
	broadcaster.Close()

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Error shutting down tracing", "error", err)
	}

	log.Info("sigild stopped gracefully")
}

// materializeTopology creates the configured signals and links in the
// registry. Every configured signal is tapped into the watch stream.
func materializeTopology(cfg *config.Config, registry *sigil.Registry, linkSet *handlers.LinkSet, broadcaster *events.Broadcaster, log logger.Logger) error {
	for _, sc := range cfg.Signals {
		sig := sigil.New()
		if sc.Disabled {
			sig.SetEnabled(false)
		}
		if err := registry.Store(sc.Name, sig, false); err != nil {
			return fmt.Errorf("signal %q: %w", sc.Name, err)
		}
		broadcaster.Tap(sc.Name, sig)
		log.Debug("Configured signal registered", "name", sc.Name, "disabled", sc.Disabled)
	}

	for _, lc := range cfg.Links {
		if _, err := linkSet.Create(lc.Name); err != nil {
			return fmt.Errorf("link %q: %w", lc.Name, err)
		}
		for _, member := range lc.Members {
			sig, ok := registry.Get(member)
			if !ok {
				return fmt.Errorf("link %q: member signal %q is not declared", lc.Name, member)
			}
			if _, err := linkSet.AddMember(lc.Name, member, sig); err != nil {
				return fmt.Errorf("link %q: %w", lc.Name, err)
			}
		}
		log.Debug("Configured link created", "name", lc.Name, "members", len(lc.Members))
	}

	return nil
}

// applyHotReload applies reloaded settings that are safe to change at
// runtime: the log level and the enabled gates of declared signals.
func applyHotReload(hot config.HotReloadable, registry *sigil.Registry, log logger.Logger) {
	log.SetLevel(logger.ParseLevel(hot.LogLevel))
	log.Info("Applied reloaded log level", "level", hot.LogLevel)

	for _, sc := range hot.Signals {
		sig, ok := registry.Get(sc.Name)
		if !ok {
			// New signals require a restart or the API; reload only
			// flips gates on what already exists.
			log.Warn("Reloaded signal not in registry, ignoring", "name", sc.Name)
			continue
		}
		sig.SetEnabled(!sc.Disabled)
	}
}

func buildOverrides() map[string]interface{} {
	overrides := make(map[string]interface{})

	if *appName != "" {
		overrides["app.name"] = *appName
	}
	if *serverPort != 0 {
		overrides["server.port"] = *serverPort
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *debugMode {
		overrides["app.debug"] = true
	}

	return overrides
}

func printVersion() {
	fmt.Printf("sigild - Signal Registry Daemon\n")
	fmt.Printf("Version:    %s\n", version.Version)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
	fmt.Printf("Go Version: %s\n", version.GoVersion)
}

func printHelp() {
	fmt.Printf("sigild - in-process signal dispatch with an inspection API\n\n")
	fmt.Printf("Usage: sigild [options]\n\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  sigild                                    # Run with default config\n")
	fmt.Printf("  sigild -config sigild.yaml                # Use specific config file\n")
	fmt.Printf("  sigild -config sigild.yaml -watch-config  # Hot-reload on config changes\n")
	fmt.Printf("  sigild -port 9090 -log-level debug        # Override specific options\n")
	fmt.Printf("  sigild -version                           # Print version info\n")
}
