package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tilecraft/tilecraft/internal/api"
	"github.com/tilecraft/tilecraft/internal/config"
	"github.com/tilecraft/tilecraft/internal/engine"
	"github.com/tilecraft/tilecraft/internal/event"
	"github.com/tilecraft/tilecraft/internal/log"
	"github.com/tilecraft/tilecraft/internal/source"
	"github.com/tilecraft/tilecraft/internal/storage"
	"github.com/tilecraft/tilecraft/internal/tui"
	"github.com/tilecraft/tilecraft/internal/worker"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	if cmd == "--version" {
		return runVersion(args)
	}

	switch cmd {
	case "start":
		return runStart(args)
	case "watch":
		return runWatch(args)
	case "version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Print(`tilecraft - Tiled map source engine

Usage:
  tilecraft <command> [flags]

Commands:
  start     Start the engine in foreground
  watch     Real-time monitoring TUI for a running engine
  version   Show version metadata
  help      Show this help

Run 'tilecraft <command> --help' for command flags.
`)
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	info := versionInfo{Version: version, Commit: gitCommit, BuildTime: buildDate}

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("tilecraft %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "./config.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("tilecraft starting", "version", version, "config", *configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.OpenSQLite(ctx, cfg.Cache.Path)
	if err != nil {
		logger.Error("failed to open tile cache", "path", cfg.Cache.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("tile cache opened", "path", cfg.Cache.Path)

	cache := storage.NewTileCache(db)
	hub := event.NewHub(256)

	router := worker.NewRouter()
	router.RegisterWorkerSource("vector", worker.NewVectorWorker(cache))
	router.RegisterWorkerSource("raster", worker.NewRasterWorker(cache))
	router.RegisterWorkerSource("geojson", worker.NewGeoJSONWorker())

	pool := worker.NewPool(router, cfg.Dispatch.Workers, cfg.Dispatch.QueueDepth)
	pool.Start(ctx)
	defer pool.Close()

	registry := source.NewRegistry()
	source.RegisterBuiltins(registry, hub)

	eng := engine.New(registry, pool, hub, cfg.Service.PrepareInterval)
	for id, opts := range cfg.Sources {
		if _, err := eng.AddSource(id, opts); err != nil {
			logger.Error("failed to add configured source", "source_id", id, "error", err)
			return 1
		}
	}
	eng.Start(ctx)
	defer eng.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)

	if cfg.API.Enabled {
		apiServer := api.New(api.Config{
			Listen: cfg.API.Listen,
			Token:  cfg.API.Token,
		}, eng, log.WithComponent("api"))
		go func() {
			if err := apiServer.Start(ctx); err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("api: %w", err)
			}
		}()
		logger.Info("API server enabled", "listen", cfg.API.Listen)
	}

	logger.Info("tilecraft running (press Ctrl+C to stop)")

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("tilecraft stopped")
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api-url", "http://localhost:8080", "Engine API URL")
	token := fs.String("token", os.Getenv("TILECRAFT_API_TOKEN"), "API bearer token")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if *token == "" {
		fmt.Fprintln(os.Stderr, "Error: token required. Use --token or TILECRAFT_API_TOKEN env var.")
		return 1
	}

	m := tui.NewMonitor(*apiURL, *token)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}
