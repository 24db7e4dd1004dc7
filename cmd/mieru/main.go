// Package main is the mieru CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/mieru/internal/cli"
	"github.com/hyperjump/mieru/internal/config"
	"github.com/hyperjump/mieru/internal/embedding"
	"github.com/hyperjump/mieru/internal/indexer"
	"github.com/hyperjump/mieru/internal/models"
	"github.com/hyperjump/mieru/internal/ranking"
	"github.com/hyperjump/mieru/internal/store"
	"github.com/hyperjump/mieru/internal/watcher"
	"github.com/hyperjump/mieru/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/mieru/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. When neither exists, a default config is returned so the CLI
// works without any config file. Returns the config and the path actually
// loaded ("" when defaults were used).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// A .env next to the working directory may carry the embedding API key.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "index":
		runIndex()
	case "search":
		runSearch()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("mieru version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`mieru - semantic image search

Usage:
  mieru index <directory> [--max N]     index images under a directory
  mieru search [flags] <query>          search indexed images by text
  mieru watch <directory>               re-index automatically on changes
  mieru status                          show snapshot info
  mieru version                         show version

Flags common to all commands:
  --config path    config file (default ` + defaultConfigPath + `)
  --debug          verbose logging
`)
}

// components holds the initialized services shared by subcommands.
type components struct {
	Store    store.Store
	Provider embedding.Provider
	Indexer  *indexer.Indexer
	Ranker   *ranking.Ranker
	Logger   *zap.Logger
}

func (c *components) Close() {
	if c.Provider != nil {
		_ = c.Provider.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

func initializeComponents(cfg *config.Config, debug bool) (*components, error) {
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	provider, err := embedding.NewProvider(&cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	s := store.NewJSONStore(cfg.Storage.SnapshotPath)
	idxOpts := []indexer.IndexerOption{indexer.WithLogger(logger)}
	return &components{
		Store:    s,
		Provider: provider,
		Indexer:  indexer.NewIndexer(s, provider, &cfg.Index, idxOpts...),
		Ranker:   ranking.NewRanker(s, provider, &cfg.Search),
		Logger:   logger,
	}, nil
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	maxItems := fs.Int("max", 0, "maximum number of files to attempt (0 = no cap)")
	debug := fs.Bool("debug", false, "enable debug logging")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() != 1 {
		fmt.Println("Usage: mieru index <directory> [--max N]")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	c, err := initializeComponents(cfg, *debug)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	stats, err := c.Indexer.Run(context.Background(), fs.Arg(0), *maxItems)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Indexing failed: %v\n", err)
		os.Exit(1)
	}
	_ = cli.WriteIndexStats(os.Stdout, stats, outputFormat(*output))
}

// searchArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildSearchQuery joins all positional args with spaces so multi-word
// queries work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// applySearchFlags copies -top and -threshold into the query only when the
// user actually passed them, so an explicit zero means literal zero rather
// than "use the configured default".
func applySearchFlags(fs *flag.FlagSet, query *models.SearchQuery, topN *int, threshold *float64) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "top":
			query.TopN = topN
		case "threshold":
			query.Threshold = threshold
		}
	})
}

func outputFormat(s string) cli.OutputFormat {
	if s == "json" {
		return cli.OutputJSON
	}
	return cli.OutputText
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	topN := fs.Int("top", 0, "maximum number of matches (default from config)")
	threshold := fs.Float64("threshold", 0, "minimum similarity score (default from config)")
	debug := fs.Bool("debug", false, "enable debug logging")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(searchArgs)

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: mieru search [flags] <query>")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	c, err := initializeComponents(cfg, *debug)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	query := &models.SearchQuery{Query: queryStr}
	applySearchFlags(fs, query, topN, threshold)
	resp, err := c.Ranker.Search(context.Background(), query)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			fmt.Fprintf(os.Stderr, "No index found at %s. Run \"mieru index <directory>\" first.\n", c.Store.Path())
		case errors.Is(err, ranking.ErrEmptyCorpus):
			fmt.Fprintln(os.Stderr, "The index is empty. Run \"mieru index <directory>\" over a directory with images.")
		case errors.Is(err, store.ErrCorrupt):
			fmt.Fprintf(os.Stderr, "The index at %s is corrupt: %v\n", c.Store.Path(), err)
		default:
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		}
		os.Exit(1)
	}
	_ = cli.WriteSearchResults(os.Stdout, resp, outputFormat(*output))
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() != 1 {
		fmt.Println("Usage: mieru watch <directory>")
		os.Exit(1)
	}
	root := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	c, err := initializeComponents(cfg, *debug)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()
	logger := c.Logger

	// Index once up front so the snapshot reflects the current tree.
	if _, err := c.Indexer.Run(context.Background(), root, 0); err != nil {
		logger.Fatal("initial indexing failed", zap.Error(err))
	}

	watchOpts := []watcher.WatcherOption{}
	if cfg.Debug || *debug {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	w := watcher.NewWatcher(root, cfg.Index.Extensions, func(root string) {
		if _, err := c.Indexer.Run(context.Background(), root, 0); err != nil {
			logger.Warn("re-index failed", zap.String("root", root), zap.Error(err))
		}
	}, watchOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		logger.Fatal("failed to start watcher", zap.Error(err))
	}
	defer w.Stop()
	logger.Info("watching for changes", zap.String("root", root))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down")
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, resolved, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if resolved != "" {
		fmt.Printf("Config:   %s\n", resolved)
	}
	s := store.NewJSONStore(cfg.Storage.SnapshotPath)
	fmt.Printf("Snapshot: %s\n", s.Path())

	records, err := s.Load(context.Background())
	switch {
	case errors.Is(err, store.ErrNotFound):
		fmt.Println("Status:   no index yet")
		return
	case errors.Is(err, store.ErrCorrupt):
		fmt.Printf("Status:   corrupt (%v)\n", err)
		os.Exit(1)
	case err != nil:
		fmt.Printf("Status:   unreadable (%v)\n", err)
		os.Exit(1)
	}
	fmt.Printf("Images:   %d\n", len(records))
	if len(records) > 0 {
		fmt.Printf("Vectors:  %d dimensions\n", len(records[0].Vector))
	}
	if size, err := store.DiskUsageBytes(s.Path()); err == nil {
		fmt.Printf("Size:     %d bytes\n", size)
	}
}
