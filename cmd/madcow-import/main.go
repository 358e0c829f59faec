// Command madcow-import merges lift records and settings from one record
// store into the configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meltforce/madcow/internal/config"
	"github.com/meltforce/madcow/internal/importer"
	"github.com/meltforce/madcow/internal/storage"
)

type options struct {
	configPath   string
	sourceConfig string
	fromBackend  string
	fromPath     string
	fromSettings string
	dryRun       bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "destination config file")
	flag.StringVar(&opts.sourceConfig, "source-config", "", "config file describing the source store")
	flag.StringVar(&opts.fromBackend, "from-backend", "", "source backend (csv, xlsx, sqlite), overrides -source-config")
	flag.StringVar(&opts.fromPath, "from-path", "", "source file path")
	flag.StringVar(&opts.fromSettings, "from-settings", "", "source settings file (csv backend only)")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "report changes without writing the destination")
	flag.Parse()

	if opts.sourceConfig == "" && opts.fromBackend == "" {
		fmt.Fprintln(os.Stderr, "usage: madcow-import [-config FILE] (-source-config FILE | -from-backend NAME -from-path PATH) [-dry-run]")
		os.Exit(2)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, log); err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer, log *slog.Logger) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	srcCfg, err := sourceStorage(opts)
	if err != nil {
		return err
	}

	src, err := storage.Open(ctx, srcCfg, log.With("side", "source"))
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := storage.Open(ctx, cfg.Storage, log.With("side", "destination"))
	if err != nil {
		return fmt.Errorf("opening destination: %w", err)
	}
	defer func() { _ = dst.Close() }()

	start := time.Now()
	imp := importer.New(dst, log, cfg.Program.DefaultIncrement, opts.dryRun)
	stats, err := imp.Import(ctx, src)
	if err != nil {
		return err
	}

	for _, issue := range stats.Issues {
		log.Warn("source row coerced", "issue", issue.String())
	}

	fmt.Fprintf(out, "Source:         %s\n", src.Name())
	fmt.Fprintf(out, "Destination:    %s\n", dst.Name())
	fmt.Fprintf(out, "Records read:   %d\n", stats.RecordsRead)
	fmt.Fprintf(out, "  inserted:     %d\n", stats.RecordsInserted)
	fmt.Fprintf(out, "  updated:      %d\n", stats.RecordsUpdated)
	fmt.Fprintf(out, "  unchanged:    %d\n", stats.RecordsUnchanged)
	fmt.Fprintf(out, "Untyped rows:   %d\n", stats.PassthroughKept)
	fmt.Fprintf(out, "Settings added: %d\n", stats.SettingsInserted)
	if opts.dryRun {
		fmt.Fprintln(out, "Dry run, nothing written.")
	}
	log.Info("import complete", "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func sourceStorage(opts options) (config.StorageConfig, error) {
	var sc config.StorageConfig
	if opts.sourceConfig != "" {
		cfg, err := config.Load(opts.sourceConfig)
		if err != nil {
			return sc, fmt.Errorf("loading source config: %w", err)
		}
		sc = cfg.Storage
	} else {
		sc = config.Default().Storage
	}

	if opts.fromBackend != "" {
		switch opts.fromBackend {
		case config.BackendCSV, config.BackendXLSX, config.BackendSQLite:
		default:
			return sc, fmt.Errorf("-from-backend %q: use -source-config for this backend", opts.fromBackend)
		}
		if opts.fromPath == "" {
			return sc, fmt.Errorf("-from-path is required with -from-backend")
		}
		sc.Backend = opts.fromBackend
		sc.Path = opts.fromPath
		sc.SettingsPath = opts.fromSettings
	}
	return sc, nil
}
