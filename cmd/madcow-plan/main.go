// Command madcow-plan prints a lifter's Madcow week as plain text or JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/meltforce/madcow/internal/config"
	"github.com/meltforce/madcow/internal/madcow"
	"github.com/meltforce/madcow/internal/session"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults plus MADCOW_* env when empty)")
	lifter := flag.String("lifter", "", "lifter name (required)")
	week := flag.Int("week", 0, "program week (default: current week)")
	asJSON := flag.Bool("json", false, "print the plan as JSON")
	verbose := flag.Bool("v", false, "log store activity to stderr")
	flag.Parse()

	if *lifter == "" {
		fmt.Fprintln(os.Stderr, "usage: madcow-plan -lifter NAME [-week N] [-json] [-config FILE]")
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(*configPath, *lifter, *week, *asJSON, os.Stdout, log); err != nil {
		fmt.Fprintf(os.Stderr, "madcow-plan: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, lifter string, week int, asJSON bool, out io.Writer, log *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	state, err := session.Open(context.Background(), cfg, log, nil)
	if err != nil {
		return err
	}
	defer state.Close()

	plan, err := state.Plan(lifter, week)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}
	return madcow.WriteText(out, plan)
}
