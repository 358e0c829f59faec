// Command madcow-mcp serves the Madcow MCP tools over stdio, either from the
// configured store or from a running madcow server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/meltforce/madcow/internal/config"
	"github.com/meltforce/madcow/internal/mcp"
	"github.com/meltforce/madcow/internal/session"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (defaults plus MADCOW_* env when empty)")
	remote := flag.String("remote", "", "base URL of a madcow server, e.g. http://madcow (uses its REST API instead of a local store)")
	flag.Parse()

	// Stdout carries the protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource
	if *remote != "" {
		ds = mcp.NewHTTPClient(*remote)
		log.Info("madcow-mcp using remote server", "url", *remote)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		state, err := session.Open(context.Background(), cfg, log, nil)
		if err != nil {
			log.Error("failed to load records", "error", err)
			os.Exit(1)
		}
		defer state.Close()
		ds = mcp.Local{State: state}
		log.Info("madcow-mcp using local store", "backend", cfg.Storage.Backend)
	}

	s := mcp.New(ds, Version, log)
	if err := mcpserver.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "madcow-mcp: %v\n", err)
		os.Exit(1)
	}
}
