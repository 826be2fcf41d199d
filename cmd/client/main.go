package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	httpClient "github.com/scriba-app/scriba/internal/client/api"
	"github.com/scriba-app/scriba/internal/client/auth"
	"github.com/scriba-app/scriba/internal/client/cli"
	"github.com/scriba-app/scriba/internal/client/iocli"
	"github.com/scriba-app/scriba/internal/client/notes"
	"github.com/scriba-app/scriba/internal/client/queue"
	"github.com/scriba-app/scriba/internal/client/realtime"
	"github.com/scriba-app/scriba/internal/client/storage/boltdb"
	"github.com/scriba-app/scriba/internal/client/sync"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "scriba.db", "Path to local database")
	verbose := flag.Bool("verbose", false, "Enable debug logging")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	io := iocli.NewStdio()

	args := flag.Args()
	if len(args) == 0 {
		cli.New(io, nil, nil, nil, nil).PrintUsage()
		os.Exit(1)
	}

	command := args[0]

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := boltdb.New(ctx, *dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	// Entries left in-flight by a crashed run are safe to retry: the
	// server deduplicates by mutation ID.
	if reset, err := store.ResetInFlight(ctx); err != nil {
		logger.Warn("failed to reset in-flight mutations", "error", err)
	} else if reset > 0 {
		logger.Debug("reset in-flight mutations", "count", reset)
	}

	apiClient := httpClient.NewClient(*serverURL)

	authService := auth.NewService(apiClient, store, logger)
	mutationQueue := queue.NewService(store, logger)
	channel := realtime.NewChannel(*serverURL, authService, logger)
	syncService := sync.NewService(apiClient, store, mutationQueue, store, authService, channel, logger)
	notesService := notes.NewService(store, mutationQueue, store, syncService, logger)

	app := cli.New(io, authService, notesService, syncService, channel)

	if err := app.Run(ctx, command, args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("Scriba Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
