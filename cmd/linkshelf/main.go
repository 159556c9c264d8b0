package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"linkshelf/internal/bot"
	"linkshelf/internal/config"
	"linkshelf/internal/refresh"
	"linkshelf/internal/service"
	"linkshelf/internal/submission"
	"linkshelf/internal/viewstate"
)

// app bundles the components shared by the bot and the CLI subcommands.
type app struct {
	cfg        config.Config
	log        *logrus.Logger
	client     *service.HTTPClient
	store      *viewstate.Store
	refresher  *refresh.Orchestrator
	controller *submission.Controller
}

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	// stdout is reserved for subcommand output.
	log.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid LOG_LEVEL %q: %v\n", cfg.LogLevel, err)
		os.Exit(1)
	}
	log.SetLevel(level)

	log.WithFields(logrus.Fields{
		"service_url":     cfg.ServiceURL,
		"request_timeout": cfg.RequestTimeout.String(),
	}).Debug("Configuration loaded successfully")

	a, err := newApp(cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize components: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	if len(args) == 0 {
		if err := a.runBot(ctx); err != nil {
			log.WithError(err).Error("Bot stopped with error")
			os.Exit(1)
		}
		return
	}

	switch args[0] {
	case "help", "--help", "-h":
		printHelp(os.Stdout)
	case "save":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: linkshelf save <url>")
			os.Exit(2)
		}
		os.Exit(a.runSave(ctx, os.Stdout, args[1]))
	case "list":
		os.Exit(a.runList(ctx, os.Stdout))
	case "ping":
		if err := a.client.Ping(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Bookmark service unavailable: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stdout, "Bookmark service is up.")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", args[0])
		printHelp(os.Stderr)
		os.Exit(2)
	}
}

func newApp(cfg config.Config, log *logrus.Logger) (*app, error) {
	client, err := service.NewHTTPClient(cfg.ServiceURL, cfg.RequestTimeout, log)
	if err != nil {
		return nil, err
	}
	store := viewstate.NewStore(log)
	refresher := refresh.NewOrchestrator(client, store, log)

	return &app{
		cfg:        cfg,
		log:        log,
		client:     client,
		store:      store,
		refresher:  refresher,
		controller: submission.NewController(client, refresher, log),
	}, nil
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `linkshelf - save links through the bookmark service

Usage:
  linkshelf               Run the Telegram bot (needs TELEGRAM_BOT_TOKEN)
  linkshelf save <url>    Save a bookmark and print the refreshed list
  linkshelf list          Print all saved bookmarks
  linkshelf ping          Check that the bookmark service answers
  linkshelf help          Show this help

Configuration (./configs/config.yaml or environment):
  BOOKMARK_SERVICE_URL    default http://127.0.0.1:8000
  REQUEST_TIMEOUT         default 30s
  LOG_LEVEL               default info
`)
}

// runBot starts the Telegram front-end and blocks until ctx is cancelled.
func (a *app) runBot(ctx context.Context) error {
	if err := a.cfg.RequireBot(); err != nil {
		return err
	}

	handler, err := bot.NewHandler(a.cfg, a.controller, a.refresher, a.store, a.log)
	if err != nil {
		return err
	}

	if err := a.client.Ping(ctx); err != nil {
		a.log.WithError(err).Warn("Bookmark service is not answering yet")
	}
	// Initial load so /list has data on first use.
	go func() { _ = a.refresher.Refresh(ctx) }()

	a.log.Info("linkshelf bot is running. Press Ctrl+C to exit.")
	handler.Start(ctx)
	a.log.Info("linkshelf shut down gracefully.")
	return nil
}

func (a *app) runSave(ctx context.Context, w io.Writer, url string) int {
	state, dispatched := a.controller.Submit(ctx, url)
	if !dispatched {
		fmt.Fprintln(os.Stderr, "Nothing to save: the url is empty.")
		return 2
	}
	defer func() { _ = a.controller.Dismiss() }()

	if state.Phase == submission.PhaseFailed {
		fmt.Fprintf(os.Stderr, "Sorry, something went wrong: %v\n", state.Reason)
		return 1
	}
	fmt.Fprintf(w, "Bookmark added: %s\n\n", state.URL)
	return printBookmarks(w, a.store.Snapshot())
}

func (a *app) runList(ctx context.Context, w io.Writer) int {
	_ = a.refresher.Refresh(ctx)
	return printBookmarks(w, a.store.Snapshot())
}

// printBookmarks writes the gallery as a table and returns the exit code.
func printBookmarks(w io.Writer, state viewstate.ViewState) int {
	code := 0
	if state.Err != nil {
		fmt.Fprintf(os.Stderr, "Could not refresh bookmarks: %v\n", state.Err)
		code = 1
	}
	if len(state.Bookmarks) == 0 {
		fmt.Fprintln(w, "No bookmarks saved yet.")
		return code
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tURL\tSAVED BY\tARCHIVE")
	for _, b := range state.Bookmarks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.Title, b.URL, b.GeneratedBy, b.ArchiveURL)
	}
	_ = tw.Flush()
	return code
}
