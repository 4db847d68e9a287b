package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"ecommerce-dashboard/internal/config"
	"ecommerce-dashboard/internal/dataset"
	"ecommerce-dashboard/internal/export"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/services"
	"ecommerce-dashboard/internal/views"
)

type options struct {
	dataDir string
	format  string
	output  string
	start   time.Time
	end     time.Time
	timeout time.Duration
}

func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(views.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must use the YYYY-MM-DD format, got %q", name, value)
	}
	return t, nil
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		opts       options
		start, end string
	)
	fs.StringVar(&opts.dataDir, "data", "./data", "Directory holding the dashboard CSV tables")
	fs.StringVar(&opts.format, "format", export.FormatJSON, "Output format ("+strings.Join(export.Formats, " or ")+")")
	fs.StringVar(&opts.output, "output", "reports/", "Output folder path")
	fs.StringVar(&start, "start", "", "First day of the daily range, YYYY-MM-DD (default: first order)")
	fs.StringVar(&end, "end", "", "Last day of the daily range, YYYY-MM-DD (default: last order)")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Maximum time to load the tables")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.format = strings.ToLower(opts.format)
	if !slices.Contains(export.Formats, opts.format) {
		return opts, fmt.Errorf("unknown format %q", opts.format)
	}

	var err error
	if opts.start, err = parseDateFlag("start", start); err != nil {
		return opts, err
	}
	if opts.end, err = parseDateFlag("end", end); err != nil {
		return opts, err
	}
	return opts, nil
}

func run(ctx context.Context, args []string, logger *slog.Logger, stderr io.Writer) (string, error) {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return "", err
	}

	startTime := time.Now()
	logger.Info("starting export", "data", opts.dataDir, "format", opts.format)

	analytics, err := services.NewAnalytics(dataset.NewLoader(opts.dataDir, logger), 1, logger)
	if err != nil {
		return "", err
	}

	loadCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	if err := analytics.Load(loadCtx); err != nil {
		return "", err
	}

	session, err := analytics.Session("")
	if err != nil {
		return "", err
	}

	bundle := session.Bundle(opts.start, opts.end)
	for view, message := range bundle.Errors {
		logger.Warn("view skipped", "view", view, "error", message)
	}

	filename, err := export.Export(opts.output, opts.format, bundle)
	if err != nil {
		return "", err
	}

	logger.Info("export finished",
		"file", filename,
		"failed_views", len(bundle.Errors),
		"duration", time.Since(startTime),
	)
	return filename, nil
}

func main() {
	logger := observability.NewLogger(config.LoggerConfig{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: "text",
	})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	filename, err := run(ctx, os.Args[1:], logger, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	fmt.Println("Exported to:", filename)
}
