// aqi looks up one PurpleAir sensor and prints its PM2.5 AQI, either as the
// compact widget face or as the table of averaging windows.
//
// Usage:
//
//	aqi [-mode widget|table|json] [-format text|html] <sensorIndex[:apiKey]>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"purpleair-aqi/internal/config"
	"purpleair-aqi/internal/logging"
	"purpleair-aqi/internal/modules/airquality/service"
	"purpleair-aqi/internal/modules/airquality/views"
	"purpleair-aqi/internal/purpleair"
)

const appName = "aqi"

var version = "dev"

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	mode := fs.String("mode", "widget", "output: widget, table or json")
	format := fs.String("format", "text", "rendering for widget/table: text or html")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s [flags] <sensorIndex[:apiKey]>\n", appName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}

	renderer, err := rendererFor(*format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	switch *mode {
	case "widget", "table", "json":
	default:
		fmt.Fprintf(stderr, "invalid -mode %q (allowed: widget, table, json)\n", *mode)
		return exitUsage
	}

	param, err := purpleair.ParseParameter(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return exitFailed
	}
	logger := logging.NewWithWriter(stderr, cfg, version, appName)

	svc := service.NewService(service.Options{
		Fetcher: purpleair.NewClient(purpleair.Options{
			LegacyURL: cfg.PurpleAirLegacyURL,
			APIURL:    cfg.PurpleAirAPIURL,
			APIKey:    cfg.PurpleAirAPIKey,
			Timeout:   cfg.PurpleAirTimeout,
		}),
		Logger:       logger,
		StrictFields: cfg.StrictFields,
	})

	report, err := svc.Lookup(ctx, param)
	if err != nil {
		logger.Error("lookup failed", "sensor", param.String(), "error", err)
		return exitFailed
	}

	switch *mode {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(report)
	case "table":
		err = renderer.RenderTable(stdout, views.NewTableModel(report))
	default:
		err = renderer.RenderWidget(stdout, views.NewWidgetModel(report))
	}
	if err != nil {
		logger.Error("render failed", "mode", *mode, "error", err)
		return exitFailed
	}
	return exitOK
}

func rendererFor(format string) (views.Renderer, error) {
	switch format {
	case "text":
		return views.TextRenderer{}, nil
	case "html":
		if err := views.LoadTemplates(); err != nil {
			return nil, err
		}
		return views.HTMLRenderer{}, nil
	default:
		return nil, fmt.Errorf("invalid -format %q (allowed: text, html)", format)
	}
}
