package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"purpleair-aqi/internal/config"
	"purpleair-aqi/internal/db"
	"purpleair-aqi/internal/logging"
	"purpleair-aqi/internal/migrate"
	"purpleair-aqi/internal/modules/airquality/repository"
)

const appName = "aqi-tools"

var version = "dev"

const usage = `usage: %s <command> [args]
  migrate          apply pending schema migrations
  status [sensor]  list pending migrations; with a sensor, its stored snapshots
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintf(stderr, usage, appName)
		return 1
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return 1
	}
	logger := logging.NewWithWriter(stderr, cfg, version, appName)

	conn, err := db.Open(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "db open: %v\n", err)
		return 1
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			logger.Error("db close", "err", closeErr)
		}
	}()

	switch args[0] {
	case "migrate":
		if err := migrate.Run(ctx, conn, logger); err != nil {
			fmt.Fprintf(stderr, "migrate: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, "migrations applied")
	case "status":
		if err := status(ctx, conn, args[1:], stdout, logger); err != nil {
			fmt.Fprintf(stderr, "status: %v\n", err)
			return 1
		}
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", args[0])
		return 1
	}
	return 0
}

func status(ctx context.Context, conn *sql.DB, args []string, out io.Writer, logger *slog.Logger) error {
	pending, err := migrate.Pending(ctx, conn, nil)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(out, "schema up to date")
	}
	for _, m := range pending {
		fmt.Fprintf(out, "pending %s_%s\n", m.Version, m.Name)
	}
	if len(args) == 0 {
		return nil
	}
	if len(pending) > 0 {
		return fmt.Errorf("run migrate before querying snapshots")
	}

	sensor := args[0]
	repo := repository.NewRepository(conn)
	n, err := repo.CountSnapshots(sensor)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "sensor %s: %d snapshots\n", sensor, n)

	latest, err := repo.GetLatestSnapshots(sensor, 1)
	if err != nil {
		return err
	}
	if len(latest) > 0 {
		s := latest[0]
		fmt.Fprintf(out, "latest %s aqi=%.2f %s trend=%s\n", s.FetchedAt.Format("2006-01-02T15:04:05Z07:00"), s.AQI, s.Category, s.Trend)
	}
	logger.Debug("status done", "sensor", sensor, "snapshots", n)
	return nil
}
