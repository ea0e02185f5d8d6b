package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"purpleair-aqi/internal/config"
	"purpleair-aqi/internal/db"
	"purpleair-aqi/internal/httpapi"
	"purpleair-aqi/internal/metrics"
	"purpleair-aqi/internal/migrate"
	"purpleair-aqi/internal/modules/airquality"
	"purpleair-aqi/internal/modules/airquality/service"
	"purpleair-aqi/internal/modules/airquality/views"
	"purpleair-aqi/internal/mqtt"
	"purpleair-aqi/internal/purpleair"
)

// Run serves the aqi HTTP api until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"purpleairLegacyURL", cfg.PurpleAirLegacyURL,
		"purpleairAPIURL", cfg.PurpleAirAPIURL,
		"purpleairAPIKeySet", cfg.PurpleAirAPIKey != "",
		"purpleairTimeout", cfg.PurpleAirTimeout,
		"strictFields", cfg.StrictFields,
		"cacheTTL", cfg.CacheTTL,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"mqttEnabled", cfg.MQTTEnabled,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopicPrefix", cfg.MQTTTopicPrefix,
	)

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(ctx, dbConn, logger); err != nil {
		return err
	}
	logger.Info("database ready")

	if err := views.LoadTemplates(); err != nil {
		return err
	}

	var publisher service.Publisher
	if cfg.MQTTEnabled {
		p := mqtt.NewPublisher(cfg, logger)
		// Short timeout so a missing broker does not block startup; paho keeps
		// retrying in the background.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err := p.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing, will retry)", "error", err)
		}
		defer p.Disconnect()
		publisher = p
	}

	m := metrics.New()
	client := purpleair.NewClient(purpleair.Options{
		LegacyURL: cfg.PurpleAirLegacyURL,
		APIURL:    cfg.PurpleAirAPIURL,
		APIKey:    cfg.PurpleAirAPIKey,
		Timeout:   cfg.PurpleAirTimeout,
	})

	mux := httpapi.NewMux(dbConn, m)
	airquality.RegisterFeature(mux, airquality.Deps{
		Config:    cfg,
		DB:        dbConn,
		Fetcher:   client,
		Publisher: publisher,
		Metrics:   m,
		Logger:    logger,
	})

	srv := httpapi.NewServer(cfg, mux, logger, m)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
