package airquality

import (
	"database/sql"
	"log/slog"
	"net/http"

	"purpleair-aqi/internal/config"
	"purpleair-aqi/internal/metrics"
	"purpleair-aqi/internal/modules/airquality/controller"
	"purpleair-aqi/internal/modules/airquality/repository"
	"purpleair-aqi/internal/modules/airquality/service"
	"purpleair-aqi/internal/modules/airquality/views"
)

type Deps struct {
	Config  config.Config
	DB      *sql.DB
	Fetcher service.Fetcher
	// Publisher may be nil when MQTT is disabled.
	Publisher service.Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

func RegisterFeature(mux *http.ServeMux, deps Deps) {
	var snapshotRepository repository.SnapshotRepository
	if deps.DB != nil {
		snapshotRepository = repository.NewRepository(deps.DB)
	}
	aqiService := service.NewService(service.Options{
		Fetcher:      deps.Fetcher,
		Repository:   snapshotRepository,
		Publisher:    deps.Publisher,
		Metrics:      deps.Metrics,
		Logger:       deps.Logger,
		CacheTTL:     deps.Config.CacheTTL,
		StrictFields: deps.Config.StrictFields,
	})
	aqiController := controller.NewAirQualityController(aqiService, snapshotRepository, views.HTMLRenderer{})
	aqiController.RegisterRoutes(mux)
}
