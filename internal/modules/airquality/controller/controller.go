package controller

import (
	"context"
	"net/http"

	"purpleair-aqi/internal/modules/airquality/repository"
	"purpleair-aqi/internal/modules/airquality/types"
	"purpleair-aqi/internal/modules/airquality/views"
	"purpleair-aqi/internal/purpleair"
)

// AQIService is the lookup the handlers need. *service.Service implements it.
type AQIService interface {
	Lookup(ctx context.Context, p purpleair.Parameter) (types.Report, error)
}

type AirQualityController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type airQualityControllerImpl struct {
	service    AQIService
	repository repository.SnapshotRepository
	renderer   views.Renderer
}

func NewAirQualityController(service AQIService, repository repository.SnapshotRepository, renderer views.Renderer) AirQualityController {
	if renderer == nil {
		renderer = views.HTMLRenderer{}
	}
	return &airQualityControllerImpl{service: service, repository: repository, renderer: renderer}
}

func (c *airQualityControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/aqi", c.handleAQI)
	mux.HandleFunc("GET /api/v1/calculate", c.handleCalculate)
	mux.HandleFunc("GET /api/v1/sensors/{id}/aqi", c.handleSensorAQI)
	mux.HandleFunc("GET /api/v1/sensors/{id}/snapshots", c.handleSnapshots)
	mux.HandleFunc("GET /widget", c.handleWidget)
	mux.HandleFunc("GET /table", c.handleTable)
}
