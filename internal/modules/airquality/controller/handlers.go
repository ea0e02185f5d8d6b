package controller

import (
	"io"
	"log/slog"
	"net/http"

	"purpleair-aqi/internal/aqi"
	"purpleair-aqi/internal/modules/airquality/types"
	"purpleair-aqi/internal/modules/airquality/views"
	"purpleair-aqi/internal/purpleair"
	"purpleair-aqi/internal/utils"
)

// CalculateResponse echoes the input next to its index.
type CalculateResponse struct {
	PM25 float64 `json:"pm25"`
	aqi.Result
}

func (c *airQualityControllerImpl) handleAQI(w http.ResponseWriter, r *http.Request) {
	report, ok := c.lookupParam(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, report)
}

func (c *airQualityControllerImpl) handleSensorAQI(w http.ResponseWriter, r *http.Request) {
	p, err := parseSensorPath(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := c.service.Lookup(r.Context(), p)
	if err != nil {
		writeLookupError(w, p, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, report)
}

func (c *airQualityControllerImpl) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	p, err := parseSensorPath(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := parseSnapshotsQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if c.repository == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "snapshot storage is not configured")
		return
	}

	snapshots, err := c.repository.GetLatestSnapshots(p.SensorIndex, limit)
	if err != nil {
		slog.Error("snapshots: query failed", "sensor", p.SensorIndex, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load snapshots")
		return
	}
	utils.WriteJSON(w, http.StatusOK, snapshots)
}

func (c *airQualityControllerImpl) handleCalculate(w http.ResponseWriter, r *http.Request) {
	conc, err := parseConcentration(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, CalculateResponse{PM25: conc, Result: aqi.Calculate(conc)})
}

func (c *airQualityControllerImpl) handleWidget(w http.ResponseWriter, r *http.Request) {
	report, ok := c.lookupParam(w, r)
	if !ok {
		return
	}
	c.writePage(w, "widget", func(out io.Writer) error {
		return c.renderer.RenderWidget(out, views.NewWidgetModel(report))
	})
}

func (c *airQualityControllerImpl) handleTable(w http.ResponseWriter, r *http.Request) {
	report, ok := c.lookupParam(w, r)
	if !ok {
		return
	}
	c.writePage(w, "table", func(out io.Writer) error {
		return c.renderer.RenderTable(out, views.NewTableModel(report))
	})
}

// lookupParam runs the lookup for ?param= and answers the request itself on
// failure.
func (c *airQualityControllerImpl) lookupParam(w http.ResponseWriter, r *http.Request) (types.Report, bool) {
	p, err := purpleair.ParseParameter(r.URL.Query().Get("param"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return types.Report{}, false
	}
	report, err := c.service.Lookup(r.Context(), p)
	if err != nil {
		writeLookupError(w, p, err)
		return types.Report{}, false
	}
	return report, true
}

func (c *airQualityControllerImpl) writePage(w http.ResponseWriter, page string, render func(io.Writer) error) {
	if err := utils.WriteHTML(w, http.StatusOK, render); err != nil {
		slog.Error("page render failed", "page", page, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
	}
}

func writeLookupError(w http.ResponseWriter, p purpleair.Parameter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("aqi lookup failed", "sensor", p.String(), "error", err)
		utils.WriteError(w, status, "internal error")
		return
	}
	slog.Warn("aqi lookup failed", "sensor", p.String(), "status", status, "error", err)
	utils.WriteError(w, status, err.Error())
}
