package types

import (
	"time"

	"purpleair-aqi/internal/aqi"
	"purpleair-aqi/internal/purpleair"
)

// WindowAQI is the index for one averaging window of the stats table.
type WindowAQI struct {
	Label         string     `json:"label"`
	Concentration float64    `json:"concentration"`
	AQI           aqi.Result `json:"aqi"`
}

// Report is the outcome of one sensor lookup.
type Report struct {
	SensorIndex   string             `json:"sensorIndex"`
	Label         string             `json:"label"`
	Schema        purpleair.Schema   `json:"schema"`
	Concentration float64            `json:"concentration"`
	AQI           aqi.Result         `json:"aqi"`
	Trend         aqi.Trend          `json:"trend"`
	Averages      purpleair.Averages `json:"averages"`
	Windows       []WindowAQI        `json:"windows"`
	MissingFields []string           `json:"missingFields,omitempty"`
	FetchedAt     time.Time          `json:"fetchedAt"`
}

// Snapshot is the stored row for one computed report.
type Snapshot struct {
	ID            string    `json:"id"`
	SensorIndex   string    `json:"sensorIndex"`
	Label         string    `json:"label"`
	Schema        string    `json:"schema"`
	Concentration float64   `json:"concentration"`
	AQI           float64   `json:"aqi"`
	Category      string    `json:"category"`
	Color         string    `json:"color"`
	Trend         string    `json:"trend"`
	Avg10Min      float64   `json:"avg10Min"`
	MissingFields []string  `json:"missingFields,omitempty"`
	FetchedAt     time.Time `json:"fetchedAt"`
}

// NewSnapshot flattens a report into its stored form. ID is left for the
// repository to assign.
func NewSnapshot(r Report) Snapshot {
	return Snapshot{
		SensorIndex:   r.SensorIndex,
		Label:         r.Label,
		Schema:        string(r.Schema),
		Concentration: r.Concentration,
		AQI:           r.AQI.AQI,
		Category:      string(r.AQI.Category),
		Color:         r.AQI.Color,
		Trend:         string(r.Trend),
		Avg10Min:      r.Averages.Avg10Min,
		MissingFields: r.MissingFields,
		FetchedAt:     r.FetchedAt,
	}
}
