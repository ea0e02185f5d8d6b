// Package aqi converts PM2.5 concentrations (µg/m³) into the U.S. EPA Air
// Quality Index using piecewise-linear interpolation over fixed breakpoint
// bands.
package aqi

import (
	"errors"
	"fmt"
	"math"
)

// MaxAQI is the top of the index scale. Calculated values never exceed it.
const MaxAQI = 500.0

// ErrOutOfRange reports a concentration that cannot be turned into an index.
var ErrOutOfRange = errors.New("concentration out of range")

type Category string

const (
	Good                        Category = "Good"
	Moderate                    Category = "Moderate"
	UnhealthyForSensitiveGroups Category = "Unhealthy for Sensitive Groups"
	Unhealthy                   Category = "Unhealthy"
	VeryUnhealthy               Category = "Very Unhealthy"
	Hazardous                   Category = "Hazardous"
)

// Band maps a concentration range onto an AQI sub-range.
type Band struct {
	ConcLow  float64  `json:"concLow"`
	ConcHigh float64  `json:"concHigh"`
	AQILow   float64  `json:"aqiLow"`
	AQIHigh  float64  `json:"aqiHigh"`
	Category Category `json:"category"`
	Color    string   `json:"color"`
}

// pm25Bands is ordered by ascending ConcLow and never mutated.
var pm25Bands = [...]Band{
	{ConcLow: 0.0, ConcHigh: 12.0, AQILow: 0, AQIHigh: 50, Category: Good, Color: "#53d769"},
	{ConcLow: 12.1, ConcHigh: 35.4, AQILow: 51, AQIHigh: 100, Category: Moderate, Color: "#dddd55"},
	{ConcLow: 35.5, ConcHigh: 55.4, AQILow: 101, AQIHigh: 150, Category: UnhealthyForSensitiveGroups, Color: "#ef8533"},
	{ConcLow: 55.5, ConcHigh: 150.4, AQILow: 151, AQIHigh: 200, Category: Unhealthy, Color: "#ea3324"},
	{ConcLow: 150.5, ConcHigh: 250.4, AQILow: 201, AQIHigh: 300, Category: VeryUnhealthy, Color: "#8c1a4b"},
	{ConcLow: 250.5, ConcHigh: 350.4, AQILow: 301, AQIHigh: 400, Category: Hazardous, Color: "#731425"},
	{ConcLow: 350.5, ConcHigh: 500.4, AQILow: 401, AQIHigh: 500, Category: Hazardous, Color: "#731425"},
}

// PM25Bands returns a copy of the PM2.5 breakpoint table.
func PM25Bands() []Band {
	out := make([]Band, len(pm25Bands))
	copy(out, pm25Bands[:])
	return out
}

// Result is the index computed for one concentration.
type Result struct {
	AQI      float64  `json:"aqi"`
	Category Category `json:"category"`
	Color    string   `json:"color"`
}

// Formatted renders the index with two decimals, as shown in the table view.
func (r Result) Formatted() string {
	return fmt.Sprintf("%.2f", r.AQI)
}

// Rounded is the whole-number index shown on the widget face.
func (r Result) Rounded() int {
	return int(math.Round(r.AQI))
}

// Validate rejects concentrations no sensor can report. Values above the
// table are valid; Calculate clamps them into the last band.
func Validate(c float64) error {
	switch {
	case math.IsNaN(c):
		return fmt.Errorf("%w: NaN", ErrOutOfRange)
	case math.IsInf(c, 0):
		return fmt.Errorf("%w: %v", ErrOutOfRange, c)
	case c < 0:
		return fmt.Errorf("%w: %.2f is negative", ErrOutOfRange, c)
	}
	return nil
}

// Calculate selects the lowest band whose upper bound is >= c, falling back to
// the last band, and interpolates within it. The result is kept within
// [0, MaxAQI].
func Calculate(c float64) Result {
	band := bandFor(c)
	v := (band.AQIHigh-band.AQILow)/(band.ConcHigh-band.ConcLow)*(c-band.ConcLow) + band.AQILow
	switch {
	case math.IsNaN(v) || v < 0:
		v = 0
	case v > MaxAQI:
		v = MaxAQI
	}
	return Result{AQI: v, Category: band.Category, Color: band.Color}
}

// bandFor sends NaN to the first band so Calculate reports 0 / Good rather
// than a floored value under the last band's category.
func bandFor(c float64) Band {
	if math.IsNaN(c) {
		return pm25Bands[0]
	}
	for _, b := range pm25Bands {
		if b.ConcHigh >= c {
			return b
		}
	}
	return pm25Bands[len(pm25Bands)-1]
}
