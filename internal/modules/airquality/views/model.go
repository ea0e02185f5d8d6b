package views

import (
	"strconv"

	"purpleair-aqi/internal/modules/airquality/types"
)

const widgetTitle = "Purple Air"

// WidgetModel is the home-screen face: four lines over the band color.
type WidgetModel struct {
	Title         string
	AQI           string
	Category      string
	Concentration string
	Background    string
	Foreground    string
}

type TableRow struct {
	Label string
	AQI   string
}

type TableModel struct {
	Header string
	Rows   []TableRow
}

func NewWidgetModel(r types.Report) WidgetModel {
	return WidgetModel{
		Title:         widgetTitle,
		AQI:           strconv.Itoa(r.AQI.Rounded()) + " " + r.Trend.Glyph(),
		Category:      string(r.AQI.Category),
		Concentration: strconv.FormatFloat(r.Concentration, 'f', -1, 64) + " PM2.5",
		Background:    r.AQI.Color,
		Foreground:    "#ffffff",
	}
}

func NewTableModel(r types.Report) TableModel {
	rows := make([]TableRow, 0, len(r.Windows))
	for _, w := range r.Windows {
		rows = append(rows, TableRow{Label: w.Label, AQI: w.AQI.Formatted()})
	}
	return TableModel{
		Header: "Purple Air Stats in " + r.Label,
		Rows:   rows,
	}
}
