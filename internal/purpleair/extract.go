package purpleair

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs"
)

// Schema identifies which upstream response layout a payload uses.
type Schema string

const (
	// SchemaLegacy is the public www.purpleair.com/json layout: a results
	// array whose Stats field carries pm and v1..v6.
	SchemaLegacy Schema = "legacy"
	// SchemaCurrent is the api.purpleair.com/v1 layout: a sensor object whose
	// stats use descriptive pm2.5_* names.
	SchemaCurrent Schema = "current"
)

// Averages holds the PM2.5 concentrations (µg/m³) for every averaging window.
type Averages struct {
	Current   float64 `json:"current"`
	Avg10Min  float64 `json:"avg10Min"`
	Avg30Min  float64 `json:"avg30Min"`
	Avg1Hour  float64 `json:"avg1Hour"`
	Avg6Hour  float64 `json:"avg6Hour"`
	Avg24Hour float64 `json:"avg24Hour"`
	Avg1Week  float64 `json:"avg1Week"`
}

// Window is one labelled averaging period.
type Window struct {
	Label         string  `json:"label"`
	Concentration float64 `json:"concentration"`
}

// Windows lists the averages in the order the stats table shows them.
func (a Averages) Windows() []Window {
	return []Window{
		{Label: "Real time or current", Concentration: a.Current},
		{Label: "10 minute average", Concentration: a.Avg10Min},
		{Label: "30 minute average", Concentration: a.Avg30Min},
		{Label: "1 hour average", Concentration: a.Avg1Hour},
		{Label: "6 hour average", Concentration: a.Avg6Hour},
		{Label: "24 hour average", Concentration: a.Avg24Hour},
		{Label: "One week average", Concentration: a.Avg1Week},
	}
}

// Reading is what one upstream response yields. Missing lists the fields
// that were absent or not numeric and therefore defaulted to 0.
type Reading struct {
	Schema        Schema   `json:"schema"`
	SensorIndex   string   `json:"sensorIndex"`
	Label         string   `json:"label"`
	Concentration float64  `json:"concentration"`
	Averages      Averages `json:"averages"`
	Missing       []string `json:"missing,omitempty"`
}

type Extractor interface {
	Schema() Schema
	Extract(raw []byte) (Reading, error)
}

// statsFields maps each Averages field to its key per schema. The first
// legacy key wins; purpleair.com used both "pm" and "v" for the live value.
var statsFields = map[Schema][7][]string{
	SchemaLegacy: {
		{"pm", "v"}, {"v1"}, {"v2"}, {"v3"}, {"v4"}, {"v5"}, {"v6"},
	},
	SchemaCurrent: {
		{"pm2.5"}, {"pm2.5_10minute"}, {"pm2.5_30minute"}, {"pm2.5_60minute"},
		{"pm2.5_6hour"}, {"pm2.5_24hour"}, {"pm2.5_1week"},
	},
}

// ExtractAverages reads the averages out of a stats record. Absent fields
// default to 0 and are returned in missing; an empty or nil record is not an
// error.
func ExtractAverages(stats map[string]any, schema Schema) (Averages, []string) {
	fields, ok := statsFields[schema]
	if !ok {
		fields = statsFields[SchemaLegacy]
	}

	var vals [7]float64
	var missing []string
	for i, keys := range fields {
		found := false
		for _, k := range keys {
			if v, ok := toFloat(stats[k]); ok {
				vals[i] = v
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, keys[0])
		}
	}

	return Averages{
		Current:   vals[0],
		Avg10Min:  vals[1],
		Avg30Min:  vals[2],
		Avg1Hour:  vals[3],
		Avg6Hour:  vals[4],
		Avg24Hour: vals[5],
		Avg1Week:  vals[6],
	}, missing
}

// Detect picks the schema from the response shape.
func Detect(raw []byte) (Schema, error) {
	doc, err := parse(raw)
	if err != nil {
		return "", err
	}
	return detect(doc)
}

func detect(doc *gabs.Container) (Schema, error) {
	if _, ok := doc.Search("sensor").Data().(map[string]interface{}); ok {
		return SchemaCurrent, nil
	}
	if _, ok := doc.Search("results").Data().([]interface{}); ok {
		return SchemaLegacy, nil
	}
	return "", fmt.Errorf("%w: neither sensor nor results present", ErrSchema)
}

// ExtractorFor returns nil for an unknown schema.
func ExtractorFor(schema Schema) Extractor {
	switch schema {
	case SchemaLegacy:
		return LegacyExtractor{}
	case SchemaCurrent:
		return CurrentExtractor{}
	}
	return nil
}

// Extract detects the schema and extracts with the matching variant.
func Extract(raw []byte) (Reading, error) {
	doc, err := parse(raw)
	if err != nil {
		return Reading{}, err
	}
	schema, err := detect(doc)
	if err != nil {
		return Reading{}, err
	}
	if schema == SchemaCurrent {
		return extractCurrent(doc)
	}
	return extractLegacy(doc)
}

type LegacyExtractor struct{}

func (LegacyExtractor) Schema() Schema { return SchemaLegacy }

func (LegacyExtractor) Extract(raw []byte) (Reading, error) {
	doc, err := parse(raw)
	if err != nil {
		return Reading{}, err
	}
	return extractLegacy(doc)
}

func extractLegacy(doc *gabs.Container) (Reading, error) {
	results, ok := doc.Search("results").Data().([]interface{})
	if !ok {
		return Reading{}, fmt.Errorf("%w: results is not an array", ErrSchema)
	}
	if len(results) == 0 {
		return Reading{}, fmt.Errorf("%w: results is empty", ErrSchema)
	}
	first := doc.Search("results").Index(0)
	if _, ok := first.Data().(map[string]interface{}); !ok {
		return Reading{}, fmt.Errorf("%w: results[0] is not an object", ErrSchema)
	}

	r := Reading{Schema: SchemaLegacy}
	r.SensorIndex = idString(first.Search("ID").Data())

	if label, ok := first.Search("Label").Data().(string); ok {
		r.Label = label
	} else {
		r.Missing = append(r.Missing, "results[0].Label")
	}

	if c, ok := toFloat(first.Search("PM2_5Value").Data()); ok {
		r.Concentration = c
	} else {
		r.Missing = append(r.Missing, "results[0].PM2_5Value")
	}

	stats, err := legacyStats(first.Search("Stats").Data())
	if err != nil {
		return Reading{}, err
	}
	avgs, missing := ExtractAverages(stats, SchemaLegacy)
	r.Averages = avgs
	for _, k := range missing {
		r.Missing = append(r.Missing, "results[0].Stats."+k)
	}
	return r, nil
}

// legacyStats accepts Stats as a JSON encoded string (what the public
// endpoint actually sends) or as an inline object.
func legacyStats(v interface{}) (map[string]interface{}, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		return s, nil
	case string:
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		inner, err := gabs.ParseJSON([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("%w: Stats is not valid JSON: %v", ErrSchema, err)
		}
		m, ok := inner.Data().(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: Stats is not an object", ErrSchema)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: Stats has type %T", ErrSchema, v)
	}
}

type CurrentExtractor struct{}

func (CurrentExtractor) Schema() Schema { return SchemaCurrent }

func (CurrentExtractor) Extract(raw []byte) (Reading, error) {
	doc, err := parse(raw)
	if err != nil {
		return Reading{}, err
	}
	return extractCurrent(doc)
}

func extractCurrent(doc *gabs.Container) (Reading, error) {
	sensor := doc.Search("sensor")
	if _, ok := sensor.Data().(map[string]interface{}); !ok {
		return Reading{}, fmt.Errorf("%w: sensor is not an object", ErrSchema)
	}

	r := Reading{Schema: SchemaCurrent}
	r.SensorIndex = idString(sensor.Search("sensor_index").Data())
	if r.SensorIndex == "" {
		r.SensorIndex = idString(doc.Search("sensor_index").Data())
	}

	if name, ok := sensor.Search("name").Data().(string); ok {
		r.Label = name
	} else {
		r.Missing = append(r.Missing, "sensor.name")
	}

	// Keys contain dots, so they are searched as single hierarchy elements.
	if c, ok := toFloat(sensor.Search("pm2.5").Data()); ok {
		r.Concentration = c
	} else {
		r.Missing = append(r.Missing, "sensor.pm2.5")
	}

	stats, _ := sensor.Search("stats").Data().(map[string]interface{})
	avgs, missing := ExtractAverages(stats, SchemaCurrent)
	r.Averages = avgs
	for _, k := range missing {
		r.Missing = append(r.Missing, "sensor.stats."+k)
	}
	return r, nil
}

func parse(raw []byte) (*gabs.Container, error) {
	doc, err := gabs.ParseJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if _, ok := doc.Data().(map[string]interface{}); !ok {
		return nil, fmt.Errorf("%w: top level is not an object", ErrSchema)
	}
	return doc, nil
}

// toFloat accepts JSON numbers and numeric strings.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func idString(v interface{}) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatInt(int64(n), 10)
	case json.Number:
		return n.String()
	case string:
		return n
	}
	return ""
}
