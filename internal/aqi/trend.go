package aqi

// Trend tells whether the current reading is above the 10 minute average.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

// TrendOf is up only when current is strictly greater than avg10.
func TrendOf(current, avg10 float64) Trend {
	if current > avg10 {
		return TrendUp
	}
	return TrendDown
}

// Glyph is the arrow drawn next to the index.
func (t Trend) Glyph() string {
	if t == TrendUp {
		return "↑"
	}
	return "↓"
}
