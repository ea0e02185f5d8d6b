package aqi

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func TestCalculate_GoodRange(t *testing.T) {
	for i := 0; i <= 120; i++ {
		c := float64(i) / 10
		got := Calculate(c)
		if got.AQI < 0 || got.AQI > 50 {
			t.Errorf("Calculate(%.1f).AQI = %v; want within [0, 50]", c, got.AQI)
		}
		if got.Category != Good {
			t.Errorf("Calculate(%.1f).Category = %q; want %q", c, got.Category, Good)
		}
		if got.Color != "#53d769" {
			t.Errorf("Calculate(%.1f).Color = %q; want #53d769", c, got.Color)
		}
	}
}

func TestCalculate_KnownValues(t *testing.T) {
	tests := []struct {
		name      string
		conc      float64
		formatted string
		category  Category
		color     string
	}{
		{name: "zero", conc: 0, formatted: "0.00", category: Good, color: "#53d769"},
		{name: "top of good", conc: 12.0, formatted: "50.00", category: Good, color: "#53d769"},
		{name: "bottom of moderate", conc: 12.1, formatted: "51.00", category: Moderate, color: "#dddd55"},
		{name: "top of moderate", conc: 35.4, formatted: "100.00", category: Moderate, color: "#dddd55"},
		{name: "sensitive groups", conc: 45.45, formatted: "125.50", category: UnhealthyForSensitiveGroups, color: "#ef8533"},
		{name: "unhealthy", conc: 55.5, formatted: "151.00", category: Unhealthy, color: "#ea3324"},
		{name: "very unhealthy", conc: 250.4, formatted: "300.00", category: VeryUnhealthy, color: "#8c1a4b"},
		{name: "lower hazardous", conc: 250.5, formatted: "301.00", category: Hazardous, color: "#731425"},
		{name: "top of table", conc: 500.4, formatted: "500.00", category: Hazardous, color: "#731425"},
		{name: "above table clamps", conc: 1000, formatted: "500.00", category: Hazardous, color: "#731425"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.conc)
			if got.Formatted() != tt.formatted {
				t.Errorf("Calculate(%v).Formatted() = %q; want %q", tt.conc, got.Formatted(), tt.formatted)
			}
			if got.Category != tt.category {
				t.Errorf("Calculate(%v).Category = %q; want %q", tt.conc, got.Category, tt.category)
			}
			if got.Color != tt.color {
				t.Errorf("Calculate(%v).Color = %q; want %q", tt.conc, got.Color, tt.color)
			}
		})
	}
}

func TestCalculate_NeverAboveMax(t *testing.T) {
	for _, c := range []float64{500.4, 500.5, 750, 1e6, math.Inf(1)} {
		if got := Calculate(c); got.AQI > MaxAQI {
			t.Errorf("Calculate(%v).AQI = %v; want <= %v", c, got.AQI, MaxAQI)
		}
	}
}

func TestCalculate_GapBetweenBandsUsesUpperBand(t *testing.T) {
	// 12.05 sits between Good's upper bound and Moderate's lower bound.
	got := Calculate(12.05)
	if got.Category != Moderate {
		t.Errorf("Calculate(12.05).Category = %q; want %q", got.Category, Moderate)
	}
}

func TestCalculate_NegativeFloorsAtZero(t *testing.T) {
	got := Calculate(-3)
	if got.AQI != 0 {
		t.Errorf("Calculate(-3).AQI = %v; want 0", got.AQI)
	}
	if got.Category != Good {
		t.Errorf("Calculate(-3).Category = %q; want %q", got.Category, Good)
	}
}

func TestCalculate_NaNUsesFirstBand(t *testing.T) {
	got := Calculate(math.NaN())
	if got.AQI != 0 {
		t.Errorf("Calculate(NaN).AQI = %v; want 0", got.AQI)
	}
	if got.Category != Good || got.Color != "#53d769" {
		t.Errorf("Calculate(NaN) = %q/%q; want %q/#53d769", got.Category, got.Color, Good)
	}
}

func TestResult_Rounded(t *testing.T) {
	tests := []struct {
		aqi  float64
		want int
	}{
		{aqi: 0, want: 0},
		{aqi: 49.4, want: 49},
		{aqi: 49.5, want: 50},
		{aqi: 99.99999999, want: 100},
	}
	for _, tt := range tests {
		if got := (Result{AQI: tt.aqi}).Rounded(); got != tt.want {
			t.Errorf("Result{AQI: %v}.Rounded() = %d; want %d", tt.aqi, got, tt.want)
		}
	}
}

func TestPM25Bands_Contiguous(t *testing.T) {
	bands := PM25Bands()
	if len(bands) != 7 {
		t.Fatalf("len(PM25Bands()) = %d; want 7", len(bands))
	}
	if bands[0].ConcLow != 0 {
		t.Errorf("first band ConcLow = %v; want 0", bands[0].ConcLow)
	}
	if bands[len(bands)-1].ConcHigh != 500.4 {
		t.Errorf("last band ConcHigh = %v; want 500.4", bands[len(bands)-1].ConcHigh)
	}
	for i := 0; i+1 < len(bands); i++ {
		step := bands[i+1].ConcLow - bands[i].ConcHigh
		if math.Abs(step-0.1) > epsilon {
			t.Errorf("band %d -> %d step = %v; want 0.1", i, i+1, step)
		}
		if bands[i+1].AQILow != bands[i].AQIHigh+1 {
			t.Errorf("band %d -> %d AQI step: %v -> %v; want +1", i, i+1, bands[i].AQIHigh, bands[i+1].AQILow)
		}
	}
}

func TestPM25Bands_ReturnsCopy(t *testing.T) {
	bands := PM25Bands()
	bands[0].ConcHigh = 999
	if PM25Bands()[0].ConcHigh != 12.0 {
		t.Fatal("mutating PM25Bands() result changed the package table")
	}
}

func TestValidate(t *testing.T) {
	t.Run("accepts in-table and above-table values", func(t *testing.T) {
		for _, c := range []float64{0, 12.3, 500.4, 1000} {
			if err := Validate(c); err != nil {
				t.Errorf("Validate(%v) = %v; want nil", c, err)
			}
		}
	})

	t.Run("rejects negative, NaN and infinite values", func(t *testing.T) {
		for _, c := range []float64{-0.1, math.NaN(), math.Inf(1), math.Inf(-1)} {
			err := Validate(c)
			if !errors.Is(err, ErrOutOfRange) {
				t.Errorf("Validate(%v) = %v; want ErrOutOfRange", c, err)
			}
		}
	})
}

func TestTrendOf(t *testing.T) {
	tests := []struct {
		name           string
		current, avg10 float64
		want           Trend
		glyph          string
	}{
		{name: "current above average", current: 10.1, avg10: 10, want: TrendUp, glyph: "↑"},
		{name: "current below average", current: 9.9, avg10: 10, want: TrendDown, glyph: "↓"},
		{name: "equal values go down", current: 10, avg10: 10, want: TrendDown, glyph: "↓"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrendOf(tt.current, tt.avg10)
			if got != tt.want {
				t.Errorf("TrendOf(%v, %v) = %q; want %q", tt.current, tt.avg10, got, tt.want)
			}
			if got.Glyph() != tt.glyph {
				t.Errorf("Glyph() = %q; want %q", got.Glyph(), tt.glyph)
			}
		})
	}
}
