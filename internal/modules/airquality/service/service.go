package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"purpleair-aqi/internal/aqi"
	"purpleair-aqi/internal/cache"
	"purpleair-aqi/internal/metrics"
	"purpleair-aqi/internal/modules/airquality/repository"
	"purpleair-aqi/internal/modules/airquality/types"
	"purpleair-aqi/internal/mqtt"
	"purpleair-aqi/internal/purpleair"
)

// sharedLookupTimeout bounds a coalesced fetch once it no longer follows
// the context of the caller that started it.
const sharedLookupTimeout = 30 * time.Second

// Fetcher is the upstream side of a lookup. *purpleair.Client implements it.
type Fetcher interface {
	SchemaFor(p purpleair.Parameter) purpleair.Schema
	Fetch(ctx context.Context, p purpleair.Parameter) ([]byte, error)
}

// Publisher receives every computed report. *mqtt.Publisher implements it.
type Publisher interface {
	PublishAQI(msg mqtt.AQIMessage) error
}

type Options struct {
	Fetcher Fetcher
	// Repository and Publisher are optional.
	Repository repository.SnapshotRepository
	Publisher  Publisher
	Metrics    *metrics.Metrics
	Logger     *slog.Logger

	CacheTTL     time.Duration
	StrictFields bool
}

type Service struct {
	fetcher    Fetcher
	repository repository.SnapshotRepository
	publisher  Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	strict     bool

	cache  *cache.Cache[types.Report]
	flight singleflight.Group
	now    func() time.Time
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher:    opts.Fetcher,
		repository: opts.Repository,
		publisher:  opts.Publisher,
		metrics:    opts.Metrics,
		logger:     logger,
		strict:     opts.StrictFields,
		cache:      cache.New[types.Report](opts.CacheTTL),
		now:        time.Now,
	}
}

// Lookup fetches the sensor, computes its index for every window and
// records the result. Concurrent lookups for the same sensor share one
// upstream request.
func (s *Service) Lookup(ctx context.Context, p purpleair.Parameter) (types.Report, error) {
	schema := s.fetcher.SchemaFor(p)
	key := p.SensorIndex + "/" + string(schema)

	if r, ok := s.cache.Get(key); ok {
		s.metrics.ObserveFetch(string(schema), "cached")
		s.logger.Debug("aqi lookup served from cache", "sensor", p.SensorIndex, "schema", schema)
		return r, nil
	}

	// The shared fetch outlives any one caller; each caller still stops
	// waiting when its own context ends.
	ch := s.flight.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()
		return s.lookup(shared, p, schema, key)
	})
	select {
	case <-ctx.Done():
		return types.Report{}, fmt.Errorf("%w: %w", purpleair.ErrFetch, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return types.Report{}, res.Err
		}
		return res.Val.(types.Report), nil
	}
}

func (s *Service) lookup(ctx context.Context, p purpleair.Parameter, schema purpleair.Schema, key string) (types.Report, error) {
	raw, err := s.fetcher.Fetch(ctx, p)
	if err != nil {
		s.metrics.ObserveFetch(string(schema), errorClass(err))
		s.logger.Warn("purpleair fetch failed", "sensor", p.String(), "schema", schema, "error", err)
		return types.Report{}, err
	}

	reading, err := purpleair.Extract(raw)
	if err != nil {
		s.metrics.ObserveFetch(string(schema), errorClass(err))
		return types.Report{}, err
	}
	if reading.Schema != schema {
		s.logger.Warn("purpleair response did not match requested endpoint",
			"sensor", p.SensorIndex, "requested", schema, "detected", reading.Schema)
	}

	report, err := s.buildReport(p, reading)
	if err != nil {
		s.metrics.ObserveFetch(string(reading.Schema), errorClass(err))
		return types.Report{}, err
	}

	s.metrics.ObserveFetch(string(report.Schema), "ok")
	s.metrics.SetAQI(report.SensorIndex, report.AQI.AQI)
	s.cache.Set(key, report)
	s.record(report)
	return report, nil
}

func (s *Service) buildReport(p purpleair.Parameter, reading purpleair.Reading) (types.Report, error) {
	if len(reading.Missing) > 0 {
		if s.strict {
			return types.Report{}, fmt.Errorf("%w: missing fields %s", purpleair.ErrSchema, strings.Join(reading.Missing, ", "))
		}
		s.logger.Warn("purpleair response missing fields, using 0",
			"sensor", p.SensorIndex, "schema", reading.Schema, "fields", reading.Missing)
	}

	if err := aqi.Validate(reading.Concentration); err != nil {
		return types.Report{}, fmt.Errorf("concentration: %w", err)
	}
	windows := reading.Averages.Windows()
	out := make([]types.WindowAQI, 0, len(windows))
	for _, w := range windows {
		if err := aqi.Validate(w.Concentration); err != nil {
			return types.Report{}, fmt.Errorf("%s: %w", w.Label, err)
		}
		out = append(out, types.WindowAQI{
			Label:         w.Label,
			Concentration: w.Concentration,
			AQI:           aqi.Calculate(w.Concentration),
		})
	}

	sensor := reading.SensorIndex
	if sensor == "" {
		sensor = p.SensorIndex
	}
	return types.Report{
		SensorIndex:   sensor,
		Label:         reading.Label,
		Schema:        reading.Schema,
		Concentration: reading.Concentration,
		AQI:           aqi.Calculate(reading.Concentration),
		Trend:         aqi.TrendOf(reading.Averages.Current, reading.Averages.Avg10Min),
		Averages:      reading.Averages,
		Windows:       out,
		MissingFields: reading.Missing,
		FetchedAt:     s.now().UTC(),
	}, nil
}

// record persists and publishes r. Neither failure fails the lookup.
func (s *Service) record(r types.Report) {
	if s.repository != nil {
		if err := s.repository.InsertSnapshot(types.NewSnapshot(r)); err != nil {
			s.logger.Error("failed to store snapshot", "sensor", r.SensorIndex, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishAQI(newAQIMessage(r)); err != nil {
			if errors.Is(err, mqtt.ErrNotConnected) {
				s.logger.Debug("skipping aqi publish", "sensor", r.SensorIndex, "error", err)
				return
			}
			s.logger.Error("failed to publish aqi", "sensor", r.SensorIndex, "error", err)
		}
	}
}

func newAQIMessage(r types.Report) mqtt.AQIMessage {
	return mqtt.AQIMessage{
		SensorIndex:   r.SensorIndex,
		Label:         r.Label,
		Schema:        string(r.Schema),
		Concentration: r.Concentration,
		AQI:           r.AQI.AQI,
		Category:      string(r.AQI.Category),
		Color:         r.AQI.Color,
		Trend:         string(r.Trend),
		Timestamp:     r.FetchedAt,
	}
}

// errorClass is the metrics label for a failed lookup.
func errorClass(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, purpleair.ErrFetch):
		return "fetch_error"
	case errors.Is(err, purpleair.ErrSchema):
		return "schema_error"
	case errors.Is(err, aqi.ErrOutOfRange):
		return "out_of_range"
	default:
		return "error"
	}
}
