package controller

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"purpleair-aqi/internal/aqi"
	"purpleair-aqi/internal/purpleair"
)

const (
	defaultSnapshotLimit = 100
	maxSnapshotLimit     = 1000
)

func parseSnapshotsQuery(r *http.Request) (limit int, err error) {
	limit = defaultSnapshotLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil {
			return 0, errors.New("invalid 'limit' (expected integer)")
		}
		if n <= 0 {
			return 0, errors.New("'limit' must be > 0")
		}
		if n > maxSnapshotLimit {
			return 0, errors.New("'limit' must be <= 1000")
		}
		limit = n
	}
	return limit, nil
}

// parseSensorPath reads {id} and the optional X-API-Key header.
func parseSensorPath(r *http.Request) (purpleair.Parameter, error) {
	id := r.PathValue("id")
	if strings.Contains(id, ":") {
		return purpleair.Parameter{}, errors.New("sensor id must not contain ':' (send the key in X-API-Key)")
	}
	p, err := purpleair.ParseParameter(id)
	if err != nil {
		return purpleair.Parameter{}, err
	}
	p.APIKey = strings.TrimSpace(r.Header.Get("X-API-Key"))
	return p, nil
}

func parseConcentration(r *http.Request) (float64, error) {
	s := strings.TrimSpace(r.URL.Query().Get("pm25"))
	if s == "" {
		return 0, errors.New("missing 'pm25'")
	}
	c, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("invalid 'pm25' (expected number)")
	}
	if err := aqi.Validate(c); err != nil {
		return 0, err
	}
	return c, nil
}

// statusFor maps lookup errors onto HTTP statuses.
func statusFor(err error) int {
	var ne net.Error
	switch {
	case errors.Is(err, purpleair.ErrInvalidParameter), errors.Is(err, aqi.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return http.StatusGatewayTimeout
	case errors.Is(err, purpleair.ErrSchema), errors.Is(err, purpleair.ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
