package repository

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"purpleair-aqi/internal/modules/airquality/types"
)

//go:embed sql/insert-snapshot.sql
var insertSnapshotSQL string

//go:embed sql/get-latest-snapshots.sql
var getLatestSnapshotsSQL string

//go:embed sql/count-snapshots.sql
var countSnapshotsSQL string

// timeLayout is RFC3339 with fixed-width nanoseconds so fetched_at sorts
// correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SnapshotRepository interface {
	InsertSnapshot(s types.Snapshot) error
	GetLatestSnapshots(sensorIndex string, limit int) ([]types.Snapshot, error)
	CountSnapshots(sensorIndex string) (int, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) SnapshotRepository {
	return &repositoryImpl{db: db}
}

// InsertSnapshot stores s under a fresh uuid unless s.ID is already set.
func (r *repositoryImpl) InsertSnapshot(s types.Snapshot) error {
	if s.SensorIndex == "" {
		return fmt.Errorf("insert snapshot: empty sensor index")
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.FetchedAt.IsZero() {
		s.FetchedAt = time.Now()
	}
	_, err := r.db.Exec(insertSnapshotSQL,
		s.ID,
		s.SensorIndex,
		s.Label,
		s.Schema,
		s.Concentration,
		s.AQI,
		s.Category,
		s.Color,
		s.Trend,
		s.Avg10Min,
		strings.Join(s.MissingFields, ","),
		s.FetchedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (r *repositoryImpl) GetLatestSnapshots(sensorIndex string, limit int) ([]types.Snapshot, error) {
	rows, err := r.db.Query(getLatestSnapshotsSQL, sensorIndex, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close latest snapshots rows", "error", err)
		}
	}()
	return scanSnapshots(rows)
}

func (r *repositoryImpl) CountSnapshots(sensorIndex string) (int, error) {
	var n int
	err := r.db.QueryRow(countSnapshotsSQL, sensorIndex).Scan(&n)
	return n, err
}

func scanSnapshots(rows *sql.Rows) ([]types.Snapshot, error) {
	out := []types.Snapshot{}
	for rows.Next() {
		var s types.Snapshot
		var missing, ts string
		if err := rows.Scan(
			&s.ID, &s.SensorIndex, &s.Label, &s.Schema, &s.Concentration,
			&s.AQI, &s.Category, &s.Color, &s.Trend, &s.Avg10Min, &missing, &ts,
		); err != nil {
			return nil, err
		}
		if missing != "" {
			s.MissingFields = strings.Split(missing, ",")
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse fetched_at %q: %w", ts, err)
		}
		s.FetchedAt = t
		out = append(out, s)
	}
	return out, rows.Err()
}
