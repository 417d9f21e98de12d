package readings

import (
	"context"
	"time"
)

// Reading is a single persisted sensor value. Readings are append-only.
type Reading struct {
	SensorID string    `json:"sensor_id"`
	Value    float64   `json:"value"`
	TakenAt  time.Time `json:"taken_at"`
}

// DailySummary aggregates one sensor's readings over a UTC day.
type DailySummary struct {
	SensorID string    `json:"sensor_id"`
	Day      time.Time `json:"day"`
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	Avg      float64   `json:"avg"`
	Count    int       `json:"count"`
}

// Repository persists readings.
type Repository interface {
	Insert(ctx context.Context, reading Reading) error
	Latest(ctx context.Context, sensorID string) (*Reading, error)
	ListRange(ctx context.Context, sensorID string, from, to time.Time) ([]Reading, error)
	DeleteBySensor(ctx context.Context, sensorID string) error
}

// SummaryQuery computes calendar views over stored readings.
type SummaryQuery interface {
	DailySummaries(ctx context.Context, sensorID string, from, to time.Time) ([]DailySummary, error)
}
