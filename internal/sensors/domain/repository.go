package sensors

import (
	"context"
	"time"
)

// Repository persists sensor records.
type Repository interface {
	Create(ctx context.Context, sensor *Sensor) error
	GetByID(ctx context.Context, id string) (*Sensor, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*Sensor, error)
	List(ctx context.Context) ([]Sensor, error)
	Update(ctx context.Context, sensor *Sensor) error
	UpdateLastValue(ctx context.Context, id string, value float64, seenAt time.Time) error
	Delete(ctx context.Context, id string) error
}
