package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sensors "aquarium-cloud/internal/sensors/domain"
)

// SensorRepository is a Postgres repository for sensors.
type SensorRepository struct {
	db *sql.DB
}

// NewSensorRepository constructs a repository.
func NewSensorRepository(db *sql.DB) *SensorRepository {
	return &SensorRepository{db: db}
}

// Create inserts a new sensor.
func (r *SensorRepository) Create(ctx context.Context, sensor *sensors.Sensor) error {
	if r == nil || r.db == nil {
		return errors.New("sensor repo: nil db")
	}
	if sensor == nil {
		return errors.New("sensor repo: nil sensor")
	}
	if err := sensor.Validate(); err != nil {
		return err
	}
	if sensor.CreatedAt.IsZero() {
		sensor.CreatedAt = time.Now().UTC()
	}
	if sensor.UpdatedAt.IsZero() {
		sensor.UpdatedAt = sensor.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sensors (
	id, name, unit, kind, min_value, max_value, ok_value,
	alerts_enabled, api_key, last_value, last_seen_at, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7,
	$8, $9, $10, $11, $12, $13
)`,
		sensor.ID,
		sensor.Name,
		sensor.Unit,
		string(sensor.Kind),
		nullableFloat(sensor.Min),
		nullableFloat(sensor.Max),
		sensor.OKValue,
		sensor.AlertsEnabled,
		sensor.APIKey,
		nullableFloat(sensor.LastValue),
		nullableTime(sensor.LastSeenAt),
		sensor.CreatedAt,
		sensor.UpdatedAt,
	)
	return err
}

// GetByID fetches a sensor by id.
func (r *SensorRepository) GetByID(ctx context.Context, id string) (*sensors.Sensor, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("sensor repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, unit, kind, min_value, max_value, ok_value,
	alerts_enabled, api_key, last_value, last_seen_at, created_at, updated_at
FROM sensors
WHERE id = $1`, id)
	return scanSensor(row)
}

// GetByAPIKey fetches a sensor by its ingest key.
func (r *SensorRepository) GetByAPIKey(ctx context.Context, apiKey string) (*sensors.Sensor, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("sensor repo: nil db")
	}
	if apiKey == "" {
		return nil, sensors.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, unit, kind, min_value, max_value, ok_value,
	alerts_enabled, api_key, last_value, last_seen_at, created_at, updated_at
FROM sensors
WHERE api_key = $1`, apiKey)
	return scanSensor(row)
}

// List returns all sensors ordered by name.
func (r *SensorRepository) List(ctx context.Context) ([]sensors.Sensor, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("sensor repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, unit, kind, min_value, max_value, ok_value,
	alerts_enabled, api_key, last_value, last_seen_at, created_at, updated_at
FROM sensors
ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []sensors.Sensor
	for rows.Next() {
		sensor, err := scanSensor(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *sensor)
	}
	return list, rows.Err()
}

// Update rewrites the sensor configuration.
func (r *SensorRepository) Update(ctx context.Context, sensor *sensors.Sensor) error {
	if r == nil || r.db == nil {
		return errors.New("sensor repo: nil db")
	}
	if sensor == nil {
		return errors.New("sensor repo: nil sensor")
	}
	if err := sensor.Validate(); err != nil {
		return err
	}
	sensor.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
UPDATE sensors
SET name = $1, unit = $2, kind = $3, min_value = $4, max_value = $5,
	ok_value = $6, alerts_enabled = $7, updated_at = $8
WHERE id = $9`,
		sensor.Name,
		sensor.Unit,
		string(sensor.Kind),
		nullableFloat(sensor.Min),
		nullableFloat(sensor.Max),
		sensor.OKValue,
		sensor.AlertsEnabled,
		sensor.UpdatedAt,
		sensor.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sensors.ErrNotFound
	}
	return nil
}

// UpdateLastValue caches the most recent reading on the sensor row.
func (r *SensorRepository) UpdateLastValue(ctx context.Context, id string, value float64, seenAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("sensor repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE sensors
SET last_value = $1, last_seen_at = $2, updated_at = $2
WHERE id = $3`, value, seenAt.UTC(), id)
	return err
}

// Delete removes a sensor row.
func (r *SensorRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("sensor repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM sensors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sensors.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSensor(row rowScanner) (*sensors.Sensor, error) {
	var (
		sensor     sensors.Sensor
		kind       string
		minValue   sql.NullFloat64
		maxValue   sql.NullFloat64
		lastValue  sql.NullFloat64
		lastSeenAt sql.NullTime
	)
	err := row.Scan(
		&sensor.ID,
		&sensor.Name,
		&sensor.Unit,
		&kind,
		&minValue,
		&maxValue,
		&sensor.OKValue,
		&sensor.AlertsEnabled,
		&sensor.APIKey,
		&lastValue,
		&lastSeenAt,
		&sensor.CreatedAt,
		&sensor.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sensors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	sensor.Kind = sensors.Kind(kind)
	if minValue.Valid {
		v := minValue.Float64
		sensor.Min = &v
	}
	if maxValue.Valid {
		v := maxValue.Float64
		sensor.Max = &v
	}
	if lastValue.Valid {
		v := lastValue.Float64
		sensor.LastValue = &v
	}
	if lastSeenAt.Valid {
		sensor.LastSeenAt = lastSeenAt.Time
	}
	return &sensor, nil
}

func nullableFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func nullableTime(value time.Time) sql.NullTime {
	if value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value, Valid: true}
}
