package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	readings "aquarium-cloud/internal/readings/domain"
)

// ReadingRepository is a Postgres repository for readings.
type ReadingRepository struct {
	db *sql.DB
}

// NewReadingRepository constructs a repository.
func NewReadingRepository(db *sql.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// Insert appends a reading.
func (r *ReadingRepository) Insert(ctx context.Context, reading readings.Reading) error {
	if r == nil || r.db == nil {
		return errors.New("reading repo: nil db")
	}
	if reading.SensorID == "" {
		return errors.New("reading repo: empty sensor id")
	}
	if reading.TakenAt.IsZero() {
		reading.TakenAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO readings (sensor_id, value, taken_at)
VALUES ($1, $2, $3)`,
		reading.SensorID,
		reading.Value,
		reading.TakenAt.UTC(),
	)
	return err
}

// Latest returns the most recent reading for a sensor, or nil when none
// exists.
func (r *ReadingRepository) Latest(ctx context.Context, sensorID string) (*readings.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT sensor_id, value, taken_at
FROM readings
WHERE sensor_id = $1
ORDER BY taken_at DESC
LIMIT 1`, sensorID)

	var reading readings.Reading
	err := row.Scan(&reading.SensorID, &reading.Value, &reading.TakenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

// ListRange returns readings in [from, to) ordered by time.
func (r *ReadingRepository) ListRange(ctx context.Context, sensorID string, from, to time.Time) ([]readings.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT sensor_id, value, taken_at
FROM readings
WHERE sensor_id = $1 AND taken_at >= $2 AND taken_at < $3
ORDER BY taken_at ASC`, sensorID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []readings.Reading
	for rows.Next() {
		var reading readings.Reading
		if err := rows.Scan(&reading.SensorID, &reading.Value, &reading.TakenAt); err != nil {
			return nil, err
		}
		list = append(list, reading)
	}
	return list, rows.Err()
}

// DeleteBySensor removes all readings of a sensor. Used when the sensor
// itself is deleted.
func (r *ReadingRepository) DeleteBySensor(ctx context.Context, sensorID string) error {
	if r == nil || r.db == nil {
		return errors.New("reading repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM readings WHERE sensor_id = $1`, sensorID)
	return err
}

// DailySummaries aggregates min/max/avg/count per UTC day in [from, to).
func (r *ReadingRepository) DailySummaries(ctx context.Context, sensorID string, from, to time.Time) ([]readings.DailySummary, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT date_trunc('day', taken_at AT TIME ZONE 'UTC') AS day,
	MIN(value), MAX(value), AVG(value), COUNT(*)
FROM readings
WHERE sensor_id = $1 AND taken_at >= $2 AND taken_at < $3
GROUP BY day
ORDER BY day ASC`, sensorID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []readings.DailySummary
	for rows.Next() {
		summary := readings.DailySummary{SensorID: sensorID}
		if err := rows.Scan(&summary.Day, &summary.Min, &summary.Max, &summary.Avg, &summary.Count); err != nil {
			return nil, err
		}
		list = append(list, summary)
	}
	return list, rows.Err()
}
