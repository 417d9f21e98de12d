package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	watertests "aquarium-cloud/internal/watertests/domain"
)

// WaterTestRepository is a Postgres repository for water tests.
type WaterTestRepository struct {
	db *sql.DB
}

// NewWaterTestRepository constructs a repository.
func NewWaterTestRepository(db *sql.DB) *WaterTestRepository {
	return &WaterTestRepository{db: db}
}

// Create inserts a new water test.
func (r *WaterTestRepository) Create(ctx context.Context, test *watertests.WaterTest) error {
	if r == nil || r.db == nil {
		return errors.New("water test repo: nil db")
	}
	if test == nil {
		return errors.New("water test repo: nil test")
	}
	if err := test.Validate(); err != nil {
		return err
	}
	if test.CreatedAt.IsZero() {
		test.CreatedAt = time.Now().UTC()
	}
	if test.UpdatedAt.IsZero() {
		test.UpdatedAt = test.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO water_tests (
	id, taken_at, ph, ammonia, nitrite, nitrate, kh, gh, phosphate, salinity,
	notes, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
	$11, $12, $13
)`,
		test.ID,
		test.TakenAt.UTC(),
		nullableFloat(test.PH),
		nullableFloat(test.Ammonia),
		nullableFloat(test.Nitrite),
		nullableFloat(test.Nitrate),
		nullableFloat(test.KH),
		nullableFloat(test.GH),
		nullableFloat(test.Phosphate),
		nullableFloat(test.Salinity),
		test.Notes,
		test.CreatedAt,
		test.UpdatedAt,
	)
	return err
}

// GetByID fetches a water test by id.
func (r *WaterTestRepository) GetByID(ctx context.Context, id string) (*watertests.WaterTest, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("water test repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, taken_at, ph, ammonia, nitrite, nitrate, kh, gh, phosphate, salinity,
	notes, created_at, updated_at
FROM water_tests
WHERE id = $1`, id)
	return scanWaterTest(row)
}

// ListRange returns water tests in [from, to) ordered by time.
func (r *WaterTestRepository) ListRange(ctx context.Context, from, to time.Time) ([]watertests.WaterTest, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("water test repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, taken_at, ph, ammonia, nitrite, nitrate, kh, gh, phosphate, salinity,
	notes, created_at, updated_at
FROM water_tests
WHERE taken_at >= $1 AND taken_at < $2
ORDER BY taken_at ASC`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []watertests.WaterTest
	for rows.Next() {
		test, err := scanWaterTest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *test)
	}
	return list, rows.Err()
}

// Update rewrites a water test.
func (r *WaterTestRepository) Update(ctx context.Context, test *watertests.WaterTest) error {
	if r == nil || r.db == nil {
		return errors.New("water test repo: nil db")
	}
	if test == nil {
		return errors.New("water test repo: nil test")
	}
	if err := test.Validate(); err != nil {
		return err
	}
	test.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
UPDATE water_tests
SET taken_at = $1, ph = $2, ammonia = $3, nitrite = $4, nitrate = $5,
	kh = $6, gh = $7, phosphate = $8, salinity = $9, notes = $10, updated_at = $11
WHERE id = $12`,
		test.TakenAt.UTC(),
		nullableFloat(test.PH),
		nullableFloat(test.Ammonia),
		nullableFloat(test.Nitrite),
		nullableFloat(test.Nitrate),
		nullableFloat(test.KH),
		nullableFloat(test.GH),
		nullableFloat(test.Phosphate),
		nullableFloat(test.Salinity),
		test.Notes,
		test.UpdatedAt,
		test.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return watertests.ErrNotFound
	}
	return nil
}

// Delete removes a water test.
func (r *WaterTestRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("water test repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM water_tests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return watertests.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWaterTest(row rowScanner) (*watertests.WaterTest, error) {
	var (
		test      watertests.WaterTest
		ph        sql.NullFloat64
		ammonia   sql.NullFloat64
		nitrite   sql.NullFloat64
		nitrate   sql.NullFloat64
		kh        sql.NullFloat64
		gh        sql.NullFloat64
		phosphate sql.NullFloat64
		salinity  sql.NullFloat64
	)
	err := row.Scan(
		&test.ID,
		&test.TakenAt,
		&ph,
		&ammonia,
		&nitrite,
		&nitrate,
		&kh,
		&gh,
		&phosphate,
		&salinity,
		&test.Notes,
		&test.CreatedAt,
		&test.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, watertests.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	test.PH = floatPtr(ph)
	test.Ammonia = floatPtr(ammonia)
	test.Nitrite = floatPtr(nitrite)
	test.Nitrate = floatPtr(nitrate)
	test.KH = floatPtr(kh)
	test.GH = floatPtr(gh)
	test.Phosphate = floatPtr(phosphate)
	test.Salinity = floatPtr(salinity)
	return &test, nil
}

func nullableFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func floatPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}
