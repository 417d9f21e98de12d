package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	specimens "aquarium-cloud/internal/specimens/domain"
)

// SpecimenRepository is a Postgres repository for specimens.
type SpecimenRepository struct {
	db *sql.DB
}

// NewSpecimenRepository constructs a repository.
func NewSpecimenRepository(db *sql.DB) *SpecimenRepository {
	return &SpecimenRepository{db: db}
}

// Create inserts a new specimen.
func (r *SpecimenRepository) Create(ctx context.Context, specimen *specimens.Specimen) error {
	if r == nil || r.db == nil {
		return errors.New("specimen repo: nil db")
	}
	if specimen == nil {
		return errors.New("specimen repo: nil specimen")
	}
	if err := specimen.Validate(); err != nil {
		return err
	}
	if specimen.CreatedAt.IsZero() {
		specimen.CreatedAt = time.Now().UTC()
	}
	if specimen.UpdatedAt.IsZero() {
		specimen.UpdatedAt = specimen.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO specimens (
	id, common_name, scientific_name, category, count, added_on, notes, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9
)`,
		specimen.ID,
		specimen.CommonName,
		specimen.ScientificName,
		string(specimen.Category),
		specimen.Count,
		specimen.AddedOn,
		specimen.Notes,
		specimen.CreatedAt,
		specimen.UpdatedAt,
	)
	return err
}

// GetByID fetches a specimen by id.
func (r *SpecimenRepository) GetByID(ctx context.Context, id string) (*specimens.Specimen, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("specimen repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, common_name, scientific_name, category, count, added_on, notes, created_at, updated_at
FROM specimens
WHERE id = $1`, id)
	return scanSpecimen(row)
}

// List returns all specimens ordered by common name.
func (r *SpecimenRepository) List(ctx context.Context) ([]specimens.Specimen, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("specimen repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, common_name, scientific_name, category, count, added_on, notes, created_at, updated_at
FROM specimens
ORDER BY common_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []specimens.Specimen
	for rows.Next() {
		specimen, err := scanSpecimen(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *specimen)
	}
	return list, rows.Err()
}

// Update rewrites a specimen record.
func (r *SpecimenRepository) Update(ctx context.Context, specimen *specimens.Specimen) error {
	if r == nil || r.db == nil {
		return errors.New("specimen repo: nil db")
	}
	if specimen == nil {
		return errors.New("specimen repo: nil specimen")
	}
	if err := specimen.Validate(); err != nil {
		return err
	}
	specimen.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
UPDATE specimens
SET common_name = $1, scientific_name = $2, category = $3, count = $4,
	added_on = $5, notes = $6, updated_at = $7
WHERE id = $8`,
		specimen.CommonName,
		specimen.ScientificName,
		string(specimen.Category),
		specimen.Count,
		specimen.AddedOn,
		specimen.Notes,
		specimen.UpdatedAt,
		specimen.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return specimens.ErrNotFound
	}
	return nil
}

// Delete removes a specimen.
func (r *SpecimenRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("specimen repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM specimens WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return specimens.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpecimen(row rowScanner) (*specimens.Specimen, error) {
	var (
		specimen specimens.Specimen
		category string
	)
	err := row.Scan(
		&specimen.ID,
		&specimen.CommonName,
		&specimen.ScientificName,
		&category,
		&specimen.Count,
		&specimen.AddedOn,
		&specimen.Notes,
		&specimen.CreatedAt,
		&specimen.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, specimens.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	specimen.Category = specimens.Category(category)
	return &specimen, nil
}
