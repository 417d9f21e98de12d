package specimens

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a missing specimen record.
var ErrNotFound = errors.New("specimen: not found")

// Category groups livestock by broad type.
type Category string

const (
	CategoryFish         Category = "fish"
	CategoryCoral        Category = "coral"
	CategoryInvertebrate Category = "invertebrate"
	CategoryPlant        Category = "plant"
)

// Valid returns true when the category is supported.
func (c Category) Valid() bool {
	switch c {
	case CategoryFish, CategoryCoral, CategoryInvertebrate, CategoryPlant:
		return true
	default:
		return false
	}
}

// Specimen is a livestock record kept alongside the telemetry.
type Specimen struct {
	ID             string    `json:"id"`
	CommonName     string    `json:"common_name"`
	ScientificName string    `json:"scientific_name,omitempty"`
	Category       Category  `json:"category"`
	Count          int       `json:"count"`
	AddedOn        time.Time `json:"added_on"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Validate checks specimen invariants.
func (s Specimen) Validate() error {
	if s.ID == "" {
		return errors.New("specimen: empty id")
	}
	if s.CommonName == "" {
		return errors.New("specimen: empty common name")
	}
	if !s.Category.Valid() {
		return errors.New("specimen: invalid category")
	}
	if s.Count < 1 {
		return errors.New("specimen: count must be at least 1")
	}
	return nil
}

// Repository persists specimen records.
type Repository interface {
	Create(ctx context.Context, specimen *Specimen) error
	GetByID(ctx context.Context, id string) (*Specimen, error)
	List(ctx context.Context) ([]Specimen, error)
	Update(ctx context.Context, specimen *Specimen) error
	Delete(ctx context.Context, id string) error
}
