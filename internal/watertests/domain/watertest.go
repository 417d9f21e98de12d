package watertests

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a missing water test record.
var ErrNotFound = errors.New("water test: not found")

// WaterTest records one manual water chemistry test. Unset values mean
// the parameter was not measured that time.
type WaterTest struct {
	ID        string    `json:"id"`
	TakenAt   time.Time `json:"taken_at"`
	PH        *float64  `json:"ph,omitempty"`
	Ammonia   *float64  `json:"ammonia,omitempty"`
	Nitrite   *float64  `json:"nitrite,omitempty"`
	Nitrate   *float64  `json:"nitrate,omitempty"`
	KH        *float64  `json:"kh,omitempty"`
	GH        *float64  `json:"gh,omitempty"`
	Phosphate *float64  `json:"phosphate,omitempty"`
	Salinity  *float64  `json:"salinity,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks water test invariants.
func (t WaterTest) Validate() error {
	if t.ID == "" {
		return errors.New("water test: empty id")
	}
	if t.TakenAt.IsZero() {
		return errors.New("water test: taken_at required")
	}
	if !t.hasMeasurement() {
		return errors.New("water test: at least one measurement required")
	}
	return nil
}

func (t WaterTest) hasMeasurement() bool {
	for _, v := range []*float64{t.PH, t.Ammonia, t.Nitrite, t.Nitrate, t.KH, t.GH, t.Phosphate, t.Salinity} {
		if v != nil {
			return true
		}
	}
	return false
}

// Repository persists water tests.
type Repository interface {
	Create(ctx context.Context, test *WaterTest) error
	GetByID(ctx context.Context, id string) (*WaterTest, error)
	ListRange(ctx context.Context, from, to time.Time) ([]WaterTest, error)
	Update(ctx context.Context, test *WaterTest) error
	Delete(ctx context.Context, id string) error
}
