package sensors

import (
	"errors"
	"time"
)

// Kind distinguishes continuous value sensors from binary float switches.
type Kind string

const (
	// KindValue is a continuous numeric sensor compared against optional bounds.
	KindValue Kind = "value"
	// KindFloat is a binary switch sensor whose readings are 0 or 1.
	KindFloat Kind = "float"
)

// Valid returns true when the kind is supported.
func (k Kind) Valid() bool {
	switch k {
	case KindValue, KindFloat:
		return true
	default:
		return false
	}
}

// Sensor is a monitored input pushed by a microcontroller.
//
// A value sensor carries optional min/max bounds; nil means unbounded on
// that side. A float sensor carries an OKValue (0 or 1) instead, and its
// stored readings are always normalized to 0 or 1.
type Sensor struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Unit          string    `json:"unit"`
	Kind          Kind      `json:"kind"`
	Min           *float64  `json:"min,omitempty"`
	Max           *float64  `json:"max,omitempty"`
	OKValue       float64   `json:"ok_value"`
	AlertsEnabled bool      `json:"alerts_enabled"`
	APIKey        string    `json:"api_key,omitempty"`
	LastValue     *float64  `json:"last_value,omitempty"`
	LastSeenAt    time.Time `json:"last_seen_at,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate checks sensor invariants.
func (s Sensor) Validate() error {
	if s.ID == "" {
		return errors.New("sensor: empty id")
	}
	if s.Name == "" {
		return errors.New("sensor: empty name")
	}
	if !s.Kind.Valid() {
		return errors.New("sensor: invalid kind")
	}
	switch s.Kind {
	case KindFloat:
		if s.OKValue != 0 && s.OKValue != 1 {
			return errors.New("sensor: ok value must be 0 or 1")
		}
	case KindValue:
		if s.Min != nil && s.Max != nil && *s.Min > *s.Max {
			return errors.New("sensor: min must not exceed max")
		}
	}
	return nil
}

// Normalize maps an incoming reading value to its stored form. Float
// sensors collapse any non-zero value to 1.
func (s Sensor) Normalize(value float64) float64 {
	if s.Kind != KindFloat {
		return value
	}
	if value != 0 {
		return 1
	}
	return 0
}

// HasBounds reports whether any alerting bound is configured.
func (s Sensor) HasBounds() bool {
	if s.Kind == KindFloat {
		return true
	}
	return s.Min != nil || s.Max != nil
}
