package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	alertapp "aquarium-cloud/internal/alerts/application"
	alerts "aquarium-cloud/internal/alerts/domain"
	readings "aquarium-cloud/internal/readings/domain"
	sensors "aquarium-cloud/internal/sensors/domain"
)

// Status is the current display state of one sensor, derived with the
// same bound check the alert evaluator uses.
type Status struct {
	SensorID string       `json:"sensor_id"`
	Name     string       `json:"name"`
	Unit     string       `json:"unit,omitempty"`
	Kind     sensors.Kind `json:"kind"`
	Value    *float64     `json:"value,omitempty"`
	At       time.Time    `json:"at,omitempty"`
	Status   string       `json:"status"`
	Alert    bool         `json:"alert"`
	Message  string       `json:"message,omitempty"`
}

// StatusUnknown marks a sensor that has never reported.
const StatusUnknown = "unknown"

// Service handles sensor setup and status derivation.
type Service struct {
	sensors  sensors.Repository
	readings readings.Repository
	tracker  *alertapp.Tracker
}

// NewService constructs a sensor service.
func NewService(sensorRepo sensors.Repository, readingRepo readings.Repository, tracker *alertapp.Tracker) (*Service, error) {
	if sensorRepo == nil {
		return nil, errors.New("sensors: nil sensor repository")
	}
	if readingRepo == nil {
		return nil, errors.New("sensors: nil reading repository")
	}
	return &Service{sensors: sensorRepo, readings: readingRepo, tracker: tracker}, nil
}

// Create registers a sensor, minting its id and ingest key.
func (s *Service) Create(ctx context.Context, sensor *sensors.Sensor) error {
	if s == nil {
		return errors.New("sensors: nil service")
	}
	if sensor == nil {
		return errors.New("sensors: nil sensor")
	}
	if sensor.ID == "" {
		sensor.ID = "sensor-" + uuid.NewString()
	}
	if sensor.APIKey == "" {
		sensor.APIKey = uuid.NewString()
	}
	now := time.Now().UTC()
	sensor.CreatedAt = now
	sensor.UpdatedAt = now
	if err := sensor.Validate(); err != nil {
		return err
	}
	return s.sensors.Create(ctx, sensor)
}

// Get fetches one sensor.
func (s *Service) Get(ctx context.Context, id string) (*sensors.Sensor, error) {
	if s == nil {
		return nil, errors.New("sensors: nil service")
	}
	if id == "" {
		return nil, errors.New("sensors: sensor id required")
	}
	return s.sensors.GetByID(ctx, id)
}

// List returns all configured sensors.
func (s *Service) List(ctx context.Context) ([]sensors.Sensor, error) {
	if s == nil {
		return nil, errors.New("sensors: nil service")
	}
	return s.sensors.List(ctx)
}

// Update rewrites a sensor's configuration, keeping its ingest key.
func (s *Service) Update(ctx context.Context, sensor *sensors.Sensor) error {
	if s == nil {
		return errors.New("sensors: nil service")
	}
	if sensor == nil {
		return errors.New("sensors: nil sensor")
	}
	existing, err := s.sensors.GetByID(ctx, sensor.ID)
	if err != nil {
		return err
	}
	sensor.APIKey = existing.APIKey
	sensor.CreatedAt = existing.CreatedAt
	if err := sensor.Validate(); err != nil {
		return err
	}
	return s.sensors.Update(ctx, sensor)
}

// Delete removes a sensor together with its readings and any tracked
// alert state.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s == nil {
		return errors.New("sensors: nil service")
	}
	if id == "" {
		return errors.New("sensors: sensor id required")
	}
	if err := s.readings.DeleteBySensor(ctx, id); err != nil {
		return err
	}
	if err := s.sensors.Delete(ctx, id); err != nil {
		return err
	}
	s.tracker.Forget(id)
	return nil
}

// Statuses derives the current display status for every sensor from its
// cached last value.
func (s *Service) Statuses(ctx context.Context) ([]Status, error) {
	if s == nil {
		return nil, errors.New("sensors: nil service")
	}
	list, err := s.sensors.List(ctx)
	if err != nil {
		return nil, err
	}
	statuses := make([]Status, 0, len(list))
	for _, sensor := range list {
		status := Status{
			SensorID: sensor.ID,
			Name:     sensor.Name,
			Unit:     sensor.Unit,
			Kind:     sensor.Kind,
			Status:   StatusUnknown,
		}
		if sensor.LastValue != nil {
			eval := alerts.Evaluate(sensor, *sensor.LastValue)
			status.Value = sensor.LastValue
			status.At = sensor.LastSeenAt
			status.Status = eval.Status
			status.Alert = eval.Alert
			status.Message = eval.Message
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
