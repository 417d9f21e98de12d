package application

import (
	"context"
	"testing"
	"time"

	alertapp "aquarium-cloud/internal/alerts/application"
	alerts "aquarium-cloud/internal/alerts/domain"
	readings "aquarium-cloud/internal/readings/domain"
	sensors "aquarium-cloud/internal/sensors/domain"
)

type stubSensorRepo struct {
	byID    map[string]sensors.Sensor
	deleted []string
}

func newStubSensorRepo(list ...sensors.Sensor) *stubSensorRepo {
	repo := &stubSensorRepo{byID: make(map[string]sensors.Sensor)}
	for _, sensor := range list {
		repo.byID[sensor.ID] = sensor
	}
	return repo
}

func (s *stubSensorRepo) Create(_ context.Context, sensor *sensors.Sensor) error {
	s.byID[sensor.ID] = *sensor
	return nil
}

func (s *stubSensorRepo) GetByID(_ context.Context, id string) (*sensors.Sensor, error) {
	sensor, ok := s.byID[id]
	if !ok {
		return nil, sensors.ErrNotFound
	}
	return &sensor, nil
}

func (s *stubSensorRepo) GetByAPIKey(_ context.Context, apiKey string) (*sensors.Sensor, error) {
	for _, sensor := range s.byID {
		if sensor.APIKey == apiKey {
			found := sensor
			return &found, nil
		}
	}
	return nil, sensors.ErrNotFound
}

func (s *stubSensorRepo) List(_ context.Context) ([]sensors.Sensor, error) {
	list := make([]sensors.Sensor, 0, len(s.byID))
	for _, sensor := range s.byID {
		list = append(list, sensor)
	}
	return list, nil
}

func (s *stubSensorRepo) Update(_ context.Context, sensor *sensors.Sensor) error {
	if _, ok := s.byID[sensor.ID]; !ok {
		return sensors.ErrNotFound
	}
	s.byID[sensor.ID] = *sensor
	return nil
}

func (s *stubSensorRepo) UpdateLastValue(_ context.Context, id string, value float64, seenAt time.Time) error {
	sensor, ok := s.byID[id]
	if !ok {
		return sensors.ErrNotFound
	}
	sensor.LastValue = &value
	sensor.LastSeenAt = seenAt
	s.byID[id] = sensor
	return nil
}

func (s *stubSensorRepo) Delete(_ context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return sensors.ErrNotFound
	}
	delete(s.byID, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type stubReadingRepo struct {
	deletedFor []string
}

func (s *stubReadingRepo) Insert(_ context.Context, _ readings.Reading) error { return nil }

func (s *stubReadingRepo) Latest(_ context.Context, _ string) (*readings.Reading, error) {
	return nil, nil
}

func (s *stubReadingRepo) ListRange(_ context.Context, _ string, _, _ time.Time) ([]readings.Reading, error) {
	return nil, nil
}

func (s *stubReadingRepo) DeleteBySensor(_ context.Context, sensorID string) error {
	s.deletedFor = append(s.deletedFor, sensorID)
	return nil
}

func floatPtr(v float64) *float64 { return &v }

func TestCreateMintsIDAndKey(t *testing.T) {
	repo := newStubSensorRepo()
	service, err := NewService(repo, &stubReadingRepo{}, alertapp.NewTracker())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	sensor := sensors.Sensor{Name: "Tank Temp", Kind: sensors.KindValue}
	if err := service.Create(context.Background(), &sensor); err != nil {
		t.Fatalf("create: %v", err)
	}
	if sensor.ID == "" || sensor.APIKey == "" {
		t.Fatalf("id/key not minted: %+v", sensor)
	}
	if _, ok := repo.byID[sensor.ID]; !ok {
		t.Fatal("sensor not persisted")
	}
}

func TestCreateRejectsInvalidBounds(t *testing.T) {
	service, err := NewService(newStubSensorRepo(), &stubReadingRepo{}, alertapp.NewTracker())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	sensor := sensors.Sensor{Name: "Temp", Kind: sensors.KindValue, Min: floatPtr(30), Max: floatPtr(20)}
	if err := service.Create(context.Background(), &sensor); err == nil {
		t.Fatal("expected validation error for min > max")
	}
}

func TestUpdatePreservesAPIKey(t *testing.T) {
	existing := sensors.Sensor{
		ID:        "sensor-1",
		Name:      "Tank Temp",
		Kind:      sensors.KindValue,
		APIKey:    "key-1",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	repo := newStubSensorRepo(existing)
	service, err := NewService(repo, &stubReadingRepo{}, alertapp.NewTracker())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	updated := sensors.Sensor{ID: "sensor-1", Name: "Display Temp", Kind: sensors.KindValue, APIKey: "attacker-key"}
	if err := service.Update(context.Background(), &updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.APIKey != "key-1" {
		t.Fatalf("api key = %q, must keep the original", updated.APIKey)
	}
	if !updated.CreatedAt.Equal(existing.CreatedAt) {
		t.Fatalf("created_at = %v, must be preserved", updated.CreatedAt)
	}
}

func TestDeleteCascades(t *testing.T) {
	repo := newStubSensorRepo(sensors.Sensor{ID: "sensor-1", Name: "Temp", Kind: sensors.KindValue})
	readingRepo := &stubReadingRepo{}
	service, err := NewService(repo, readingRepo, alertapp.NewTracker())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := service.Delete(context.Background(), "sensor-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(readingRepo.deletedFor) != 1 || readingRepo.deletedFor[0] != "sensor-1" {
		t.Fatalf("readings not cascaded: %v", readingRepo.deletedFor)
	}
	if len(repo.deleted) != 1 {
		t.Fatalf("sensor not deleted: %v", repo.deleted)
	}
}

func TestStatusesReusesEvaluator(t *testing.T) {
	hot := sensors.Sensor{
		ID: "sensor-1", Name: "Tank Temp", Unit: "C", Kind: sensors.KindValue,
		Min: floatPtr(24), Max: floatPtr(27),
		LastValue: floatPtr(28.5), LastSeenAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	silent := sensors.Sensor{ID: "sensor-2", Name: "pH", Kind: sensors.KindValue}
	repo := newStubSensorRepo(hot, silent)
	service, err := NewService(repo, &stubReadingRepo{}, alertapp.NewTracker())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	statuses, err := service.Statuses(context.Background())
	if err != nil {
		t.Fatalf("statuses: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("statuses = %d, want 2", len(statuses))
	}
	byID := make(map[string]Status, len(statuses))
	for _, status := range statuses {
		byID[status.SensorID] = status
	}
	if got := byID["sensor-1"]; !got.Alert || got.Status != alerts.StatusHigh {
		t.Fatalf("hot sensor status = %+v", got)
	}
	if got := byID["sensor-2"]; got.Status != StatusUnknown || got.Alert {
		t.Fatalf("silent sensor status = %+v", got)
	}
}
