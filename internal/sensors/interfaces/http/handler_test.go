package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	alertapp "aquarium-cloud/internal/alerts/application"
	"aquarium-cloud/internal/audit"
	readings "aquarium-cloud/internal/readings/domain"
	sensorapp "aquarium-cloud/internal/sensors/application"
	sensors "aquarium-cloud/internal/sensors/domain"
)

type memorySensorRepo struct {
	mu   sync.Mutex
	byID map[string]sensors.Sensor
}

func newMemorySensorRepo(list ...sensors.Sensor) *memorySensorRepo {
	repo := &memorySensorRepo{byID: make(map[string]sensors.Sensor)}
	for _, sensor := range list {
		repo.byID[sensor.ID] = sensor
	}
	return repo
}

func (s *memorySensorRepo) Create(_ context.Context, sensor *sensors.Sensor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[sensor.ID] = *sensor
	return nil
}

func (s *memorySensorRepo) GetByID(_ context.Context, id string) (*sensors.Sensor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sensor, ok := s.byID[id]
	if !ok {
		return nil, sensors.ErrNotFound
	}
	return &sensor, nil
}

func (s *memorySensorRepo) GetByAPIKey(_ context.Context, apiKey string) (*sensors.Sensor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sensor := range s.byID {
		if sensor.APIKey == apiKey {
			found := sensor
			return &found, nil
		}
	}
	return nil, sensors.ErrNotFound
}

func (s *memorySensorRepo) List(_ context.Context) ([]sensors.Sensor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]sensors.Sensor, 0, len(s.byID))
	for _, sensor := range s.byID {
		list = append(list, sensor)
	}
	return list, nil
}

func (s *memorySensorRepo) Update(_ context.Context, sensor *sensors.Sensor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[sensor.ID]; !ok {
		return sensors.ErrNotFound
	}
	s.byID[sensor.ID] = *sensor
	return nil
}

func (s *memorySensorRepo) UpdateLastValue(_ context.Context, id string, value float64, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sensor, ok := s.byID[id]
	if !ok {
		return sensors.ErrNotFound
	}
	sensor.LastValue = &value
	sensor.LastSeenAt = seenAt
	s.byID[id] = sensor
	return nil
}

func (s *memorySensorRepo) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return sensors.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

type noopReadingRepo struct{}

func (noopReadingRepo) Insert(_ context.Context, _ readings.Reading) error { return nil }

func (noopReadingRepo) Latest(_ context.Context, _ string) (*readings.Reading, error) {
	return nil, nil
}

func (noopReadingRepo) ListRange(_ context.Context, _ string, _, _ time.Time) ([]readings.Reading, error) {
	return nil, nil
}

func (noopReadingRepo) DeleteBySensor(_ context.Context, _ string) error { return nil }

type recordingAudit struct {
	entries []audit.Entry
}

func (a *recordingAudit) Log(_ context.Context, entry audit.Entry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func floatPtr(v float64) *float64 { return &v }

func newTestHandler(t *testing.T, repo *memorySensorRepo, auditLogger audit.Logger) *Handler {
	t.Helper()
	service, err := sensorapp.NewService(repo, noopReadingRepo{}, alertapp.NewTracker())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler, err := NewHandler(service, auditLogger)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func TestCreateSensorEndpoint(t *testing.T) {
	repo := newMemorySensorRepo()
	auditLog := &recordingAudit{}
	handler := newTestHandler(t, repo, auditLog)

	body := `{"name":"Tank Temp","unit":"C","kind":"value","min":24,"max":27,"alerts_enabled":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sensors", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	var created sensors.Sensor
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.APIKey == "" {
		t.Fatalf("id/key missing: %+v", created)
	}
	if len(auditLog.entries) != 1 || auditLog.entries[0].Action != "sensor.create" {
		t.Fatalf("audit entries = %+v", auditLog.entries)
	}
}

func TestCreateSensorRejectsInvalidBounds(t *testing.T) {
	handler := newTestHandler(t, newMemorySensorRepo(), nil)

	body := `{"name":"Tank Temp","kind":"value","min":30,"max":20}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sensors", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetSensorNotFound(t *testing.T) {
	handler := newTestHandler(t, newMemorySensorRepo(), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sensors/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteSensorEndpoint(t *testing.T) {
	repo := newMemorySensorRepo(sensors.Sensor{ID: "sensor-1", Name: "Temp", Kind: sensors.KindValue, APIKey: "key-1"})
	auditLog := &recordingAudit{}
	handler := newTestHandler(t, repo, auditLog)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/sensors/sensor-1", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if _, err := repo.GetByID(context.Background(), "sensor-1"); err == nil {
		t.Fatal("sensor still present after delete")
	}
	if len(auditLog.entries) != 1 || auditLog.entries[0].Action != "sensor.delete" {
		t.Fatalf("audit entries = %+v", auditLog.entries)
	}
}

func TestParametersEndpoint(t *testing.T) {
	hot := sensors.Sensor{
		ID: "sensor-1", Name: "Tank Temp", Unit: "C", Kind: sensors.KindValue,
		Min: floatPtr(24), Max: floatPtr(27),
		LastValue: floatPtr(28.5), LastSeenAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		APIKey: "key-1",
	}
	repo := newMemorySensorRepo(hot)
	service, err := sensorapp.NewService(repo, noopReadingRepo{}, alertapp.NewTracker())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler, err := NewParametersHandler(service)
	if err != nil {
		t.Fatalf("new parameters handler: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/parameters", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var statuses []sensorapp.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &statuses); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(statuses) != 1 {
		t.Fatalf("statuses = %d, want 1", len(statuses))
	}
	if !statuses[0].Alert || statuses[0].Status != "high" {
		t.Fatalf("status = %+v, display must reuse the alert evaluation", statuses[0])
	}
}
