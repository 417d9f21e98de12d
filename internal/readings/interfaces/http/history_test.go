package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	readings "aquarium-cloud/internal/readings/domain"
)

type stubHistoryRepo struct {
	stubReadingRepo
	list      []readings.Reading
	summaries []readings.DailySummary
	gotSensor string
	gotFrom   time.Time
	gotTo     time.Time
}

func (s *stubHistoryRepo) ListRange(_ context.Context, sensorID string, from, to time.Time) ([]readings.Reading, error) {
	s.gotSensor, s.gotFrom, s.gotTo = sensorID, from, to
	return s.list, nil
}

func (s *stubHistoryRepo) DailySummaries(_ context.Context, sensorID string, from, to time.Time) ([]readings.DailySummary, error) {
	s.gotSensor, s.gotFrom, s.gotTo = sensorID, from, to
	return s.summaries, nil
}

func TestHistoryHandlerReturnsReadings(t *testing.T) {
	repo := &stubHistoryRepo{list: []readings.Reading{
		{SensorID: "sensor-1", Value: 25.2, TakenAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{SensorID: "sensor-1", Value: 25.4, TakenAt: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)},
	}}
	handler, err := NewHistoryHandler(repo)
	if err != nil {
		t.Fatalf("new history handler: %v", err)
	}

	target := "/api/v1/readings?sensor_id=sensor-1&from=2026-03-01T00:00:00Z&to=2026-03-02T00:00:00Z"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if repo.gotSensor != "sensor-1" {
		t.Fatalf("sensor = %q", repo.gotSensor)
	}
	var list []readings.Reading
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("readings = %d, want 2", len(list))
	}
}

func TestHistoryHandlerValidatesQuery(t *testing.T) {
	handler, err := NewHistoryHandler(&stubHistoryRepo{})
	if err != nil {
		t.Fatalf("new history handler: %v", err)
	}

	cases := []struct {
		name   string
		target string
	}{
		{name: "MissingSensor", target: "/api/v1/readings?from=2026-03-01T00:00:00Z&to=2026-03-02T00:00:00Z"},
		{name: "MissingFrom", target: "/api/v1/readings?sensor_id=s1&to=2026-03-02T00:00:00Z"},
		{name: "BadTime", target: "/api/v1/readings?sensor_id=s1&from=yesterday&to=2026-03-02T00:00:00Z"},
		{name: "InvertedRange", target: "/api/v1/readings?sensor_id=s1&from=2026-03-02T00:00:00Z&to=2026-03-01T00:00:00Z"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.target, nil))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestSummaryHandlerReturnsDailyAggregates(t *testing.T) {
	repo := &stubHistoryRepo{summaries: []readings.DailySummary{
		{SensorID: "sensor-1", Day: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Min: 24.8, Max: 26.1, Avg: 25.3, Count: 144},
	}}
	handler, err := NewSummaryHandler(repo)
	if err != nil {
		t.Fatalf("new summary handler: %v", err)
	}

	target := "/api/v1/history?sensor_id=sensor-1&from=2026-03-01T00:00:00Z&to=2026-03-08T00:00:00Z"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list []readings.DailySummary
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Count != 144 {
		t.Fatalf("summaries = %+v", list)
	}
}
