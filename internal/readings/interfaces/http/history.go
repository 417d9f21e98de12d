package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	readings "aquarium-cloud/internal/readings/domain"
)

const timeLayout = time.RFC3339

// HistoryHandler serves raw reading history for one sensor.
type HistoryHandler struct {
	readings readings.Repository
}

// NewHistoryHandler constructs a history handler.
func NewHistoryHandler(repo readings.Repository) (*HistoryHandler, error) {
	if repo == nil {
		return nil, errors.New("history: nil reading repository")
	}
	return &HistoryHandler{readings: repo}, nil
}

// ServeHTTP handles GET /api/v1/readings.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sensorID, from, to, err := historyQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.readings.ListRange(r.Context(), sensorID, from, to)
	if err != nil {
		http.Error(w, "query readings error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// SummaryHandler serves per-day aggregates for the calendar view.
type SummaryHandler struct {
	query readings.SummaryQuery
}

// NewSummaryHandler constructs a summary handler.
func NewSummaryHandler(query readings.SummaryQuery) (*SummaryHandler, error) {
	if query == nil {
		return nil, errors.New("summary: nil query")
	}
	return &SummaryHandler{query: query}, nil
}

// ServeHTTP handles GET /api/v1/history.
func (h *SummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sensorID, from, to, err := historyQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.query.DailySummaries(r.Context(), sensorID, from, to)
	if err != nil {
		http.Error(w, "query summaries error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func historyQuery(r *http.Request) (sensorID string, from, to time.Time, err error) {
	sensorID = r.URL.Query().Get("sensor_id")
	if sensorID == "" {
		return "", time.Time{}, time.Time{}, errors.New("sensor_id is required")
	}
	from, err = parseTimeQuery(r, "from")
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	to, err = parseTimeQuery(r, "to")
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	if !to.After(from) {
		return "", time.Time{}, time.Time{}, errors.New("to must be after from")
	}
	return sensorID, from, to, nil
}

func parseTimeQuery(r *http.Request, key string) (time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", key)
	}
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be RFC3339", key)
	}
	return parsed.UTC(), nil
}
