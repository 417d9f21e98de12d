package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	alerts "aquarium-cloud/internal/alerts/domain"
	"aquarium-cloud/internal/observability/metrics"
	readings "aquarium-cloud/internal/readings/domain"
	sensors "aquarium-cloud/internal/sensors/domain"
)

// Evaluator runs alert evaluation for a persisted reading.
type Evaluator interface {
	HandleReading(ctx context.Context, sensor sensors.Sensor, value float64, at time.Time) alerts.Evaluation
}

// SensorReader resolves sensors by ingest key and caches last values.
type SensorReader interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*sensors.Sensor, error)
	UpdateLastValue(ctx context.Context, id string, value float64, seenAt time.Time) error
}

// IngestHandler accepts readings pushed by microcontrollers on
// GET/POST /data/{api_key}[/{value}].
type IngestHandler struct {
	sensors   SensorReader
	readings  readings.Repository
	evaluator Evaluator
	logger    *log.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// IngestOption configures the ingest handler.
type IngestOption func(*IngestHandler)

// WithRateLimit sets the per-key request rate and burst.
func WithRateLimit(perSecond float64, burst int) IngestOption {
	return func(h *IngestHandler) {
		if perSecond > 0 {
			h.limit = rate.Limit(perSecond)
		}
		if burst > 0 {
			h.burst = burst
		}
	}
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(sensorReader SensorReader, readingRepo readings.Repository, evaluator Evaluator, logger *log.Logger, opts ...IngestOption) (*IngestHandler, error) {
	if sensorReader == nil {
		return nil, errors.New("ingest: nil sensor reader")
	}
	if readingRepo == nil {
		return nil, errors.New("ingest: nil reading repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	handler := &IngestHandler{
		sensors:   sensorReader,
		readings:  readingRepo,
		evaluator: evaluator,
		logger:    logger,
		limiters:  make(map[string]*rate.Limiter),
		limit:     rate.Limit(1),
		burst:     5,
	}
	for _, opt := range opts {
		opt(handler)
	}
	return handler, nil
}

// ServeHTTP ingests a single reading.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.IngestResultSuccess
	defer func() {
		metrics.ObserveIngest(result, time.Since(start))
	}()

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		result = metrics.IngestResultError
		metrics.IncIngestError("method_not_allowed")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	apiKey, rawValue, ok := splitDataPath(r.URL.Path)
	if !ok || apiKey == "" {
		result = metrics.IngestResultError
		metrics.IncIngestError("bad_path")
		http.Error(w, "invalid key", http.StatusNotFound)
		return
	}

	if !h.allow(apiKey) {
		result = metrics.IngestResultError
		metrics.IncIngestError("rate_limited")
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	sensor, err := h.sensors.GetByAPIKey(r.Context(), apiKey)
	if err != nil {
		if errors.Is(err, sensors.ErrNotFound) {
			result = metrics.IngestResultError
			metrics.IncIngestError("invalid_key")
			http.Error(w, "invalid key", http.StatusNotFound)
			return
		}
		h.logger.Printf("ingest: sensor lookup error: %v", err)
		result = metrics.IngestResultError
		metrics.IncIngestError("lookup_error")
		http.Error(w, "lookup error", http.StatusInternalServerError)
		return
	}

	if rawValue == "" {
		rawValue = r.URL.Query().Get("value")
	}
	if rawValue == "" && r.Method == http.MethodPost {
		if err := r.ParseForm(); err == nil {
			rawValue = r.PostForm.Get("value")
		}
	}
	value, err := strconv.ParseFloat(rawValue, 64)
	if err != nil {
		result = metrics.IngestResultError
		metrics.IncIngestError("invalid_value")
		http.Error(w, "invalid value", http.StatusBadRequest)
		return
	}

	value = sensor.Normalize(value)
	takenAt := time.Now().UTC()

	if err := h.readings.Insert(r.Context(), readings.Reading{
		SensorID: sensor.ID,
		Value:    value,
		TakenAt:  takenAt,
	}); err != nil {
		h.logger.Printf("ingest: insert error: %v", err)
		result = metrics.IngestResultError
		metrics.IncIngestError("insert_error")
		http.Error(w, "insert error", http.StatusInternalServerError)
		return
	}
	if err := h.sensors.UpdateLastValue(r.Context(), sensor.ID, value, takenAt); err != nil {
		h.logger.Printf("ingest: last value cache error: %v", err)
	}

	// The reading is persisted at this point; evaluation and notification
	// failures never roll it back.
	var eval alerts.Evaluation
	if h.evaluator != nil {
		eval = h.evaluator.HandleReading(r.Context(), *sensor, value, takenAt)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"sensor": sensor.ID,
		"value":  value,
		"alert":  eval.Alert,
	})
}

func (h *IngestHandler) allow(apiKey string) bool {
	h.mu.Lock()
	limiter, ok := h.limiters[apiKey]
	if !ok {
		limiter = rate.NewLimiter(h.limit, h.burst)
		h.limiters[apiKey] = limiter
	}
	h.mu.Unlock()
	return limiter.Allow()
}

// splitDataPath parses /data/{api_key} or /data/{api_key}/{value}.
func splitDataPath(path string) (apiKey, value string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/data/")
	if trimmed == path {
		return "", "", false
	}
	trimmed = strings.Trim(trimmed, "/")
	if trimmed == "" {
		return "", "", false
	}
	parts := strings.Split(trimmed, "/")
	switch len(parts) {
	case 1:
		return parts[0], "", true
	case 2:
		return parts[0], parts[1], true
	default:
		return "", "", false
	}
}
