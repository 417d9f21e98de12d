package http

import (
	"encoding/json"
	"errors"
	"net/http"

	sensorapp "aquarium-cloud/internal/sensors/application"
)

// ParametersHandler serves the public per-sensor status view polled by
// the dashboard.
type ParametersHandler struct {
	service *sensorapp.Service
}

// NewParametersHandler constructs a parameters handler.
func NewParametersHandler(service *sensorapp.Service) (*ParametersHandler, error) {
	if service == nil {
		return nil, errors.New("parameters handler: nil service")
	}
	return &ParametersHandler{service: service}, nil
}

// ServeHTTP handles GET /parameters.
func (h *ParametersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	statuses, err := h.service.Statuses(r.Context())
	if err != nil {
		http.Error(w, "status query error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statuses)
}
