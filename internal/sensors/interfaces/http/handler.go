package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"aquarium-cloud/internal/audit"
	"aquarium-cloud/internal/auth"
	sensorapp "aquarium-cloud/internal/sensors/application"
	sensors "aquarium-cloud/internal/sensors/domain"
)

// Handler provides sensor CRUD endpoints.
type Handler struct {
	service     *sensorapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *sensorapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("sensors handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles /api/v1/sensors and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/sensors":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(r.URL.Path, "/api/v1/sensors/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/sensors/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
		case http.MethodPut:
			h.handleUpdate(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type sensorRequest struct {
	Name          string   `json:"name"`
	Unit          string   `json:"unit"`
	Kind          string   `json:"kind"`
	Min           *float64 `json:"min"`
	Max           *float64 `json:"max"`
	OKValue       float64  `json:"ok_value"`
	AlertsEnabled bool     `json:"alerts_enabled"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	sensor, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sensor)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req sensorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	sensor := sensors.Sensor{
		Name:          req.Name,
		Unit:          req.Unit,
		Kind:          sensors.Kind(req.Kind),
		Min:           req.Min,
		Max:           req.Max,
		OKValue:       req.OKValue,
		AlertsEnabled: req.AlertsEnabled,
	}
	if err := h.service.Create(r.Context(), &sensor); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logAudit(r, "sensor.create", sensor.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(sensor)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var req sensorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	sensor := sensors.Sensor{
		ID:            id,
		Name:          req.Name,
		Unit:          req.Unit,
		Kind:          sensors.Kind(req.Kind),
		Min:           req.Min,
		Max:           req.Max,
		OKValue:       req.OKValue,
		AlertsEnabled: req.AlertsEnabled,
	}
	if err := h.service.Update(r.Context(), &sensor); err != nil {
		if errors.Is(err, sensors.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logAudit(r, "sensor.update", id)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sensor)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	h.logAudit(r, "sensor.delete", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logAudit(r *http.Request, action, sensorID string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "sensor",
		ResourceID:   sensorID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, sensors.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
