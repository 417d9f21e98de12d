package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"aquarium-cloud/internal/audit"
	"aquarium-cloud/internal/auth"
	maintapp "aquarium-cloud/internal/maintenance/application"
	maintenance "aquarium-cloud/internal/maintenance/domain"
)

// Handler provides maintenance task endpoints.
type Handler struct {
	service     *maintapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *maintapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("maintenance handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles /api/v1/maintenance and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/maintenance":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(r.URL.Path, "/api/v1/maintenance/"):
		rest := strings.TrimPrefix(r.URL.Path, "/api/v1/maintenance/")
		parts := strings.Split(rest, "/")
		switch {
		case len(parts) == 1 && parts[0] != "":
			h.handleItem(w, r, parts[0])
		case len(parts) == 2 && parts[1] == "complete":
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.handleComplete(w, r, parts[0])
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type taskRequest struct {
	Title        string `json:"title"`
	IntervalDays int    `json:"interval_days"`
	Notes        string `json:"notes"`
	Notify       bool   `json:"notify"`
}

func (h *Handler) handleItem(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		task, err := h.service.Get(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(task)
	case http.MethodPut:
		h.handleUpdate(w, r, id)
	case http.MethodDelete:
		if err := h.service.Delete(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		h.logAudit(r, "maintenance.delete", id)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
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

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	task := maintenance.Task{
		Title:        req.Title,
		IntervalDays: req.IntervalDays,
		Notes:        req.Notes,
		Notify:       req.Notify,
	}
	if err := h.service.Create(r.Context(), &task); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logAudit(r, "maintenance.create", task.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(task)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	task := maintenance.Task{
		ID:           id,
		Title:        req.Title,
		IntervalDays: req.IntervalDays,
		Notes:        req.Notes,
		Notify:       req.Notify,
	}
	if err := h.service.Update(r.Context(), &task); err != nil {
		if errors.Is(err, maintenance.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logAudit(r, "maintenance.update", id)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(task)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request, id string) {
	task, err := h.service.Complete(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	h.logAudit(r, "maintenance.complete", id)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(task)
}

func (h *Handler) logAudit(r *http.Request, action, taskID string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "maintenance_task",
		ResourceID:   taskID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, maintenance.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
