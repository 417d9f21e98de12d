package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"aquarium-cloud/internal/audit"
	"aquarium-cloud/internal/auth"
	specimens "aquarium-cloud/internal/specimens/domain"
)

// Handler provides specimen CRUD endpoints.
type Handler struct {
	repo        specimens.Repository
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(repo specimens.Repository, auditLogger audit.Logger) (*Handler, error) {
	if repo == nil {
		return nil, errors.New("specimens handler: nil repository")
	}
	return &Handler{repo: repo, auditLogger: auditLogger}, nil
}

// ServeHTTP handles /api/v1/specimens and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/specimens":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(r.URL.Path, "/api/v1/specimens/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/specimens/")
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

type specimenRequest struct {
	CommonName     string    `json:"common_name"`
	ScientificName string    `json:"scientific_name"`
	Category       string    `json:"category"`
	Count          int       `json:"count"`
	AddedOn        time.Time `json:"added_on"`
	Notes          string    `json:"notes"`
}

func (r specimenRequest) toSpecimen(id string) specimens.Specimen {
	addedOn := r.AddedOn
	if addedOn.IsZero() {
		addedOn = time.Now().UTC()
	}
	return specimens.Specimen{
		ID:             id,
		CommonName:     r.CommonName,
		ScientificName: r.ScientificName,
		Category:       specimens.Category(r.Category),
		Count:          r.Count,
		AddedOn:        addedOn,
		Notes:          r.Notes,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	specimen, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(specimen)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req specimenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	specimen := req.toSpecimen("specimen-" + uuid.NewString())
	if err := h.repo.Create(r.Context(), &specimen); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logAudit(r, "specimen.create", specimen.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(specimen)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var req specimenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	specimen := req.toSpecimen(id)
	if err := h.repo.Update(r.Context(), &specimen); err != nil {
		if errors.Is(err, specimens.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logAudit(r, "specimen.update", id)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(specimen)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.repo.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	h.logAudit(r, "specimen.delete", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logAudit(r *http.Request, action, specimenID string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "specimen",
		ResourceID:   specimenID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, specimens.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
