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
	watertests "aquarium-cloud/internal/watertests/domain"
)

// Handler provides water test CRUD endpoints.
type Handler struct {
	repo        watertests.Repository
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(repo watertests.Repository, auditLogger audit.Logger) (*Handler, error) {
	if repo == nil {
		return nil, errors.New("water tests handler: nil repository")
	}
	return &Handler{repo: repo, auditLogger: auditLogger}, nil
}

// ServeHTTP handles /api/v1/watertests and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/watertests":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(r.URL.Path, "/api/v1/watertests/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/watertests/")
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

type waterTestRequest struct {
	TakenAt   time.Time `json:"taken_at"`
	PH        *float64  `json:"ph"`
	Ammonia   *float64  `json:"ammonia"`
	Nitrite   *float64  `json:"nitrite"`
	Nitrate   *float64  `json:"nitrate"`
	KH        *float64  `json:"kh"`
	GH        *float64  `json:"gh"`
	Phosphate *float64  `json:"phosphate"`
	Salinity  *float64  `json:"salinity"`
	Notes     string    `json:"notes"`
}

func (r waterTestRequest) toWaterTest(id string) watertests.WaterTest {
	takenAt := r.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now().UTC()
	}
	return watertests.WaterTest{
		ID:        id,
		TakenAt:   takenAt,
		PH:        r.PH,
		Ammonia:   r.Ammonia,
		Nitrite:   r.Nitrite,
		Nitrate:   r.Nitrate,
		KH:        r.KH,
		GH:        r.GH,
		Phosphate: r.Phosphate,
		Salinity:  r.Salinity,
		Notes:     r.Notes,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.repo.ListRange(r.Context(), from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	test, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(test)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req waterTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	test := req.toWaterTest("wtest-" + uuid.NewString())
	if err := h.repo.Create(r.Context(), &test); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logAudit(r, "watertest.create", test.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(test)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var req waterTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	test := req.toWaterTest(id)
	if err := h.repo.Update(r.Context(), &test); err != nil {
		if errors.Is(err, watertests.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logAudit(r, "watertest.update", id)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(test)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.repo.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	h.logAudit(r, "watertest.delete", id)
	w.WriteHeader(http.StatusNoContent)
}

// rangeFromQuery parses optional from/to query params, defaulting to the
// last 90 days.
func rangeFromQuery(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -90)
	to := now.Add(time.Minute)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from")
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to")
		}
		to = parsed
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, errors.New("to must be after from")
	}
	return from, to, nil
}

func (h *Handler) logAudit(r *http.Request, action, testID string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "watertest",
		ResourceID:   testID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, watertests.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
