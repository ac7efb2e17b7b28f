// Package ops exposes the recruiter-facing management surface: issuing
// booking links, editing availability, resolving lapsed interviews and
// triggering sweeps.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/recruitflow/booking-engine/internal/availability"
	"github.com/recruitflow/booking-engine/internal/bookinglink"
	"github.com/recruitflow/booking-engine/internal/candidates"
	"github.com/recruitflow/booking-engine/internal/interviews"
	"github.com/recruitflow/booking-engine/internal/jobs"
	"github.com/recruitflow/booking-engine/pkg/logging"
)

// DefaultLinkTTLHours is applied when a link is issued without an expiry.
const DefaultLinkTTLHours = 72

// SweepRunner triggers a registered background job by name.
type SweepRunner interface {
	RunNow(ctx context.Context, name string) (int, error)
}

// Handler serves the /ops routes.
type Handler struct {
	links      *bookinglink.Store
	configs    *availability.Store
	candidates *candidates.Service
	interviews *interviews.Service
	sweeps     SweepRunner
	logger     *logging.Logger
	now        func() time.Time
}

// NewHandler creates an ops handler.
func NewHandler(links *bookinglink.Store, configs *availability.Store, cands *candidates.Service, ivs *interviews.Service, sweeps SweepRunner, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		links:      links,
		configs:    configs,
		candidates: cands,
		interviews: ivs,
		sweeps:     sweeps,
		logger:     logger,
		now:        time.Now,
	}
}

type createLinkRequest struct {
	CandidateID     string `json:"candidate_id"`
	Kind            string `json:"kind"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	JobTitle        string `json:"job_title,omitempty"`
	BranchID        string `json:"branch_id,omitempty"`
	ExpiresInHours  int    `json:"expires_in_hours,omitempty"`
	MaxUses         int    `json:"max_uses,omitempty"`
}

type createLinkResponse struct {
	LinkID      string    `json:"link_id"`
	Token       string    `json:"token"`
	BookingPath string    `json:"booking_path"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// CreateLink handles POST /ops/links. The raw token is returned exactly once;
// only its hash is stored.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := decodeStrict(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	candidateID, err := uuid.Parse(req.CandidateID)
	if err != nil {
		http.Error(w, "invalid candidate_id", http.StatusBadRequest)
		return
	}
	kind, err := availability.ParseKind(req.Kind)
	if err != nil {
		http.Error(w, "kind must be interview or trial", http.StatusBadRequest)
		return
	}

	token, hash, err := bookinglink.NewToken()
	if err != nil {
		h.logger.Error("token generation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	ttl := req.ExpiresInHours
	if ttl <= 0 {
		ttl = DefaultLinkTTLHours
	}
	link := &bookinglink.Link{
		TokenHash:       hash,
		CandidateID:     candidateID,
		Kind:            kind,
		DurationMinutes: req.DurationMinutes,
		JobTitle:        req.JobTitle,
		BranchID:        req.BranchID,
		ExpiresAt:       h.now().UTC().Add(time.Duration(ttl) * time.Hour),
		MaxUses:         req.MaxUses,
	}
	if err := h.links.Create(r.Context(), link); err != nil {
		h.logger.Error("link create failed", "error", err, "candidate_id", candidateID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("booking link issued", "link_id", link.ID, "candidate_id", candidateID, "kind", kind)
	writeJSON(w, http.StatusCreated, createLinkResponse{
		LinkID:      link.ID.String(),
		Token:       token,
		BookingPath: "/booking/" + token,
		ExpiresAt:   link.ExpiresAt,
	})
}

// RevokeLink handles POST /ops/links/{id}/revoke.
func (h *Handler) RevokeLink(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid link id", http.StatusBadRequest)
		return
	}
	if err := h.links.Revoke(r.Context(), id); err != nil {
		h.logger.Error("link revoke failed", "error", err, "link_id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAvailabilityConfig handles GET /ops/availability/{kind}.
func (h *Handler) GetAvailabilityConfig(w http.ResponseWriter, r *http.Request) {
	kind, err := availability.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, "kind must be interview or trial", http.StatusBadRequest)
		return
	}
	cfg, err := h.configs.GetConfig(r.Context(), kind)
	if err != nil {
		h.logger.Error("config read failed", "error", err, "kind", kind)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// PutAvailabilityConfig handles PUT /ops/availability/{kind}.
func (h *Handler) PutAvailabilityConfig(w http.ResponseWriter, r *http.Request) {
	kind, err := availability.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, "kind must be interview or trial", http.StatusBadRequest)
		return
	}
	var cfg availability.Config
	if err := decodeStrict(r, &cfg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cfg.Kind = kind
	if err := h.configs.SetConfig(r.Context(), &cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Info("availability config updated", "kind", kind)
	writeJSON(w, http.StatusOK, cfg)
}

// GetBlocks handles GET /ops/blocks.
func (h *Handler) GetBlocks(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.configs.GetBlocks(r.Context())
	if err != nil {
		h.logger.Error("blocks read failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

// PutBlocks handles PUT /ops/blocks.
func (h *Handler) PutBlocks(w http.ResponseWriter, r *http.Request) {
	var blocks availability.Blocks
	if err := decodeStrict(r, &blocks); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.configs.SetBlocks(r.Context(), &blocks); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Info("blocking rules updated")
	writeJSON(w, http.StatusOK, blocks)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// SetCandidateStatus handles POST /ops/candidates/{id}/status.
func (h *Handler) SetCandidateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid candidate id", http.StatusBadRequest)
		return
	}
	var req setStatusRequest
	if err := decodeStrict(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.candidates.SetStatus(r.Context(), id, candidates.Status(req.Status)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resolveRequest struct {
	Resolution string `json:"resolution"`
	NewTime    string `json:"new_time,omitempty"` // RFC 3339
	Notes      string `json:"notes,omitempty"`
}

// ResolveInterview handles POST /ops/interviews/{id}/resolve.
func (h *Handler) ResolveInterview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid interview id", http.StatusBadRequest)
		return
	}
	var req resolveRequest
	if err := decodeStrict(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	var newStart time.Time
	if req.NewTime != "" {
		newStart, err = time.Parse(time.RFC3339, req.NewTime)
		if err != nil {
			http.Error(w, "new_time must be RFC 3339", http.StatusBadRequest)
			return
		}
	}

	iv, err := h.interviews.ResolveLapsed(r.Context(), id, interviews.ResolveRequest{
		Resolution: interviews.Resolution(req.Resolution),
		NewStart:   newStart.UTC(),
		Notes:      req.Notes,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{
			"interview_id": iv.ID.String(),
			"status":       string(iv.Status),
		})
	case errors.Is(err, interviews.ErrNotFound):
		http.Error(w, "interview not found", http.StatusNotFound)
	case errors.Is(err, interviews.ErrNotLapsed):
		http.Error(w, "interview is not awaiting resolution", http.StatusConflict)
	case errors.Is(err, interviews.ErrMissingNewTime), errors.Is(err, interviews.ErrUnknownResolution):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("resolve failed", "error", err, "interview_id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// RunSweep handles POST /ops/sweeps/{name}/run. URL names are hyphenated;
// registered job names use underscores.
func (h *Handler) RunSweep(w http.ResponseWriter, r *http.Request) {
	name := strings.ReplaceAll(chi.URLParam(r, "name"), "-", "_")
	changed, err := h.sweeps.RunNow(r.Context(), name)
	switch {
	case errors.Is(err, jobs.ErrUnknownJob):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("sweep run failed", "error", err, "job", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": name, "changed": changed})
}

func decodeStrict(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
