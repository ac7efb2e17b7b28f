package booking

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/recruitflow/booking-engine/pkg/logging"
)

// Handler serves the public, token-addressed booking endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a booking handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

type errorBody struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// GetAvailability handles GET /booking/{token}/availability.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	view, berr := h.service.Availability(r.Context(), chi.URLParam(r, "token"))
	if berr != nil {
		h.writeError(w, berr)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetTimeSlots handles GET /booking/{token}/slots?date=YYYY-MM-DD.
func (h *Handler) GetTimeSlots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		h.writeError(w, invalidInput(CodeBadDate, "A date query parameter is required."))
		return
	}
	day, berr := h.service.TimeSlots(r.Context(), chi.URLParam(r, "token"), date)
	if berr != nil {
		h.writeError(w, berr)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

// SubmitBooking handles POST /booking/{token}.
func (h *Handler) SubmitBooking(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, invalidInput(CodeBadDate, "Invalid request body."))
		return
	}
	conf, berr := h.service.Book(r.Context(), chi.URLParam(r, "token"), req)
	if berr != nil {
		h.writeError(w, berr)
		return
	}
	writeJSON(w, http.StatusCreated, conf)
}

// writeError maps the booking error taxonomy onto HTTP statuses. Internal
// causes are logged, never serialized.
func (h *Handler) writeError(w http.ResponseWriter, berr *Error) {
	status := http.StatusInternalServerError
	switch berr.Kind {
	case KindInvalidInput:
		status = http.StatusBadRequest
	case KindInvalidToken:
		status = http.StatusNotFound
	case KindTemporal:
		status = http.StatusUnprocessableEntity
	case KindConflict:
		status = http.StatusConflict
	case KindInternal:
		h.logger.Error("booking request failed", "error", berr)
	}
	writeJSON(w, status, errorResponse{Error: errorBody{
		Kind:    string(berr.Kind),
		Code:    berr.Code,
		Message: berr.Message,
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
