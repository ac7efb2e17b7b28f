package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recruitflow/booking-engine/pkg/logging"
)

func TestMaskBookingToken(t *testing.T) {
	assert.Equal(t, "/booking/{token}/availability", MaskBookingToken("/booking/bk_abc123/availability"))
	assert.Equal(t, "/booking/{token}", MaskBookingToken("/booking/bk_abc123"))
	assert.Equal(t, "/ops/links", MaskBookingToken("/ops/links"))
	assert.Equal(t, "/booking/", MaskBookingToken("/booking/"))
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	h := RequestLogger(logging.Default())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/booking/bk_abc123", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestLogger_PropagatesRequestID(t *testing.T) {
	h := RequestLogger(logging.Default())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/ops/links", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}
