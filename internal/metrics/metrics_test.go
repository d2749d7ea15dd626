package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalPath(t *testing.T) {
	id := uuid.New().String()

	tests := []struct {
		raw  string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/health", "/health"},
		{"/api/v1/jobs/", "/api/v1/jobs"},
		{"/api/v1/jobs/" + id, "/api/v1/jobs/:id"},
		{"/api/v1/applications/" + id + "/status", "/api/v1/applications/:id/status"},
		{"/api/v1/applications/job/" + id, "/api/v1/applications/job/:id"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalPath(tt.raw))
		})
	}
}

func TestInstrumentHandler_RecordsStatus(t *testing.T) {
	m := New()
	handler := m.InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/v1/jobs", "201")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
}

func TestInstrumentHandler_DefaultsToOK(t *testing.T) {
	m := New()
	handler := m.InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/health", "200")))
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.UserRegistered("company")
	m.UserRegistered("company")
	m.ApplicationSubmitted()
	m.Transition("application", "Applied", "Reviewed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.usersRegistered.WithLabelValues("company")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.applicationsSubmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("application", "Applied", "Reviewed")))
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New()
	m.ApplicationSubmitted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "jobboard_applications_submitted_total 1"))
}
