package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	m := New()
	m.RequestsTotal.WithLabelValues("ok").Inc()
	m.DetectorFailures.WithLabelValues("legacy").Inc()
	m.AlertsEmitted.WithLabelValues("critical").Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "nc_analyzer_requests_total"))
	assert.True(t, strings.Contains(body, "nc_analyzer_detector_failures_total"))
	assert.True(t, strings.Contains(body, "nc_analyzer_alerts_emitted_total"))
}
