package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Extraction("youtube", "ytdlp", "success")
		m.Hosted("error")
		m.DeliveryStarted("direct")("success")
		m.Bytes("direct", 10)
	})
	assert.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := New()
	m.Extraction("youtube", "ytdlp", "success")
	m.Extraction("youtube", "ytdlp", "success")
	done := m.DeliveryStarted("transcode")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.inFlight))
	done("success")
	m.Bytes("transcode", 512)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.extractions.WithLabelValues("youtube", "ytdlp", "success")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.inFlight))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.deliveries.WithLabelValues("transcode", "success")))
	assert.Equal(t, float64(512), testutil.ToFloat64(m.bytes.WithLabelValues("transcode")))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.Hosted("success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mediapresso_hosted_overrides_total")
}
