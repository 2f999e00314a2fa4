package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.ObserveRetrieval("augmented")
	m.ObserveRetrieval("augmented")
	m.ObserveRetrieval("degraded")
	m.ObserveRewrite(nil)
	m.ObserveRewrite(errors.New("boom"))
	m.ObserveSearch(true, 10*time.Millisecond)
	m.ObserveContextTokens(300)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.retrievals.WithLabelValues("augmented")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retrievals.WithLabelValues("degraded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rewrites.WithLabelValues("error")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tuskmem_retrievals_total")
	assert.Contains(t, rec.Body.String(), "tuskmem_vector_search_seconds")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRetrieval("x")
		m.ObserveSearch(false, time.Second)
		m.ObserveContextTokens(1)
		m.ObserveRewrite(nil)
	})
}
