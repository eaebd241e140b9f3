package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/scorecheck/internal/grading"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.Observe("single", grading.ValidateScore(95))
	r.Observe("single", grading.ValidateScore(92))
	r.Observe("batch", grading.ValidateScore("x"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.validations.WithLabelValues("true", "A", "single")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.validations.WithLabelValues("false", "F", "batch")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.finalScore))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "scorecheck_validations_total")
	assert.Contains(t, rec.Body.String(), "scorecheck_final_score_count 2")
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() { r.Observe("single", grading.ValidateScore(50)) })
}
