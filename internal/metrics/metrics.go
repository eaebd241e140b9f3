package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mind-engage/scorecheck/internal/grading"
)

// Recorder exports validation outcomes. A nil *Recorder is a no-op.
type Recorder struct {
	validations *prometheus.CounterVec
	finalScore  prometheus.Histogram
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scorecheck",
			Name:      "validations_total",
			Help:      "Score validations by outcome, grade and source.",
		}, []string{"valid", "grade", "source"}),
		finalScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scorecheck",
			Name:      "final_score",
			Help:      "Final score of valid validations.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
	}
	reg.MustRegister(r.validations, r.finalScore)
	return r
}

func (r *Recorder) Observe(source string, res grading.Result) {
	if r == nil {
		return
	}
	r.validations.WithLabelValues(strconv.FormatBool(res.Valid), string(res.Grade), source).Inc()
	if res.Valid {
		r.finalScore.Observe(res.Score)
	}
}

// Handler serves the metrics of g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
