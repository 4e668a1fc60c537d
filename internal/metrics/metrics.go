// Package metrics exposes domain counters for signing, verification and OCR.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"docauth/internal/model"
)

// Recorder holds the domain metrics. A nil *Recorder is a valid no-op.
type Recorder struct {
	signed        prometheus.Counter
	verifications *prometheus.CounterVec
	ocrRequests   *prometheus.CounterVec
	ocrDuration   prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		signed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docauth_documents_signed_total",
			Help: "Total number of documents signed and stored.",
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docauth_verifications_total",
			Help: "Total number of verification verdicts by outcome and reason.",
		}, []string{"outcome", "reason"}),
		ocrRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docauth_ocr_requests_total",
			Help: "Total number of OCR extraction calls by result.",
		}, []string{"result"}),
		ocrDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docauth_ocr_duration_seconds",
			Help:    "Duration of OCR extraction calls in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	for _, c := range []prometheus.Collector{r.signed, r.verifications, r.ocrRequests, r.ocrDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) DocumentSigned() {
	if r == nil {
		return
	}
	r.signed.Inc()
}

func (r *Recorder) Verdict(v model.Verdict) {
	if r == nil {
		return
	}
	r.verifications.WithLabelValues(string(v.Outcome), string(v.Reason)).Inc()
}

// OCR records one extraction call; result is "ok", "unavailable" or "decode_error".
func (r *Recorder) OCR(result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.ocrRequests.WithLabelValues(result).Inc()
	r.ocrDuration.Observe(elapsed.Seconds())
}
