// Package metrics exposes Prometheus counters for the upload pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upload outcomes recorded by Recorder.Upload
const (
	ResultOK          = "ok"
	ResultClientError = "client_error"
	ResultForbidden   = "forbidden"
	ResultNotFound    = "not_found"
	ResultStoreError  = "store_error"
	ResultCanceled    = "canceled"
)

// Recorder holds the pipeline metrics. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	uploads       *prometheus.CounterVec
	uploadBytes   prometheus.Histogram
	compensations *prometheus.CounterVec
	deletes       *prometheus.CounterVec
	orphans       prometheus.Counter
}

// New registers the pipeline metrics on a fresh registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "packvault",
			Name:      "uploads_total",
			Help:      "Upload requests by outcome",
		}, []string{"result"}),

		uploadBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "packvault",
			Name:      "upload_bytes",
			Help:      "Size of committed file payloads in bytes",
			Buckets:   []float64{1 << 10, 16 << 10, 64 << 10, 256 << 10, 1 << 20, 2 << 20},
		}),

		compensations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "packvault",
			Name:      "compensations_total",
			Help:      "Compensating blob deletes after a failed metadata write",
		}, []string{"result"}),

		deletes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "packvault",
			Name:      "file_deletes_total",
			Help:      "File deletions by outcome",
		}, []string{"result"}),

		orphans: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "packvault",
			Name:      "orphan_blobs_deleted_total",
			Help:      "Blobs without a metadata row removed by the sweeper",
		}),
	}
}

func (r *Recorder) Upload(result string) {
	if r == nil {
		return
	}
	r.uploads.WithLabelValues(result).Inc()
}

func (r *Recorder) UploadBytes(n int64) {
	if r == nil {
		return
	}
	r.uploadBytes.Observe(float64(n))
}

// Compensation records one compensating delete; ok is false when the delete itself failed
func (r *Recorder) Compensation(ok bool) {
	if r == nil {
		return
	}
	r.compensations.WithLabelValues(outcome(ok)).Inc()
}

func (r *Recorder) Delete(ok bool) {
	if r == nil {
		return
	}
	r.deletes.WithLabelValues(outcome(ok)).Inc()
}

func (r *Recorder) OrphanDeleted() {
	if r == nil {
		return
	}
	r.orphans.Inc()
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
