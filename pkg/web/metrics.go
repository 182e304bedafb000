package web

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ritzau/org-directory/pkg/store"
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "org_directory",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of API requests broken down by route and result.",
	}, []string{"route", "method", "result"})

	apiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "org_directory",
		Subsystem: "api",
		Name:      "latency_seconds",
		Help:      "Latency distribution for API requests.",
		Buckets: []float64{
			0.001, 0.002, 0.005,
			0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5,
		},
	}, []string{"route", "method", "result"})

	snapshotEmployees = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "org_directory",
		Subsystem: "snapshot",
		Name:      "employees",
		Help:      "People in the current directory snapshot.",
	})

	snapshotVersion = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "org_directory",
		Subsystem: "snapshot",
		Name:      "version",
		Help:      "Version of the current directory snapshot.",
	})

	snapshotCycles = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "org_directory",
		Subsystem: "snapshot",
		Name:      "management_cycles",
		Help:      "Management cycles detected in the current snapshot.",
	})

	snapshotFallback = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "org_directory",
		Subsystem: "snapshot",
		Name:      "fallback",
		Help:      "1 when the current snapshot is fallback data.",
	})
)

func observeSnapshot(snap *store.Snapshot) {
	snapshotEmployees.Set(float64(snap.Len()))
	snapshotVersion.Set(float64(snap.Version))
	snapshotCycles.Set(float64(len(snap.Cycles)))
	if snap.Origin.Fallback {
		snapshotFallback.Set(1)
	} else {
		snapshotFallback.Set(0)
	}
}

type statusRecordingResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecordingResponseWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecordingResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusRecordingResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusRecordingResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// instrument records request counts and latency per route template
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecordingResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		result := "2xx"
		switch {
		case rec.status >= 500:
			result = "5xx"
		case rec.status >= 400:
			result = "4xx"
		}

		apiRequests.WithLabelValues(route, r.Method, result).Inc()
		apiLatency.WithLabelValues(route, r.Method, result).Observe(time.Since(start).Seconds())
	})
}
