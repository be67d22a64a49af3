package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/markusthomas/wiremagnet/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Intake metrics

	SubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wiremagnet",
		Name:      "submissions_total",
		Help:      "Total intake submissions, by outcome.",
	}, []string{"outcome"})

	ConfirmationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wiremagnet",
		Name:      "confirmations_total",
		Help:      "Total successful double-opt-in confirmations.",
	})

	// Delivery metrics

	EmailsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wiremagnet",
		Name:      "emails_sent_total",
		Help:      "Outbound emails, by kind and result.",
	}, []string{"kind", "result"})

	TokensIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wiremagnet",
		Name:      "tokens_issued_total",
		Help:      "Download tokens issued.",
	})

	TokensSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wiremagnet",
		Name:      "tokens_swept_total",
		Help:      "Expired download tokens removed by sweeps.",
	})

	DownloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wiremagnet",
		Name:      "downloads_total",
		Help:      "Successful download redemptions.",
	})

	LeadsPurgedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wiremagnet",
		Name:      "leads_purged_total",
		Help:      "Unconfirmed leads removed by retention sweeps.",
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wiremagnet",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wiremagnet",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		SubmissionsTotal,
		ConfirmationsTotal,
		EmailsSentTotal,
		TokensIssuedTotal,
		TokensSweptTotal,
		DownloadsTotal,
		LeadsPurgedTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer exposes /metrics plus the liveness/readiness probes on a
// separate port from the public API.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		result := checker.Readiness(r.Context())
		status := http.StatusOK
		if result.Status != "up" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, result)
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
