// Package metrics exposes prometheus collectors for the live bring-up path.
package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// OutcomeSuccess labels a setup run whose error list stayed empty.
	OutcomeSuccess = "success"
	// OutcomeFailure labels a setup run that collected at least one error.
	OutcomeFailure = "failure"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Count of market ticks ingested"},
		[]string{"symbol"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"symbol", "side"},
	)
	SetupRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "setup_runs_total", Help: "Live setup runs by outcome"},
		[]string{"outcome"},
	)
	SetupPhaseSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "setup_phase_seconds",
			Help:    "Wall-clock time spent in each setup phase",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"phase"},
	)
	BrokerageMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "brokerage_messages_total", Help: "Brokerage messages dispatched by severity"},
		[]string{"severity"},
	)
	ReconciledRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "reconciled_records_total", Help: "Brokerage records merged into the account model"},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		TicksTotal,
		OrdersTotal,
		SetupRunsTotal,
		SetupPhaseSeconds,
		BrokerageMessagesTotal,
		ReconciledRecordsTotal,
	)
}

// Router mounts /metrics and /healthz.
func Router() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// Serve starts the exposition server in the background.
func Serve(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: Router()}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
