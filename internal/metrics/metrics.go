// Package metrics exposes Prometheus counters for the REST pipeline and strategy loops.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "okx_requests_total", Help: "Signed REST calls by final outcome"},
		[]string{"method", "endpoint", "outcome"},
	)
	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "okx_request_retries_total", Help: "Failed attempts that were retried"},
		[]string{"method", "endpoint"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"inst_id", "side"},
	)
	IterationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "strategy_iterations_total", Help: "Strategy loop iterations by result"},
		[]string{"strategy", "result"},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal, RetriesTotal, OrdersTotal, IterationsTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
