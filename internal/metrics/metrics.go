package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BarsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bars_total", Help: "Bars stepped through the decision engine"},
		[]string{"symbol"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders resolved by the broker"},
		[]string{"side", "status"},
	)
	CombinationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "combinations_total", Help: "Parameter combinations by outcome"},
		[]string{"outcome"},
	)
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "runs_total", Help: "Single instrument runs by outcome"},
		[]string{"outcome"},
	)
	BestAggregateValue = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "best_aggregate_value", Help: "Best aggregate account value found by the running sweep"},
	)
)

func init() {
	prometheus.MustRegister(BarsTotal, OrdersTotal, CombinationsTotal, RunsTotal, BestAggregateValue)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
