package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/elys-network/vaultengine/internal/logger"
)

const Namespace = "vaultengine"

// Recorder exposes engine metrics on its own registry. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry
	log      zerolog.Logger

	operations         *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	cacheRequests      *prometheus.CounterVec
	vaultTVL           *prometheus.GaugeVec
	pendingWithdrawals prometheus.Gauge
}

// NewRecorder creates the engine metrics. Go runtime and process collectors are included.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		log:      logger.GetForComponent("metrics"),

		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Transaction service operations by outcome",
		}, []string{"operation", "result"}),

		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Wall time of transaction service operations, including wallet latency",
			Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),

		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_requests_total",
			Help:      "Cache reads by result",
		}, []string{"result"}),

		vaultTVL: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "vault_tvl",
			Help:      "Total value locked per vault in settlement units",
		}, []string{"vault"}),

		pendingWithdrawals: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "pending_withdrawals",
			Help:      "Unclaimed withdrawal requests",
		}),
	}

	registry.MustRegister(
		r.operations,
		r.operationDuration,
		r.cacheRequests,
		r.vaultTVL,
		r.pendingWithdrawals,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r.log.Debug().Msg("Metrics recorder initialized")
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveOperation counts one operation under result (an error code or "OK") and records its duration.
func (r *Recorder) ObserveOperation(operation, result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(operation, result).Inc()
	r.operationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveCache is shaped to plug into cache.WithObserver.
func (r *Recorder) ObserveCache(hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.cacheRequests.WithLabelValues("hit").Inc()
	} else {
		r.cacheRequests.WithLabelValues("miss").Inc()
	}
}

func (r *Recorder) SetVaultTVL(vaultID string, tvl float64) {
	if r == nil {
		return
	}
	r.vaultTVL.WithLabelValues(vaultID).Set(tvl)
}

func (r *Recorder) SetPendingWithdrawals(n int) {
	if r == nil {
		return
	}
	r.pendingWithdrawals.Set(float64(n))
}
