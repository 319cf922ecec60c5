package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Swap pipeline metrics
	SwapRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapexec_swap_requests_total",
			Help: "Total number of swap pipeline executions",
		},
		[]string{"status"},
	)

	SwapDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapexec_swap_duration_seconds",
		Help:    "End-to-end swap pipeline duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapexec_stage_failures_total",
			Help: "Pipeline failures by stage and error kind",
		},
		[]string{"stage", "kind"},
	)

	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapexec_quote_requests_total",
			Help: "Total number of quote requests",
		},
		[]string{"status"},
	)

	QuoteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapexec_quote_duration_seconds",
		Help:    "Quote request duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// Simulation metrics
	SimulationRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapexec_simulation_requests_total",
		Help: "Total number of compute unit estimation simulations",
	})

	SimulationSuccess = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapexec_simulation_success_total",
		Help: "Total number of successful estimation simulations",
	})

	SimulationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapexec_simulation_failures_total",
			Help: "Total number of failed estimation simulations",
		},
		[]string{"reason"},
	)

	ComputeUnits = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapexec_compute_units",
		Help:    "Compute units consumed by simulated swap transactions",
		Buckets: []float64{1000, 5000, 10000, 50000, 100000, 200000, 400000, 800000, 1400000},
	})

	// Bundle metrics
	BundleSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapexec_bundle_submissions_total",
			Help: "Total number of bundle submissions to the block engine",
		},
		[]string{"status"},
	)

	BundleSubmitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapexec_bundle_submit_duration_seconds",
		Help:    "Bundle submission duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// Wallet metrics
	WalletCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swapexec_wallet_count",
		Help: "Number of custodial wallets in the store",
	})

	WithdrawRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapexec_withdraw_requests_total",
			Help: "Total number of SOL withdraw requests",
		},
		[]string{"status"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapexec_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swapexec_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
