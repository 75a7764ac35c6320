package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	Verifications     *prometheus.CounterVec
	Submissions       *prometheus.CounterVec
	SubmissionErrors  *prometheus.CounterVec
	Confirmations     *prometheus.CounterVec
	ConfirmationTime  prometheus.Histogram
	RecordRefreshes   prometheus.Counter
	ChainRefreshes    *prometheus.CounterVec
	PoolLiquidity     *prometheus.GaugeVec
	LatestBlockHeight prometheus.Gauge
	ActiveBadges      prometheus.Gauge
}

// NewMetrics creates new Prometheus metrics registered with reg. A nil reg
// uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aura_verifications_total",
			Help: "Income verification attempts by outcome",
		}, []string{"outcome"}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aura_submissions_total",
			Help: "Transactions handed to the wallet by action",
		}, []string{"action"}),
		SubmissionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aura_submission_errors_total",
			Help: "Failed wallet submissions by action and error kind",
		}, []string{"action", "kind"}),
		Confirmations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aura_confirmations_total",
			Help: "Results of transaction confirmation polling by status",
		}, []string{"status"}),
		ConfirmationTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "aura_confirmation_duration_seconds",
			Help:    "Time spent waiting for transaction confirmation",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
		}),
		RecordRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "aura_record_refreshes_total",
			Help: "Total number of wallet record refreshes",
		}),
		ChainRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aura_chain_refreshes_total",
			Help: "Scheduled chain refresh runs by result",
		}, []string{"result"}),
		PoolLiquidity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aura_pool_liquidity_credits",
			Help: "On-chain liquidity of each lending pool",
		}, []string{"pool"}),
		LatestBlockHeight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "aura_latest_block_height",
			Help: "Latest block height seen on the explorer",
		}),
		ActiveBadges: factory.NewGauge(prometheus.GaugeOpts{
			Name: "aura_active_badges",
			Help: "Number of active CreditBadges held by the connected wallet",
		}),
	}
}
