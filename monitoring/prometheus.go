package monitoring

import (
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/mezonai/fastpay/logx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type QuorumOutcome string

var (
	QuorumReached    QuorumOutcome = "reached"
	QuorumNotReached QuorumOutcome = "not_reached"
	QuorumTimedOut   QuorumOutcome = "timeout"
	QuorumCancelled  QuorumOutcome = "cancelled"
)

type nodePromMetrics struct {
	nodeUpUnixSeconds  prometheus.Gauge
	accountCount       prometheus.Gauge
	rejectedTransfers  *prometheus.CounterVec
	lockedOrders       prometheus.Counter
	supersededOrders   prometheus.Counter
	confirmedTransfers prometheus.Counter
	rejectedConfirms   *prometheus.CounterVec
	quorumLatency      prometheus.Histogram
	quorumOutcomes     *prometheus.CounterVec
	confirmBroadcasts  *prometheus.CounterVec
	panicCount         prometheus.Counter
}

func newNodePromMetrics() *nodePromMetrics {
	return &nodePromMetrics{
		nodeUpUnixSeconds: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "fastpay_node_up_timestamp_unix_seconds",
				Help: "Unix timestamp of the node",
			},
		),
		accountCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "fastpay_ledger_accounts",
				Help: "Number of accounts known to the authority",
			},
		),
		rejectedTransfers: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fastpay_ledger_rejected_transfer_count",
				Help: "Transfer orders refused at validation, by reason",
			},
			[]string{"reason"},
		),
		lockedOrders: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "fastpay_ledger_locked_order_count",
				Help: "Transfer orders accepted and signed",
			},
		),
		supersededOrders: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "fastpay_ledger_superseded_order_count",
				Help: "Pending orders replaced by a newer order before confirmation",
			},
		),
		confirmedTransfers: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "fastpay_ledger_confirmed_transfer_count",
				Help: "Certified transfers applied to balances",
			},
		),
		rejectedConfirms: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fastpay_ledger_rejected_confirm_count",
				Help: "Confirmation requests refused, by reason",
			},
			[]string{"reason"},
		),
		quorumLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fastpay_client_quorum_latency_seconds",
				Help:    "Time from fan-out until a quorum of certificates was collected",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
			},
		),
		quorumOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fastpay_client_quorum_outcome_count",
				Help: "Quorum collection rounds by outcome",
			},
			[]string{"outcome"},
		),
		confirmBroadcasts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fastpay_client_confirm_result_count",
				Help: "Per-authority confirmation results",
			},
			[]string{"result"},
		),
		panicCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "fastpay_panic_count",
				Help: "Recovered goroutine panics",
			},
		),
	}
}

var (
	nodeMetrics *nodePromMetrics
	initOnce    sync.Once
)

// InitMetrics registers the collectors. Every recorder calls it, so metrics are usable
// before the HTTP endpoint is exposed.
func InitMetrics() {
	initOnce.Do(func() {
		nodeMetrics = newNodePromMetrics()
		nodeMetrics.nodeUpUnixSeconds.SetToCurrentTime()
	})
}

func metrics() *nodePromMetrics {
	InitMetrics()
	return nodeMetrics
}

func RegisterMetrics(router *mux.Router) {
	InitMetrics()
	logx.Info("MONITORING", "Registering prometheus metrics on /metrics")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

func SetAccountCount(n int) {
	metrics().accountCount.Set(float64(n))
}

func RecordRejectedTransfer(reason string) {
	metrics().rejectedTransfers.With(prometheus.Labels{
		"reason": reason,
	}).Inc()
}

func RecordRejectedConfirm(reason string) {
	metrics().rejectedConfirms.With(prometheus.Labels{
		"reason": reason,
	}).Inc()
}

func IncreaseLockedOrders() {
	metrics().lockedOrders.Inc()
}

func IncreaseSupersededOrders() {
	metrics().supersededOrders.Inc()
}

func IncreaseConfirmedTransfers() {
	metrics().confirmedTransfers.Inc()
}

func RecordQuorumLatency(duration time.Duration) {
	metrics().quorumLatency.Observe(duration.Seconds())
}

func RecordQuorumOutcome(outcome QuorumOutcome) {
	metrics().quorumOutcomes.With(prometheus.Labels{
		"outcome": string(outcome),
	}).Inc()
}

func RecordConfirmResult(ok bool) {
	result := "failed"
	if ok {
		result = "succeeded"
	}
	metrics().confirmBroadcasts.With(prometheus.Labels{
		"result": result,
	}).Inc()
}

func IncreasePanicCount() {
	metrics().panicCount.Inc()
}
