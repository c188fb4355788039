package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeConfirmed  = "confirmed"
	OutcomeRolledBack = "rolled_back"
	OutcomeQueued     = "queued"
	OutcomeRejected   = "rejected"

	RefreshApplied = "applied"
	RefreshSkipped = "skipped"
	RefreshFailed  = "failed"
)

// Recorder is safe to use as a nil pointer; every method is then a no-op.
type Recorder struct {
	mutations   *prometheus.CounterVec
	retries     prometheus.Counter
	refreshes   *prometheus.CounterVec
	flushed     *prometheus.CounterVec
	recalcTime  prometheus.Histogram
	pendingKeys prometheus.Gauge
	insights    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "discipline_checkin_mutations_total",
			Help: "Check-in mutations by action and outcome",
		}, []string{"action", "outcome"}),
		retries: f.NewCounter(prometheus.CounterOpts{
			Name: "discipline_store_write_retries_total",
			Help: "Retried store writes",
		}),
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "discipline_cache_refreshes_total",
			Help: "Cache refreshes from the store by result",
		}, []string{"result"}),
		flushed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "discipline_outbox_replays_total",
			Help: "Replayed outbox writes by result",
		}, []string{"result"}),
		recalcTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "discipline_analytics_recalc_duration_seconds",
			Help:    "Time spent recomputing analytics for one habit",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		pendingKeys: f.NewGauge(prometheus.GaugeOpts{
			Name: "discipline_pending_mutations",
			Help: "Mutations currently waiting for the store",
		}),
		insights: f.NewCounterVec(prometheus.CounterOpts{
			Name: "discipline_insights_generated_total",
			Help: "Generated insights by type",
		}, []string{"type"}),
	}
}

func (r *Recorder) Mutation(action, outcome string) {
	if r == nil {
		return
	}
	r.mutations.WithLabelValues(action, outcome).Inc()
}

func (r *Recorder) Retry() {
	if r == nil {
		return
	}
	r.retries.Inc()
}

func (r *Recorder) Refresh(result string) {
	if r == nil {
		return
	}
	r.refreshes.WithLabelValues(result).Inc()
}

func (r *Recorder) Replay(ok bool) {
	if r == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	r.flushed.WithLabelValues(result).Inc()
}

func (r *Recorder) Recalculated(d time.Duration) {
	if r == nil {
		return
	}
	r.recalcTime.Observe(d.Seconds())
}

// Pending moves the in-flight mutation gauge by delta.
func (r *Recorder) Pending(delta int) {
	if r == nil {
		return
	}
	r.pendingKeys.Add(float64(delta))
}

func (r *Recorder) Insight(typ string) {
	if r == nil {
		return
	}
	r.insights.WithLabelValues(typ).Inc()
}
