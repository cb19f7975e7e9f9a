package websession

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ggoodman/http-sessions-go/driver"
)

const metricsNamespace = "websession"

// WithMetrics registers Prometheus metrics for session operations on reg.
// Pass prometheus.DefaultRegisterer to use the process-wide registry.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(m *Manager) { m.metrics = newManagerMetrics(reg) }
}

// managerMetrics instruments manager operations. All methods are nil-safe
// so the manager can call them unconditionally.
type managerMetrics struct {
	resolutions *prometheus.CounterVec
	commits     *prometheus.CounterVec
	driverOps   *prometheus.HistogramVec
}

func newManagerMetrics(reg prometheus.Registerer) *managerMetrics {
	return &managerMetrics{
		resolutions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "resolutions_total",
			Help:      "Session resolutions by outcome (new, resumed, error).",
		}, []string{"outcome"}),
		commits: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commits_total",
			Help:      "Session commits by outcome (saved, error).",
		}, []string{"outcome"}),
		driverOps: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "driver_op_duration_seconds",
			Help:      "Driver operation latency by operation (load, save, remove).",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

func (mm *managerMetrics) resolved(outcome string) {
	if mm == nil {
		return
	}
	mm.resolutions.WithLabelValues(outcome).Inc()
}

func (mm *managerMetrics) committed(outcome string) {
	if mm == nil {
		return
	}
	mm.commits.WithLabelValues(outcome).Inc()
}

func (mm *managerMetrics) observe(op string, start time.Time) {
	if mm == nil {
		return
	}
	mm.driverOps.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Manager) observeLoad(ctx context.Context, drv driver.Driver, id string) (string, bool, error) {
	start := time.Now()
	payload, ok, err := drv.Load(ctx, id)
	m.metrics.observe("load", start)
	return payload, ok, err
}

func (m *Manager) observeSave(ctx context.Context, drv driver.Driver, id, payload string) error {
	start := time.Now()
	err := drv.Save(ctx, id, payload)
	m.metrics.observe("save", start)
	return err
}

func (m *Manager) observeRemove(ctx context.Context, drv driver.Driver, id string) error {
	start := time.Now()
	err := drv.Remove(ctx, id)
	m.metrics.observe("remove", start)
	return err
}
