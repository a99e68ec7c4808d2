package cacheinfra

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts cache activity per namespace. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	lookups       *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

// NewMetrics registers the cache collectors on reg. Collectors that are
// already registered are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Keys requested from the cache.",
		}, []string{"namespace"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "cache",
			Name:      "fetches_total",
			Help:      "Keys computed by the underlying source after a miss.",
		}, []string{"namespace"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "cache",
			Name:      "fetch_errors_total",
			Help:      "Source calls that returned an error.",
		}, []string{"namespace"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Entries removed by invalidation.",
		}, []string{"namespace"}),
	}

	var err error
	if m.lookups, err = register(reg, m.lookups); err != nil {
		return nil, err
	}
	if m.fetches, err = register(reg, m.fetches); err != nil {
		return nil, err
	}
	if m.fetchErrors, err = register(reg, m.fetchErrors); err != nil {
		return nil, err
	}
	if m.invalidations, err = register(reg, m.invalidations); err != nil {
		return nil, err
	}
	return m, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func (m *Metrics) lookup(namespace string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.lookups.WithLabelValues(namespace).Add(float64(n))
}

func (m *Metrics) fetch(namespace string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.fetches.WithLabelValues(namespace).Add(float64(n))
}

func (m *Metrics) fetchError(namespace string) {
	if m == nil {
		return
	}
	m.fetchErrors.WithLabelValues(namespace).Inc()
}

func (m *Metrics) invalidate(namespace string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.invalidations.WithLabelValues(namespace).Add(float64(n))
}
