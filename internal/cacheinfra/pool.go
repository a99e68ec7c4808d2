package cacheinfra

import (
	"log/slog"
	"sort"
	"time"

	"github.com/goliatone/go-catalog/cache"
	"github.com/puzpuzpuz/xsync/v3"
)

// Pool hands out one sturdyc backed service per namespace and TTL.
// It implements cache.Provider.
type Pool struct {
	cfg      cache.Config
	base     Config
	metrics  *Metrics
	logger   *slog.Logger
	services *xsync.MapOf[string, *sturdycService]
}

var _ cache.Provider = (*Pool)(nil)

// PoolOption customises a Pool.
type PoolOption func(*Pool)

// WithPoolMetrics attaches metrics to every service of the pool.
func WithPoolMetrics(m *Metrics) PoolOption {
	return func(p *Pool) {
		p.metrics = m
	}
}

// WithPoolLogger sets the logger used when namespaces are created.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPool validates cfg and returns an empty pool.
func NewPool(cfg cache.Config, opts ...PoolOption) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := FromConfig(cfg)
	if err := base.Validate(); err != nil {
		return nil, err
	}

	p := &Pool{
		cfg:      cfg,
		base:     base,
		logger:   slog.Default(),
		services: xsync.NewMapOf[string, *sturdycService](),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Namespace returns the service for name. A TTL configured for name takes
// precedence over ttl; a zero ttl uses the global TTL.
func (p *Pool) Namespace(name string, ttl time.Duration) (cache.CacheService, error) {
	ttl = p.cfg.TTLFor(name, ttl)
	id := name + "@" + ttl.String()

	if svc, ok := p.services.Load(id); ok {
		return svc, nil
	}

	cfg := p.base
	cfg.TTL = ttl
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	svc, loaded := p.services.LoadOrCompute(id, func() *sturdycService {
		s, _ := NewSturdycService(cfg, WithNamespace(name), WithMetrics(p.metrics))
		return s
	})
	if !loaded {
		p.logger.Debug("cache namespace created", "namespace", name, "ttl", ttl)
	}
	return svc, nil
}

// NamespaceStats reports the entry count of one namespace service.
type NamespaceStats struct {
	Namespace string
	Entries   int
}

// Stats returns the entry count of every namespace, sorted by name.
func (p *Pool) Stats() []NamespaceStats {
	var stats []NamespaceStats
	p.services.Range(func(id string, svc *sturdycService) bool {
		stats = append(stats, NamespaceStats{Namespace: id, Entries: svc.Len()})
		return true
	})
	sort.Slice(stats, func(i, j int) bool { return stats[i].Namespace < stats[j].Namespace })
	return stats
}
