package cacheinfra

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-catalog/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func poolConfig() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.EarlyRefresh = nil
	cfg.MissingRecordStorage = false
	return cfg
}

func TestNewPool_InvalidConfig(t *testing.T) {
	cfg := poolConfig()
	cfg.Capacity = 0
	if _, err := NewPool(cfg); err == nil {
		t.Fatal("expected error for zero capacity")
	}
}

func TestPool_Namespace(t *testing.T) {
	cfg := poolConfig()
	cfg.Namespaces = map[string]time.Duration{"brand": time.Hour}

	pool, err := NewPool(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := pool.Namespace("product", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := pool.Namespace("product", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Error("expected the same service for the same namespace and TTL")
	}

	c, err := pool.Namespace("product", 2*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == c {
		t.Error("expected a separate service for a different TTL")
	}

	if _, err := pool.Namespace("brand", time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := pool.Stats()
	want := []string{"brand@1h0m0s", "product@1m0s", "product@2m0s"}
	if len(stats) != len(want) {
		t.Fatalf("expected %d namespaces, got %v", len(want), stats)
	}
	for i, id := range want {
		if stats[i].Namespace != id {
			t.Errorf("stats[%d]: expected %s, got %s", i, id, stats[i].Namespace)
		}
	}
}

func TestPool_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pool, err := NewPool(poolConfig(), WithPoolMetrics(metrics))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc, err := pool.Namespace("product-info", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	fetch := func(ctx context.Context) (string, error) { return "x", nil }
	for i := 0; i < 3; i++ {
		if _, err := svc.GetOrFetch(ctx, "k", fetch); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := svc.Delete(ctx, "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := testutil.ToFloat64(metrics.lookups.WithLabelValues("product-info")); got != 3 {
		t.Errorf("expected 3 lookups, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.fetches.WithLabelValues("product-info")); got != 1 {
		t.Errorf("expected 1 fetch, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.invalidations.WithLabelValues("product-info")); got != 1 {
		t.Errorf("expected 1 invalidation, got %v", got)
	}
}

func TestNewMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("unexpected error on second registration: %v", err)
	}
	if first.lookups != second.lookups {
		t.Error("expected the registered collector to be reused")
	}

	var nilMetrics *Metrics
	nilMetrics.lookup("ns", 1)
	nilMetrics.fetchError("ns")

	if m, err := NewMetrics(nil); m != nil || err != nil {
		t.Errorf("expected nil metrics for nil registerer, got %v %v", m, err)
	}
}
