package di

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-catalog/cache"
	"github.com/goliatone/go-catalog/config"
	"github.com/goliatone/go-catalog/entity"
	"github.com/goliatone/go-catalog/internal/media"
	"github.com/goliatone/go-catalog/pkg/testsupport"
	"github.com/prometheus/client_golang/prometheus"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Cache = cache.Config{
		Capacity:           1000,
		NumShards:          16,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
		EarlyRefresh:       nil,
		EvictionInterval:   0,
	}
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newSeededContainer builds a container over a private seeded database.
func newSeededContainer(t testing.TB, cfg config.Config, opts ...Option) *Container {
	t.Helper()
	db := testsupport.OpenTestDB(t)
	testsupport.SeedCatalog(t, db)

	opts = append([]Option{WithDB(db), WithLogger(discardLogger())}, opts...)
	container, err := NewContainer(cfg, opts...)
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })
	return container
}

type stubSource struct {
	mu    sync.Mutex
	calls int
}

func (s *stubSource) Resolve(_ context.Context, ids []string) ([]media.Image, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	out := make([]media.Image, 0, len(ids))
	for _, id := range ids {
		out = append(out, media.Image{ID: id, URL: "https://cdn.test/" + id + ".jpg"})
	}
	return out, nil
}

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestNewContainer(t *testing.T) {
	cfg := testConfig()
	container := newSeededContainer(t, cfg)

	if container.Products() == nil || container.Carts() == nil || container.Wishlist() == nil {
		t.Fatal("Container should wire every service")
	}
	if container.KeySerializer() == nil {
		t.Error("Container should have a non-nil key serializer")
	}
	if container.Pool() == nil || container.DB() == nil {
		t.Error("Container should expose the pool and the database")
	}

	stored := container.Config()
	if stored.Cache.Capacity != cfg.Cache.Capacity {
		t.Errorf("Expected capacity %d, got %d", cfg.Cache.Capacity, stored.Cache.Capacity)
	}
	if stored.Cache.TTL != cfg.Cache.TTL {
		t.Errorf("Expected TTL %v, got %v", cfg.Cache.TTL, stored.Cache.TTL)
	}
	if _, ok := container.Currencies().Lookup("eur"); !ok {
		t.Error("Expected the default currencies to be loaded")
	}
}

func TestNewContainerWithDefaults(t *testing.T) {
	container, err := NewContainerWithDefaults(WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}
	defer container.Close()

	if err := container.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	cfg := container.Config()
	defaults := config.Default()
	if cfg.Cache.Capacity != defaults.Cache.Capacity {
		t.Errorf("Expected default capacity %d, got %d", defaults.Cache.Capacity, cfg.Cache.Capacity)
	}
	if cfg.Database.Driver != defaults.Database.Driver {
		t.Errorf("Expected default driver %q, got %q", defaults.Database.Driver, cfg.Database.Driver)
	}

	if _, err := container.Products().Brands(context.Background()); err != nil {
		t.Fatalf("Brands() failed on a migrated database: %v", err)
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Capacity = 0

	if _, err := NewContainer(cfg, WithDB(testsupport.OpenTestDB(t))); err == nil {
		t.Error("NewContainer() should fail with invalid config")
	}

	cfg = testConfig()
	cfg.Database.Driver = "oracle"
	if _, err := NewContainer(cfg); err == nil {
		t.Error("NewContainer() should fail with an unknown driver")
	}
}

func TestContainerSingletonBehavior(t *testing.T) {
	container := newSeededContainer(t, testConfig())

	if container.Products() != container.Products() {
		t.Error("Products() should return the same instance")
	}
	if container.KeySerializer() != container.KeySerializer() {
		t.Error("KeySerializer() should return the same instance")
	}
	if container.Pool() != container.Pool() {
		t.Error("Pool() should return the same instance")
	}
}

func TestKeySerializerIntegration(t *testing.T) {
	container := newSeededContainer(t, testConfig())
	keySerializer := container.KeySerializer()

	testCases := []struct {
		name     string
		method   string
		args     []any
		expected string
	}{
		{
			name:     "no args",
			method:   "Get",
			args:     []any{},
			expected: "Get",
		},
		{
			name:     "single string arg",
			method:   "GetByID",
			args:     []any{"123"},
			expected: "GetByID::123",
		},
		{
			name:     "multiple args",
			method:   "ListIDs",
			args:     []any{"individual", 10, true},
			expected: "ListIDs::individual::10::true",
		},
		{
			name:     "nil arg",
			method:   "Count",
			args:     []any{nil},
			expected: "Count::nil",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := keySerializer.SerializeKey(tc.method, tc.args...)
			if result != tc.expected {
				t.Errorf("Expected key %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestPoolNamespaces(t *testing.T) {
	container := newSeededContainer(t, testConfig())

	seen := map[string]bool{}
	for _, s := range container.Pool().Stats() {
		seen[strings.SplitN(s.Namespace, "@", 2)[0]] = true
	}
	for _, ns := range []string{NamespaceBrands, NamespaceRelations, NamespaceCarts, NamespaceWishes} {
		if !seen[ns] {
			t.Errorf("Expected namespace %q in pool stats %v", ns, container.Pool().Stats())
		}
	}
}

func TestWithRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	container := newSeededContainer(t, testConfig(), WithRegisterer(reg))

	if _, err := container.Products().GetInfo(context.Background(), entity.Individual(testsupport.ProductKettle)); err != nil {
		t.Fatalf("GetInfo() failed: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "catalog_cache_lookups_total" && len(f.GetMetric()) > 0 {
			found = true
		}
	}
	if !found {
		t.Error("Expected cache lookups to be recorded")
	}
}

func TestWithImageSource(t *testing.T) {
	source := &stubSource{}
	container := newSeededContainer(t, testConfig(), WithImageSource(source))
	ctx := context.Background()
	ref := entity.Individual(testsupport.ProductKettle)

	info, err := container.Products().GetInfo(ctx, ref)
	if err != nil {
		t.Fatalf("GetInfo() failed: %v", err)
	}
	if info.Thumbnail == nil || info.Thumbnail.URL != "https://cdn.test/img-kettle.jpg" {
		t.Fatalf("Expected a resolved thumbnail, got %+v", info.Thumbnail)
	}

	calls := source.Calls()
	if _, err := container.Products().GetInfo(ctx, entity.Individual(testsupport.ProductKettle)); err != nil {
		t.Fatalf("GetInfo() failed: %v", err)
	}
	if source.Calls() != calls {
		t.Errorf("Expected the cached info to skip the image source, got %d calls", source.Calls())
	}
}
