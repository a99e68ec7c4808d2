package di

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-catalog/catalog"
	"github.com/goliatone/go-catalog/entity"
	"github.com/goliatone/go-catalog/pkg/testsupport"
	"github.com/goliatone/go-catalog/store"
	"github.com/goliatone/go-catalog/transformer"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// countingBrandRepository wraps the bun brand repository and tracks read
// calls to verify caching behavior.
type countingBrandRepository struct {
	repository.Repository[*entity.Brand]

	mu        sync.Mutex
	callCount map[string]int
}

func newCountingBrandRepository(t testing.TB, container *Container) *countingBrandRepository {
	t.Helper()
	return &countingBrandRepository{
		Repository: store.NewBrandRepository(container.DB()),
		callCount:  make(map[string]int),
	}
}

func (m *countingBrandRepository) trackCall(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount[method]++
}

func (m *countingBrandRepository) getCallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount[method]
}

func (m *countingBrandRepository) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*entity.Brand, error) {
	m.trackCall("GetByID")
	return m.Repository.GetByID(ctx, id, criteria...)
}

func (m *countingBrandRepository) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*entity.Brand, int, error) {
	m.trackCall("List")
	return m.Repository.List(ctx, criteria...)
}

func (m *countingBrandRepository) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	m.trackCall("Count")
	return m.Repository.Count(ctx, criteria...)
}

var _ repository.Repository[*entity.Brand] = (*countingBrandRepository)(nil)

// TestEndToEndCatalogFlow drives products, carts and wishlists through the
// wired container.
func TestEndToEndCatalogFlow(t *testing.T) {
	container := newSeededContainer(t, testConfig())
	ctx := context.Background()
	kettle := entity.Individual(testsupport.ProductKettle)

	detail, err := container.Products().GetDetail(ctx, kettle)
	if err != nil {
		t.Fatalf("GetDetail failed: %v", err)
	}
	if detail.Brand == nil || detail.Brand.ID != testsupport.BrandAcme {
		t.Errorf("Expected the kettle brand to be patched, got %+v", detail.Brand)
	}

	line, err := container.Carts().Add(ctx, "user-1", kettle, 2)
	if err != nil {
		t.Fatalf("Cart Add failed: %v", err)
	}
	if line.Product.ID != testsupport.ProductKettle || line.Quantity != 2 {
		t.Errorf("Unexpected cart line %+v", line)
	}

	if _, err := container.Wishlist().Add(ctx, "user-1", entity.Combo(testsupport.ComboTeaSet)); err != nil {
		t.Fatalf("Wishlist Add failed: %v", err)
	}
	wishes, err := container.Wishlist().Items(ctx, "user-1")
	if err != nil {
		t.Fatalf("Wishlist Items failed: %v", err)
	}
	if len(wishes) != 1 || wishes[0].Type != transformer.TypeCombo {
		t.Errorf("Unexpected wishlist %+v", wishes)
	}

	// Deleting the product drops its cart lines.
	if _, err := container.Products().Delete(ctx, entity.KindIndividual, []uuid.UUID{testsupport.ProductKettle}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	lines, err := container.Carts().Items(ctx, "user-1")
	if err != nil {
		t.Fatalf("Cart Items failed: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("Expected no cart lines after deletion, got %+v", lines)
	}

	_, err = container.Products().GetInfo(ctx, kettle)
	if !catalog.IsEntityNotFound(err) {
		t.Errorf("Expected EntityNotFound after deletion, got %v", err)
	}
}

// TestDeleteDropsDependentCachedReads verifies deleting a product refreshes
// cached carts, wishlists and the infos of combos that held it.
func TestDeleteDropsDependentCachedReads(t *testing.T) {
	container := newSeededContainer(t, testConfig())
	ctx := context.Background()
	mug := entity.Individual(testsupport.ProductMug)
	set := entity.Combo(testsupport.ComboTeaSet)

	if _, err := container.Carts().Add(ctx, "user-1", mug, 1); err != nil {
		t.Fatalf("Cart Add failed: %v", err)
	}
	if _, err := container.Wishlist().Add(ctx, "user-1", mug); err != nil {
		t.Fatalf("Wishlist Add failed: %v", err)
	}

	// Warm every read that the delete has to refresh.
	lines, err := container.Carts().Items(ctx, "user-1")
	if err != nil || len(lines) != 1 {
		t.Fatalf("Expected one cart line, got %d (%v)", len(lines), err)
	}
	wishes, err := container.Wishlist().Items(ctx, "user-1")
	if err != nil || len(wishes) != 1 {
		t.Fatalf("Expected one wish, got %d (%v)", len(wishes), err)
	}
	info, err := container.Products().GetInfo(ctx, set)
	if err != nil {
		t.Fatalf("GetInfo failed: %v", err)
	}
	if info.ComboItemCount != 2 {
		t.Fatalf("Expected 2 items in the set, got %d", info.ComboItemCount)
	}

	if _, err := container.Products().Delete(ctx, entity.KindIndividual, []uuid.UUID{testsupport.ProductMug}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	lines, err = container.Carts().Items(ctx, "user-1")
	if err != nil {
		t.Fatalf("Cart Items failed: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("Expected the cart to be empty after deletion, got %+v", lines)
	}
	rows, err := container.DB().NewSelect().Model((*entity.CartItem)(nil)).Where("user_id = ?", "user-1").Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if rows != len(lines) {
		t.Errorf("Expected cached lines to match %d stored rows, got %d", rows, len(lines))
	}

	wishes, err = container.Wishlist().Items(ctx, "user-1")
	if err != nil {
		t.Fatalf("Wishlist Items failed: %v", err)
	}
	if len(wishes) != 0 {
		t.Errorf("Expected the wishlist to be empty after deletion, got %+v", wishes)
	}

	info, err = container.Products().GetInfo(ctx, set)
	if err != nil {
		t.Fatalf("GetInfo failed: %v", err)
	}
	detail, err := container.Products().GetDetail(ctx, set)
	if err != nil {
		t.Fatalf("GetDetail failed: %v", err)
	}
	if info.ComboItemCount != 1 || len(detail.ComboItems) != 1 {
		t.Errorf("Expected one item left in the set, got info=%d detail=%d", info.ComboItemCount, len(detail.ComboItems))
	}
}

// TestCachedRepositoryFlow verifies reads through NewCachedRepository hit the
// database once per key.
func TestCachedRepositoryFlow(t *testing.T) {
	container := newSeededContainer(t, testConfig())
	base := newCountingBrandRepository(t, container)
	cachedRepo, err := NewCachedRepository(container, "flow-brands", base)
	if err != nil {
		t.Fatalf("NewCachedRepository failed: %v", err)
	}
	ctx := context.Background()
	id := testsupport.BrandAcme.String()

	for i := 0; i < 2; i++ {
		brand, err := cachedRepo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID %d failed: %v", i, err)
		}
		if brand.ID != testsupport.BrandAcme {
			t.Errorf("GetByID %d returned %+v", i, brand)
		}
	}
	if callCount := base.getCallCount("GetByID"); callCount != 1 {
		t.Errorf("Expected base repository GetByID to be called once, got %d calls", callCount)
	}

	for i := 0; i < 2; i++ {
		brands, total, err := cachedRepo.List(ctx)
		if err != nil {
			t.Fatalf("List %d failed: %v", i, err)
		}
		if len(brands) == 0 || total != len(brands) {
			t.Errorf("List %d returned %d brands, total %d", i, len(brands), total)
		}
	}
	if callCount := base.getCallCount("List"); callCount != 1 {
		t.Errorf("Expected base repository List to be called once, got %d calls", callCount)
	}

	for i := 0; i < 2; i++ {
		if _, err := cachedRepo.Count(ctx); err != nil {
			t.Fatalf("Count %d failed: %v", i, err)
		}
	}
	if callCount := base.getCallCount("Count"); callCount != 1 {
		t.Errorf("Expected base repository Count to be called once, got %d calls", callCount)
	}
}

// TestCacheEvictionFlow verifies entries expire with the configured TTL.
func TestCacheEvictionFlow(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Capacity = 10
	cfg.Cache.NumShards = 2
	cfg.Cache.TTL = 100 * time.Millisecond
	cfg.Cache.EvictionInterval = 50 * time.Millisecond

	container := newSeededContainer(t, cfg)
	base := newCountingBrandRepository(t, container)
	cachedRepo, err := NewCachedRepository(container, "eviction-brands", base)
	if err != nil {
		t.Fatalf("NewCachedRepository failed: %v", err)
	}
	ctx := context.Background()
	id := testsupport.BrandAcme.String()

	for i := 0; i < 2; i++ {
		if _, err := cachedRepo.GetByID(ctx, id); err != nil {
			t.Fatalf("GetByID %d failed: %v", i, err)
		}
	}
	if callCount := base.getCallCount("GetByID"); callCount != 1 {
		t.Errorf("Expected a cache hit before the TTL, got %d calls", callCount)
	}

	time.Sleep(200 * time.Millisecond)

	if _, err := cachedRepo.GetByID(ctx, id); err != nil {
		t.Fatalf("GetByID after TTL failed: %v", err)
	}
	if callCount := base.getCallCount("GetByID"); callCount != 2 {
		t.Errorf("Expected base repository GetByID to be called twice after eviction, got %d calls", callCount)
	}
}

// TestWriteInvalidatesCachedReads verifies writes through the cached
// repository drop the entries they affect.
func TestWriteInvalidatesCachedReads(t *testing.T) {
	container := newSeededContainer(t, testConfig())
	base := newCountingBrandRepository(t, container)
	cachedRepo, err := NewCachedRepository(container, "write-brands", base)
	if err != nil {
		t.Fatalf("NewCachedRepository failed: %v", err)
	}
	ctx := context.Background()
	id := testsupport.BrandAcme.String()

	brand, err := cachedRepo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	brand.Name = "Acme Renamed"
	if _, err := cachedRepo.Update(ctx, brand); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reloaded, err := cachedRepo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID after Update failed: %v", err)
	}
	if reloaded.Name != "Acme Renamed" {
		t.Errorf("Expected the updated name, got %q", reloaded.Name)
	}
	if callCount := base.getCallCount("GetByID"); callCount != 2 {
		t.Errorf("Expected Update to invalidate the cached record, got %d calls", callCount)
	}
}

// TestErrorPropagation verifies lookup errors are returned and not cached.
func TestErrorPropagation(t *testing.T) {
	container := newSeededContainer(t, testConfig())
	base := newCountingBrandRepository(t, container)
	cachedRepo, err := NewCachedRepository(container, "error-brands", base)
	if err != nil {
		t.Fatalf("NewCachedRepository failed: %v", err)
	}
	ctx := context.Background()
	missing := "00000000-0000-4000-8000-00000000dead"

	for i := 0; i < 2; i++ {
		if _, err := cachedRepo.GetByID(ctx, missing); err == nil {
			t.Fatalf("Expected GetByID %d to fail for a missing brand", i)
		}
	}
	if callCount := base.getCallCount("GetByID"); callCount != 2 {
		t.Errorf("Expected errors to reach the base repository every time, got %d calls", callCount)
	}
}
