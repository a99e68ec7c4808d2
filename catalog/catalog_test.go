package catalog_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/goliatone/go-catalog/cache"
	"github.com/goliatone/go-catalog/catalog"
	"github.com/goliatone/go-catalog/internal/cacheinfra"
	"github.com/goliatone/go-catalog/internal/currency"
	"github.com/goliatone/go-catalog/internal/media"
	"github.com/goliatone/go-catalog/pkg/testsupport"
	"github.com/goliatone/go-catalog/store"
	"github.com/uptrace/bun"
)

type stubImages struct {
	mu       sync.Mutex
	requests [][]string
	err      error
}

func (s *stubImages) Resolve(_ context.Context, ids []string) ([]media.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, append([]string(nil), ids...))
	if s.err != nil {
		return nil, s.err
	}
	out := make([]media.Image, 0, len(ids))
	for _, id := range ids {
		if id == "img-missing" {
			continue
		}
		out = append(out, media.Image{ID: id, URL: "https://cdn.test/" + id + ".jpg"})
	}
	return out, nil
}

func (s *stubImages) Requests() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.requests...)
}

func (s *stubImages) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type fixture struct {
	db       *bun.DB
	images   *stubImages
	products *catalog.ProductService
	carts    *catalog.CartService
	wishes   *catalog.WishlistService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testsupport.OpenTestDB(t)
	testsupport.SeedCatalog(t, db)

	cfg := cache.DefaultConfig()
	cfg.EarlyRefresh = nil
	cfg.MissingRecordStorage = false
	pool, err := cacheinfra.NewPool(cfg)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	images := &stubImages{}
	products, err := catalog.NewProductService(
		store.NewProducts(db),
		store.NewBrands(db, nil),
		store.NewRelations(db, nil),
		pool,
		catalog.WithImageResolver(images),
		catalog.WithCurrencyLookup(currency.NewTable(currency.DefaultCurrencies)),
		catalog.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("NewProductService failed: %v", err)
	}

	return &fixture{
		db:       db,
		images:   images,
		products: products,
		carts:    catalog.NewCartService(store.NewCarts(db, nil), products),
		wishes:   catalog.NewWishlistService(store.NewWishes(db, nil), products),
	}
}

func assertNotFound(t *testing.T, err error, entity string, ids ...string) {
	t.Helper()
	if !catalog.IsEntityNotFound(err) {
		t.Fatalf("expected EntityNotFound, got %v", err)
	}
	gotEntity, gotIDs, ok := catalog.NotFoundDetails(err)
	if !ok || gotEntity != entity {
		t.Fatalf("expected entity %q, got %q", entity, gotEntity)
	}
	if len(ids) == 0 {
		return
	}
	if len(gotIDs) != len(ids) {
		t.Fatalf("expected ids %v, got %v", ids, gotIDs)
	}
	for i := range ids {
		if gotIDs[i] != ids[i] {
			t.Fatalf("expected ids %v, got %v", ids, gotIDs)
		}
	}
}

func TestNewProductServiceRequiresProvider(t *testing.T) {
	db := testsupport.OpenTestDB(t)
	_, err := catalog.NewProductService(store.NewProducts(db), store.NewBrands(db, nil), store.NewRelations(db, nil), nil)
	if err == nil {
		t.Fatal("expected an error without a cache provider")
	}
}

func TestEntityNotFound(t *testing.T) {
	err := catalog.EntityNotFound(catalog.EntityBrand, testsupport.BrandAcme)
	assertNotFound(t, err, "brand", testsupport.BrandAcme.String())

	wrapped := errors.Join(errors.New("outer"), err)
	if !catalog.IsEntityNotFound(wrapped) {
		t.Error("expected a wrapped error to be recognised")
	}
	if catalog.IsEntityNotFound(errors.New("plain")) {
		t.Error("plain errors are not EntityNotFound")
	}
	if _, _, ok := catalog.NotFoundDetails(errors.New("plain")); ok {
		t.Error("expected no details for a plain error")
	}
}
