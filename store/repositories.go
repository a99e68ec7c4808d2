package store

import (
	"context"
	"sort"
	"strings"

	"github.com/goliatone/go-catalog/entity"
	"github.com/goliatone/go-catalog/repositorycache"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// record is implemented by every table model.
type record interface {
	GetID() uuid.UUID
	SetID(uuid.UUID)
}

func handlers[T record](newRecord func() T, identifier string) repository.ModelHandlers[T] {
	return repository.ModelHandlers[T]{
		NewRecord: newRecord,
		GetID: func(r T) uuid.UUID {
			return r.GetID()
		},
		SetID: func(r T, id uuid.UUID) {
			r.SetID(id)
		},
		GetIdentifier: func() string {
			return identifier
		},
	}
}

// NewProductRepository returns the go-repository-bun repository for individual products.
func NewProductRepository(db *bun.DB) repository.Repository[*entity.Product] {
	return repository.NewRepository[*entity.Product](db, handlers(func() *entity.Product { return &entity.Product{} }, "slug"))
}

// NewComboRepository returns the go-repository-bun repository for combo products.
func NewComboRepository(db *bun.DB) repository.Repository[*entity.ComboProduct] {
	return repository.NewRepository[*entity.ComboProduct](db, handlers(func() *entity.ComboProduct { return &entity.ComboProduct{} }, "slug"))
}

// NewBrandRepository returns the go-repository-bun repository for brands.
func NewBrandRepository(db *bun.DB) repository.Repository[*entity.Brand] {
	return repository.NewRepository[*entity.Brand](db, handlers(func() *entity.Brand { return &entity.Brand{} }, "slug"))
}

// NewRelationRepository returns the go-repository-bun repository for product relations.
func NewRelationRepository(db *bun.DB) repository.Repository[*entity.ProductsRelation] {
	return repository.NewRepository[*entity.ProductsRelation](db, handlers(func() *entity.ProductsRelation { return &entity.ProductsRelation{} }, "name"))
}

// NewCartRepository returns the go-repository-bun repository for cart lines.
func NewCartRepository(db *bun.DB) repository.Repository[*entity.CartItem] {
	return repository.NewRepository[*entity.CartItem](db, handlers(func() *entity.CartItem { return &entity.CartItem{} }, "id"))
}

// NewWishRepository returns the go-repository-bun repository for wishes.
func NewWishRepository(db *bun.DB) repository.Repository[*entity.Wish] {
	return repository.NewRepository[*entity.Wish](db, handlers(func() *entity.Wish { return &entity.Wish{} }, "id"))
}

func byIDs(ids []uuid.UUID) repository.SelectCriteria {
	strs := idStrings(ids)
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.id IN (?)", bun.In(strs))
	}
}

func byUser(userID string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.user_id = ?", userID).
			OrderExpr("?TableAlias.created_at ASC, ?TableAlias.id ASC")
	}
}

// Criteria closures are keyed by call site in repositorycache, so variable
// arguments are also recorded with scoped.
func scoped(ctx context.Context, ids []uuid.UUID) context.Context {
	strs := idStrings(ids)
	sort.Strings(strs)
	return repositorycache.WithCacheScope(ctx, strings.Join(strs, ","))
}

func byName(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("?TableAlias.name ASC, ?TableAlias.id ASC")
}

func withItems(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Relation("Items", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.position ASC, ?TableAlias.id ASC")
	})
}

func deleteByIDs(ids []uuid.UUID) repository.DeleteCriteria {
	strs := idStrings(ids)
	return func(q *bun.DeleteQuery) *bun.DeleteQuery {
		return q.Where("id IN (?)", bun.In(strs))
	}
}

// invalidateAll drops the cached entries of repo when it is a cached repository.
// Writes issued as plain bun queries call it because they bypass the decorator.
func invalidateAll(ctx context.Context, repo any) {
	if c, ok := repo.(interface{ InvalidateAll(context.Context) }); ok {
		c.InvalidateAll(ctx)
	}
}

func invalidateTags(ctx context.Context, repo any, tags ...string) {
	if c, ok := repo.(interface {
		InvalidateTags(context.Context, ...string)
	}); ok {
		c.InvalidateTags(ctx, tags...)
	}
}
