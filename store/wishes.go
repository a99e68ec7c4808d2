package store

import (
	"context"
	"fmt"

	"github.com/goliatone/go-catalog/entity"
	"github.com/goliatone/go-catalog/repositorycache"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Wishes stores wishlist entries per user.
type Wishes struct {
	db   *bun.DB
	repo repository.Repository[*entity.Wish]
}

// NewWishes returns a wishlist store. A nil repo falls back to NewWishRepository.
func NewWishes(db *bun.DB, repo repository.Repository[*entity.Wish]) *Wishes {
	if repo == nil {
		repo = NewWishRepository(db)
	}
	return &Wishes{db: db, repo: repo}
}

// Items returns the wishes of userID in insertion order.
func (s *Wishes) Items(ctx context.Context, userID string) ([]*entity.Wish, error) {
	rows, _, err := s.repo.List(repositorycache.WithCacheScope(ctx, userID), byUser(userID))
	if err != nil {
		return nil, fmt.Errorf("list wishes: %w", err)
	}
	return rows, nil
}

// ItemsChanged drops cached wishlist reads after rows were removed outside this
// store, e.g. when the products they point at are deleted.
func (s *Wishes) ItemsChanged(ctx context.Context) {
	invalidateAll(ctx, s.repo)
}

// Add saves ref for userID. Adding a product twice is a no-op; created reports
// whether a row was inserted.
func (s *Wishes) Add(ctx context.Context, userID string, ref entity.ProductRef) (created bool, err error) {
	if err := ref.Validate(); err != nil {
		return false, err
	}

	wish := &entity.Wish{ID: uuid.New(), UserID: userID}
	wish.LinkTo(ref)
	res, err := s.db.NewInsert().Model(wish).
		On("CONFLICT (user_id, product_kind, product_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("add wish: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		invalidateAll(ctx, s.repo)
	}
	return n > 0, nil
}

// Remove deletes the wishes of userID for refs and returns how many were removed.
func (s *Wishes) Remove(ctx context.Context, userID string, refs []entity.ProductRef) (int, error) {
	if len(refs) == 0 {
		return 0, nil
	}
	res, err := s.db.NewDelete().Model((*entity.Wish)(nil)).
		Where("user_id = ?", userID).
		WhereGroup(" AND ", func(q *bun.DeleteQuery) *bun.DeleteQuery {
			for _, ref := range refs {
				q = q.WhereOr("product_kind = ? AND product_id = ?", ref.Kind, ref.ID.String())
			}
			return q
		}).
		Exec(ctx)
	invalidateAll(ctx, s.repo)
	if err != nil {
		return 0, fmt.Errorf("remove wishes: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
