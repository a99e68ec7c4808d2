package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goliatone/go-catalog/entity"
	"github.com/goliatone/go-catalog/repositorycache"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrInvalidQuantity is returned for cart quantities below one.
var ErrInvalidQuantity = errors.New("store: quantity must be positive")

// Carts stores cart lines per user.
type Carts struct {
	db   *bun.DB
	repo repository.Repository[*entity.CartItem]
}

// NewCarts returns a cart store. A nil repo falls back to NewCartRepository.
func NewCarts(db *bun.DB, repo repository.Repository[*entity.CartItem]) *Carts {
	if repo == nil {
		repo = NewCartRepository(db)
	}
	return &Carts{db: db, repo: repo}
}

// Items returns the lines of userID in insertion order.
func (s *Carts) Items(ctx context.Context, userID string) ([]*entity.CartItem, error) {
	rows, _, err := s.repo.List(repositorycache.WithCacheScope(ctx, userID), byUser(userID))
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	return rows, nil
}

// ItemsChanged drops cached cart reads after rows were removed outside this
// store, e.g. when the products they point at are deleted.
func (s *Carts) ItemsChanged(ctx context.Context) {
	invalidateAll(ctx, s.repo)
}

// Add puts qty units of ref in the cart. A line that already holds ref has its
// quantity increased instead.
func (s *Carts) Add(ctx context.Context, userID string, ref entity.ProductRef, qty int) (*entity.CartItem, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	var line entity.CartItem
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().Model(&line).
			Where("?TableAlias.user_id = ?", userID).
			Where("?TableAlias.product_kind = ?", ref.Kind).
			Where("?TableAlias.product_id = ?", ref.ID.String()).
			Limit(1).
			Scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			line = entity.CartItem{ID: uuid.New(), UserID: userID, Quantity: qty}
			line.LinkTo(ref)
			_, err = tx.NewInsert().Model(&line).Exec(ctx)
			return err
		case err != nil:
			return err
		}
		line.Quantity += qty
		_, err = tx.NewUpdate().Model(&line).Column("quantity", "updated_at").WherePK().Exec(ctx)
		return err
	})
	invalidateAll(ctx, s.repo)
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return &line, nil
}

// SetQuantity replaces the quantity of one line. A quantity below one removes it.
func (s *Carts) SetQuantity(ctx context.Context, userID string, itemID uuid.UUID, qty int) error {
	if qty < 1 {
		n, err := s.Remove(ctx, userID, []uuid.UUID{itemID})
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: cart item %s", ErrNotFound, itemID)
		}
		return nil
	}

	line := &entity.CartItem{ID: itemID, Quantity: qty}
	res, err := s.db.NewUpdate().Model(line).
		Column("quantity", "updated_at").
		Where("id = ?", itemID.String()).
		Where("user_id = ?", userID).
		Exec(ctx)
	invalidateAll(ctx, s.repo)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: cart item %s", ErrNotFound, itemID)
	}
	return nil
}

// Remove deletes the given lines of userID and returns how many were removed.
func (s *Carts) Remove(ctx context.Context, userID string, itemIDs []uuid.UUID) (int, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	res, err := s.db.NewDelete().Model((*entity.CartItem)(nil)).
		Where("user_id = ?", userID).
		Where("id IN (?)", bun.In(idStrings(itemIDs))).
		Exec(ctx)
	invalidateAll(ctx, s.repo)
	if err != nil {
		return 0, fmt.Errorf("remove cart items: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Clear empties the cart of userID.
func (s *Carts) Clear(ctx context.Context, userID string) error {
	err := s.repo.DeleteWhere(ctx, func(q *bun.DeleteQuery) *bun.DeleteQuery {
		return q.Where("user_id = ?", userID)
	})
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
