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

// RelationItemsTag tags cached relation reads that include their items.
const RelationItemsTag = "products_relation_items"

// Relations stores named groups of related products.
type Relations struct {
	db   *bun.DB
	repo repository.Repository[*entity.ProductsRelation]
}

// NewRelations returns a relation store. A nil repo falls back to NewRelationRepository.
func NewRelations(db *bun.DB, repo repository.Repository[*entity.ProductsRelation]) *Relations {
	if repo == nil {
		repo = NewRelationRepository(db)
	}
	return &Relations{db: db, repo: repo}
}

// ByIDs returns the relations with their items, keyed by id.
func (s *Relations) ByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.ProductsRelation, error) {
	out := make(map[uuid.UUID]*entity.ProductsRelation, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ctx = repositorycache.WithCacheTags(scoped(ctx, ids), RelationItemsTag)
	rows, _, err := s.repo.List(ctx, byIDs(ids), withItems)
	if err != nil {
		return nil, fmt.Errorf("select relations: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// Save writes the relation and replaces its items with r.Items.
func (s *Relations) Save(ctx context.Context, r *entity.ProductsRelation) (created bool, err error) {
	for _, item := range r.Items {
		if err := item.Ref().Validate(); err != nil {
			return false, err
		}
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
			created = true
			row, err := s.repo.CreateTx(ctx, tx, r)
			if err != nil {
				return fmt.Errorf("insert relation: %w", err)
			}
			r.ID = row.ID
		} else {
			res, err := tx.NewUpdate().Model(r).WherePK().ExcludeColumn("created_at").Exec(ctx)
			if err != nil {
				return fmt.Errorf("update relation: %w", err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return fmt.Errorf("%w: relation %s", ErrNotFound, r.ID)
			}
		}

		for _, item := range r.Items {
			item.RelationID = r.ID
		}
		owner := ownerFilter{where: "relation_id = ?", args: []any{r.ID.String()}}
		return syncRows(ctx, tx, owner, r.Items)
	})
	invalidateAll(ctx, s.repo)
	if err != nil {
		if created {
			r.ID = uuid.Nil
		}
		return false, err
	}
	return created, nil
}

// Delete removes the relations and their items and detaches products from them.
func (s *Relations) Delete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	strs := idStrings(ids)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []any{(*entity.Product)(nil), (*entity.ComboProduct)(nil)} {
			if _, err := tx.NewUpdate().Model(model).
				Set("products_relation_id = NULL").
				Where("products_relation_id IN (?)", bun.In(strs)).
				Exec(ctx); err != nil {
				return fmt.Errorf("detach relation from %T: %w", model, err)
			}
		}
		if _, err := tx.NewDelete().Model((*entity.ProductsRelationItem)(nil)).
			Where("relation_id IN (?)", bun.In(strs)).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete relation items: %w", err)
		}
		_, err := tx.NewDelete().Model((*entity.ProductsRelation)(nil)).Where("id IN (?)", bun.In(strs)).Exec(ctx)
		return err
	})
	invalidateAll(ctx, s.repo)
	if err != nil {
		return fmt.Errorf("delete relations: %w", err)
	}
	return nil
}

// ItemsChanged drops cached relation reads after relation items were removed
// outside this store, e.g. when products are deleted.
func (s *Relations) ItemsChanged(ctx context.Context) {
	invalidateTags(ctx, s.repo, RelationItemsTag)
}
