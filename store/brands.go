package store

import (
	"context"
	"fmt"

	"github.com/goliatone/go-catalog/entity"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Brands stores brand metadata. Reads go through repo, which may be cached.
type Brands struct {
	db   *bun.DB
	repo repository.Repository[*entity.Brand]
}

// NewBrands returns a brand store. A nil repo falls back to NewBrandRepository.
func NewBrands(db *bun.DB, repo repository.Repository[*entity.Brand]) *Brands {
	if repo == nil {
		repo = NewBrandRepository(db)
	}
	return &Brands{db: db, repo: repo}
}

// All returns every brand ordered by name.
func (s *Brands) All(ctx context.Context) ([]*entity.Brand, error) {
	rows, _, err := s.repo.List(ctx, byName)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return rows, nil
}

// ByIDs returns the brands with the given ids keyed by id. Unknown ids are absent.
func (s *Brands) ByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Brand, error) {
	out := make(map[uuid.UUID]*entity.Brand, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, _, err := s.repo.List(scoped(ctx, ids), byIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("select brands: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// Save inserts b when it has no id and updates it otherwise.
func (s *Brands) Save(ctx context.Context, b *entity.Brand) (created bool, err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
		row, err := s.repo.Create(ctx, b)
		if err != nil {
			return false, fmt.Errorf("insert brand: %w", err)
		}
		b.ID = row.ID
		return true, nil
	}

	res, err := s.db.NewUpdate().Model(b).WherePK().ExcludeColumn("created_at").Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("update brand: %w", err)
	}
	invalidateAll(ctx, s.repo)
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return false, fmt.Errorf("%w: brand %s", ErrNotFound, b.ID)
	}
	return false, nil
}

// Delete removes the brands and clears the brand of products pointing at them.
func (s *Brands) Delete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	strs := idStrings(ids)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []any{(*entity.Product)(nil), (*entity.ComboProduct)(nil)} {
			if _, err := tx.NewUpdate().Model(model).
				Set("brand_id = NULL").
				Where("brand_id IN (?)", bun.In(strs)).
				Exec(ctx); err != nil {
				return fmt.Errorf("detach brand from %T: %w", model, err)
			}
		}
		_, err := tx.NewDelete().Model((*entity.Brand)(nil)).Where("id IN (?)", bun.In(strs)).Exec(ctx)
		return err
	})
	invalidateAll(ctx, s.repo)
	if err != nil {
		return fmt.Errorf("delete brands: %w", err)
	}
	return nil
}
