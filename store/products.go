package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-catalog/entity"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Depth selects how much of a product graph is loaded.
type Depth int

const (
	// DepthInfo loads the parent row, its SKU and combo items.
	DepthInfo Depth = iota
	// DepthDetail also loads attributes, tags and feature sections.
	DepthDetail
)

// ListQuery filters and pages product id listings.
type ListQuery struct {
	Limit      int
	Offset     int
	Search     string
	BrandID    *uuid.UUID
	ActiveOnly bool
}

// Products reads and writes individual and combo products with their children.
type Products struct {
	db          *bun.DB
	individuals repository.Repository[*entity.Product]
	combos      repository.Repository[*entity.ComboProduct]
}

// NewProducts returns a product store over db.
func NewProducts(db *bun.DB) *Products {
	return &Products{
		db:          db,
		individuals: NewProductRepository(db),
		combos:      NewComboRepository(db),
	}
}

// DB exposes the underlying handle.
func (s *Products) DB() *bun.DB {
	return s.db
}

func parentModel(kind entity.ProductKind) (any, error) {
	switch kind {
	case entity.KindIndividual:
		return (*entity.Product)(nil), nil
	case entity.KindCombo:
		return (*entity.ComboProduct)(nil), nil
	}
	return nil, fmt.Errorf("%w: %q", entity.ErrInvalidKind, kind)
}

// ListIDs returns one page of ids ordered by position, and the total number of
// matching rows.
func (s *Products) ListIDs(ctx context.Context, kind entity.ProductKind, q ListQuery) ([]uuid.UUID, int, error) {
	model, err := parentModel(kind)
	if err != nil {
		return nil, 0, err
	}

	query := s.db.NewSelect().Model(model).Column("id")
	if search := strings.TrimSpace(q.Search); search != "" {
		query = query.Where("LOWER(?TableAlias.name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if q.BrandID != nil {
		query = query.Where("?TableAlias.brand_id = ?", q.BrandID.String())
	}
	if q.ActiveOnly {
		query = query.Where("?TableAlias.is_active = ?", true)
	}
	query = query.OrderExpr("?TableAlias.position ASC, ?TableAlias.id ASC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}

	var ids []uuid.UUID
	total, err := query.ScanAndCount(ctx, &ids)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s ids: %w", strings.ToLower(string(kind)), err)
	}
	return ids, total, nil
}

// ExistingIDs returns the subset of ids that exist for kind.
func (s *Products) ExistingIDs(ctx context.Context, kind entity.ProductKind, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	return existingIDs(ctx, s.db, kind, ids)
}

func existingIDs(ctx context.Context, db bun.IDB, kind entity.ProductKind, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	model, err := parentModel(kind)
	if err != nil {
		return nil, err
	}

	var found []uuid.UUID
	if err := db.NewSelect().Model(model).Column("id").
		Where("?TableAlias.id IN (?)", bun.In(idStrings(ids))).
		Scan(ctx, &found); err != nil {
		return nil, err
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

// Graphs loads the graphs of ids. Ids that do not exist are absent from the result.
func (s *Products) Graphs(ctx context.Context, kind entity.ProductKind, ids []uuid.UUID, depth Depth) (map[uuid.UUID]*entity.ProductGraph, error) {
	graphs := make(map[uuid.UUID]*entity.ProductGraph, len(ids))
	if len(ids) == 0 {
		return graphs, nil
	}
	strs := idStrings(ids)

	switch kind {
	case entity.KindIndividual:
		var rows []*entity.Product
		if err := s.db.NewSelect().Model(&rows).Where("?TableAlias.id IN (?)", bun.In(strs)).Scan(ctx); err != nil {
			return nil, fmt.Errorf("select products: %w", err)
		}
		for _, row := range rows {
			graphs[row.ID] = &entity.ProductGraph{Pair: entity.ProductPair{Individual: row}}
		}
	case entity.KindCombo:
		var rows []*entity.ComboProduct
		if err := s.db.NewSelect().Model(&rows).Where("?TableAlias.id IN (?)", bun.In(strs)).Scan(ctx); err != nil {
			return nil, fmt.Errorf("select combo products: %w", err)
		}
		for _, row := range rows {
			graphs[row.ID] = &entity.ProductGraph{Pair: entity.ProductPair{Combo: row}}
		}
	default:
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidKind, kind)
	}

	if len(graphs) == 0 {
		return graphs, nil
	}
	found := make([]string, 0, len(graphs))
	for id := range graphs {
		found = append(found, id.String())
	}

	skus, err := children[*entity.SKU](ctx, s.db, kind, found, false)
	if err != nil {
		return nil, err
	}
	for _, sku := range skus {
		if g := graphs[sku.ProductID]; g != nil {
			g.SKU = sku
		}
	}

	if kind == entity.KindCombo {
		var items []*entity.ComboItem
		if err := s.db.NewSelect().Model(&items).
			Where("?TableAlias.combo_id IN (?)", bun.In(found)).
			OrderExpr("?TableAlias.position ASC, ?TableAlias.id ASC").
			Scan(ctx); err != nil {
			return nil, fmt.Errorf("select combo items: %w", err)
		}
		for _, item := range items {
			if g := graphs[item.ComboID]; g != nil {
				g.ComboItems = append(g.ComboItems, item)
			}
		}
	}

	if depth < DepthDetail {
		return graphs, nil
	}

	attributes, err := children[*entity.Attribute](ctx, s.db, kind, found, true)
	if err != nil {
		return nil, err
	}
	for _, a := range attributes {
		if g := graphs[a.ProductID]; g != nil {
			g.Attributes = append(g.Attributes, a)
		}
	}

	tags, err := children[*entity.Tag](ctx, s.db, kind, found, true)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		if g := graphs[t.ProductID]; g != nil {
			g.Tags = append(g.Tags, t)
		}
	}

	sections, err := children[*entity.FeatureSection](ctx, s.db, kind, found, true)
	if err != nil {
		return nil, err
	}
	for _, f := range sections {
		if g := graphs[f.ProductID]; g != nil {
			g.FeatureSections = append(g.FeatureSections, f)
		}
	}

	return graphs, nil
}

func children[T any](ctx context.Context, db bun.IDB, kind entity.ProductKind, ids []string, ordered bool) ([]T, error) {
	var rows []T
	q := db.NewSelect().Model(&rows).
		Where("?TableAlias.product_kind = ?", kind).
		Where("?TableAlias.product_id IN (?)", bun.In(ids))
	if ordered {
		q = q.OrderExpr("?TableAlias.position ASC, ?TableAlias.id ASC")
	}
	if err := q.Scan(ctx); err != nil {
		var zero T
		return nil, fmt.Errorf("select %T: %w", zero, err)
	}
	return rows, nil
}

// Save writes the graph in one transaction. A parent without id is inserted
// with a new id; a parent with an id must exist and is updated. Child
// collections are synchronised by id: rows with a known id are updated, rows
// without one are inserted and stored rows missing from the graph are deleted.
func (s *Products) Save(ctx context.Context, g *entity.ProductGraph) (ref entity.ProductRef, created bool, err error) {
	if g == nil {
		return ref, false, fmt.Errorf("%w: nil graph", entity.ErrInvalidRef)
	}
	if err := g.Pair.Validate(); err != nil {
		return ref, false, err
	}
	kind, ok := g.Pair.Kind()
	if !ok {
		return ref, false, fmt.Errorf("%w: graph has no product", entity.ErrInvalidRef)
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		base := g.Pair.Base()
		if base.ID == uuid.Nil {
			base.ID = uuid.New()
			created = true
			if err := s.createParent(ctx, tx, g.Pair); err != nil {
				return err
			}
		} else {
			if err := s.updateParent(ctx, tx, kind, g.Pair); err != nil {
				return err
			}
		}

		ref = entity.ProductRef{Kind: kind, ID: base.ID}
		return syncGraphChildren(ctx, tx, ref, g)
	})
	if err != nil {
		return entity.ProductRef{}, false, err
	}
	return ref, created, nil
}

func (s *Products) createParent(ctx context.Context, tx bun.Tx, pair entity.ProductPair) error {
	if pair.Individual != nil {
		row, err := s.individuals.CreateTx(ctx, tx, pair.Individual)
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		pair.Individual.ID = row.ID
		return nil
	}
	row, err := s.combos.CreateTx(ctx, tx, pair.Combo)
	if err != nil {
		return fmt.Errorf("insert combo product: %w", err)
	}
	pair.Combo.ID = row.ID
	return nil
}

func (s *Products) updateParent(ctx context.Context, tx bun.Tx, kind entity.ProductKind, pair entity.ProductPair) error {
	id := pair.Base().ID
	exists, err := existingIDs(ctx, tx, kind, []uuid.UUID{id})
	if err != nil {
		return err
	}
	if !exists[id] {
		return fmt.Errorf("%w: %s", ErrNotFound, entity.ProductRef{Kind: kind, ID: id})
	}

	var model any = pair.Individual
	if pair.Combo != nil {
		model = pair.Combo
	}
	if _, err := tx.NewUpdate().Model(model).WherePK().ExcludeColumn("created_at").Exec(ctx); err != nil {
		return fmt.Errorf("update %s: %w", strings.ToLower(string(kind)), err)
	}
	return nil
}

func syncGraphChildren(ctx context.Context, tx bun.IDB, ref entity.ProductRef, g *entity.ProductGraph) error {
	link := func(l *entity.ProductLink) { l.LinkTo(ref) }
	owner := ownerFilter{where: "product_kind = ? AND product_id = ?", args: []any{ref.Kind, ref.ID.String()}}

	var skus []*entity.SKU
	if g.SKU != nil {
		link(&g.SKU.ProductLink)
		skus = append(skus, g.SKU)
		if g.SKU.ID == uuid.Nil {
			var current []uuid.UUID
			if err := tx.NewSelect().Model((*entity.SKU)(nil)).Column("id").Where(owner.where, owner.args...).Scan(ctx, &current); err != nil {
				return fmt.Errorf("select sku: %w", err)
			}
			if len(current) > 0 {
				g.SKU.ID = current[0]
			}
		}
	}
	if err := syncRows(ctx, tx, owner, skus); err != nil {
		return err
	}

	for _, a := range g.Attributes {
		link(&a.ProductLink)
	}
	if err := syncRows(ctx, tx, owner, g.Attributes); err != nil {
		return err
	}

	for _, t := range g.Tags {
		link(&t.ProductLink)
	}
	if err := syncRows(ctx, tx, owner, g.Tags); err != nil {
		return err
	}

	for _, f := range g.FeatureSections {
		link(&f.ProductLink)
	}
	if err := syncRows(ctx, tx, owner, g.FeatureSections); err != nil {
		return err
	}

	if ref.Kind == entity.KindCombo {
		for _, item := range g.ComboItems {
			item.ComboID = ref.ID
		}
		combo := ownerFilter{where: "combo_id = ?", args: []any{ref.ID.String()}}
		if err := syncRows(ctx, tx, combo, g.ComboItems); err != nil {
			return err
		}
	}
	return nil
}

type ownerFilter struct {
	where string
	args  []any
}

// syncRows makes the rows selected by owner match rows.
func syncRows[T record](ctx context.Context, tx bun.IDB, owner ownerFilter, rows []T) error {
	var model T

	var existing []uuid.UUID
	if err := tx.NewSelect().Model(model).Column("id").Where(owner.where, owner.args...).Scan(ctx, &existing); err != nil {
		return fmt.Errorf("select %T ids: %w", model, err)
	}
	stored := make(map[uuid.UUID]bool, len(existing))
	for _, id := range existing {
		stored[id] = true
	}

	keep := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		if row.GetID() == uuid.Nil {
			row.SetID(uuid.New())
		}
		keep[row.GetID()] = true
	}

	var stale []uuid.UUID
	for _, id := range existing {
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if _, err := tx.NewDelete().Model(model).Where("id IN (?)", bun.In(idStrings(stale))).Exec(ctx); err != nil {
			return fmt.Errorf("delete stale %T: %w", model, err)
		}
	}

	for _, row := range rows {
		if stored[row.GetID()] {
			if _, err := tx.NewUpdate().Model(row).WherePK().ExcludeColumn("created_at").Exec(ctx); err != nil {
				return fmt.Errorf("update %T: %w", row, err)
			}
			continue
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert %T: %w", row, err)
		}
	}
	return nil
}

// Delete removes the products of kind with the given ids together with their
// children, combo memberships, relation entries, cart lines and wishes. It
// returns the number of products removed.
func (s *Products) Delete(ctx context.Context, kind entity.ProductKind, ids []uuid.UUID) (int, error) {
	model, err := parentModel(kind)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	strs := idStrings(ids)

	var removed int
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		linked := []any{
			(*entity.SKU)(nil),
			(*entity.Attribute)(nil),
			(*entity.Tag)(nil),
			(*entity.FeatureSection)(nil),
			(*entity.ProductsRelationItem)(nil),
			(*entity.CartItem)(nil),
			(*entity.Wish)(nil),
		}
		for _, m := range linked {
			if _, err := tx.NewDelete().Model(m).
				Where("product_kind = ?", kind).
				Where("product_id IN (?)", bun.In(strs)).
				Exec(ctx); err != nil {
				return fmt.Errorf("delete %T: %w", m, err)
			}
		}

		column := "product_id"
		if kind == entity.KindCombo {
			column = "combo_id"
		}
		if _, err := tx.NewDelete().Model((*entity.ComboItem)(nil)).
			Where("? IN (?)", bun.Ident(column), bun.In(strs)).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete combo items: %w", err)
		}

		res, err := tx.NewDelete().Model(model).Where("id IN (?)", bun.In(strs)).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete %s: %w", strings.ToLower(string(kind)), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		removed = int(n)
		return nil
	})
	return removed, err
}
