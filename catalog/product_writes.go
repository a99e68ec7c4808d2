package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-catalog/entity"
	"github.com/goliatone/go-catalog/internal/currency"
	"github.com/goliatone/go-catalog/transformer"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Save creates or updates a product of kind with its SKU and child
// collections. References to brands, relations and combo members must exist.
func (s *ProductService) Save(ctx context.Context, kind entity.ProductKind, in ProductInput) (SaveResult, error) {
	if err := in.Validate(kind); err != nil {
		return SaveResult{}, validationError(err, "invalid product")
	}
	if err := s.checkCurrency(ctx, in.SKU); err != nil {
		return SaveResult{}, err
	}
	if err := s.checkReferences(ctx, in); err != nil {
		return SaveResult{}, err
	}

	ref, created, err := s.products.Save(ctx, in.graph(kind))
	if err != nil {
		if in.ID != nil {
			err = notFoundFromStore(err, entityName(kind), *in.ID)
		}
		return SaveResult{}, err
	}

	s.invalidate(ctx, "save product",
		func(ctx context.Context) error { return s.infos.Invalidate(ctx, kind, ref.ID.String()) },
		s.details.InvalidateAll,
		s.lists.InvalidateAll,
	)
	s.logger.Info("product saved", "kind", kind, "id", ref.ID, "created", created)
	return SaveResult{ID: ref.ID, Created: created}, nil
}

// Delete removes products of kind and everything that points at them. It
// returns how many products were removed.
func (s *ProductService) Delete(ctx context.Context, kind entity.ProductKind, ids []uuid.UUID) (int, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	removed, err := s.products.Delete(ctx, kind, ids)
	if err != nil {
		return 0, err
	}
	if s.relations != nil {
		s.relations.ItemsChanged(ctx)
	}
	for _, fn := range s.deleteHooks() {
		fn(ctx)
	}

	// Deleting individuals drops their combo memberships, so combo infos change too.
	infos := func(ctx context.Context) error { return s.infos.Invalidate(ctx, kind, idStrings(ids)...) }
	if kind == entity.KindIndividual {
		infos = s.infos.InvalidateAll
	}
	s.invalidate(ctx, "delete products",
		infos,
		s.details.InvalidateAll,
		s.lists.InvalidateAll,
	)
	s.logger.Info("products deleted", "kind", kind, "requested", len(ids), "removed", removed)
	return removed, nil
}

// OnDelete registers fn to run after products are deleted. Stores holding rows
// that point at products use it to drop their cached reads.
func (s *ProductService) OnDelete(fn func(ctx context.Context)) {
	if fn == nil {
		return
	}
	s.hooksMu.Lock()
	s.onDelete = append(s.onDelete, fn)
	s.hooksMu.Unlock()
}

func (s *ProductService) deleteHooks() []func(context.Context) {
	s.hooksMu.RLock()
	defer s.hooksMu.RUnlock()
	return append(([]func(context.Context))(nil), s.onDelete...)
}

func (s *ProductService) checkCurrency(ctx context.Context, sku *SKUInput) error {
	if sku == nil || s.currencies == nil {
		return nil
	}
	_, err := s.currencies.Currency(ctx, sku.CurrencyCode)
	if errors.Is(err, currency.ErrUnknownCurrency) {
		return validationError(validation.Errors{
			"SKU": validation.Errors{"CurrencyCode": errors.New("unknown currency")},
		}, "invalid product")
	}
	return err
}

func (s *ProductService) checkReferences(ctx context.Context, in ProductInput) error {
	if in.BrandID != nil && s.brands != nil {
		found, err := s.brands.ByIDs(ctx, []uuid.UUID{*in.BrandID})
		if err != nil {
			return err
		}
		if _, ok := found[*in.BrandID]; !ok {
			return EntityNotFound(EntityBrand, *in.BrandID)
		}
	}
	if in.RelationID != nil && s.relations != nil {
		found, err := s.relations.ByIDs(ctx, []uuid.UUID{*in.RelationID})
		if err != nil {
			return err
		}
		if _, ok := found[*in.RelationID]; !ok {
			return EntityNotFound(EntityRelation, *in.RelationID)
		}
	}

	if len(in.ComboItems) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(in.ComboItems))
	for i, item := range in.ComboItems {
		ids[i] = item.ProductID
	}
	return s.checkProducts(ctx, entity.KindIndividual, ids)
}

// checkProducts fails with EntityNotFound listing every id of kind that does
// not exist.
func (s *ProductService) checkProducts(ctx context.Context, kind entity.ProductKind, ids []uuid.UUID) error {
	existing, err := s.products.ExistingIDs(ctx, kind, ids)
	if err != nil {
		return err
	}
	var missing []uuid.UUID
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if !existing[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return EntityNotFound(entityName(kind), missing...)
	}
	return nil
}

// invalidate runs every step and logs the ones that fail. A failed
// invalidation leaves entries that expire with their TTL.
func (s *ProductService) invalidate(ctx context.Context, op string, steps ...func(context.Context) error) {
	for _, step := range steps {
		if err := step(ctx); err != nil {
			s.logger.WarnContext(ctx, "cache invalidation failed", "operation", op, "error", err)
		}
	}
}

func (s *ProductService) invalidateAll(ctx context.Context, op string) {
	s.invalidate(ctx, op, s.infos.InvalidateAll, s.details.InvalidateAll, s.lists.InvalidateAll)
}

// Purge drops every cached info, detail and list page.
func (s *ProductService) Purge(ctx context.Context) error {
	return errors.Join(
		s.infos.InvalidateAll(ctx),
		s.details.InvalidateAll(ctx),
		s.lists.InvalidateAll(ctx),
	)
}

// SaveBrand creates or updates a brand.
func (s *ProductService) SaveBrand(ctx context.Context, in BrandInput) (SaveResult, error) {
	if err := in.Validate(); err != nil {
		return SaveResult{}, validationError(err, "invalid brand")
	}
	b := &entity.Brand{
		ID:          idOrNil(in.ID),
		Name:        strings.TrimSpace(in.Name),
		Slug:        transformer.Slug(in.Slug, in.Name),
		LogoImageID: in.LogoImageID,
		Description: in.Description,
	}
	created, err := s.brands.Save(ctx, b)
	if err != nil {
		if in.ID != nil {
			err = notFoundFromStore(err, EntityBrand, *in.ID)
		}
		return SaveResult{}, err
	}
	if !created {
		s.invalidate(ctx, "save brand", s.details.InvalidateAll)
	}
	return SaveResult{ID: b.ID, Created: created}, nil
}

// Brands returns every brand ordered by name.
func (s *ProductService) Brands(ctx context.Context) ([]transformer.Brand, error) {
	brands, err := s.brands.All(ctx)
	if err != nil {
		return nil, err
	}
	logos := make([]string, 0, len(brands))
	for _, b := range brands {
		logos = append(logos, b.LogoImageID)
	}
	lookups := transformer.Lookups{Images: s.resolveImages(ctx, logos)}

	out := make([]transformer.Brand, 0, len(brands))
	for _, b := range brands {
		out = append(out, *transformer.ToBrand(b, lookups))
	}
	return out, nil
}

// DeleteBrands removes brands. Products of a removed brand keep existing
// without one.
func (s *ProductService) DeleteBrands(ctx context.Context, ids []uuid.UUID) error {
	if err := s.brands.Delete(ctx, ids); err != nil {
		return err
	}
	s.invalidateAll(ctx, "delete brands")
	return nil
}

// RelationView is a relation with the info projections of its products in
// relation order.
type RelationView struct {
	ID       uuid.UUID          `json:"id"`
	Name     string             `json:"name"`
	Products []transformer.Info `json:"products"`
}

// SaveRelation creates or updates a relation and replaces its products. Every
// product must exist.
func (s *ProductService) SaveRelation(ctx context.Context, in RelationInput) (SaveResult, error) {
	if err := in.Validate(); err != nil {
		return SaveResult{}, validationError(err, "invalid relation")
	}

	byKind := make(map[entity.ProductKind][]uuid.UUID)
	for _, ref := range in.Products {
		byKind[ref.Kind] = append(byKind[ref.Kind], ref.ID)
	}
	for _, kind := range []entity.ProductKind{entity.KindIndividual, entity.KindCombo} {
		if ids := byKind[kind]; len(ids) > 0 {
			if err := s.checkProducts(ctx, kind, ids); err != nil {
				return SaveResult{}, err
			}
		}
	}

	r := &entity.ProductsRelation{ID: idOrNil(in.ID), Name: strings.TrimSpace(in.Name)}
	for i, ref := range in.Products {
		item := &entity.ProductsRelationItem{Position: i}
		item.LinkTo(ref)
		r.Items = append(r.Items, item)
	}
	created, err := s.relations.Save(ctx, r)
	if err != nil {
		if in.ID != nil {
			err = notFoundFromStore(err, EntityRelation, *in.ID)
		}
		return SaveResult{}, err
	}
	s.invalidate(ctx, "save relation", s.details.InvalidateAll)
	return SaveResult{ID: r.ID, Created: created}, nil
}

// Relation returns one relation with its products. Products that no longer
// exist are skipped.
func (s *ProductService) Relation(ctx context.Context, id uuid.UUID) (RelationView, error) {
	found, err := s.relations.ByIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return RelationView{}, err
	}
	r, ok := found[id]
	if !ok {
		return RelationView{}, EntityNotFound(EntityRelation, id)
	}

	refs := r.Refs()
	infos, err := s.infosByRef(ctx, refs)
	if err != nil {
		return RelationView{}, err
	}
	view := RelationView{ID: r.ID, Name: r.Name, Products: make([]transformer.Info, 0, len(refs))}
	for _, ref := range refs {
		if info, ok := infos[ref]; ok {
			view.Products = append(view.Products, info)
		}
	}
	return view, nil
}

// DeleteRelations removes relations and detaches their products.
func (s *ProductService) DeleteRelations(ctx context.Context, ids []uuid.UUID) error {
	if err := s.relations.Delete(ctx, ids); err != nil {
		return err
	}
	s.invalidateAll(ctx, "delete relations")
	return nil
}
