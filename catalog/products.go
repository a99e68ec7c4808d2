// Package catalog orchestrates stores, caches and transformers into the
// product, cart and wishlist services.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-catalog/cache"
	"github.com/goliatone/go-catalog/entity"
	"github.com/goliatone/go-catalog/internal/currency"
	"github.com/goliatone/go-catalog/internal/media"
	"github.com/goliatone/go-catalog/store"
	"github.com/goliatone/go-catalog/transformer"
	"github.com/google/uuid"
)

// Cache namespaces used by the product service.
const (
	NamespaceInfo   = "product-info"
	NamespaceDetail = "product-detail"
	NamespaceList   = "product-list"
)

// ImageResolver resolves image ids. Ids it does not know are left out.
type ImageResolver interface {
	Resolve(ctx context.Context, ids []string) ([]media.Image, error)
}

// CurrencyLookup resolves currency codes.
type CurrencyLookup interface {
	Currency(ctx context.Context, code string) (currency.Currency, error)
}

// SaveResult reports the id of a saved record and whether it was created.
type SaveResult struct {
	ID      uuid.UUID
	Created bool
}

// ListPage is one page of product ids in position order.
type ListPage struct {
	IDs   []uuid.UUID
	Total int
}

type listArgs struct {
	Kind  entity.ProductKind
	Query store.ListQuery
}

// ProductService reads and writes products of both kinds.
type ProductService struct {
	products   *store.Products
	brands     *store.Brands
	relations  *store.Relations
	images     ImageResolver
	currencies CurrencyLookup
	logger     *slog.Logger
	serializer cache.KeySerializer
	ttl        time.Duration

	infos   *cache.BatchMemo[entity.ProductKind, transformer.Info]
	details *cache.BatchMemo[entity.ProductKind, transformer.Detail]
	lists   *cache.Memo[listArgs, ListPage]

	hooksMu  sync.RWMutex
	onDelete []func(context.Context)
}

// Option customizes a ProductService.
type Option func(*ProductService)

// WithImageResolver sets the image resolver. Without one no images are attached.
func WithImageResolver(r ImageResolver) Option {
	return func(s *ProductService) {
		s.images = r
	}
}

// WithCurrencyLookup sets the currency lookup. Without one prices are
// formatted with their code.
func WithCurrencyLookup(c CurrencyLookup) Option {
	return func(s *ProductService) {
		s.currencies = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *ProductService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithKeySerializer replaces the cache key serializer.
func WithKeySerializer(serializer cache.KeySerializer) Option {
	return func(s *ProductService) {
		if serializer != nil {
			s.serializer = serializer
		}
	}
}

// WithTTL sets the TTL of the product namespaces that have no configured override.
func WithTTL(ttl time.Duration) Option {
	return func(s *ProductService) {
		s.ttl = ttl
	}
}

// NewProductService wires the product service. Reads are cached in the
// product-info, product-detail and product-list namespaces of provider.
func NewProductService(products *store.Products, brands *store.Brands, relations *store.Relations, provider cache.Provider, opts ...Option) (*ProductService, error) {
	s := &ProductService{
		products:   products,
		brands:     brands,
		relations:  relations,
		logger:     slog.Default(),
		serializer: cache.NewDefaultKeySerializer(),
	}
	for _, opt := range opts {
		opt(s)
	}

	kindKey := func(kind entity.ProductKind) []any { return []any{string(kind)} }

	var err error
	s.infos, err = cache.MemoizeBatch(provider, s.serializer, cache.Spec[entity.ProductKind]{
		Namespace: NamespaceInfo, Operation: "GetInfos", TTL: s.ttl, Key: kindKey,
	}, s.fetchInfos)
	if err != nil {
		return nil, err
	}
	s.details, err = cache.MemoizeBatch(provider, s.serializer, cache.Spec[entity.ProductKind]{
		Namespace: NamespaceDetail, Operation: "GetDetails", TTL: s.ttl, Key: kindKey,
	}, s.fetchDetails)
	if err != nil {
		return nil, err
	}
	s.lists, err = cache.Memoize(provider, s.serializer, cache.Spec[listArgs]{
		Namespace: NamespaceList, Operation: "ListIDs", TTL: s.ttl,
		Key: func(a listArgs) []any {
			brand := ""
			if a.Query.BrandID != nil {
				brand = a.Query.BrandID.String()
			}
			return []any{string(a.Kind), a.Query.Limit, a.Query.Offset, strings.TrimSpace(a.Query.Search), brand, a.Query.ActiveOnly}
		},
	}, func(ctx context.Context, a listArgs) (ListPage, error) {
		ids, total, err := s.products.ListIDs(ctx, a.Kind, a.Query)
		if err != nil {
			return ListPage{}, err
		}
		return ListPage{IDs: ids, Total: total}, nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func checkKind(kind entity.ProductKind) error {
	if !kind.Valid() {
		return validationError(fmt.Errorf("%w: %q", entity.ErrInvalidKind, kind), "invalid product kind")
	}
	return nil
}

func entityName(kind entity.ProductKind) string {
	return strings.ToLower(string(kind))
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// GetInfos returns the info projections of ids keyed by id. It fails with
// EntityNotFound when any id does not exist.
func (s *ProductService) GetInfos(ctx context.Context, kind entity.ProductKind, ids []uuid.UUID) (map[uuid.UUID]transformer.Info, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	found, err := s.infos.Get(ctx, idStrings(ids), kind)
	if err != nil {
		return nil, err
	}
	return keyedByID(kind, ids, found)
}

// GetDetails returns the detail projections of ids keyed by id. It fails with
// EntityNotFound when any id does not exist.
func (s *ProductService) GetDetails(ctx context.Context, kind entity.ProductKind, ids []uuid.UUID) (map[uuid.UUID]transformer.Detail, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	found, err := s.details.Get(ctx, idStrings(ids), kind)
	if err != nil {
		return nil, err
	}
	return keyedByID(kind, ids, found)
}

func keyedByID[R any](kind entity.ProductKind, ids []uuid.UUID, found map[string]R) (map[uuid.UUID]R, error) {
	out := make(map[uuid.UUID]R, len(ids))
	var missing []uuid.UUID
	for _, id := range ids {
		v, ok := found[id.String()]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out[id] = v
	}
	if len(missing) > 0 {
		return nil, EntityNotFound(entityName(kind), missing...)
	}
	return out, nil
}

// GetInfo returns the info projection of ref.
func (s *ProductService) GetInfo(ctx context.Context, ref entity.ProductRef) (transformer.Info, error) {
	infos, err := s.GetInfos(ctx, ref.Kind, []uuid.UUID{ref.ID})
	if err != nil {
		return transformer.Info{}, err
	}
	return infos[ref.ID], nil
}

// GetDetail returns the detail projection of ref.
func (s *ProductService) GetDetail(ctx context.Context, ref entity.ProductRef) (transformer.Detail, error) {
	details, err := s.GetDetails(ctx, ref.Kind, []uuid.UUID{ref.ID})
	if err != nil {
		return transformer.Detail{}, err
	}
	return details[ref.ID], nil
}

// ListIDs returns one page of ids ordered by position.
func (s *ProductService) ListIDs(ctx context.Context, kind entity.ProductKind, q store.ListQuery) (ListPage, error) {
	if err := checkKind(kind); err != nil {
		return ListPage{}, err
	}
	return s.lists.Get(ctx, listArgs{Kind: kind, Query: q})
}

// ListInfo returns one page of info projections in ListIDs order, and the
// total number of matching products.
func (s *ProductService) ListInfo(ctx context.Context, kind entity.ProductKind, q store.ListQuery) ([]transformer.Info, int, error) {
	page, err := s.ListIDs(ctx, kind, q)
	if err != nil {
		return nil, 0, err
	}
	found, err := s.infos.Get(ctx, idStrings(page.IDs), kind)
	if err != nil {
		return nil, 0, err
	}
	return inOrder(page.IDs, found), page.Total, nil
}

// ListDetail is ListInfo with detail projections.
func (s *ProductService) ListDetail(ctx context.Context, kind entity.ProductKind, q store.ListQuery) ([]transformer.Detail, int, error) {
	page, err := s.ListIDs(ctx, kind, q)
	if err != nil {
		return nil, 0, err
	}
	found, err := s.details.Get(ctx, idStrings(page.IDs), kind)
	if err != nil {
		return nil, 0, err
	}
	return inOrder(page.IDs, found), page.Total, nil
}

// inOrder skips ids deleted between listing and projecting.
func inOrder[R any](ids []uuid.UUID, found map[string]R) []R {
	out := make([]R, 0, len(ids))
	for _, id := range ids {
		if v, ok := found[id.String()]; ok {
			out = append(out, v)
		}
	}
	return out
}

func (s *ProductService) fetchInfos(ctx context.Context, ids []string, kind entity.ProductKind) (map[string]transformer.Info, error) {
	graphs, err := s.graphs(ctx, kind, ids, store.DepthInfo)
	if err != nil {
		return nil, err
	}
	lookups, err := s.lookups(ctx, graphs, false)
	if err != nil {
		return nil, err
	}
	out := make(map[string]transformer.Info, len(graphs))
	for id, g := range graphs {
		out[id.String()] = transformer.ToInfo(g, lookups)
	}
	return out, nil
}

func (s *ProductService) fetchDetails(ctx context.Context, ids []string, kind entity.ProductKind) (map[string]transformer.Detail, error) {
	graphs, err := s.graphs(ctx, kind, ids, store.DepthDetail)
	if err != nil {
		return nil, err
	}
	lookups, err := s.lookups(ctx, graphs, true)
	if err != nil {
		return nil, err
	}

	out := make(map[string]transformer.Detail, len(graphs))
	for id, g := range graphs {
		out[id.String()] = transformer.ToDetail(g, lookups)
	}
	if err := s.patchBrands(ctx, out, lookups); err != nil {
		return nil, err
	}
	if err := s.patchRelated(ctx, out); err != nil {
		return nil, err
	}
	if err := s.patchComboItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProductService) graphs(ctx context.Context, kind entity.ProductKind, ids []string, depth store.Depth) (map[uuid.UUID]*entity.ProductGraph, error) {
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		parsed = append(parsed, id)
	}
	return s.products.Graphs(ctx, kind, parsed, depth)
}

// patchBrands resolves every brand referenced by details in one lookup.
func (s *ProductService) patchBrands(ctx context.Context, details map[string]transformer.Detail, lookups transformer.Lookups) error {
	if s.brands == nil {
		return nil
	}
	var ids []uuid.UUID
	for _, d := range details {
		if d.BrandID != nil {
			ids = append(ids, *d.BrandID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	brands, err := s.brands.ByIDs(ctx, ids)
	if err != nil {
		return err
	}

	var logos []string
	for _, b := range brands {
		logos = append(logos, b.LogoImageID)
	}
	images := s.resolveImages(ctx, logos)
	for id, img := range lookups.Images {
		images[id] = img
	}
	brandLookups := transformer.Lookups{Images: images}

	for key, d := range details {
		if d.BrandID == nil {
			continue
		}
		d.Brand = transformer.ToBrand(brands[*d.BrandID], brandLookups)
		details[key] = d
	}
	return nil
}

// patchRelated resolves every relation referenced by details in one lookup and
// attaches the info projections of the related products, the product itself
// and dangling entries excluded.
func (s *ProductService) patchRelated(ctx context.Context, details map[string]transformer.Detail) error {
	if s.relations == nil {
		return nil
	}
	var ids []uuid.UUID
	for _, d := range details {
		if d.RelationID != nil {
			ids = append(ids, *d.RelationID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	relations, err := s.relations.ByIDs(ctx, ids)
	if err != nil {
		return err
	}

	var refs []entity.ProductRef
	for _, r := range relations {
		refs = append(refs, r.Refs()...)
	}
	infos, err := s.infosByRef(ctx, refs)
	if err != nil {
		return err
	}

	for key, d := range details {
		if d.RelationID == nil {
			continue
		}
		r := relations[*d.RelationID]
		if r == nil {
			continue
		}
		self, _ := d.Ref()
		for _, ref := range r.Refs() {
			if ref == self {
				continue
			}
			if info, ok := infos[ref]; ok {
				d.Related = append(d.Related, info)
			}
		}
		details[key] = d
	}
	return nil
}

func (s *ProductService) patchComboItems(ctx context.Context, details map[string]transformer.Detail) error {
	var refs []entity.ProductRef
	for _, d := range details {
		for _, item := range d.ComboItems {
			refs = append(refs, entity.Individual(item.ProductID))
		}
	}
	if len(refs) == 0 {
		return nil
	}
	infos, err := s.infosByRef(ctx, refs)
	if err != nil {
		return err
	}
	for key, d := range details {
		if len(d.ComboItems) == 0 {
			continue
		}
		items := make([]transformer.ComboItem, len(d.ComboItems))
		for i, item := range d.ComboItems {
			info, ok := infos[entity.Individual(item.ProductID)]
			if !ok {
				info = transformer.Info{Type: transformer.TypeNone}
			}
			item.Product = &info
			items[i] = item
		}
		d.ComboItems = items
		details[key] = d
	}
	return nil
}

// infosByRef returns the info projections of refs that exist, grouped into
// one cached lookup per kind.
func (s *ProductService) infosByRef(ctx context.Context, refs []entity.ProductRef) (map[entity.ProductRef]transformer.Info, error) {
	byKind := make(map[entity.ProductKind][]string)
	for _, ref := range refs {
		if ref.Validate() != nil {
			continue
		}
		byKind[ref.Kind] = append(byKind[ref.Kind], ref.ID.String())
	}

	out := make(map[entity.ProductRef]transformer.Info, len(refs))
	for _, kind := range []entity.ProductKind{entity.KindIndividual, entity.KindCombo} {
		ids := byKind[kind]
		if len(ids) == 0 {
			continue
		}
		found, err := s.infos.Get(ctx, ids, kind)
		if err != nil {
			return nil, err
		}
		for _, info := range found {
			ref, _ := info.Ref()
			out[ref] = info
		}
	}
	return out, nil
}

func (s *ProductService) lookups(ctx context.Context, graphs map[uuid.UUID]*entity.ProductGraph, detail bool) (transformer.Lookups, error) {
	var imageIDs []string
	codes := make(map[string]struct{})
	for _, g := range graphs {
		imageIDs = append(imageIDs, transformer.ImageIDs(g, detail)...)
		if g.SKU != nil && g.SKU.CurrencyCode != "" {
			codes[strings.ToUpper(g.SKU.CurrencyCode)] = struct{}{}
		}
	}

	currencies := make(currencyMap, len(codes))
	if s.currencies != nil {
		for code := range codes {
			c, err := s.currencies.Currency(ctx, code)
			if errors.Is(err, currency.ErrUnknownCurrency) {
				continue
			}
			if err != nil {
				return transformer.Lookups{}, err
			}
			currencies[code] = c
		}
	}

	return transformer.Lookups{
		Images:     s.resolveImages(ctx, imageIDs),
		Currencies: currencies,
	}, nil
}

// resolveImages never fails: projections are built without the images the
// resolver could not provide.
func (s *ProductService) resolveImages(ctx context.Context, ids []string) map[string]media.Image {
	out := make(map[string]media.Image, len(ids))
	wanted := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			wanted = append(wanted, id)
		}
	}
	if s.images == nil || len(wanted) == 0 {
		return out
	}
	images, err := s.images.Resolve(ctx, wanted)
	if err != nil {
		s.logger.Warn("image resolution failed, continuing without images",
			"ids", len(wanted),
			"error", err,
		)
		return out
	}
	for _, img := range images {
		out[img.ID] = img
	}
	return out
}

type currencyMap map[string]currency.Currency

func (m currencyMap) Lookup(code string) (currency.Currency, bool) {
	c, ok := m[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}
