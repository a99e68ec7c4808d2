package transformer

import (
	"github.com/goliatone/go-catalog/entity"
	"github.com/shopspring/decimal"
)

// ToInfo projects g. A graph without a product yields an Info of type NONE
// and nothing else.
func ToInfo(g *entity.ProductGraph, l Lookups) Info {
	if g == nil {
		return Info{Type: TypeNone}
	}
	typ := TypeOf(g.Pair)
	if typ == TypeNone {
		return Info{Type: TypeNone}
	}
	base := g.Pair.Base()

	info := Info{
		Type:             typ,
		ID:               base.ID,
		Name:             base.Name,
		Slug:             Slug(base.Slug, base.Name),
		ShortDescription: base.ShortDescription,
		Position:         base.Position,
		IsActive:         base.IsActive,
		BrandID:          base.BrandID,
		RelationID:       base.ProductsRelationID,
		Thumbnail:        l.image(base.ThumbnailID),
		Price:            ToPrice(g.SKU, l.Currencies),
	}
	if typ == TypeCombo {
		info.ComboItemCount = len(g.ComboItems)
	}
	return info
}

// ToDetail projects g with its child collections. Inactive children are
// skipped and the rest are ordered by position.
func ToDetail(g *entity.ProductGraph, l Lookups) Detail {
	d := Detail{Info: ToInfo(g, l)}
	if d.Type == TypeNone {
		return d
	}
	base := g.Pair.Base()
	kind, _ := g.Pair.Kind()

	seo := NormalizeSEO(kind, *base)
	d.Description = base.Description
	d.SEO = &seo

	attributes := append([]*entity.Attribute(nil), g.Attributes...)
	entity.SortByPosition(attributes)
	for _, a := range attributes {
		if a.IsActive {
			d.Attributes = append(d.Attributes, Attribute{Name: a.Name, Value: a.Value})
		}
	}

	tags := append([]*entity.Tag(nil), g.Tags...)
	entity.SortByPosition(tags)
	for _, t := range tags {
		if t.IsActive {
			d.Tags = append(d.Tags, t.Label)
		}
	}

	sections := append([]*entity.FeatureSection(nil), g.FeatureSections...)
	entity.SortByPosition(sections)
	for _, f := range sections {
		if f.IsActive {
			d.FeatureSections = append(d.FeatureSections, FeatureSection{Title: f.Title, Body: f.Body, Image: l.image(f.ImageID)})
		}
	}

	for _, id := range ImageIDs(g, true) {
		if img := l.image(id); img != nil {
			d.Images = append(d.Images, *img)
		}
	}

	items := append([]*entity.ComboItem(nil), g.ComboItems...)
	entity.SortByPosition(items)
	for _, item := range items {
		d.ComboItems = append(d.ComboItems, ComboItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return d
}

// ImageIDs lists the image ids a projection of g needs, without duplicates.
// Detail projections also need the feature section images.
func ImageIDs(g *entity.ProductGraph, detail bool) []string {
	if g == nil {
		return nil
	}
	base := g.Pair.Base()
	if base == nil {
		return nil
	}

	var ids []string
	seen := make(map[string]struct{})
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	add(base.ThumbnailID)
	if detail {
		sections := append([]*entity.FeatureSection(nil), g.FeatureSections...)
		entity.SortByPosition(sections)
		for _, f := range sections {
			if f.IsActive {
				add(f.ImageID)
			}
		}
	}
	return ids
}

// ToPrice projects a SKU. A nil SKU yields nil. The compare-at price is only
// reported when it is above the price.
func ToPrice(sku *entity.SKU, currencies CurrencyTable) *Price {
	if sku == nil {
		return nil
	}
	p := &Price{
		Amount:       sku.Price,
		CurrencyCode: sku.CurrencyCode,
		Available:    sku.IsAvailable && sku.Stock > 0,
		Stock:        sku.Stock,
		SKUCode:      sku.Code,
	}

	format := func(d decimal.Decimal) string {
		return d.StringFixed(2) + " " + sku.CurrencyCode
	}
	if currencies != nil {
		if c, ok := currencies.Lookup(sku.CurrencyCode); ok {
			p.CurrencyCode = c.Code
			p.CurrencySymbol = c.Symbol
			format = c.Format
		}
	}
	p.Formatted = format(sku.Price)

	if sku.CompareAtPrice.GreaterThan(sku.Price) {
		compareAt := sku.CompareAtPrice
		p.CompareAt = &compareAt
		p.FormattedCompareAt = format(compareAt)
		if sku.CompareAtPrice.IsPositive() {
			off := compareAt.Sub(sku.Price).Div(compareAt).Mul(decimal.NewFromInt(100))
			p.DiscountPercent = int(off.Round(0).IntPart())
		}
	}
	return p
}

// ToBrand projects a brand. A nil brand yields nil.
func ToBrand(b *entity.Brand, l Lookups) *Brand {
	if b == nil {
		return nil
	}
	return &Brand{
		ID:          b.ID,
		Name:        b.Name,
		Slug:        Slug(b.Slug, b.Name),
		Description: b.Description,
		Logo:        l.image(b.LogoImageID),
	}
}
