// Package transformer projects product graphs into the info and detail shapes
// returned to callers.
//
// Projection is pure: everything that needs I/O (images, currencies, brands,
// related products) is resolved beforehand in bulk and passed in through
// Lookups, or patched onto the result by the caller.
package transformer

import (
	"github.com/goliatone/go-catalog/entity"
	"github.com/goliatone/go-catalog/internal/currency"
	"github.com/goliatone/go-catalog/internal/media"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductType discriminates projections.
type ProductType string

const (
	TypeIndividual ProductType = "INDIVIDUAL"
	TypeCombo      ProductType = "COMBO"
	TypeNone       ProductType = "NONE"
)

// TypeOf reports the type of the populated variant of p.
func TypeOf(p entity.ProductPair) ProductType {
	kind, ok := p.Kind()
	if !ok {
		return TypeNone
	}
	return ProductType(kind)
}

// CurrencyTable resolves currency codes.
type CurrencyTable interface {
	Lookup(code string) (currency.Currency, bool)
}

// Lookups carries the data resolved in bulk before projecting.
type Lookups struct {
	Images     map[string]media.Image
	Currencies CurrencyTable
}

func (l Lookups) image(id string) *media.Image {
	if id == "" {
		return nil
	}
	img, ok := l.Images[id]
	if !ok {
		return nil
	}
	return &img
}

// Price is the SKU block of a projection.
type Price struct {
	Amount             decimal.Decimal  `json:"amount"`
	CompareAt          *decimal.Decimal `json:"compare_at,omitempty"`
	CurrencyCode       string           `json:"currency_code"`
	CurrencySymbol     string           `json:"currency_symbol,omitempty"`
	Formatted          string           `json:"formatted"`
	FormattedCompareAt string           `json:"formatted_compare_at,omitempty"`
	DiscountPercent    int              `json:"discount_percent,omitempty"`
	Available          bool             `json:"available"`
	Stock              int              `json:"stock"`
	SKUCode            string           `json:"sku_code,omitempty"`
}

// Info is the list safe projection of a product.
type Info struct {
	Type             ProductType  `json:"type"`
	ID               uuid.UUID    `json:"id"`
	Name             string       `json:"name,omitempty"`
	Slug             string       `json:"slug,omitempty"`
	ShortDescription string       `json:"short_description,omitempty"`
	Position         int          `json:"position,omitempty"`
	IsActive         bool         `json:"is_active,omitempty"`
	BrandID          *uuid.UUID   `json:"brand_id,omitempty"`
	RelationID       *uuid.UUID   `json:"-"`
	Thumbnail        *media.Image `json:"thumbnail,omitempty"`
	Price            *Price       `json:"price,omitempty"`
	ComboItemCount   int          `json:"combo_item_count,omitempty"`
}

// Ref returns the reference of the projected product. ok is false for NONE.
func (i Info) Ref() (entity.ProductRef, bool) {
	if i.Type == TypeNone || i.Type == "" {
		return entity.ProductRef{}, false
	}
	return entity.ProductRef{Kind: entity.ProductKind(i.Type), ID: i.ID}, true
}

// SEO is the normalised search metadata of a product.
type SEO struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`
	Canonical   string   `json:"canonical"`
}

type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type FeatureSection struct {
	Title string       `json:"title"`
	Body  string       `json:"body,omitempty"`
	Image *media.Image `json:"image,omitempty"`
}

// ComboItem is one member of a combo. Product is patched by the caller.
type ComboItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Product   *Info     `json:"product,omitempty"`
}

type Brand struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	Description string       `json:"description,omitempty"`
	Logo        *media.Image `json:"logo,omitempty"`
}

// Detail is the full projection of a product. Brand, Related and the Product
// of each combo item are left nil by ToDetail.
type Detail struct {
	Info
	Description     string           `json:"description,omitempty"`
	SEO             *SEO             `json:"seo,omitempty"`
	Attributes      []Attribute      `json:"attributes,omitempty"`
	Tags            []string         `json:"tags,omitempty"`
	FeatureSections []FeatureSection `json:"feature_sections,omitempty"`
	Images          []media.Image    `json:"images,omitempty"`
	ComboItems      []ComboItem      `json:"combo_items,omitempty"`
	Brand           *Brand           `json:"brand,omitempty"`
	Related         []Info           `json:"related,omitempty"`
}
