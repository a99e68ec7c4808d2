package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProductKind discriminates the two product variants stored by the catalog.
type ProductKind string

const (
	KindIndividual ProductKind = "INDIVIDUAL"
	KindCombo      ProductKind = "COMBO"
)

var (
	// ErrInvalidKind is returned when a product reference names an unknown variant.
	ErrInvalidKind = errors.New("invalid product kind")
	// ErrInvalidRef is returned when a product reference has no id.
	ErrInvalidRef = errors.New("invalid product reference")
	// ErrAmbiguousPair is returned when both variants of a ProductPair are populated.
	ErrAmbiguousPair = errors.New("product pair references both an individual and a combo product")
)

// Valid reports whether k names a known product variant.
func (k ProductKind) Valid() bool {
	return k == KindIndividual || k == KindCombo
}

// ParseKind accepts the kind in any letter case.
func ParseKind(s string) (ProductKind, error) {
	k := ProductKind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// ProductRef points at exactly one product variant. Child rows store it as a
// single (product_kind, product_id) column pair.
type ProductRef struct {
	Kind ProductKind
	ID   uuid.UUID
}

// Individual returns a reference to an individual product.
func Individual(id uuid.UUID) ProductRef {
	return ProductRef{Kind: KindIndividual, ID: id}
}

// Combo returns a reference to a combo product.
func Combo(id uuid.UUID) ProductRef {
	return ProductRef{Kind: KindCombo, ID: id}
}

// ParseProductRef parses the "<kind>:<uuid>" form produced by ProductRef.String.
func ParseProductRef(s string) (ProductRef, error) {
	kind, rawID, ok := strings.Cut(s, ":")
	if !ok {
		return ProductRef{}, fmt.Errorf("%w: %q", ErrInvalidRef, s)
	}
	k, err := ParseKind(kind)
	if err != nil {
		return ProductRef{}, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return ProductRef{}, fmt.Errorf("%w: %v", ErrInvalidRef, err)
	}
	return ProductRef{Kind: k, ID: id}, nil
}

// Validate checks the reference points at a known variant with a non nil id.
func (r ProductRef) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, r.Kind)
	}
	if r.ID == uuid.Nil {
		return ErrInvalidRef
	}
	return nil
}

func (r ProductRef) String() string {
	return strings.ToLower(string(r.Kind)) + ":" + r.ID.String()
}

// ProductBase holds the columns shared by individual and combo products.
type ProductBase struct {
	ID                 uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Name               string     `bun:"name,notnull" json:"name"`
	Slug               string     `bun:"slug" json:"slug"`
	ShortDescription   string     `bun:"short_description" json:"short_description"`
	Description        string     `bun:"description" json:"description"`
	Position           int        `bun:"position,notnull,default:0" json:"position"`
	IsActive           bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	BrandID            *uuid.UUID `bun:"brand_id,type:uuid" json:"brand_id,omitempty"`
	ProductsRelationID *uuid.UUID `bun:"products_relation_id,type:uuid" json:"products_relation_id,omitempty"`
	ThumbnailID        string     `bun:"thumbnail_id" json:"thumbnail_id"`
	MetaTitle          string     `bun:"meta_title" json:"meta_title"`
	MetaDescription    string     `bun:"meta_description" json:"meta_description"`
	MetaKeywords       string     `bun:"meta_keywords" json:"meta_keywords"`
	Timestamps
}

// Product is an individually sold catalog item.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`
	ProductBase
}

// Ref returns the reference child rows use to point at p.
func (p *Product) Ref() ProductRef {
	return Individual(p.ID)
}

// ComboProduct bundles several individual products under one price.
type ComboProduct struct {
	bun.BaseModel `bun:"table:combo_products,alias:cp"`
	ProductBase
}

// Ref returns the reference child rows use to point at c.
func (c *ComboProduct) Ref() ProductRef {
	return Combo(c.ID)
}

// ComboItem lists one individual product contained in a combo.
type ComboItem struct {
	bun.BaseModel `bun:"table:combo_items,alias:ci"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	ComboID   uuid.UUID `bun:"combo_id,type:uuid,notnull" json:"combo_id"`
	ProductID uuid.UUID `bun:"product_id,type:uuid,notnull" json:"product_id"`
	Quantity  int       `bun:"quantity,notnull,default:1" json:"quantity"`
	Position  int       `bun:"position,notnull,default:0" json:"position"`
	Timestamps
}

func (i *ComboItem) GetPosition() int { return i.Position }

// ProductPair carries at most one populated product variant.
type ProductPair struct {
	Individual *Product
	Combo      *ComboProduct
}

// Base returns the shared columns of whichever variant is populated.
func (p ProductPair) Base() *ProductBase {
	switch {
	case p.Individual != nil:
		return &p.Individual.ProductBase
	case p.Combo != nil:
		return &p.Combo.ProductBase
	}
	return nil
}

// Kind reports the populated variant. ok is false when neither is populated.
func (p ProductPair) Kind() (kind ProductKind, ok bool) {
	switch {
	case p.Individual != nil:
		return KindIndividual, true
	case p.Combo != nil:
		return KindCombo, true
	}
	return "", false
}

// Validate rejects pairs with both variants populated.
func (p ProductPair) Validate() error {
	if p.Individual != nil && p.Combo != nil {
		return ErrAmbiguousPair
	}
	return nil
}

// ProductGraph is a product joined with its child collections.
type ProductGraph struct {
	Pair            ProductPair
	SKU             *SKU
	Attributes      []*Attribute
	Tags            []*Tag
	FeatureSections []*FeatureSection
	ComboItems      []*ComboItem
}

// Ref returns the reference of the populated variant. ok is false for an empty pair.
func (g *ProductGraph) Ref() (ProductRef, bool) {
	if g == nil {
		return ProductRef{}, false
	}
	kind, ok := g.Pair.Kind()
	if !ok {
		return ProductRef{}, false
	}
	return ProductRef{Kind: kind, ID: g.Pair.Base().ID}, true
}
