package catalog

import (
	"errors"
	"regexp"
	"strings"

	"github.com/goliatone/go-catalog/entity"
	"github.com/goliatone/go-catalog/transformer"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var slugPattern = regexp.MustCompile(`^[\p{Ll}\p{Lo}\p{Nd}]+(?:-[\p{Ll}\p{Lo}\p{Nd}]+)*$`)

// ProductInput is the writable shape of a product. A nil ID creates a product.
type ProductInput struct {
	ID               *uuid.UUID
	Name             string
	Slug             string
	ShortDescription string
	Description      string
	Position         int
	IsActive         *bool
	BrandID          *uuid.UUID
	RelationID       *uuid.UUID
	ThumbnailID      string
	MetaTitle        string
	MetaDescription  string
	MetaKeywords     string

	SKU             *SKUInput
	Attributes      []AttributeInput
	Tags            []TagInput
	FeatureSections []FeatureSectionInput
	ComboItems      []ComboItemInput
}

type SKUInput struct {
	Code           string
	Price          decimal.Decimal
	CompareAtPrice decimal.Decimal
	CurrencyCode   string
	Stock          int
	IsAvailable    bool
}

// AttributeInput updates the attribute with ID or adds a new one when ID is nil.
// Stored attributes missing from the input are removed. Tags and feature
// sections follow the same rule.
type AttributeInput struct {
	ID       *uuid.UUID
	Name     string
	Value    string
	Position int
	IsActive bool
}

type TagInput struct {
	ID       *uuid.UUID
	Label    string
	Position int
	IsActive bool
}

type FeatureSectionInput struct {
	ID       *uuid.UUID
	Title    string
	Body     string
	ImageID  string
	Position int
	IsActive bool
}

// ComboItemInput lists an individual product inside a combo.
type ComboItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Position  int
}

func nonNegative(value any) error {
	d, _ := value.(decimal.Decimal)
	if d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

func (s SKUInput) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Code, validation.Length(0, 64)),
		validation.Field(&s.Price, validation.By(nonNegative)),
		validation.Field(&s.CompareAtPrice, validation.By(nonNegative)),
		validation.Field(&s.CurrencyCode, validation.Required, validation.Length(3, 3)),
		validation.Field(&s.Stock, validation.Min(0)),
	)
}

func (a AttributeInput) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&a.Position, validation.Min(0)),
	)
}

func (t TagInput) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Label, validation.Required, validation.Length(1, 100)),
		validation.Field(&t.Position, validation.Min(0)),
	)
}

func (f FeatureSectionInput) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&f.Position, validation.Min(0)),
	)
}

func (c ComboItemInput) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ProductID, validation.By(notNilUUID)),
		validation.Field(&c.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&c.Position, validation.Min(0)),
	)
}

func notNilUUID(value any) error {
	if id, _ := value.(uuid.UUID); id == uuid.Nil {
		return errors.New("cannot be blank")
	}
	return nil
}

// Validate checks the input for a product of kind.
func (in ProductInput) Validate(kind entity.ProductKind) error {
	if !kind.Valid() {
		return validation.Errors{"kind": errors.New("must be INDIVIDUAL or COMBO")}
	}
	comboRules := []validation.Rule{}
	if kind != entity.KindCombo {
		comboRules = append(comboRules, validation.Empty.Error("only combo products have items"))
	}

	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Slug, validation.Length(0, 255), validation.Match(slugPattern).Error("must be lower case words joined by -")),
		validation.Field(&in.Position, validation.Min(0)),
		validation.Field(&in.SKU),
		validation.Field(&in.Attributes),
		validation.Field(&in.Tags),
		validation.Field(&in.FeatureSections),
		validation.Field(&in.ComboItems, comboRules...),
	)
}

// graph converts the input into a product graph of kind. Empty slugs are
// generated from the name.
func (in ProductInput) graph(kind entity.ProductKind) *entity.ProductGraph {
	base := entity.ProductBase{
		Name:               strings.TrimSpace(in.Name),
		Slug:               transformer.Slug(in.Slug, in.Name),
		ShortDescription:   in.ShortDescription,
		Description:        in.Description,
		Position:           in.Position,
		IsActive:           in.IsActive == nil || *in.IsActive,
		BrandID:            in.BrandID,
		ProductsRelationID: in.RelationID,
		ThumbnailID:        in.ThumbnailID,
		MetaTitle:          in.MetaTitle,
		MetaDescription:    in.MetaDescription,
		MetaKeywords:       in.MetaKeywords,
	}
	if in.ID != nil {
		base.ID = *in.ID
	}

	g := &entity.ProductGraph{}
	if kind == entity.KindCombo {
		g.Pair.Combo = &entity.ComboProduct{ProductBase: base}
	} else {
		g.Pair.Individual = &entity.Product{ProductBase: base}
	}

	if in.SKU != nil {
		g.SKU = &entity.SKU{
			Code:           in.SKU.Code,
			Price:          in.SKU.Price,
			CompareAtPrice: in.SKU.CompareAtPrice,
			CurrencyCode:   strings.ToUpper(in.SKU.CurrencyCode),
			Stock:          in.SKU.Stock,
			IsAvailable:    in.SKU.IsAvailable,
		}
	}
	for _, a := range in.Attributes {
		g.Attributes = append(g.Attributes, &entity.Attribute{ID: idOrNil(a.ID), Name: a.Name, Value: a.Value, Position: a.Position, IsActive: a.IsActive})
	}
	for _, t := range in.Tags {
		g.Tags = append(g.Tags, &entity.Tag{ID: idOrNil(t.ID), Label: t.Label, Position: t.Position, IsActive: t.IsActive})
	}
	for _, f := range in.FeatureSections {
		g.FeatureSections = append(g.FeatureSections, &entity.FeatureSection{ID: idOrNil(f.ID), Title: f.Title, Body: f.Body, ImageID: f.ImageID, Position: f.Position, IsActive: f.IsActive})
	}
	for _, c := range in.ComboItems {
		g.ComboItems = append(g.ComboItems, &entity.ComboItem{ProductID: c.ProductID, Quantity: c.Quantity, Position: c.Position})
	}
	return g
}

func idOrNil(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

// BrandInput is the writable shape of a brand.
type BrandInput struct {
	ID          *uuid.UUID
	Name        string
	Slug        string
	LogoImageID string
	Description string
}

func (in BrandInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Slug, validation.Length(0, 255), validation.Match(slugPattern)),
	)
}

// RelationInput is the writable shape of a products relation. Products keep
// their order.
type RelationInput struct {
	ID       *uuid.UUID
	Name     string
	Products []entity.ProductRef
}

func (in RelationInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Products, validation.Each(validation.By(func(value any) error {
			ref, _ := value.(entity.ProductRef)
			return ref.Validate()
		}))),
	)
}
