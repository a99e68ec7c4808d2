package entity

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Positioned is implemented by child rows displayed in a stable order.
type Positioned interface {
	GetPosition() int
}

// Attribute is a name/value fact shown on the product detail page.
type Attribute struct {
	bun.BaseModel `bun:"table:attributes,alias:a"`

	ID uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	ProductLink
	Name     string `bun:"name,notnull" json:"name"`
	Value    string `bun:"value" json:"value"`
	Position int    `bun:"position,notnull,default:0" json:"position"`
	IsActive bool   `bun:"is_active,notnull,default:true" json:"is_active"`
	Timestamps
}

func (a *Attribute) GetPosition() int { return a.Position }

type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:t"`

	ID uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	ProductLink
	Label    string `bun:"label,notnull" json:"label"`
	Position int    `bun:"position,notnull,default:0" json:"position"`
	IsActive bool   `bun:"is_active,notnull,default:true" json:"is_active"`
	Timestamps
}

func (t *Tag) GetPosition() int { return t.Position }

// FeatureSection is a titled marketing block, optionally illustrated.
type FeatureSection struct {
	bun.BaseModel `bun:"table:feature_sections,alias:fs"`

	ID uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	ProductLink
	Title    string `bun:"title,notnull" json:"title"`
	Body     string `bun:"body" json:"body"`
	ImageID  string `bun:"image_id" json:"image_id"`
	Position int    `bun:"position,notnull,default:0" json:"position"`
	IsActive bool   `bun:"is_active,notnull,default:true" json:"is_active"`
	Timestamps
}

func (f *FeatureSection) GetPosition() int { return f.Position }
