package entity

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Brand struct {
	bun.BaseModel `bun:"table:brands,alias:b"`

	ID          uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Slug        string    `bun:"slug,notnull,unique" json:"slug"`
	LogoImageID string    `bun:"logo_image_id" json:"logo_image_id"`
	Description string    `bun:"description" json:"description"`
	Timestamps
}
