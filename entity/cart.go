package entity

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CartItem is one line of a user's shopping cart.
type CartItem struct {
	bun.BaseModel `bun:"table:cart_items,alias:c"`

	ID     uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	UserID string    `bun:"user_id,notnull" json:"user_id"`
	ProductLink
	Quantity int `bun:"quantity,notnull,default:1" json:"quantity"`
	Timestamps
}

// Wish is a product saved to a user's wishlist.
type Wish struct {
	bun.BaseModel `bun:"table:wishes,alias:w"`

	ID     uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	UserID string    `bun:"user_id,notnull" json:"user_id"`
	ProductLink
	Timestamps
}
