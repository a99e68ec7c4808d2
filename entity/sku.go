package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// SKU holds price and availability facts. A product owns at most one SKU.
type SKU struct {
	bun.BaseModel `bun:"table:skus,alias:s"`

	ID uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	ProductLink
	Code           string          `bun:"code" json:"code"`
	Price          decimal.Decimal `bun:"price,type:decimal(12,2),notnull" json:"price"`
	CompareAtPrice decimal.Decimal `bun:"compare_at_price,type:decimal(12,2),notnull" json:"compare_at_price"`
	CurrencyCode   string          `bun:"currency_code,notnull" json:"currency_code"`
	Stock          int             `bun:"stock,notnull,default:0" json:"stock"`
	IsAvailable    bool            `bun:"is_available,notnull,default:true" json:"is_available"`
	Timestamps
}
