package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Timestamps is embedded by every table model.
type Timestamps struct {
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

var now = func() time.Time { return time.Now().UTC() }

// BeforeAppendModel sets created_at once and refreshes updated_at on every write.
func (t *Timestamps) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		ts := now()
		if t.CreatedAt.IsZero() {
			t.CreatedAt = ts
		}
		t.UpdatedAt = ts
	case *bun.UpdateQuery:
		t.UpdatedAt = now()
	}
	return nil
}

var (
	_ bun.BeforeAppendModelHook = (*Product)(nil)
	_ bun.BeforeAppendModelHook = (*ComboProduct)(nil)
	_ bun.BeforeAppendModelHook = (*SKU)(nil)
	_ bun.BeforeAppendModelHook = (*CartItem)(nil)
)

// ProductLink is embedded by rows that belong to exactly one product variant.
type ProductLink struct {
	ProductKind ProductKind `bun:"product_kind,notnull" json:"product_kind"`
	ProductID   uuid.UUID   `bun:"product_id,type:uuid,notnull" json:"product_id"`
}

// Ref returns the product the row belongs to.
func (l ProductLink) Ref() ProductRef {
	return ProductRef{Kind: l.ProductKind, ID: l.ProductID}
}

// LinkTo points the row at ref.
func (l *ProductLink) LinkTo(ref ProductRef) {
	l.ProductKind = ref.Kind
	l.ProductID = ref.ID
}
