package entity

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProductsRelation is a named group of related products ("you may also like").
// Members are stored as rows of ProductsRelationItem.
type ProductsRelation struct {
	bun.BaseModel `bun:"table:products_relations,alias:pr"`

	ID   uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name string    `bun:"name,notnull" json:"name"`
	Timestamps

	Items []*ProductsRelationItem `bun:"rel:has-many,join:id=relation_id" json:"items,omitempty"`
}

// Refs returns the related products ordered by position.
func (r *ProductsRelation) Refs() []ProductRef {
	items := append([]*ProductsRelationItem(nil), r.Items...)
	SortByPosition(items)
	refs := make([]ProductRef, 0, len(items))
	for _, item := range items {
		refs = append(refs, item.Ref())
	}
	return refs
}

type ProductsRelationItem struct {
	bun.BaseModel `bun:"table:products_relation_items,alias:pri"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	RelationID uuid.UUID `bun:"relation_id,type:uuid,notnull" json:"relation_id"`
	ProductLink
	Position int `bun:"position,notnull,default:0" json:"position"`
	Timestamps
}

func (i *ProductsRelationItem) GetPosition() int { return i.Position }
