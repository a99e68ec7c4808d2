package store

import (
	"context"
	"fmt"

	"github.com/goliatone/go-catalog/entity"
	"github.com/uptrace/bun"
)

type index struct {
	model   any
	name    string
	unique  bool
	columns []string
}

var indexes = []index{
	{model: (*entity.SKU)(nil), name: "skus_product_uidx", unique: true, columns: []string{"product_kind", "product_id"}},
	{model: (*entity.Attribute)(nil), name: "attributes_product_idx", columns: []string{"product_kind", "product_id"}},
	{model: (*entity.Tag)(nil), name: "tags_product_idx", columns: []string{"product_kind", "product_id"}},
	{model: (*entity.FeatureSection)(nil), name: "feature_sections_product_idx", columns: []string{"product_kind", "product_id"}},
	{model: (*entity.ComboItem)(nil), name: "combo_items_combo_idx", columns: []string{"combo_id"}},
	{model: (*entity.ProductsRelationItem)(nil), name: "products_relation_items_relation_idx", columns: []string{"relation_id"}},
	{model: (*entity.CartItem)(nil), name: "cart_items_user_idx", columns: []string{"user_id"}},
	{model: (*entity.Wish)(nil), name: "wishes_user_product_uidx", unique: true, columns: []string{"user_id", "product_kind", "product_id"}},
	{model: (*entity.Product)(nil), name: "products_position_idx", columns: []string{"position"}},
	{model: (*entity.ComboProduct)(nil), name: "combo_products_position_idx", columns: []string{"position"}},
}

// CreateSchema creates every table and index that does not exist yet.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range entity.Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}

	for _, idx := range indexes {
		q := db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.columns...).IfNotExists()
		if idx.unique {
			q = q.Unique()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// DropSchema drops every table, children first.
func DropSchema(ctx context.Context, db bun.IDB) error {
	models := entity.Models()
	for i := len(models) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(models[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop table for %T: %w", models[i], err)
		}
	}
	return nil
}
