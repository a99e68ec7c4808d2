package entity

// Models lists every table model in creation order.
func Models() []any {
	return []any{
		(*Brand)(nil),
		(*ProductsRelation)(nil),
		(*ProductsRelationItem)(nil),
		(*Product)(nil),
		(*ComboProduct)(nil),
		(*ComboItem)(nil),
		(*SKU)(nil),
		(*Attribute)(nil),
		(*Tag)(nil),
		(*FeatureSection)(nil),
		(*CartItem)(nil),
		(*Wish)(nil),
	}
}
