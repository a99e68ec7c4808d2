package entity

import "github.com/google/uuid"

func (b *ProductBase) GetID() uuid.UUID   { return b.ID }
func (b *ProductBase) SetID(id uuid.UUID) { b.ID = id }

func (i *ComboItem) GetID() uuid.UUID   { return i.ID }
func (i *ComboItem) SetID(id uuid.UUID) { i.ID = id }

func (s *SKU) GetID() uuid.UUID   { return s.ID }
func (s *SKU) SetID(id uuid.UUID) { s.ID = id }

func (a *Attribute) GetID() uuid.UUID   { return a.ID }
func (a *Attribute) SetID(id uuid.UUID) { a.ID = id }

func (t *Tag) GetID() uuid.UUID   { return t.ID }
func (t *Tag) SetID(id uuid.UUID) { t.ID = id }

func (f *FeatureSection) GetID() uuid.UUID   { return f.ID }
func (f *FeatureSection) SetID(id uuid.UUID) { f.ID = id }

func (b *Brand) GetID() uuid.UUID   { return b.ID }
func (b *Brand) SetID(id uuid.UUID) { b.ID = id }

func (r *ProductsRelation) GetID() uuid.UUID   { return r.ID }
func (r *ProductsRelation) SetID(id uuid.UUID) { r.ID = id }

func (i *ProductsRelationItem) GetID() uuid.UUID   { return i.ID }
func (i *ProductsRelationItem) SetID(id uuid.UUID) { i.ID = id }

func (c *CartItem) GetID() uuid.UUID   { return c.ID }
func (c *CartItem) SetID(id uuid.UUID) { c.ID = id }

func (w *Wish) GetID() uuid.UUID   { return w.ID }
func (w *Wish) SetID(id uuid.UUID) { w.ID = id }
