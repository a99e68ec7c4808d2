// Package testsupport provides databases and seed data
// shared by the catalog tests.
package testsupport

import (
	"context"
	"fmt"
	"testing"

	"github.com/goliatone/go-catalog/store"
	"github.com/uptrace/bun"
)

// OpenTestDB opens a private in-memory sqlite database with the catalog schema.
func OpenTestDB(t testing.TB) *bun.DB {
	t.Helper()

	db, err := store.Open(store.Config{
		Driver: store.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=off", sanitize(t.Name())),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

// Seed inserts c as is, keeping the fixture ids.
func Seed(t testing.TB, db bun.IDB, c Catalog) {
	t.Helper()
	ctx := context.Background()

	insert := func(model any) {
		t.Helper()
		if _, err := db.NewInsert().Model(model).Exec(ctx); err != nil {
			t.Fatalf("seed %T: %v", model, err)
		}
	}

	for _, b := range c.Brands {
		insert(b)
	}
	for _, r := range c.Relations {
		insert(r)
		for _, item := range r.Items {
			item.RelationID = r.ID
			insert(item)
		}
	}
	for _, f := range c.Products {
		g := f.Graph()
		ref, _ := g.Ref()
		if g.Pair.Combo != nil {
			insert(g.Pair.Combo)
		} else {
			insert(g.Pair.Individual)
		}
		if g.SKU != nil {
			g.SKU.LinkTo(ref)
			insert(g.SKU)
		}
		for _, a := range g.Attributes {
			a.LinkTo(ref)
			insert(a)
		}
		for _, tag := range g.Tags {
			tag.LinkTo(ref)
			insert(tag)
		}
		for _, s := range g.FeatureSections {
			s.LinkTo(ref)
			insert(s)
		}
		for _, item := range g.ComboItems {
			item.ComboID = ref.ID
			insert(item)
		}
	}
}

// SeedCatalog loads testdata/catalog.json into db and returns it.
func SeedCatalog(t testing.TB, db bun.IDB) Catalog {
	t.Helper()
	c := LoadCatalog(t)
	Seed(t, db, c)
	return c
}
