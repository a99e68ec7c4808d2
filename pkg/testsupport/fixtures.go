package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/goliatone/go-catalog/entity"
	"github.com/google/uuid"
)

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}
	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
func LoadFixtureJSON(t testing.TB, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// ProductFixture is the JSON shape of one seeded product.
type ProductFixture struct {
	Kind            entity.ProductKind       `json:"kind"`
	Product         entity.ProductBase       `json:"product"`
	SKU             *entity.SKU              `json:"sku,omitempty"`
	Attributes      []*entity.Attribute      `json:"attributes,omitempty"`
	Tags            []*entity.Tag            `json:"tags,omitempty"`
	FeatureSections []*entity.FeatureSection `json:"feature_sections,omitempty"`
	ComboItems      []*entity.ComboItem      `json:"combo_items,omitempty"`
}

// Graph converts the fixture into a product graph ready to be saved.
func (f ProductFixture) Graph() *entity.ProductGraph {
	g := &entity.ProductGraph{
		SKU:             f.SKU,
		Attributes:      f.Attributes,
		Tags:            f.Tags,
		FeatureSections: f.FeatureSections,
		ComboItems:      f.ComboItems,
	}
	switch f.Kind {
	case entity.KindCombo:
		g.Pair.Combo = &entity.ComboProduct{ProductBase: f.Product}
	default:
		g.Pair.Individual = &entity.Product{ProductBase: f.Product}
	}
	return g
}

// Catalog is the seed data shipped in testdata/catalog.json.
type Catalog struct {
	Brands    []*entity.Brand            `json:"brands"`
	Relations []*entity.ProductsRelation `json:"relations"`
	Products  []ProductFixture           `json:"products"`
}

// Fixed ids used by testdata/catalog.json.
var (
	BrandAcme       = uuid.MustParse("8a7f5d2e-3c41-4b6a-9f1e-0d2c3b4a5e61")
	RelationSimilar = uuid.MustParse("5b0e8c1a-7d24-4f39-8e6b-2a1c0d9f3e72")
	ProductKettle   = uuid.MustParse("1f3c5e7a-9b2d-4c6e-8a0f-1b3d5f7a9c01")
	ProductMug      = uuid.MustParse("2a4c6e8b-0d1f-4a3c-9e5b-7d9f1a3c5e02")
	ProductTeapot   = uuid.MustParse("3b5d7f9c-1e2a-4b4d-8f6c-8e0a2b4d6f03")
	ComboTeaSet     = uuid.MustParse("4c6e8a0d-2f3b-4c5e-9a7d-9f1b3c5e7a04")
)

// LoadCatalog reads testdata/catalog.json from this package.
func LoadCatalog(t testing.TB) Catalog {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to locate testsupport package")
	}
	var c Catalog
	LoadFixtureJSON(t, filepath.Join(filepath.Dir(file), "testdata", "catalog.json"), &c)
	return c
}
