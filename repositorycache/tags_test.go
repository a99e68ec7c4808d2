package repositorycache

import (
	"context"
	"reflect"
	"testing"
)

func TestWithCacheTags(t *testing.T) {
	ctx := WithCacheTags(context.Background(), "a", " b ", "a")
	ctx = WithCacheTags(ctx, "c", "", "b")

	got := cacheTagsFromContext(ctx)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tags = %v, want %v", got, want)
	}

	if WithCacheTags(ctx) != ctx {
		t.Error("expected context to be returned unchanged without tags")
	}
}

func TestWithCacheScope(t *testing.T) {
	ctx := WithCacheScope(context.Background(), "user-1")
	ctx = WithCacheScope(ctx, "page-2")

	if got := cacheScopeFromContext(ctx); got != "user-1,page-2" {
		t.Errorf("scope = %q", got)
	}
	if got := cacheScopeFromContext(context.Background()); got != "" {
		t.Errorf("expected empty scope, got %q", got)
	}
}

func TestToSnake(t *testing.T) {
	tests := map[string]string{
		"CartItems":         "cart_items",
		"ProductsRelations": "products_relations",
		"HTTPServers":       "http_servers",
		"interface {}":      "interface",
		"Item2Things":       "item_2_things",
		"":                  "",
	}
	for in, want := range tests {
		if got := toSnake(in); got != want {
			t.Errorf("toSnake(%q) = %q, want %q", in, got, want)
		}
	}
}
