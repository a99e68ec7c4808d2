package cache

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"
)

func TestMemoize_RequiresNamespace(t *testing.T) {
	fn := func(ctx context.Context, id string) (string, error) { return id, nil }

	if _, err := Memoize(nil, nil, Spec[string]{Namespace: "x"}, fn); err == nil {
		t.Error("expected error for nil provider")
	}
	if _, err := Memoize(newMemoryProvider(), nil, Spec[string]{}, fn); err == nil {
		t.Error("expected error for empty namespace")
	}
}

func TestMemo_Get(t *testing.T) {
	provider := newMemoryProvider()
	calls := map[string]int{}

	memo, err := Memoize(provider, nil, Spec[string]{
		Namespace: "brand",
		Operation: "BySlug",
		TTL:       time.Minute,
		Key:       func(slug string) []any { return []any{slug} },
	}, func(ctx context.Context, slug string) (string, error) {
		calls[slug]++
		return "brand:" + slug, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		got, err := memo.Get(ctx, "acme")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "brand:acme" {
			t.Errorf("unexpected value %s", got)
		}
	}
	if _, err := memo.Func()(ctx, "globex"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls["acme"] != 1 || calls["globex"] != 1 {
		t.Errorf("expected one computation per key, got %v", calls)
	}
	if provider.ttls["brand"] != time.Minute {
		t.Errorf("expected namespace TTL to be passed to the provider, got %v", provider.ttls["brand"])
	}

	if err := memo.Invalidate(ctx, "acme"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := memo.Get(ctx, "acme"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls["acme"] != 2 {
		t.Errorf("expected recomputation after invalidation, got %d", calls["acme"])
	}

	if err := memo.InvalidateAll(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc := provider.services["brand"]
	if svc.has(memo.Key("acme")) || svc.has(memo.Key("globex")) {
		t.Error("expected every entry of the operation to be dropped")
	}
}

func TestMemo_ErrorsAreNotCached(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	memo, err := Memoize(newMemoryProvider(), nil, Spec[int]{
		Namespace: "n",
		Key:       func(v int) []any { return []any{v} },
	}, func(ctx context.Context, v int) (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}
		return v * 2, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := memo.Get(context.Background(), 4); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	got, err := memo.Get(context.Background(), 4)
	if err != nil || got != 8 {
		t.Errorf("expected 8 after retry, got %d %v", got, err)
	}
}

func TestBatchMemo_FetchesOnlyMisses(t *testing.T) {
	provider := newMemoryProvider()
	var requested [][]string

	memo, err := MemoizeBatch(provider, nil, Spec[string]{
		Namespace: "product-info",
		Operation: "GetInfos",
		Key:       func(kind string) []any { return []any{kind} },
	}, func(ctx context.Context, ids []string, kind string) (map[string]string, error) {
		sorted := append([]string(nil), ids...)
		sort.Strings(sorted)
		requested = append(requested, sorted)

		out := map[string]string{}
		for _, id := range ids {
			if id == "ghost" {
				continue
			}
			out[id] = kind + ":" + id
		}
		return out, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	got, err := memo.Get(ctx, []string{"1", "2", "2"}, "individual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]string{"1": "individual:1", "2": "individual:2"}) {
		t.Errorf("unexpected result %v", got)
	}

	got, err = memo.Get(ctx, []string{"1", "2", "3", "ghost"}, "individual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected absent ids to be omitted, got %v", got)
	}

	want := [][]string{{"1", "2"}, {"3", "ghost"}}
	if !reflect.DeepEqual(requested, want) {
		t.Errorf("expected source calls %v, got %v", want, requested)
	}

	empty, err := memo.Get(ctx, nil, "individual")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty result for no ids, got %v %v", empty, err)
	}
	if len(requested) != 2 {
		t.Errorf("expected no source call for empty input, got %d calls", len(requested))
	}

	if err := memo.Invalidate(ctx, "individual", "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := memo.Get(ctx, []string{"1", "2"}, "individual"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last := requested[len(requested)-1]; !reflect.DeepEqual(last, []string{"1"}) {
		t.Errorf("expected only the invalidated id to be refetched, got %v", last)
	}

	if err := memo.InvalidateAll(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc := provider.services["product-info"]
	if svc.has(memo.Key("individual", "2")) {
		t.Error("expected InvalidateAll to drop batch entries")
	}
}
