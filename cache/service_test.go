package cache

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

// memoryService is a map backed CacheService used by the package tests.
type memoryService struct {
	mu      sync.Mutex
	entries map[string]any
	fetches int
	deleted []string
}

func newMemoryService() *memoryService {
	return &memoryService{entries: map[string]any{}}
}

func (m *memoryService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	m.mu.Lock()
	if v, ok := m.entries[key]; ok {
		m.mu.Unlock()
		return v, nil
	}
	m.fetches++
	m.mu.Unlock()

	out := reflect.ValueOf(fetchFn).Call([]reflect.Value{reflect.ValueOf(ctx)})
	if errV := out[1]; !errV.IsNil() {
		return nil, errV.Interface().(error)
	}
	v := out[0].Interface()

	m.mu.Lock()
	m.entries[key] = v
	m.mu.Unlock()
	return v, nil
}

func (m *memoryService) GetOrFetchBatch(ctx context.Context, ids []string, keyFn KeyFn, fetchFn BatchFetchFn) (map[string]any, error) {
	result := make(map[string]any, len(ids))
	var missing []string

	m.mu.Lock()
	for _, id := range ids {
		if v, ok := m.entries[keyFn(id)]; ok {
			result[id] = v
			continue
		}
		missing = append(missing, id)
	}
	m.mu.Unlock()

	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := fetchFn(ctx, missing)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	for id, v := range fetched {
		m.entries[keyFn(id)] = v
		result[id] = v
	}
	return result, nil
}

func (m *memoryService) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memoryService) DeleteByPrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
			m.deleted = append(m.deleted, key)
		}
	}
	return nil
}

func (m *memoryService) InvalidateKeys(ctx context.Context, keys []string) error {
	for _, key := range keys {
		_ = m.Delete(ctx, key)
	}
	return nil
}

func (m *memoryService) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// stubService returns a fixed result, used to exercise the typed wrappers.
type stubService struct {
	memoryService
	result any
	batch  map[string]any
	err    error
}

func (s *stubService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	return s.result, s.err
}

func (s *stubService) GetOrFetchBatch(ctx context.Context, ids []string, keyFn KeyFn, fetchFn BatchFetchFn) (map[string]any, error) {
	return s.batch, s.err
}

type memoryProvider struct {
	mu       sync.Mutex
	services map[string]*memoryService
	ttls     map[string]time.Duration
}

func newMemoryProvider() *memoryProvider {
	return &memoryProvider{services: map[string]*memoryService{}, ttls: map[string]time.Duration{}}
}

func (p *memoryProvider) Namespace(name string, ttl time.Duration) (CacheService, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if svc, ok := p.services[name]; ok {
		return svc, nil
	}
	svc := newMemoryService()
	p.services[name] = svc
	p.ttls[name] = ttl
	return svc, nil
}

func TestGetOrFetch_NilInterfaceResult(t *testing.T) {
	type SomeInterface interface {
		DoSomething() string
	}

	result, err := GetOrFetch[SomeInterface](context.Background(), &stubService{}, "test-key", func(ctx context.Context) (SomeInterface, error) {
		return nil, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}

	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrFetch_NilPointer(t *testing.T) {
	mock := &stubService{result: (*string)(nil)}

	result, err := GetOrFetch[*string](context.Background(), mock, "test-key", func(ctx context.Context) (*string, error) {
		return nil, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}

	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrFetch_TypeAssertionFailure(t *testing.T) {
	mock := &stubService{result: "wrong-type"}

	result, err := GetOrFetch[int](context.Background(), mock, "test-key", func(ctx context.Context) (int, error) {
		return 42, nil
	})

	if !errors.Is(err, ErrInvalidResultType) {
		t.Errorf("expected ErrInvalidResultType but got: %v", err)
	}

	if result != 0 {
		t.Errorf("expected zero value (0) but got: %v", result)
	}
}

func TestGetOrFetch_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := GetOrFetch[string](context.Background(), &stubService{err: boom}, "k", func(ctx context.Context) (string, error) {
		return "", nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestGetOrFetchBatch_Typed(t *testing.T) {
	ctx := context.Background()

	t.Run("converts values", func(t *testing.T) {
		svc := newMemoryService()
		got, err := GetOrFetchBatch(ctx, svc, []string{"a", "b"}, func(id string) string { return "n::" + id },
			func(ctx context.Context, ids []string) (map[string]int, error) {
				return map[string]int{"a": 1, "b": 2}, nil
			})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got["a"] != 1 || got["b"] != 2 {
			t.Errorf("unexpected result %v", got)
		}
		if !svc.has("n::a") || !svc.has("n::b") {
			t.Error("expected values stored under keyFn keys")
		}
	})

	t.Run("rejects wrong types", func(t *testing.T) {
		svc := &stubService{batch: map[string]any{"a": "nope"}}
		_, err := GetOrFetchBatch(ctx, svc, []string{"a"}, func(id string) string { return id },
			func(ctx context.Context, ids []string) (map[string]int, error) { return nil, nil })
		if !errors.Is(err, ErrInvalidResultType) {
			t.Errorf("expected ErrInvalidResultType, got %v", err)
		}
	})
}

func TestFingerprint(t *testing.T) {
	short := "product-info::GetInfos::abc"
	if got := Fingerprint("product-info::GetInfos", short); got != short {
		t.Errorf("expected short key unchanged, got %s", got)
	}

	long := "product-info::GetInfos::" + strings.Repeat("x", MaxKeyLength)
	got := Fingerprint("product-info::GetInfos", long)
	if len(got) > MaxKeyLength {
		t.Errorf("expected compacted key, got %d chars", len(got))
	}
	if !strings.HasPrefix(got, "product-info::GetInfos::#") {
		t.Errorf("expected prefix to be preserved, got %s", got)
	}
	if again := Fingerprint("product-info::GetInfos", long); again != got {
		t.Errorf("expected deterministic fingerprint, got %s and %s", got, again)
	}
	other := Fingerprint("product-info::GetInfos", long+"y")
	if other == got {
		t.Error("expected different keys to hash differently")
	}
}

func TestKeyFor(t *testing.T) {
	spec := Spec[string]{
		Namespace: "product-list",
		Operation: "ListIDs",
		Key:       func(kind string) []any { return []any{kind} },
	}
	serializer := NewDefaultKeySerializer()

	if got := KeyFor(serializer, spec, "combo"); got != "product-list::ListIDs::combo" {
		t.Errorf("unexpected key %s", got)
	}
	if got := BatchKeyFor(serializer, spec, "combo", "42"); got != "product-list::ListIDs::combo::42" {
		t.Errorf("unexpected batch key %s", got)
	}

	noArgs := Spec[struct{}]{Namespace: "brand"}
	if got := KeyFor(serializer, noArgs, struct{}{}); got != "brand" {
		t.Errorf("unexpected key %s", got)
	}
}
