package cache

import (
	"context"
	"fmt"
)

// Memo is a read-through cached wrapper around a single-result lookup.
type Memo[A, R any] struct {
	spec       Spec[A]
	service    CacheService
	serializer KeySerializer
	fn         func(context.Context, A) (R, error)
}

// Memoize wraps fn so that calls with the same key within the namespace TTL
// share one result. Concurrent calls for a key that is being computed wait for
// that computation instead of starting their own. Errors are never cached.
func Memoize[A, R any](provider Provider, serializer KeySerializer, spec Spec[A], fn func(context.Context, A) (R, error)) (*Memo[A, R], error) {
	service, err := resolve(provider, spec)
	if err != nil {
		return nil, err
	}
	if serializer == nil {
		serializer = NewDefaultKeySerializer()
	}
	return &Memo[A, R]{spec: spec, service: service, serializer: serializer, fn: fn}, nil
}

// Get returns the cached result for args, computing it on a miss.
func (m *Memo[A, R]) Get(ctx context.Context, args A) (R, error) {
	return GetOrFetch(ctx, m.service, m.Key(args), func(ctx context.Context) (R, error) {
		return m.fn(ctx, args)
	})
}

// Func returns Get as a plain function value.
func (m *Memo[A, R]) Func() func(context.Context, A) (R, error) {
	return m.Get
}

// Key returns the cache key for args.
func (m *Memo[A, R]) Key(args A) string {
	return KeyFor(m.serializer, m.spec, args)
}

// Invalidate drops the entry for args.
func (m *Memo[A, R]) Invalidate(ctx context.Context, args A) error {
	return m.service.Delete(ctx, m.Key(args))
}

// InvalidateAll drops every entry of the operation.
func (m *Memo[A, R]) InvalidateAll(ctx context.Context) error {
	return invalidateOperation(ctx, m.service, m.spec.Prefix())
}

// BatchMemo is the bulk variant of Memo: one cache entry per id.
type BatchMemo[A, R any] struct {
	spec       Spec[A]
	service    CacheService
	serializer KeySerializer
	fn         func(context.Context, []string, A) (map[string]R, error)
}

// MemoizeBatch wraps a bulk lookup. Each id is cached under its own key; on a
// call, hits are served from the cache and only the missing ids are passed to
// fn. Ids absent from fn's result are absent from the returned map.
func MemoizeBatch[A, R any](provider Provider, serializer KeySerializer, spec Spec[A], fn func(context.Context, []string, A) (map[string]R, error)) (*BatchMemo[A, R], error) {
	service, err := resolve(provider, spec)
	if err != nil {
		return nil, err
	}
	if serializer == nil {
		serializer = NewDefaultKeySerializer()
	}
	return &BatchMemo[A, R]{spec: spec, service: service, serializer: serializer, fn: fn}, nil
}

// Get returns the values for ids keyed by id.
func (m *BatchMemo[A, R]) Get(ctx context.Context, ids []string, args A) (map[string]R, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return map[string]R{}, nil
	}
	return GetOrFetchBatch(ctx, m.service, ids, m.keyFn(args), func(ctx context.Context, missing []string) (map[string]R, error) {
		return m.fn(ctx, missing, args)
	})
}

// Func returns Get as a plain function value.
func (m *BatchMemo[A, R]) Func() func(context.Context, []string, A) (map[string]R, error) {
	return m.Get
}

// Key returns the cache key for a single id.
func (m *BatchMemo[A, R]) Key(args A, id string) string {
	return BatchKeyFor(m.serializer, m.spec, args, id)
}

// Invalidate drops the entries of ids.
func (m *BatchMemo[A, R]) Invalidate(ctx context.Context, args A, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = m.Key(args, id)
	}
	return m.service.InvalidateKeys(ctx, keys)
}

// InvalidateAll drops every entry of the operation.
func (m *BatchMemo[A, R]) InvalidateAll(ctx context.Context) error {
	return invalidateOperation(ctx, m.service, m.spec.Prefix())
}

func (m *BatchMemo[A, R]) keyFn(args A) KeyFn {
	base := KeyFor(m.serializer, m.spec, args)
	return func(id string) string {
		return base + KeySeparator + id
	}
}

func resolve[A any](provider Provider, spec Spec[A]) (CacheService, error) {
	if provider == nil {
		return nil, fmt.Errorf("cache: nil provider for %s", spec.Prefix())
	}
	if spec.Namespace == "" {
		return nil, fmt.Errorf("cache: namespace is required for operation %q", spec.Operation)
	}
	return provider.Namespace(spec.Namespace, spec.TTL)
}

func invalidateOperation(ctx context.Context, service CacheService, prefix string) error {
	if err := service.Delete(ctx, prefix); err != nil {
		return err
	}
	return service.DeleteByPrefix(ctx, prefix+KeySeparator)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
