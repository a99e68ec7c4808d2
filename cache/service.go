package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidResultType is returned when a cached value does not have the type the caller expects.
var ErrInvalidResultType = errors.New("cache: invalid result type")

// KeySerializer builds a cache key from a method name + arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
}

// FetchFn is the function signature CacheService expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// BatchFetchFn fetches the values for the ids that were not found in the cache.
// Ids missing from the returned map are treated as records that do not exist.
type BatchFetchFn func(ctx context.Context, ids []string) (map[string]any, error)

// KeyFn maps a record id to the cache key it is stored under.
type KeyFn func(id string) string

// CacheService exposes the read-through caching operations we need when decorating repositories.
// It is exported so that other packages can reuse the default serializer or provide alternate cache backends.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error)
	GetOrFetchBatch(ctx context.Context, ids []string, keyFn KeyFn, fetchFn BatchFetchFn) (map[string]any, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	InvalidateKeys(ctx context.Context, keys []string) error
}

// Provider hands out the cache service backing a namespace. Implementations
// create one service per namespace and TTL and share it across callers.
type Provider interface {
	Namespace(name string, ttl time.Duration) (CacheService, error)
}

// GetOrFetch is a type-safe wrapper function that provides generic support for CacheService.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T
	result, err := service.GetOrFetch(ctx, key, fetchFn)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %T for key %q", ErrInvalidResultType, result, key)
	}
	return typed, nil
}

// GetOrFetchBatch is the typed counterpart of CacheService.GetOrFetchBatch.
// Only the ids that miss the cache are handed to fetchFn.
func GetOrFetchBatch[T any](ctx context.Context, service CacheService, ids []string, keyFn KeyFn, fetchFn func(ctx context.Context, ids []string) (map[string]T, error)) (map[string]T, error) {
	raw, err := service.GetOrFetchBatch(ctx, ids, keyFn, func(ctx context.Context, missing []string) (map[string]any, error) {
		fetched, err := fetchFn(ctx, missing)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(fetched))
		for id, v := range fetched {
			out[id] = v
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	result := make(map[string]T, len(raw))
	for id, v := range raw {
		if v == nil {
			var zero T
			result[id] = zero
			continue
		}
		typed, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("%w: got %T for id %q", ErrInvalidResultType, v, id)
		}
		result[id] = typed
	}
	return result, nil
}
