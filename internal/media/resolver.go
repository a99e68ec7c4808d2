package media

import (
	"context"
	"time"

	"github.com/goliatone/go-catalog/cache"
)

// Source fetches images from the backing service.
type Source interface {
	Resolve(ctx context.Context, ids []string) ([]Image, error)
}

// Resolver caches images per id in the "image" namespace.
type Resolver struct {
	memo *cache.BatchMemo[struct{}, Image]
}

// NewResolver wraps source with a per id cache.
func NewResolver(source Source, provider cache.Provider, ttl time.Duration) (*Resolver, error) {
	spec := cache.Spec[struct{}]{Namespace: "image", Operation: "Resolve", TTL: ttl}
	memo, err := cache.MemoizeBatch(provider, nil, spec, func(ctx context.Context, ids []string, _ struct{}) (map[string]Image, error) {
		images, err := source.Resolve(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make(map[string]Image, len(images))
		for _, img := range images {
			out[img.ID] = img
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return &Resolver{memo: memo}, nil
}

// Resolve returns the images for ids in input order, skipping blanks and ids
// the service does not know.
func (r *Resolver) Resolve(ctx context.Context, ids []string) ([]Image, error) {
	found, err := r.Map(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Image, 0, len(found))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		img, ok := found[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, img)
	}
	return out, nil
}

// Map returns the images for ids keyed by id.
func (r *Resolver) Map(ctx context.Context, ids []string) (map[string]Image, error) {
	wanted := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			wanted = append(wanted, id)
		}
	}
	return r.memo.Get(ctx, wanted, struct{}{})
}

// Forget drops cached entries so the next lookup asks the service again.
func (r *Resolver) Forget(ctx context.Context, ids ...string) error {
	return r.memo.Invalidate(ctx, struct{}{}, ids...)
}
