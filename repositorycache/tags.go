package repositorycache

import (
	"context"
	"strings"
)

type readContextKey struct{}

// readContext holds the per-call read settings carried by a context.
type readContext struct {
	tags  []string
	scope []string
}

func readContextFrom(ctx context.Context) readContext {
	if ctx == nil {
		return readContext{}
	}
	rc, _ := ctx.Value(readContextKey{}).(readContext)
	return rc
}

func withReadContext(ctx context.Context, rc readContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, readContextKey{}, rc)
}

// WithCacheTags registers keys read with ctx under tags. Keys read under a
// tag are dropped by CachedRepository.InvalidateTags.
func WithCacheTags(ctx context.Context, tags ...string) context.Context {
	tags = dedupeStrings(tags)
	if len(tags) == 0 {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	rc := readContextFrom(ctx)
	rc.tags = dedupeStrings(append(append([]string(nil), rc.tags...), tags...))
	return withReadContext(ctx, rc)
}

// WithCacheScope adds parts to the key of reads made with ctx. Use it when
// criteria closures capture per-call values, since closures from one call
// site serialize to the same key.
func WithCacheScope(ctx context.Context, parts ...string) context.Context {
	parts = dedupeStrings(parts)
	if len(parts) == 0 {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	rc := readContextFrom(ctx)
	rc.scope = append(append([]string(nil), rc.scope...), parts...)
	return withReadContext(ctx, rc)
}

func cacheTagsFromContext(ctx context.Context) []string {
	tags := readContextFrom(ctx).tags
	if len(tags) == 0 {
		return nil
	}
	return append([]string(nil), tags...)
}

func cacheScopeFromContext(ctx context.Context) string {
	return strings.Join(readContextFrom(ctx).scope, ",")
}

// dedupeStrings drops blanks and repeats, keeping first-seen order.
func dedupeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
