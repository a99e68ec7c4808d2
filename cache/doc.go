// Package cache provides the read-through cache primitives used by the catalog.
//
// # Overview
//
// The package exports:
//
//   - CacheService: read-through operations over one cache namespace
//   - Provider: hands out the CacheService backing a namespace and TTL
//   - KeySerializer: builds stable cache keys from an operation and its arguments
//   - Memo and BatchMemo: wrappers that turn a lookup into a cached lookup
//
// # Memoizing an operation
//
// A Spec names the namespace, the operation, the TTL and the key builder:
//
//	infos, err := cache.MemoizeBatch(provider, nil, cache.Spec[entity.ProductKind]{
//		Namespace: "product-info",
//		Operation: "GetInfos",
//		TTL:       5 * time.Minute,
//		Key:       func(kind entity.ProductKind) []any { return []any{kind} },
//	}, loadInfos)
//
//	byID, err := infos.Get(ctx, ids, entity.KindCombo)
//
// Concurrent callers asking for a key that is being computed wait for that
// computation. Failed computations are not cached. BatchMemo stores one entry
// per id, so a call that overlaps a previous one only computes the ids that
// are not cached yet.
//
// # Keys
//
// Keys have the form namespace::operation::arg1::arg2. Keys longer than
// MaxKeyLength keep the namespace::operation prefix and replace the rest with
// an xxhash fingerprint, so prefix invalidation keeps working.
//
// The default key serializer uses reflection:
//
//   - fmt.Stringer values (uuid.UUID, time.Time, decimal.Decimal): String()
//   - Function pointers: %p, stable only within a process
//   - Basic types: direct string representation
//   - Slices/arrays: recursive serialization of elements
//   - Maps: sorted key-value pairs for deterministic output
//   - Structs: exported fields with name:value pairs
//   - Anything else: JSON, falling back to the type name
//
// # Invalidation
//
// Memo.Invalidate and BatchMemo.Invalidate drop single entries. InvalidateAll
// drops every entry of an operation. CacheService.DeleteByPrefix is available
// for callers that manage keys themselves, see the repositorycache package.
package cache
