// Package repositorycache provides cached repository decorators for go-repository-bun.
//
// # Overview
//
// CachedRepository wraps a go-repository-bun Repository[T] and serves read
// operations from a cache.CacheService. Writes go to the base repository and,
// on success, drop the cached entries they can affect.
//
// The catalog uses it for the lookup tables that are read far more often than
// written: brands, product relations, cart lines and wishes.
//
// # Basic Usage
//
//	svc, _ := pool.Namespace(repositorycache.Namespace[*entity.Brand](), time.Hour)
//	brands := repositorycache.New(store.NewBrandRepository(db), svc, nil)
//
//	brand, err := brands.GetByID(ctx, id.String())
//
// # Keys
//
// Keys are namespace::Operation::args. The namespace defaults to the snake_case
// plural of the record type (Brand becomes brands, CartItem becomes cart_items)
// so repositories can share one cache service.
//
// Criteria are functions and serialize by code pointer. Closures created at the
// same call site therefore share a key even when they capture different values.
// Add those values to the key with WithCacheScope:
//
//	ctx = repositorycache.WithCacheScope(ctx, userID)
//	lines, _, err := carts.List(ctx, byUser(userID))
//
// # Cached and pass-through operations
//
// Cached: Get, GetByID, GetByIdentifier, List, Count.
//
// Pass-through: every *Tx read, Raw and RawTx. Reads inside a transaction
// must observe the transaction's own writes.
//
// # Invalidation
//
//   - Create and GetOrCreate drop Get, List and Count results
//   - Update, Upsert and Delete also drop the GetByID entries of the record
//     and every GetByIdentifier entry
//   - DeleteMany and DeleteWhere drop every entry of the repository
//
// Reads made with a context carrying WithCacheTags are also registered under
// those tags; InvalidateTags drops them. Use tags when a cached value depends on
// rows the repository does not write, such as relation items removed together
// with a product.
//
// Failed writes leave the cache untouched. Failed cache deletions are logged and
// do not fail the write.
package repositorycache
