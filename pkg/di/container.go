package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-catalog/cache"
	"github.com/goliatone/go-catalog/catalog"
	"github.com/goliatone/go-catalog/config"
	"github.com/goliatone/go-catalog/internal/cacheinfra"
	"github.com/goliatone/go-catalog/internal/currency"
	"github.com/goliatone/go-catalog/internal/media"
	"github.com/goliatone/go-catalog/repositorycache"
	"github.com/goliatone/go-catalog/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
)

// Cache namespaces of the lookup table repositories.
const (
	NamespaceBrands    = "repo-brands"
	NamespaceRelations = "repo-relations"
	NamespaceCarts     = "repo-carts"
	NamespaceWishes    = "repo-wishes"
)

// Container wires the catalog: database, cache pool, repositories and
// services. Every component is built once in NewContainer.
type Container struct {
	config        config.Config
	logger        *slog.Logger
	db            *bun.DB
	ownsDB        bool
	pool          *cacheinfra.Pool
	keySerializer cache.KeySerializer
	currencies    *currency.Table
	images        catalog.ImageResolver

	products *catalog.ProductService
	carts    *catalog.CartService
	wishes   *catalog.WishlistService
}

// Option customizes a Container.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	db         *bun.DB
	registerer prometheus.Registerer
	images     media.Source
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDB uses db instead of opening the configured database. The container
// does not close it.
func WithDB(db *bun.DB) Option {
	return func(o *options) {
		o.db = db
	}
}

// WithRegisterer registers the cache metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithImageSource replaces the HTTP image client. Lookups are still cached
// per id.
func WithImageSource(source media.Source) Option {
	return func(o *options) {
		o.images = source
	}
}

// NewContainer builds every component described by cfg.
func NewContainer(cfg config.Config, opts ...Option) (*Container, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	metrics, err := cacheinfra.NewMetrics(o.registerer)
	if err != nil {
		return nil, fmt.Errorf("cache metrics: %w", err)
	}
	pool, err := cacheinfra.NewPool(cfg.Cache, cacheinfra.WithPoolMetrics(metrics), cacheinfra.WithPoolLogger(logger))
	if err != nil {
		return nil, err
	}

	c := &Container{
		config:        cfg,
		logger:        logger,
		db:            o.db,
		pool:          pool,
		keySerializer: cache.NewDefaultKeySerializer(),
		currencies:    currency.NewTable(cfg.Currencies),
	}
	if c.db == nil {
		if c.db, err = store.Open(cfg.Database); err != nil {
			return nil, err
		}
		c.ownsDB = true
	}

	if err := c.wire(o); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// NewContainerWithDefaults builds a container over config.Default.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	return NewContainer(config.Default(), opts...)
}

func (c *Container) wire(o *options) error {
	source := o.images
	if source == nil && c.config.Images.BaseURL != "" {
		source = media.NewClient(c.config.Images, media.WithLogger(c.logger))
	}
	if source != nil {
		resolver, err := media.NewResolver(source, c.pool, 0)
		if err != nil {
			return err
		}
		c.images = resolver
	}

	brandRepo, err := NewCachedRepository(c, NamespaceBrands, store.NewBrandRepository(c.db))
	if err != nil {
		return err
	}
	relationRepo, err := NewCachedRepository(c, NamespaceRelations, store.NewRelationRepository(c.db))
	if err != nil {
		return err
	}
	cartRepo, err := NewCachedRepository(c, NamespaceCarts, store.NewCartRepository(c.db))
	if err != nil {
		return err
	}
	wishRepo, err := NewCachedRepository(c, NamespaceWishes, store.NewWishRepository(c.db))
	if err != nil {
		return err
	}

	opts := []catalog.Option{
		catalog.WithLogger(c.logger),
		catalog.WithKeySerializer(c.keySerializer),
		catalog.WithCurrencyLookup(c.currencies),
	}
	if c.images != nil {
		opts = append(opts, catalog.WithImageResolver(c.images))
	}
	c.products, err = catalog.NewProductService(
		store.NewProducts(c.db),
		store.NewBrands(c.db, brandRepo),
		store.NewRelations(c.db, relationRepo),
		c.pool,
		opts...,
	)
	if err != nil {
		return err
	}
	c.carts = catalog.NewCartService(store.NewCarts(c.db, cartRepo), c.products)
	c.wishes = catalog.NewWishlistService(store.NewWishes(c.db, wishRepo), c.products)
	return nil
}

// NewCachedRepository wraps base with a cached repository stored in the
// namespace of the container's cache pool.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewCachedRepository[*entity.Brand](container, "repo-brands", base)
func NewCachedRepository[T any](container *Container, namespace string, base repository.Repository[T]) (*repositorycache.CachedRepository[T], error) {
	service, err := container.pool.Namespace(namespace, 0)
	if err != nil {
		return nil, err
	}
	return repositorycache.New(base, service, container.keySerializer,
		repositorycache.WithNamespace(namespace),
		repositorycache.WithLogger(container.logger),
	), nil
}

// Migrate creates the catalog schema.
func (c *Container) Migrate(ctx context.Context) error {
	return store.CreateSchema(ctx, c.db)
}

// Close releases the database when the container opened it.
func (c *Container) Close() error {
	if c.ownsDB && c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Config returns the configuration the container was built from.
func (c *Container) Config() config.Config {
	return c.config
}

// Logger returns the shared logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// DB returns the database handle.
func (c *Container) DB() *bun.DB {
	return c.db
}

// Pool returns the cache pool every namespace is created from.
func (c *Container) Pool() *cacheinfra.Pool {
	return c.pool
}

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Currencies returns the configured currency table.
func (c *Container) Currencies() *currency.Table {
	return c.currencies
}

// Products returns the product service.
func (c *Container) Products() *catalog.ProductService {
	return c.products
}

// Carts returns the cart service.
func (c *Container) Carts() *catalog.CartService {
	return c.carts
}

// Wishlist returns the wishlist service.
func (c *Container) Wishlist() *catalog.WishlistService {
	return c.wishes
}
