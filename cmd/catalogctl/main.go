// Command catalogctl inspects and edits a catalog database from the shell.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/goliatone/go-catalog/config"
	"github.com/goliatone/go-catalog/entity"
	"github.com/goliatone/go-catalog/pkg/di"
	"github.com/goliatone/go-catalog/store"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "catalogctl",
		Short: "Manage catalog products, carts and wishlists",
		Long: `Manage catalog products, carts and wishlists.

Settings come from the file given with --config and CATALOG_* environment
variables, e.g. CATALOG_DATABASE_DSN.

Examples:
  catalogctl migrate --config catalog.yaml
  catalogctl products list --kind individual --search kettle
  catalogctl cart add --user u1 --kind individual --id <uuid> --qty 2`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	root.AddCommand(newMigrateCommand())
	root.AddCommand(newProductsCommand())
	root.AddCommand(newBrandsCommand())
	root.AddCommand(newCartCommand())
	root.AddCommand(newWishlistCommand())
	root.AddCommand(newCacheCommand())
	return root
}

// openContainer loads the configuration and wires the catalog. Logs go to
// stderr so stdout only carries command output.
func openContainer() (*di.Container, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)
	return di.NewContainer(cfg, di.WithLogger(logger))
}

// withContainer runs fn with a container that is closed afterwards.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *di.Container) error) error {
	c, err := openContainer()
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(cmd.Context(), c)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the catalog tables and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
				if err := c.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s)\n", c.Config().Database.Driver)
				return nil
			})
		},
	}
}

func newCacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the cache pool",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Load the first product page of each kind and print entries per namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
				for _, kind := range []entity.ProductKind{entity.KindIndividual, entity.KindCombo} {
					if _, _, err := c.Products().ListInfo(ctx, kind, store.ListQuery{Limit: 20}); err != nil {
						return err
					}
				}
				return printJSON(cmd, c.Pool().Stats())
			})
		},
	})
	return cacheCmd
}
