package main

import (
	"context"
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/goliatone/go-catalog/entity"
	"github.com/goliatone/go-catalog/pkg/di"
	"github.com/goliatone/go-catalog/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const (
	kindFlag   = "kind"
	searchFlag = "search"
	brandFlag  = "brand"
)

var listFlags = map[string]cobraflags.Flag{
	kindFlag: &cobraflags.StringFlag{
		Name:  kindFlag,
		Value: string(entity.KindIndividual),
		Usage: "Product kind (individual or combo)",
	},
	searchFlag: &cobraflags.StringFlag{
		Name:  searchFlag,
		Value: "",
		Usage: "Case-insensitive name search",
	},
	brandFlag: &cobraflags.StringFlag{
		Name:  brandFlag,
		Value: "",
		Usage: "Only products of this brand id",
	},
}

var kindFlags = map[string]cobraflags.Flag{
	kindFlag: &cobraflags.StringFlag{
		Name:  kindFlag,
		Value: string(entity.KindIndividual),
		Usage: "Product kind (individual or combo)",
	},
}

func newProductsCommand() *cobra.Command {
	productsCmd := &cobra.Command{
		Use:   "products [list|get|delete]",
		Short: "Read and delete products",
	}
	productsCmd.AddCommand(newProductsListCommand())
	productsCmd.AddCommand(newProductsGetCommand())
	productsCmd.AddCommand(newProductsDeleteCommand())
	return productsCmd
}

func newProductsListCommand() *cobra.Command {
	var (
		limit, offset int
		detail, all   bool
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List products ordered by position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := entity.ParseKind(listFlags[kindFlag].GetString())
			if err != nil {
				return err
			}
			q := store.ListQuery{
				Limit:      limit,
				Offset:     offset,
				Search:     listFlags[searchFlag].GetString(),
				ActiveOnly: !all,
			}
			if brand := listFlags[brandFlag].GetString(); brand != "" {
				id, err := uuid.Parse(brand)
				if err != nil {
					return fmt.Errorf("invalid --%s: %w", brandFlag, err)
				}
				q.BrandID = &id
			}

			return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
				if detail {
					details, total, err := c.Products().ListDetail(ctx, kind, q)
					if err != nil {
						return err
					}
					return printJSON(cmd, map[string]any{"total": total, "products": details})
				}
				infos, total, err := c.Products().ListInfo(ctx, kind, q)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{"total": total, "products": infos})
			})
		},
	}
	cobraflags.RegisterMap(listCmd, listFlags)
	listCmd.Flags().IntVar(&limit, "limit", 20, "Page size, 0 for every product")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Products to skip")
	listCmd.Flags().BoolVar(&detail, "detail", false, "Print the detail projection")
	listCmd.Flags().BoolVar(&all, "all", false, "Include inactive products")
	return listCmd
}

func newProductsGetCommand() *cobra.Command {
	var detail bool
	getCmd := &cobra.Command{
		Use:   "get <id>...",
		Short: "Print products by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ids, err := kindAndIDs(args)
			if err != nil {
				return err
			}
			return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
				if detail {
					details, err := c.Products().GetDetails(ctx, kind, ids)
					if err != nil {
						return err
					}
					return printJSON(cmd, details)
				}
				infos, err := c.Products().GetInfos(ctx, kind, ids)
				if err != nil {
					return err
				}
				return printJSON(cmd, infos)
			})
		},
	}
	cobraflags.RegisterMap(getCmd, kindFlags)
	getCmd.Flags().BoolVar(&detail, "detail", false, "Print the detail projection")
	return getCmd
}

func newProductsDeleteCommand() *cobra.Command {
	deleteCmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete products and their child records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ids, err := kindAndIDs(args)
			if err != nil {
				return err
			}
			return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
				n, err := c.Products().Delete(ctx, kind, ids)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d %s product(s)\n", n, kind)
				return nil
			})
		},
	}
	cobraflags.RegisterMap(deleteCmd, kindFlags)
	return deleteCmd
}

func newBrandsCommand() *cobra.Command {
	brandsCmd := &cobra.Command{
		Use:   "brands",
		Short: "Print every brand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
				brands, err := c.Products().Brands(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, brands)
			})
		},
	}
	return brandsCmd
}

func kindAndIDs(args []string) (entity.ProductKind, []uuid.UUID, error) {
	kind, err := entity.ParseKind(kindFlags[kindFlag].GetString())
	if err != nil {
		return "", nil, err
	}
	ids, err := parseIDs(args)
	if err != nil {
		return "", nil, err
	}
	return kind, ids, nil
}

func parseIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := uuid.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
