package main

import (
	"context"
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/goliatone/go-catalog/entity"
	"github.com/goliatone/go-catalog/pkg/di"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const (
	userFlag = "user"
	idFlag   = "id"
)

var userFlags = map[string]cobraflags.Flag{
	userFlag: &cobraflags.StringFlag{
		Name:  userFlag,
		Value: "",
		Usage: "Owner of the cart or wishlist (required)",
	},
}

var refFlags = map[string]cobraflags.Flag{
	kindFlag: &cobraflags.StringFlag{
		Name:  kindFlag,
		Value: string(entity.KindIndividual),
		Usage: "Product kind (individual or combo)",
	},
	idFlag: &cobraflags.StringFlag{
		Name:  idFlag,
		Value: "",
		Usage: "Product id (required)",
	},
}

func userID() (string, error) {
	user := userFlags[userFlag].GetString()
	if user == "" {
		return "", fmt.Errorf("user is required (use --%s flag)", userFlag)
	}
	return user, nil
}

func productRef() (entity.ProductRef, error) {
	kind, err := entity.ParseKind(refFlags[kindFlag].GetString())
	if err != nil {
		return entity.ProductRef{}, err
	}
	id, err := uuid.Parse(refFlags[idFlag].GetString())
	if err != nil {
		return entity.ProductRef{}, fmt.Errorf("invalid --%s: %w", idFlag, err)
	}
	return entity.ProductRef{Kind: kind, ID: id}, nil
}

// userCommand builds a subcommand that requires --user.
func userCommand(use, short string, args cobra.PositionalArgs, run func(ctx context.Context, cmd *cobra.Command, c *di.Container, user string, args []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := userID()
			if err != nil {
				return err
			}
			return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
				return run(ctx, cmd, c, user, args)
			})
		},
	}
	cobraflags.RegisterMap(cmd, userFlags)
	return cmd
}

func newCartCommand() *cobra.Command {
	cartCmd := &cobra.Command{
		Use:   "cart [list|add|set|remove|clear]",
		Short: "Manage the cart of a user",
	}

	cartCmd.AddCommand(userCommand("list", "Print the cart lines", cobra.NoArgs,
		func(ctx context.Context, cmd *cobra.Command, c *di.Container, user string, _ []string) error {
			lines, err := c.Carts().Items(ctx, user)
			if err != nil {
				return err
			}
			return printJSON(cmd, lines)
		}))

	var qty int
	addCmd := userCommand("add", "Add units of a product, merging with an existing line", cobra.NoArgs,
		func(ctx context.Context, cmd *cobra.Command, c *di.Container, user string, _ []string) error {
			ref, err := productRef()
			if err != nil {
				return err
			}
			line, err := c.Carts().Add(ctx, user, ref, qty)
			if err != nil {
				return err
			}
			return printJSON(cmd, line)
		})
	cobraflags.RegisterMap(addCmd, refFlags)
	addCmd.Flags().IntVar(&qty, "qty", 1, "Units to add")
	cartCmd.AddCommand(addCmd)

	var setQty int
	setCmd := userCommand("set <line-id>", "Replace the quantity of a line, 0 removes it", cobra.ExactArgs(1),
		func(ctx context.Context, cmd *cobra.Command, c *di.Container, user string, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid line id %q: %w", args[0], err)
			}
			if err := c.Carts().SetQuantity(ctx, user, id, setQty); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Line %s set to %d\n", id, setQty)
			return nil
		})
	setCmd.Flags().IntVar(&setQty, "qty", 1, "New quantity")
	cartCmd.AddCommand(setCmd)

	cartCmd.AddCommand(userCommand("remove <line-id>...", "Remove cart lines", cobra.MinimumNArgs(1),
		func(ctx context.Context, cmd *cobra.Command, c *di.Container, user string, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			n, err := c.Carts().Remove(ctx, user, ids)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d line(s)\n", n)
			return nil
		}))

	cartCmd.AddCommand(userCommand("clear", "Empty the cart", cobra.NoArgs,
		func(ctx context.Context, cmd *cobra.Command, c *di.Container, user string, _ []string) error {
			if err := c.Carts().Clear(ctx, user); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared")
			return nil
		}))
	return cartCmd
}

func newWishlistCommand() *cobra.Command {
	wishlistCmd := &cobra.Command{
		Use:   "wishlist [list|add|remove]",
		Short: "Manage the wishlist of a user",
	}

	wishlistCmd.AddCommand(userCommand("list", "Print the wished products", cobra.NoArgs,
		func(ctx context.Context, cmd *cobra.Command, c *di.Container, user string, _ []string) error {
			items, err := c.Wishlist().Items(ctx, user)
			if err != nil {
				return err
			}
			return printJSON(cmd, items)
		}))

	addCmd := userCommand("add", "Wish a product", cobra.NoArgs,
		func(ctx context.Context, cmd *cobra.Command, c *di.Container, user string, _ []string) error {
			ref, err := productRef()
			if err != nil {
				return err
			}
			created, err := c.Wishlist().Add(ctx, user, ref)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintln(cmd.OutOrStdout(), "Already wished")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wished")
			return nil
		})
	cobraflags.RegisterMap(addCmd, refFlags)
	wishlistCmd.AddCommand(addCmd)

	removeCmd := userCommand("remove", "Remove a product from the wishlist", cobra.NoArgs,
		func(ctx context.Context, cmd *cobra.Command, c *di.Container, user string, _ []string) error {
			ref, err := productRef()
			if err != nil {
				return err
			}
			n, err := c.Wishlist().Remove(ctx, user, []entity.ProductRef{ref})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d wish(es)\n", n)
			return nil
		})
	cobraflags.RegisterMap(removeCmd, refFlags)
	wishlistCmd.AddCommand(removeCmd)
	return wishlistCmd
}
