package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/estoreapp/estore-cli/internal/api"
	"github.com/estoreapp/estore-cli/internal/money"
)

// parseProductID converts a command argument into a product ID.
func parseProductID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid product id %q", arg)
	}
	return uint(id), nil
}

// NewSearchCmd creates the search command. With no arguments it lists
// the whole catalog; the backend returns newest listings first.
func NewSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [keyword]",
		Short: "Search the product catalog",
		Args:  cobra.ArbitraryArgs,
		Example: `  # Full catalog
  estore search

  # Keyword search
  estore search walnut desk`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}

			keyword := strings.Join(args, " ")
			products, err := app.Engine.Products(cmd.Context(), keyword)
			if err != nil {
				return err
			}

			if app.outputFormat(cmd) == "json" {
				return renderJSON(cmd, products)
			}
			renderProductsTable(cmd, products)
			return nil
		},
	}
}

// NewProductGetCmd creates the product get command.
func NewProductGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			app, err := newApp(cmd)
			if err != nil {
				return err
			}

			product, err := app.Engine.Product(cmd.Context(), id)
			if err != nil {
				return err
			}

			if app.outputFormat(cmd) == "json" {
				return renderJSON(cmd, product)
			}
			renderProductDetail(cmd, product)
			return nil
		},
	}
}

// productFlags collects the create/update payload flags.
type productFlags struct {
	name        string
	description string
	price       string
}

func (f *productFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "product name")
	cmd.Flags().StringVar(&f.description, "description", "", "product description")
	cmd.Flags().StringVar(&f.price, "price", "", "price in yuan, e.g. 19.99")
}

// NewProductCreateCmd creates the product create command.
func NewProductCreateCmd() *cobra.Command {
	var flags productFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a listing",
		Args:  cobra.NoArgs,
		Example: `  estore product create --name "Walnut Desk" --price 1299.00 \
    --description "solid wood, 140cm"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			price, err := money.Parse(flags.price)
			if err != nil {
				return fmt.Errorf("--price: %w", err)
			}
			app, err := newApp(cmd)
			if err != nil {
				return err
			}

			created, err := app.Engine.CreateProduct(cmd.Context(), api.ProductPayload{
				Name:        flags.name,
				Description: flags.description,
				Price:       price,
			})
			if err != nil {
				return err
			}

			if app.outputFormat(cmd) == "json" {
				return renderJSON(cmd, created)
			}
			cmd.Printf("Created product %d.\n", created.ID)
			renderProductDetail(cmd, created)
			return nil
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

// NewProductUpdateCmd creates the product update command. Unset flags
// keep the listing's current values.
func NewProductUpdateCmd() *cobra.Command {
	var flags productFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			// Start from the current listing so unset flags are no-ops.
			current, err := app.Engine.Product(ctx, id)
			if err != nil {
				return err
			}
			if current == nil {
				return fmt.Errorf("product %d not found", id)
			}
			payload := api.ProductPayload{
				Name:        current.Name,
				Description: current.Description,
				Price:       current.Price,
			}
			if cmd.Flags().Changed("name") {
				payload.Name = flags.name
			}
			if cmd.Flags().Changed("description") {
				payload.Description = flags.description
			}
			if cmd.Flags().Changed("price") {
				price, parseErr := money.Parse(flags.price)
				if parseErr != nil {
					return fmt.Errorf("--price: %w", parseErr)
				}
				payload.Price = price
			}

			updated, err := app.Engine.UpdateProduct(ctx, id, payload)
			if err != nil {
				return err
			}

			if app.outputFormat(cmd) == "json" {
				return renderJSON(cmd, updated)
			}
			cmd.Printf("Updated product %d.\n", updated.ID)
			renderProductDetail(cmd, updated)
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

// NewProductDeleteCmd creates the product delete command.
func NewProductDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				result := Confirm(cmd.OutOrStdout(), cmd.InOrStdin(),
					fmt.Sprintf("Delete product %d?", id))
				if !result.Accepted {
					cmd.Println("Aborted.")
					return nil
				}
			}

			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.Engine.DeleteProduct(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Printf("Deleted product %d.\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")

	return cmd
}
