package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func cartCommand(app *App) *cobra.Command {
	cartCmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the shopping cart",
	}

	addCmd := &cobra.Command{
		Use:   "add <productId>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context()
			productID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating productId=%s with error=%w", args[0], err)
			}
			quantity, _ := cmd.Flags().GetInt("quantity")

			product, err := app.Catalog.FindProductById(c, productID)
			if err != nil {
				return err
			}
			app.Cart.AddItem(c, product, quantity)
			fmt.Printf("cart now has %d item(s), subtotal %s\n",
				app.Cart.ItemCount(), app.Cart.Subtotal().String())
			return nil
		},
	}
	addCmd.Flags().Int("quantity", 1, "quantity to add")

	removeCmd := &cobra.Command{
		Use:   "remove <productId>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating productId=%s with error=%w", args[0], err)
			}
			app.Cart.RemoveItem(cmd.Context(), productID)
			fmt.Printf("cart now has %d item(s)\n", app.Cart.ItemCount())
			return nil
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update <productId>",
		Short: "Set the exact quantity of a cart entry (0 removes it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating productId=%s with error=%w", args[0], err)
			}
			quantity, _ := cmd.Flags().GetInt("quantity")
			app.Cart.UpdateQuantity(cmd.Context(), productID, quantity)
			fmt.Printf("cart now has %d item(s)\n", app.Cart.ItemCount())
			return nil
		},
	}
	updateCmd.Flags().Int("quantity", 1, "exact quantity")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show the cart contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := printJSON(app.Cart.Items()); err != nil {
				return err
			}
			fmt.Printf("%d item(s), subtotal %s\n",
				app.Cart.ItemCount(), app.Cart.Subtotal().String())
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Cart.Clear(cmd.Context())
			fmt.Println("cart cleared")
			return nil
		},
	}

	cartCmd.AddCommand(addCmd, removeCmd, updateCmd, listCmd, clearCmd)
	return cartCmd
}
