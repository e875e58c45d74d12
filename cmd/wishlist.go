package cmd

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/amorlias/storefront/wishlist"
)

func optionalCategoryID(cmd *cobra.Command) (*uuid.UUID, error) {
	raw, _ := cmd.Flags().GetString("category")
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed validating categoryId=%s with error=%w", raw, err)
	}
	return &id, nil
}

func wishlistCommand(app *App) *cobra.Command {
	wishlistCmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Manage the wishlist",
	}

	addCmd := &cobra.Command{
		Use:   "add <productId>",
		Short: "Add a product to the wishlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context()
			productID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating productId=%s with error=%w", args[0], err)
			}
			categoryID, err := optionalCategoryID(cmd)
			if err != nil {
				return err
			}
			notes, _ := cmd.Flags().GetString("notes")
			priority, _ := cmd.Flags().GetInt("priority")

			product, err := app.Catalog.FindProductById(c, productID)
			if err != nil {
				return err
			}
			err = app.Wishlist.Add(c, product, categoryID, notes, priority)
			if errors.Is(err, wishlist.ErrAlreadyInWishlist) {
				fmt.Println("already in your wishlist")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Println("added to wishlist")
			return nil
		},
	}
	addCmd.Flags().String("category", "", "wishlist category id")
	addCmd.Flags().String("notes", "", "notes")
	addCmd.Flags().Int("priority", 0, "priority")

	removeCmd := &cobra.Command{
		Use:   "remove <productId>",
		Short: "Remove a product from the wishlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating productId=%s with error=%w", args[0], err)
			}
			if err := app.Wishlist.Remove(cmd.Context(), productID); err != nil {
				return err
			}
			fmt.Println("removed from wishlist")
			return nil
		},
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle <productId>",
		Short: "Add the product if absent, remove it if present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context()
			productID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating productId=%s with error=%w", args[0], err)
			}
			categoryID, err := optionalCategoryID(cmd)
			if err != nil {
				return err
			}
			product, err := app.Catalog.FindProductById(c, productID)
			if err != nil {
				return err
			}
			return app.Wishlist.Toggle(c, product, categoryID)
		},
	}
	toggleCmd.Flags().String("category", "", "wishlist category id")

	updateCmd := &cobra.Command{
		Use:   "update <wishlistItemId>",
		Short: "Update notes, priority or category of a wishlist item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating wishlistItemId=%s with error=%w", args[0], err)
			}
			update := wishlist.ItemUpdate{}
			if cmd.Flags().Changed("notes") {
				notes, _ := cmd.Flags().GetString("notes")
				update.Notes = &notes
			}
			if cmd.Flags().Changed("priority") {
				priority, _ := cmd.Flags().GetInt("priority")
				update.Priority = &priority
			}
			if cmd.Flags().Changed("category") {
				categoryID, err := optionalCategoryID(cmd)
				if err != nil {
					return err
				}
				update.CategoryID = categoryID
			}
			if err := app.Wishlist.UpdateItem(cmd.Context(), itemID, update); err != nil {
				return err
			}
			fmt.Println("updated wishlist item")
			return nil
		},
	}
	updateCmd.Flags().String("notes", "", "notes")
	updateCmd.Flags().Int("priority", 0, "priority")
	updateCmd.Flags().String("category", "", "wishlist category id")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show wishlist items and categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Wishlist.Reload(cmd.Context()); err != nil {
				return err
			}
			if err := printJSON(app.Wishlist.Items()); err != nil {
				return err
			}
			categories := app.Wishlist.Categories()
			if len(categories) > 0 {
				return printJSON(categories)
			}
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all wishlist items, or only one category's",
		RunE: func(cmd *cobra.Command, args []string) error {
			categoryID, err := optionalCategoryID(cmd)
			if err != nil {
				return err
			}
			if err := app.Wishlist.Clear(cmd.Context(), categoryID); err != nil {
				return err
			}
			fmt.Println("wishlist cleared")
			return nil
		},
	}
	clearCmd.Flags().String("category", "", "only clear this category")

	categoryCmd := &cobra.Command{
		Use:   "category",
		Short: "Manage wishlist categories",
	}
	categoryCreateCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a wishlist category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Wishlist.CreateCategory(cmd.Context(), args[0])
		},
	}
	categoryRenameCmd := &cobra.Command{
		Use:   "rename <categoryId> <name>",
		Short: "Rename a wishlist category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			categoryID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating categoryId=%s with error=%w", args[0], err)
			}
			return app.Wishlist.UpdateCategory(cmd.Context(), categoryID, args[1])
		},
	}
	categoryDeleteCmd := &cobra.Command{
		Use:   "delete <categoryId>",
		Short: "Delete a wishlist category (items survive)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			categoryID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating categoryId=%s with error=%w", args[0], err)
			}
			return app.Wishlist.DeleteCategory(cmd.Context(), categoryID)
		},
	}
	categoryCmd.AddCommand(categoryCreateCmd, categoryRenameCmd, categoryDeleteCmd)

	wishlistCmd.AddCommand(
		addCmd, removeCmd, toggleCmd, updateCmd, listCmd, clearCmd, categoryCmd,
	)
	return wishlistCmd
}
