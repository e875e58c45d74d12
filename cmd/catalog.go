package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/amorlias/storefront/catalog"
)

func catalogCommand(app *App) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse products, categories, banners and offers",
	}

	productsCmd := &cobra.Command{
		Use:   "products",
		Short: "List products",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := catalog.ProductFilter{}
			filter.CategoryID, _ = cmd.Flags().GetString("category")
			filter.Search, _ = cmd.Flags().GetString("search")
			filter.Page, _ = cmd.Flags().GetString("page")
			filter.Limit, _ = cmd.Flags().GetString("limit")

			products, err := app.Catalog.FindProducts(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(products)
		},
	}
	productsCmd.Flags().String("category", "", "filter by category id")
	productsCmd.Flags().String("search", "", "search term")
	productsCmd.Flags().String("page", "", "page number")
	productsCmd.Flags().String("limit", "", "page size")

	productCmd := &cobra.Command{
		Use:   "product <productId>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating productId=%s with error=%w", args[0], err)
			}
			product, err := app.Catalog.FindProductById(cmd.Context(), productID)
			if err != nil {
				return err
			}
			return printJSON(product)
		},
	}

	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "Show the category tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			categories, err := app.Catalog.FindCategories(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(catalog.BuildCategoryTree(categories))
		},
	}

	bannersCmd := &cobra.Command{
		Use:   "banners",
		Short: "List storefront banners",
		RunE: func(cmd *cobra.Command, args []string) error {
			banners, err := app.Catalog.FindBanners(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(banners)
		},
	}

	offersCmd := &cobra.Command{
		Use:   "offers",
		Short: "List offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			offers, err := app.Catalog.FindOffers(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(offers)
		},
	}

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show public storefront settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := app.Catalog.FindPublicSettings(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(settings)
		},
	}

	catalogCmd.AddCommand(
		productsCmd, productCmd, categoriesCmd, bannersCmd, offersCmd, settingsCmd,
	)
	return catalogCmd
}
