package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/amorlias/storefront/admin"
	"github.com/amorlias/storefront/catalog"
	inErrors "github.com/amorlias/storefront/internal/errors"
)

func requireAdmin(app *App) error {
	if !app.Session.IsAdmin() {
		return inErrors.ErrNotAuthenticated
	}
	return nil
}

func adminCommand(app *App) *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Back-office order, inventory, banner and settings management",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return requireAdmin(app)
		},
	}

	ordersCmd := &cobra.Command{
		Use:   "orders",
		Short: "List all orders with optional filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := admin.OrderFilter{}
			filter.Status, _ = cmd.Flags().GetString("status")
			filter.UserID, _ = cmd.Flags().GetString("user")
			filter.From, _ = cmd.Flags().GetString("from")
			filter.To, _ = cmd.Flags().GetString("to")
			filter.Page, _ = cmd.Flags().GetString("page")
			filter.Limit, _ = cmd.Flags().GetString("limit")

			orders, err := app.Admin.FindOrders(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(orders)
		},
	}
	ordersCmd.Flags().String("status", "", "filter by order status")
	ordersCmd.Flags().String("user", "", "filter by user id")
	ordersCmd.Flags().String("from", "", "orders created after this date")
	ordersCmd.Flags().String("to", "", "orders created before this date")
	ordersCmd.Flags().String("page", "", "page number")
	ordersCmd.Flags().String("limit", "", "page size")

	statusCmd := &cobra.Command{
		Use:   "status <orderId> <status>",
		Short: "Update an order's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating orderId=%s with error=%w", args[0], err)
			}
			param := admin.UpdateOrderStatusRequest{Status: args[1]}
			param.TrackingNumber, _ = cmd.Flags().GetString("tracking")
			param.CourierName, _ = cmd.Flags().GetString("courier")

			updated, err := app.Admin.UpdateOrderStatus(cmd.Context(), orderID, param)
			if err != nil {
				return err
			}
			return printJSON(updated)
		},
	}
	statusCmd.Flags().String("tracking", "", "tracking number, required when shipping")
	statusCmd.Flags().String("courier", "", "courier name, required when shipping")

	inventoryCmd := &cobra.Command{
		Use:   "inventory <productId>",
		Short: "Update stock and pricing of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating productId=%s with error=%w", args[0], err)
			}
			param := admin.UpdateInventoryRequest{}
			if cmd.Flags().Changed("stock") {
				stock, _ := cmd.Flags().GetInt("stock")
				param.Stock = &stock
			}
			if cmd.Flags().Changed("price") {
				raw, _ := cmd.Flags().GetString("price")
				price, err := decimal.NewFromString(raw)
				if err != nil {
					return fmt.Errorf("failed validating price=%s with error=%w", raw, err)
				}
				param.SellingPrice = &price
			}
			if cmd.Flags().Changed("mrp") {
				raw, _ := cmd.Flags().GetString("mrp")
				mrp, err := decimal.NewFromString(raw)
				if err != nil {
					return fmt.Errorf("failed validating mrp=%s with error=%w", raw, err)
				}
				param.Mrp = &mrp
			}

			updated, err := app.Admin.UpdateInventory(cmd.Context(), productID, param)
			if err != nil {
				return err
			}
			return printJSON(updated)
		},
	}
	inventoryCmd.Flags().Int("stock", 0, "stock on hand")
	inventoryCmd.Flags().String("price", "", "selling price")
	inventoryCmd.Flags().String("mrp", "", "maximum retail price")

	bannerCmd := &cobra.Command{
		Use:   "banner",
		Short: "Manage storefront banners",
	}
	bannerSaveCmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update a banner",
		RunE: func(cmd *cobra.Command, args []string) error {
			banner := catalog.Banner{}
			if raw, _ := cmd.Flags().GetString("id"); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("failed validating bannerId=%s with error=%w", raw, err)
				}
				banner.ID = id
			}
			banner.Title, _ = cmd.Flags().GetString("title")
			banner.ImageURL, _ = cmd.Flags().GetString("image")
			banner.LinkURL, _ = cmd.Flags().GetString("link")
			banner.Position, _ = cmd.Flags().GetInt("position")
			banner.IsActive, _ = cmd.Flags().GetBool("active")

			saved, err := app.Admin.UpsertBanner(cmd.Context(), banner)
			if err != nil {
				return err
			}
			return printJSON(saved)
		},
	}
	bannerSaveCmd.Flags().String("id", "", "banner id, empty creates a new banner")
	bannerSaveCmd.Flags().String("title", "", "banner title")
	bannerSaveCmd.Flags().String("image", "", "image url")
	bannerSaveCmd.Flags().String("link", "", "link url")
	bannerSaveCmd.Flags().Int("position", 0, "display position")
	bannerSaveCmd.Flags().Bool("active", true, "whether the banner is shown")

	bannerDeleteCmd := &cobra.Command{
		Use:   "delete <bannerId>",
		Short: "Delete a banner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bannerID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating bannerId=%s with error=%w", args[0], err)
			}
			if err := app.Admin.DeleteBanner(cmd.Context(), bannerID); err != nil {
				return err
			}
			fmt.Println("banner deleted")
			return nil
		},
	}
	bannerCmd.AddCommand(bannerSaveCmd, bannerDeleteCmd)

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Update storefront settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := app.Catalog.FindPublicSettings(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("store-name") {
				current.StoreName, _ = cmd.Flags().GetString("store-name")
			}
			if cmd.Flags().Changed("logo") {
				current.LogoURL, _ = cmd.Flags().GetString("logo")
			}
			if cmd.Flags().Changed("support-email") {
				current.SupportEmail, _ = cmd.Flags().GetString("support-email")
			}
			if cmd.Flags().Changed("support-phone") {
				current.SupportPhone, _ = cmd.Flags().GetString("support-phone")
			}
			if cmd.Flags().Changed("announcement") {
				current.Announcement, _ = cmd.Flags().GetString("announcement")
			}

			updated, err := app.Admin.UpdateSettings(cmd.Context(), current)
			if err != nil {
				return err
			}
			return printJSON(updated)
		},
	}
	settingsCmd.Flags().String("store-name", "", "store display name")
	settingsCmd.Flags().String("logo", "", "logo url")
	settingsCmd.Flags().String("support-email", "", "support email")
	settingsCmd.Flags().String("support-phone", "", "support phone")
	settingsCmd.Flags().String("announcement", "", "announcement bar text")

	adminCmd.AddCommand(ordersCmd, statusCmd, inventoryCmd, bannerCmd, settingsCmd)
	return adminCmd
}
