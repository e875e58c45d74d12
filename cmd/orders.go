package cmd

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/amorlias/storefront/order"
)

// saveDownload writes fetched document bytes next to the working
// directory, deriving the extension from the content type.
func saveDownload(raw []byte, contentType, baseName string) (string, error) {
	ext := ".bin"
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	path := filepath.Clean(baseName + ext)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("failed writing download to path=%s with error=%w", path, err)
	}
	return path, nil
}

func ordersCommand(app *App) *cobra.Command {
	ordersCmd := &cobra.Command{
		Use:   "orders",
		Short: "View and manage your orders",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			orders, err := app.Orders.FindMyOrders(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(orders)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <orderId>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating orderId=%s with error=%w", args[0], err)
			}
			found, err := app.Orders.FindOrderById(cmd.Context(), orderID)
			if err != nil {
				return err
			}
			return printJSON(found)
		},
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel <orderId>",
		Short: "Cancel an order if it is still eligible",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating orderId=%s with error=%w", args[0], err)
			}
			reason, _ := cmd.Flags().GetString("reason")
			cancelled, err := app.Orders.Cancel(cmd.Context(), orderID, reason)
			if err != nil {
				return err
			}
			fmt.Println("order cancelled")
			return printJSON(cancelled)
		},
	}
	cancelCmd.Flags().String("reason", "", "cancellation reason")

	returnCmd := &cobra.Command{
		Use:   "return <orderId>",
		Short: "Request a return for a delivered order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating orderId=%s with error=%w", args[0], err)
			}
			param := order.ReturnRequest{}
			param.Reason, _ = cmd.Flags().GetString("reason")
			param.Comment, _ = cmd.Flags().GetString("comment")
			param.RefundMethod, _ = cmd.Flags().GetString("refund")
			param.EvidencePaths, _ = cmd.Flags().GetStringSlice("evidence")

			returned, err := app.Orders.CreateReturn(cmd.Context(), orderID, param)
			if err != nil {
				return err
			}
			fmt.Println("return requested")
			return printJSON(returned)
		},
	}
	returnCmd.Flags().String("reason", "",
		"return reason (damaged, wrong_item, not_as_described, quality_issue, other)")
	returnCmd.Flags().String("comment", "", "additional details")
	returnCmd.Flags().String("refund", order.RefundOriginalPayment,
		"refund method (original_payment, store_credit)")
	returnCmd.Flags().StringSlice("evidence", nil,
		fmt.Sprintf("up to %d evidence image files", order.MaxEvidenceFiles))

	invoiceCmd := &cobra.Command{
		Use:   "invoice <orderId>",
		Short: "Download the order invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating orderId=%s with error=%w", args[0], err)
			}
			raw, contentType, err := app.Orders.Invoice(cmd.Context(), orderID)
			if err != nil {
				return err
			}
			path, err := saveDownload(raw, contentType, "invoice-"+orderID.String())
			if err != nil {
				return err
			}
			fmt.Printf("invoice saved to %s\n", path)
			return nil
		},
	}

	labelCmd := &cobra.Command{
		Use:   "label <orderId>",
		Short: "Download the shipping label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed validating orderId=%s with error=%w", args[0], err)
			}
			raw, contentType, err := app.Orders.ShippingLabel(cmd.Context(), orderID)
			if err != nil {
				return err
			}
			path, err := saveDownload(raw, contentType, "label-"+orderID.String())
			if err != nil {
				return err
			}
			fmt.Printf("shipping label saved to %s\n", path)
			return nil
		},
	}

	ordersCmd.AddCommand(listCmd, showCmd, cancelCmd, returnCmd, invoiceCmd, labelCmd)
	return ordersCmd
}
