package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amorlias/storefront/auth"
	"github.com/amorlias/storefront/order"
)

func addressFromFlags(cmd *cobra.Command) auth.Address {
	address := auth.Address{}
	address.Name, _ = cmd.Flags().GetString("name")
	address.Phone, _ = cmd.Flags().GetString("phone")
	address.Line1, _ = cmd.Flags().GetString("line1")
	address.Line2, _ = cmd.Flags().GetString("line2")
	address.City, _ = cmd.Flags().GetString("city")
	address.State, _ = cmd.Flags().GetString("state")
	return address
}

func addressFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "recipient name")
	cmd.Flags().String("phone", "", "recipient phone")
	cmd.Flags().String("line1", "", "address line 1")
	cmd.Flags().String("line2", "", "address line 2")
	cmd.Flags().String("city", "", "city")
	cmd.Flags().String("state", "", "state")
	cmd.Flags().String("pincode", "", "6 digit pincode")
	cmd.Flags().Int("address-index", -1, "use a saved address from the profile")
}

// applySavedAddress copies a saved profile address when requested; the
// flag-provided fields otherwise apply.
func applySavedAddress(cmd *cobra.Command, app *App) (auth.Address, string) {
	index, _ := cmd.Flags().GetInt("address-index")
	if index >= 0 && app.Session.User() != nil {
		saved := app.Session.User().Addresses
		if index < len(saved) {
			return saved[index], saved[index].Pincode
		}
	}
	pincode, _ := cmd.Flags().GetString("pincode")
	return addressFromFlags(cmd), pincode
}

func checkoutCommand(app *App) *cobra.Command {
	checkoutCmd := &cobra.Command{
		Use:   "checkout",
		Short: "Price the cart and place an order",
	}

	pincodeCmd := &cobra.Command{
		Use:   "pincode <pincode>",
		Short: "Check delivery serviceability for a pincode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context()
			if pending := app.Checkout.SetPincode(c, args[0]); !pending {
				fmt.Println("pincode incomplete, verification reset")
				return nil
			}
			if err := app.Checkout.VerifyPincode(c); err != nil {
				return err
			}
			_, serviceability := app.Checkout.Verification()
			return printJSON(serviceability)
		},
	}

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Show the price breakdown for the current cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context()
			if pincode, _ := cmd.Flags().GetString("pincode"); pincode != "" {
				if pending := app.Checkout.SetPincode(c, pincode); pending {
					if err := app.Checkout.VerifyPincode(c); err != nil {
						return err
					}
				}
			}
			if code, _ := cmd.Flags().GetString("coupon"); code != "" {
				if err := app.Checkout.ApplyCoupon(c, code); err != nil {
					return err
				}
			}
			return printJSON(app.Checkout.Quote())
		},
	}
	quoteCmd.Flags().String("pincode", "", "resolve delivery fee for this pincode")
	quoteCmd.Flags().String("coupon", "", "apply this coupon code")

	placeCmd := &cobra.Command{
		Use:   "place",
		Short: "Place the order",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context()

			address, pincode := applySavedAddress(cmd, app)
			app.Checkout.Address = address
			if pending := app.Checkout.SetPincode(c, pincode); pending {
				if err := app.Checkout.VerifyPincode(c); err != nil {
					return err
				}
			}
			if code, _ := cmd.Flags().GetString("coupon"); code != "" {
				if err := app.Checkout.ApplyCoupon(c, code); err != nil {
					return err
				}
			}
			if method, _ := cmd.Flags().GetString("payment"); method != "" {
				app.Checkout.PaymentMethod = method
			}

			created, err := app.Checkout.PlaceOrder(c)
			if err != nil {
				return err
			}
			fmt.Printf("order placed: %s\n", created.ID.String())
			return printJSON(created)
		},
	}
	addressFlags(placeCmd)
	placeCmd.Flags().String("coupon", "", "coupon code")
	placeCmd.Flags().String("payment", order.PaymentCashOnDelivery, "payment method (cod, online)")

	checkoutCmd.AddCommand(pincodeCmd, quoteCmd, placeCmd)
	return checkoutCmd
}
