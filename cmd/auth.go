package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/amorlias/storefront/auth"
	"github.com/amorlias/storefront/internal/log"
)

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// mergeGuestWishlist runs the once-per-login guest wishlist merge and
// surfaces the attempted count as a closing notice.
func mergeGuestWishlist(cmd *cobra.Command, app *App) {
	c := cmd.Context()
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "cmd mergeGuestWishlist").Logger()

	attempted, err := app.Wishlist.SyncOnLogin(c)
	if err != nil {
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	if attempted > 0 {
		fmt.Printf("merged %d wishlist item(s) into your account\n", attempted)
	}
}

func authCommand(app *App) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Login, registration and session management",
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Login with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context()
			logger := zerolog.Ctx(c).With().Str(log.KeyTag, "cmd auth login").Logger()

			param := auth.LoginRequest{}
			param.Email, _ = cmd.Flags().GetString("email")
			param.Password, _ = cmd.Flags().GetString("password")

			logger.Info().Str(log.KeyProcess, "validating input").Msg("validating input")
			validate := validator.New(validator.WithRequiredStructEnabled())
			if err := validate.StructCtx(c, param); err != nil {
				return fmt.Errorf("failed validating login input with error=%w", err)
			}

			resp, err := app.Session.Login(c, param)
			if err != nil {
				return err
			}
			mergeGuestWishlist(cmd, app)
			return printJSON(resp.User)
		},
	}
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password")

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context()

			param := auth.RegisterRequest{}
			param.Name, _ = cmd.Flags().GetString("name")
			param.Email, _ = cmd.Flags().GetString("email")
			param.Phone, _ = cmd.Flags().GetString("phone")
			param.Password, _ = cmd.Flags().GetString("password")

			validate := validator.New(validator.WithRequiredStructEnabled())
			if err := validate.StructCtx(c, param); err != nil {
				return fmt.Errorf("failed validating register input with error=%w", err)
			}

			resp, err := app.Session.Register(c, param)
			if err != nil {
				return err
			}
			mergeGuestWishlist(cmd, app)
			return printJSON(resp.User)
		},
	}
	registerCmd.Flags().String("name", "", "full name")
	registerCmd.Flags().String("email", "", "account email")
	registerCmd.Flags().String("phone", "", "phone number")
	registerCmd.Flags().String("password", "", "account password")

	otpSendCmd := &cobra.Command{
		Use:   "otp-send",
		Short: "Send a login OTP to a phone number",
		RunE: func(cmd *cobra.Command, args []string) error {
			phone, _ := cmd.Flags().GetString("phone")
			if err := app.Session.SendOtp(cmd.Context(), phone); err != nil {
				return err
			}
			fmt.Println("otp sent")
			return nil
		},
	}
	otpSendCmd.Flags().String("phone", "", "phone number")

	otpVerifyCmd := &cobra.Command{
		Use:   "otp-verify",
		Short: "Verify a login OTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			phone, _ := cmd.Flags().GetString("phone")
			code, _ := cmd.Flags().GetString("code")
			resp, err := app.Session.VerifyOtp(cmd.Context(), phone, code)
			if err != nil {
				return err
			}
			mergeGuestWishlist(cmd, app)
			return printJSON(resp.User)
		},
	}
	otpVerifyCmd.Flags().String("phone", "", "phone number")
	otpVerifyCmd.Flags().String("code", "", "one time password")

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Session.IsAuthenticated() {
				fmt.Println("guest")
				return nil
			}
			return printJSON(app.Session.User())
		},
	}

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Update name, phone or add a saved address",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context()

			param := auth.UpdateProfileRequest{}
			param.Name, _ = cmd.Flags().GetString("name")
			param.Phone, _ = cmd.Flags().GetString("phone")

			if cmd.Flags().Changed("address-line1") {
				address := auth.Address{}
				address.Name, _ = cmd.Flags().GetString("address-name")
				address.Phone, _ = cmd.Flags().GetString("address-phone")
				address.Line1, _ = cmd.Flags().GetString("address-line1")
				address.Line2, _ = cmd.Flags().GetString("address-line2")
				address.City, _ = cmd.Flags().GetString("address-city")
				address.State, _ = cmd.Flags().GetString("address-state")
				address.Pincode, _ = cmd.Flags().GetString("address-pincode")

				validate := validator.New(validator.WithRequiredStructEnabled())
				if err := validate.StructCtx(c, address); err != nil {
					return fmt.Errorf("failed validating address with error=%w", err)
				}
				if user := app.Session.User(); user != nil {
					param.Addresses = append(user.Addresses, address)
				} else {
					param.Addresses = []auth.Address{address}
				}
			}

			user, err := app.Session.UpdateProfile(c, param)
			if err != nil {
				return err
			}
			return printJSON(user)
		},
	}
	profileCmd.Flags().String("name", "", "full name")
	profileCmd.Flags().String("phone", "", "phone number")
	profileCmd.Flags().String("address-name", "", "recipient name for a new saved address")
	profileCmd.Flags().String("address-phone", "", "recipient phone")
	profileCmd.Flags().String("address-line1", "", "address line 1")
	profileCmd.Flags().String("address-line2", "", "address line 2")
	profileCmd.Flags().String("address-city", "", "city")
	profileCmd.Flags().String("address-state", "", "state")
	profileCmd.Flags().String("address-pincode", "", "6 digit pincode")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Tear down the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Session.Logout(cmd.Context())
			fmt.Println("logged out")
			return nil
		},
	}

	authCmd.AddCommand(
		loginCmd, registerCmd, otpSendCmd, otpVerifyCmd, whoamiCmd, profileCmd, logoutCmd,
	)
	return authCmd
}
