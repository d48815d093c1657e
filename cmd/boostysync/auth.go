package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"boostysync/pkg/auth"
)

var (
	loginCookie        string
	loginAuthorization string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored platform credentials",
}

var authLoginCmd = &cobra.Command{
	Use:   "login <name>",
	Short: "Store credentials under a name",
	Long: `Store a session cookie and authorization token in the system keychain.

Copy both values from a logged-in browser session: the Cookie header and the
Authorization header of any API request.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginCookie == "" || loginAuthorization == "" {
			return fmt.Errorf("both --cookie and --authorization are required")
		}

		manager, err := auth.NewManager()
		if err != nil {
			return fmt.Errorf("failed to open credential stores: %w", err)
		}

		account := &auth.Account{
			Name:          args[0],
			Cookie:        loginCookie,
			Authorization: loginAuthorization,
		}
		if err := manager.Store(account); err != nil {
			return err
		}

		fmt.Printf("stored credentials for %q (cookie %s)\n", args[0], auth.MaskSecret(loginCookie))
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout <name>",
	Short: "Delete stored credentials",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := auth.NewManager()
		if err != nil {
			return fmt.Errorf("failed to open credential stores: %w", err)
		}
		if err := manager.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted credentials for %q\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)

	authLoginCmd.Flags().StringVar(&loginCookie, "cookie", "", "session cookie value")
	authLoginCmd.Flags().StringVar(&loginAuthorization, "authorization", "", "authorization header value")
}
