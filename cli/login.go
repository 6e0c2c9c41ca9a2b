package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"widget-dashboard/gateway"
)

func defaultServer() string {
	if s := os.Getenv("DASHBOARD_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// LoginCmd returns the login command
func LoginCmd() *cobra.Command {
	var server, email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange email and password for a bearer token",
		Long: `Log in and print the bearer token. Use it with the layout commands:

  export DASHBOARD_TOKEN=$(dashboard login --email me@example.com --password ...)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			token, err := gateway.New(server).Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", defaultServer(), "preferences service URL")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}
