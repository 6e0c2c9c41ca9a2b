package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"widget-dashboard/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Personalised widget dashboard",
		Long: `dashboard serves per-user widget arrangements and lets a user reorder,
show and hide the widgets on their dashboard.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.LoginCmd())
	rootCmd.AddCommand(cli.LayoutCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
