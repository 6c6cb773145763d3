// Command identity runs the identity and workspace membership service.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/tenancy/internal/identity/app"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "identity",
		Short:        "Identity and workspace membership service",
		Version:      app.BuildVersion,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		serveCommand(),
		migrateCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
