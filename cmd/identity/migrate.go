package main

import (
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/tenancy/internal/identity/app"
)

// migrateCommand applies the database migrations and exits. Only the
// database settings are needed, so token verification is not configured.
func migrateCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database to the latest version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadDatabaseConfig()
			if err != nil {
				return err
			}
			if file != "" {
				cfg.DatabaseFile = file
			}
			return app.Migrate(cfg, app.NewLogger(cfg))
		},
	}

	cmd.Flags().StringVarP(&file, "database", "d", "", "database file, overrides "+app.EnvPrefix+"DATABASE_FILE")
	return cmd
}
