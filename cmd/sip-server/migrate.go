package main

import (
	"github.com/spf13/cobra"

	sipdb "github.com/sipcass/sipcass/pkg/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		gormDB, err := openDatabase(cmd, cfg, logger)
		if err != nil {
			return err
		}
		return sipdb.Close(gormDB)
	},
}
