// Package main provides the SIP reporting server entry point.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gorm.io/gorm"

	"github.com/sipcass/sipcass/pkg/config"
	sipdb "github.com/sipcass/sipcass/pkg/db"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sip-server",
	Short: "Sales incentive payout reporting server",
	Long: `sip-server consolidates uploaded SIP payout spreadsheets and serves
role-scoped reports, AOP targets and payout slips over HTTP.

Configuration comes from an optional YAML file (--config), SIP_* environment
variables and flags, in increasing order of precedence.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("db-type", "", "Database type (sqlite, postgres or mysql)")
	rootCmd.PersistentFlags().String("db-dsn", "", "Database connection string")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	// glog flags (-v, -logtostderr, ...) ride along with ours.
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	rootCmd.PersistentFlags().AddFlagSet(pflag.CommandLine)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(accountsCmd)
}

func main() {
	_ = flag.Set("logtostderr", "true")
	defer glog.Flush()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads and validates configuration and installs the process
// logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := cfg.Logging.NewLogger(os.Stdout)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openDatabase connects and migrates, so every subcommand sees the current
// schema.
func openDatabase(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	gormDB, err := sipdb.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := sipdb.Migrate(cmd.Context(), gormDB, cfg.Database.MigrationLock, logger); err != nil {
		_ = sipdb.Close(gormDB)
		return nil, err
	}
	return gormDB, nil
}
