package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sipcass/sipcass/pkg/accounts"
	"github.com/sipcass/sipcass/pkg/authz"
	sipdb "github.com/sipcass/sipcass/pkg/db"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage employee accounts",
}

var (
	acctID       string
	acctName     string
	acctRole     string
	acctRegion   string
	acctPassword string
)

var accountsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create or replace a single account",
	Example: `  sip-server accounts create --id 1001 --name "Asha Rao" --role DM --region East --password changeme
  SIP_ACCOUNT_PASSWORD=changeme sip-server accounts create --id 1001 --name "Asha Rao" --role DM`,
	Args: cobra.NoArgs,
	RunE: runAccountsCreate,
}

var accountsImportCmd = &cobra.Command{
	Use:   "import-roster FILE",
	Short: "Upsert accounts from a roster spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsImport,
}

func init() {
	f := accountsCreateCmd.Flags()
	f.StringVar(&acctID, "id", "", "Employee id (required)")
	f.StringVar(&acctName, "name", "", "Display name")
	f.StringVar(&acctRole, "role", "", "Role: DM, AM or Seller (required)")
	f.StringVar(&acctRegion, "region", "", "Region; empty means all regions")
	f.StringVar(&acctPassword, "password", "", "Password (or SIP_ACCOUNT_PASSWORD)")
	_ = accountsCreateCmd.MarkFlagRequired("id")
	_ = accountsCreateCmd.MarkFlagRequired("role")

	accountsCmd.AddCommand(accountsCreateCmd)
	accountsCmd.AddCommand(accountsImportCmd)
}

func runAccountsCreate(cmd *cobra.Command, _ []string) error {
	role, ok := authz.ParseRole(acctRole)
	if !ok {
		return fmt.Errorf("invalid role %q (expected DM, AM or Seller)", acctRole)
	}
	id := authz.NormalizeID(acctID)
	if id == "" {
		return errors.New("--id must not be blank")
	}
	password := acctPassword
	if password == "" {
		password = os.Getenv("SIP_ACCOUNT_PASSWORD")
	}
	hash, err := accounts.HashPassword(password)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	gormDB, err := openDatabase(cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = sipdb.Close(gormDB) }()

	acct := &accounts.Account{
		EmployeeID:   id,
		Name:         acctName,
		Role:         role,
		Region:       acctRegion,
		PasswordHash: hash,
	}
	if err := accounts.NewAccountStore(gormDB).Upsert(cmd.Context(), acct); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "account %s saved (role %s)\n", id, role)
	return nil
}

func runAccountsImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read roster: %w", err)
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	gormDB, err := openDatabase(cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = sipdb.Close(gormDB) }()

	importer := accounts.NewRosterImporter(accounts.NewAccountStore(gormDB), logger)
	result, err := importer.Ingest(cmd.Context(), filepath.Base(args[0]), data)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "created %d, updated %d, skipped %d\n", result.Created, result.Updated, result.Skipped)
	for _, issue := range result.Issues {
		fmt.Fprintf(out, "  %s\n", issue)
	}
	return nil
}
