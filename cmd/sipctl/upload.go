package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a spreadsheet",
}

var uploadPayoutCmd = &cobra.Command{
	Use:   "payout FILE",
	Short: "Upload a payout table (DM, AM)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Message       string `json:"message"`
			UploadID      string `json:"upload_id"`
			EmployeeCount int    `json:"employee_count"`
		}
		if err := newClient().uploadFile("/api/upload/", args[0], &resp); err != nil {
			return err
		}
		if structured() {
			return printOutput(cmd.OutOrStdout(), resp)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (upload %s, %d visible employees)\n", resp.Message, resp.UploadID, resp.EmployeeCount)
		return nil
	},
}

var uploadAOPCmd = &cobra.Command{
	Use:   "aop FILE",
	Short: "Replace the AOP targets (DM, AM)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp map[string]any
		if err := newClient().uploadFile("/api/aop/upload/", args[0], &resp); err != nil {
			return err
		}
		if structured() {
			return printOutput(cmd.OutOrStdout(), resp)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%v targets loaded\n", resp["target_count"])
		return nil
	},
}

var uploadRosterCmd = &cobra.Command{
	Use:   "roster FILE",
	Short: "Upsert accounts from a roster (DM)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Result struct {
				Created int      `json:"created"`
				Updated int      `json:"updated"`
				Skipped int      `json:"skipped"`
				Issues  []string `json:"issues"`
			} `json:"result"`
		}
		if err := newClient().uploadFile("/api/accounts/upload/", args[0], &resp); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		res := resp.Result
		if structured() {
			return printOutput(out, res)
		}
		fmt.Fprintf(out, "created %d, updated %d, skipped %d\n", res.Created, res.Updated, res.Skipped)
		for _, issue := range res.Issues {
			fmt.Fprintf(out, "  %s\n", issue)
		}
		return nil
	},
}

func init() {
	uploadCmd.AddCommand(uploadPayoutCmd)
	uploadCmd.AddCommand(uploadAOPCmd)
	uploadCmd.AddCommand(uploadRosterCmd)
}
