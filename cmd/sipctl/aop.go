package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
)

type aopTarget struct {
	ID            uint     `json:"id"`
	ShipTo        string   `json:"ship_to"`
	PYActuals     float64  `json:"py_actuals"`
	GrowthPercent *float64 `json:"growth_percent"`
	Target        float64  `json:"target"`
	EmployeeID    string   `json:"employee_id"`
	Region        string   `json:"region"`
	Comments      string   `json:"comments"`
	UploadedAt    string   `json:"uploaded_at"`
}

var aopCmd = &cobra.Command{
	Use:   "aop",
	Short: "View and edit AOP targets",
}

var aopListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the AOP targets visible to you",
	Args:  cobra.NoArgs,
	RunE:  runAOPList,
}

var aopUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Edit an AOP target; the target value is recomputed by the server",
	Example: `  sipctl aop update 12 --growth 15
  sipctl aop update 12 --py-actuals 125000.50 --comments "revised"`,
	Args: cobra.ExactArgs(1),
	RunE: runAOPUpdate,
}

func init() {
	f := aopUpdateCmd.Flags()
	f.String("ship-to", "", "Ship-to name")
	f.String("py-actuals", "", "Prior-year actuals")
	f.String("growth", "", "Growth percent")
	f.String("employee-id", "", "Owning employee id")
	f.String("region", "", "Region")
	f.String("comments", "", "Comments")

	aopCmd.AddCommand(aopListCmd)
	aopCmd.AddCommand(aopUpdateCmd)
}

func runAOPList(cmd *cobra.Command, _ []string) error {
	var targets []aopTarget
	if err := newClient().getJSON("/api/aop/", &targets); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if structured() {
		return printOutput(out, targets)
	}

	rows := make([][]string, len(targets))
	for i, t := range targets {
		growth := "-"
		if t.GrowthPercent != nil {
			growth = strconv.FormatFloat(*t.GrowthPercent, 'f', -1, 64) + "%"
		}
		rows[i] = []string{
			strconv.FormatUint(uint64(t.ID), 10), truncate(t.ShipTo, 28), t.EmployeeID, t.Region,
			money(t.PYActuals), growth, money(t.Target), truncate(t.Comments, 30),
		}
	}
	printTable(out, []string{"ID", "Ship To", "Emp ID", "Region", "PY Actuals", "Growth", "Target", "Comments"}, rows)
	return nil
}

// aopPatchFields maps flags onto PATCH body fields. Numeric fields are sent
// as strings so no precision is lost in transit.
var aopPatchFields = map[string]string{
	"ship-to":     "ship_to",
	"py-actuals":  "py_actuals",
	"growth":      "growth_percent",
	"employee-id": "employee_id",
	"region":      "region",
	"comments":    "comments",
}

func runAOPUpdate(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid target id %q", args[0])
	}

	patch := map[string]string{}
	for flag, field := range aopPatchFields {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetString(flag)
			patch[field] = v
		}
	}
	if len(patch) == 0 {
		return errors.New("nothing to update; pass at least one field flag")
	}

	var t aopTarget
	if err := newClient().sendJSON(http.MethodPatch, fmt.Sprintf("/api/aop/%d/", id), patch, &t); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if structured() {
		return printOutput(out, t)
	}
	fmt.Fprintf(out, "Target %d updated: %s\n", t.ID, money(t.Target))
	return nil
}
