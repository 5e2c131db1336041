package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var regionFlag string

type summaryResponse struct {
	PaidTotal        float64 `json:"paid_total"`
	PendingApprovals int     `json:"pending_approvals"`
	SuccessRate      float64 `json:"success_rate"`
}

type recordRow struct {
	EmployeeID   string  `json:"Emp ID"`
	Name         string  `json:"Emp Name"`
	Region       string  `json:"Region"`
	Revenue      float64 `json:"Revenue"`
	GrossProfit  float64 `json:"GP"`
	PayoutAmount float64 `json:"SIP Payout Amount"`
	Approval     string  `json:"Approval"`
	Paid         string  `json:"SIP Paid"`
	Role         string  `json:"Role"`
}

type recordsResponse struct {
	Data   []recordRow        `json:"data"`
	Totals map[string]float64 `json:"totals"`
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show paid total, pending approvals and success rate",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

var recordsCmd = &cobra.Command{
	Use:     "records",
	Aliases: []string{"raw-data"},
	Short:   "List the consolidated payout records visible to you",
	Args:    cobra.NoArgs,
	RunE:    runRecords,
}

var slipOut string

var slipCmd = &cobra.Command{
	Use:   "slip EMP_ID",
	Short: "Download an employee's payout slip PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runSlip,
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recently uploaded payout file",
	Args:  cobra.NoArgs,
	RunE:  runLatest,
}

func init() {
	summaryCmd.Flags().StringVar(&regionFlag, "region", "", "Narrow to one region")
	recordsCmd.Flags().StringVar(&regionFlag, "region", "", "Narrow to one region")
	slipCmd.Flags().StringVarP(&slipOut, "out", "f", "", "Output file (default sip_slip_<id>.pdf)")
}

func regionQuery() string {
	if regionFlag == "" {
		return ""
	}
	return "?" + url.Values{"region": {regionFlag}}.Encode()
}

func runSummary(cmd *cobra.Command, _ []string) error {
	var s summaryResponse
	if err := newClient().getJSON("/api/summary/"+regionQuery(), &s); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if structured() {
		return printOutput(out, s)
	}
	printTable(out, []string{"Paid Total", "Pending Approvals", "Success Rate"},
		[][]string{{money(s.PaidTotal), strconv.Itoa(s.PendingApprovals), money(s.SuccessRate) + "%"}})
	return nil
}

func runRecords(cmd *cobra.Command, _ []string) error {
	var r recordsResponse
	if err := newClient().getJSON("/api/raw-data/"+regionQuery(), &r); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if structured() {
		return printOutput(out, r)
	}

	rows := make([][]string, 0, len(r.Data)+1)
	for _, rec := range r.Data {
		rows = append(rows, []string{
			rec.EmployeeID, truncate(rec.Name, 24), rec.Region, rec.Role,
			money(rec.Revenue), money(rec.GrossProfit), money(rec.PayoutAmount),
			rec.Approval, rec.Paid,
		})
	}
	rows = append(rows, []string{
		"TOTAL", "", "", "",
		money(r.Totals["Revenue"]), money(r.Totals["GP"]), money(r.Totals["SIP Payout Amount"]),
		"", "",
	})
	printTable(out, []string{"Emp ID", "Name", "Region", "Role", "Revenue", "GP", "Payout", "Approval", "Paid"}, rows)
	return nil
}

func runSlip(cmd *cobra.Command, args []string) error {
	id := args[0]
	data, err := newClient().download("/api/pdf/" + url.PathEscape(id) + "/")
	if err != nil {
		return err
	}
	path := slipOut
	if path == "" {
		path = fmt.Sprintf("sip_slip_%s.pdf", id)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(data))
	return nil
}

func runLatest(cmd *cobra.Command, _ []string) error {
	var latest struct {
		Filename   string `json:"filename"`
		UploadedAt string `json:"uploaded_at"`
	}
	if err := newClient().getJSON("/api/latest-file/", &latest); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if structured() {
		return printOutput(out, latest)
	}
	printTable(out, []string{"Filename", "Uploaded At"}, [][]string{{latest.Filename, latest.UploadedAt}})
	return nil
}
