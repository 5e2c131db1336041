// Package render lays out payout slips as PDF documents.
package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/sipcass/sipcass/pkg/payout"
)

// SlipTitle heads every payout slip.
const SlipTitle = "EMPLOYEE SIP PAYOUT SLIP"

// PDFRenderer renders payout slips with fpdf.
type PDFRenderer struct {
	now func() time.Time
}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{now: time.Now}
}

// RenderSlip lays out s as a titled two-column label/value table with a
// generation timestamp footer.
func (r *PDFRenderer) RenderSlip(s payout.Slip) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle(SlipTitle, true)
	pdf.SetCreator("sipcass", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 12, SlipTitle, "", 1, "C", false, 0, "")
	pdf.Ln(6)

	fields := slipFields(s, pdf.UnicodeTranslatorFromDescriptor(""))

	const labelWidth, valueWidth, rowHeight = 60.0, 110.0, 10.0
	for _, f := range fields {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetFillColor(235, 235, 235)
		pdf.CellFormat(labelWidth, rowHeight, f[0], "1", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(valueWidth, rowHeight, f[1], "1", 1, "L", false, 0, "")
	}

	pdf.Ln(12)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "Generated on "+r.now().Format("2006-01-02 15:04:05 MST"), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// slipFields returns the label/value rows of s with values passed through
// tr. The core fonts only cover cp1252, so UTF-8 names and regions are
// translated before they reach the page.
func slipFields(s payout.Slip, tr func(string) string) [][2]string {
	role := s.Role
	if role == "" {
		role = "Unknown"
	}
	return [][2]string{
		{"Employee ID", tr(s.EmployeeID)},
		{"Name", tr(s.Name)},
		{"Role", tr(role)},
		{"Region", tr(s.Region)},
		{"SIP Payout Amount", "$" + s.PayoutAmount.StringFixedBank(2)},
	}
}
