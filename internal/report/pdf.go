package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// dateLayout is the single locale format used for every date in the export.
const dateLayout = "02 Jan 2006"

// FileName builds the export file name from the partner name and export
// date, with whitespace in the name collapsed to underscores.
func FileName(r *Report) string {
	name := strings.Join(strings.Fields(r.Header.PartnerName), "_")
	return fmt.Sprintf("%s_Activity_Report_%s.pdf", name, r.Header.ExportedAt.Format("2006-01-02"))
}

// formatRupees renders a paise amount as rupees. The built-in PDF fonts have
// no rupee glyph, so the textual "Rs" prefix is used.
func formatRupees(paise int64) string {
	return fmt.Sprintf("Rs %.2f", float64(paise)/100)
}

// RenderPDF renders a compiled report as a paginated PDF document. The
// document is assembled fully in memory; nothing is emitted on error.
func RenderPDF(r *Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, "Partner Activity Report", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Export Date: "+r.Header.ExportedAt.Format(dateLayout), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	sectionTitle(pdf, "Partner Information")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Name: "+r.Header.PartnerName, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Email: "+r.Header.Email, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Stage: "+string(r.Header.Stage), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Total Earnings: "+formatRupees(r.Header.EarningsTotal), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	sectionTitle(pdf, "Outreach Activity Summary")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total Outreach: %d", r.Outreach.TotalOutreach), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total Interested: %d", r.Outreach.TotalInterested), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total Logs: %d", r.Outreach.Entries), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if len(r.Earnings) > 0 {
		breakIfNeeded(pdf)
		sectionTitle(pdf, "Earnings History")

		headers := []string{"Date", "Client", "Deal Value", "Commission %", "Amount", "Status"}
		widths := []float64{24, 48, 30, 26, 30, 24}
		rows := make([][]string, 0, len(r.Earnings))
		for _, e := range r.Earnings {
			rows = append(rows, []string{
				e.ClosedDate.Format(dateLayout),
				e.ClientName,
				formatRupees(e.DealValue),
				fmt.Sprintf("%d%%", e.CommissionPercentage),
				formatRupees(e.Amount),
				string(e.Status),
			})
		}
		drawTable(pdf, headers, widths, rows)
		pdf.Ln(4)
	}

	if len(r.Leads) > 0 {
		breakIfNeeded(pdf)
		sectionTitle(pdf, "Leads Summary")

		headers := []string{"Date", "Business", "Contact", "Source", "Status"}
		widths := []float64{24, 54, 42, 36, 26}
		rows := make([][]string, 0, len(r.Leads))
		for _, l := range r.Leads {
			contact := l.ContactPerson
			if contact == "" {
				contact = "N/A"
			}
			rows = append(rows, []string{
				l.CreatedAt.Format(dateLayout),
				l.BusinessName,
				contact,
				l.SourcePlatform,
				string(l.Status),
			})
		}
		drawTable(pdf, headers, widths, rows)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func breakIfNeeded(pdf *gofpdf.Fpdf) {
	if pdf.GetY() > 250 {
		pdf.AddPage()
	}
}

func drawTable(pdf *gofpdf.Fpdf, headers []string, widths []float64, rows [][]string) {
	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(66, 66, 66)
		pdf.SetTextColor(255, 255, 255)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(0, 0, 0)
	}

	drawHeader()
	for _, row := range rows {
		if pdf.GetY() > 270 {
			pdf.AddPage()
			drawHeader()
		}
		for i, cell := range row {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
