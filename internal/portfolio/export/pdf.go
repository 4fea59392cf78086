package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfDateFormat = "2006-01-02"
	pdfFont       = "Arial"
)

// WritePDF renders the statement as an A4 portrait PDF
func WritePDF(w io.Writer, s Statement) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	// Title block
	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 10, "CarbonChain Portfolio Statement", "", 1, "C", false, 0, "")
	pdf.SetFont(pdfFont, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Account: %s", s.UserID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", s.GeneratedAt.Format(pdfDateFormat)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Summary
	pdf.SetFont(pdfFont, "B", 11)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont(pdfFont, "", 10)
	pdf.CellFormat(60, 6, fmt.Sprintf("Total quantity: %d tCO2", s.TotalQuantity), "", 0, "L", false, 0, "")
	pdf.CellFormat(60, 6, fmt.Sprintf("Total value: $%.2f", s.TotalValue), "", 0, "L", false, 0, "")
	pdf.CellFormat(60, 6, fmt.Sprintf("Purchases: %d", s.TotalPurchases), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Purchase table
	headers := []string{"Date", "Project", "Registry", "Qty (t)", "$/t", "Total"}
	widths := []float64{22, 62, 32, 20, 20, 24}

	pdf.SetFont(pdfFont, "B", 10)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(pdfFont, "", 9)
	pdf.SetTextColor(0, 0, 0)
	fill := false
	pdf.SetFillColor(242, 242, 242)
	for _, line := range s.Lines {
		cells := []string{
			line.PurchaseDate.Format(pdfDateFormat),
			line.ProjectName,
			line.Registry,
			fmt.Sprintf("%d", line.Quantity),
			fmt.Sprintf("%.2f", line.PricePerTon),
			fmt.Sprintf("%.2f", line.TotalPrice),
		}
		for i, cell := range cells {
			align := "L"
			if i >= 3 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, cell, "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
		fill = !fill
	}

	if len(s.Lines) == 0 {
		pdf.CellFormat(180, 6, "No purchases recorded", "1", 1, "C", false, 0, "")
	}

	return pdf.Output(w)
}
