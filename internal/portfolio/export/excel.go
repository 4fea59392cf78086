package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Portfolio"

// WriteExcel renders the statement as an XLSX workbook with a frozen,
// filterable header row.
func WriteExcel(w io.Writer, s Statement) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	// Summary block
	f.SetCellValue(sheetName, "A1", "CarbonChain Portfolio Statement")
	f.SetCellValue(sheetName, "A2", "Account")
	f.SetCellValue(sheetName, "B2", s.UserID)
	f.SetCellValue(sheetName, "A3", "Total quantity (tCO2)")
	f.SetCellValue(sheetName, "B3", s.TotalQuantity)
	f.SetCellValue(sheetName, "A4", "Total value (USD)")
	f.SetCellValue(sheetName, "B4", s.TotalValue)
	f.SetCellValue(sheetName, "A5", "Purchases")
	f.SetCellValue(sheetName, "B5", s.TotalPurchases)

	// Purchase table
	const headerRow = 7
	headers := []string{"Purchase ID", "Date", "Project", "Registry", "Quantity", "Price/t", "Total"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return err
		}
		f.SetCellValue(sheetName, cell, header)
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
	startHeader, _ := excelize.CoordinatesToCellName(1, headerRow)
	f.SetCellStyle(sheetName, startHeader, endHeader, headerStyle)
	f.AutoFilter(sheetName, fmt.Sprintf("%s:%s", startHeader, endHeader), nil)

	for i, line := range s.Lines {
		row := headerRow + 1 + i
		values := []interface{}{
			line.PurchaseID,
			line.PurchaseDate.Format("2006-01-02"),
			line.ProjectName,
			line.Registry,
			line.Quantity,
			line.PricePerTon,
			line.TotalPrice,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			f.SetCellValue(sheetName, cell, value)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 28)
	f.SetColWidth(sheetName, "C", "C", 36)

	return f.Write(w)
}
