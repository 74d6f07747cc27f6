// Package export writes monthly tax results to spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// ContentType is the MIME type of the produced workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheet = "Results"

var header = []any{"Period", "Category", "Total sold", "Net profit", "Loss used", "Tax base", "Tax due", "Exempt"}

// WriteResults writes one row per monthly result, followed by a total tax row.
// Amounts are written as numbers so the sheet can be summed.
func WriteResults(w io.Writer, year int, results []model.MonthlyResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	_ = f.SetCellStyle(sheet, "A1", "H1", bold)

	row := 2
	for _, r := range results {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []any{
			r.Period().Label(),
			r.Category.String(),
			r.TotalSold.InexactFloat64(),
			r.NetProfit.InexactFloat64(),
			r.LossUsed.InexactFloat64(),
			r.TaxBase.InexactFloat64(),
			r.TaxDue.InexactFloat64(),
			r.Exempt,
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
		row++
	}

	if len(results) > 0 {
		_ = f.SetCellStyle(sheet, "C2", fmt.Sprintf("G%d", row-1), money)
	}

	totalLabel, _ := excelize.CoordinatesToCellName(6, row)
	totalCell, _ := excelize.CoordinatesToCellName(7, row)
	if err := f.SetCellValue(sheet, totalLabel, fmt.Sprintf("Total %d", year)); err != nil {
		return err
	}
	formula := "0"
	if len(results) > 0 {
		formula = fmt.Sprintf("SUM(G2:G%d)", row-1)
	}
	if err := f.SetCellFormula(sheet, totalCell, formula); err != nil {
		return fmt.Errorf("failed to write total: %w", err)
	}
	_ = f.SetCellStyle(sheet, totalLabel, totalCell, bold)

	if err := f.SetColWidth(sheet, "A", "H", 16); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
