package statements

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ledgerline/ledgerline/internal/platform/money"
)

// BuildWorkbook renders a statement into an XLSX workbook with a summary
// block followed by one row per outstanding invoice.
func BuildWorkbook(st *Statement) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Statement"
	f.SetSheetName("Sheet1", sheet)

	summary := [][]interface{}{
		{"Statement", st.DocNumber},
		{"Client", st.ClientName},
		{"Period", st.PeriodStart.Format("2006-01-02") + " to " + st.PeriodEnd.Format("2006-01-02")},
		{"Total Invoiced", money.Format(st.TotalInvoiced, st.Currency)},
		{"Total Paid", money.Format(st.TotalPaid, st.Currency)},
		{"Closing Balance", money.Format(st.ClosingBalance, st.Currency)},
	}
	for row, pair := range summary {
		for col, value := range pair {
			cell, err := excelize.CoordinatesToCellName(col+1, row+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	headings := []string{"Invoice", "Invoice Date", "Due Date", "Total", "Paid", "Balance"}
	headerRow := len(summary) + 2
	for col, heading := range headings {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, heading); err != nil {
			return nil, err
		}
	}

	for i, line := range st.Lines {
		values := []interface{}{
			line.InvoiceNumber,
			line.InvoiceDate.Format("2006-01-02"),
			line.DueDate.Format("2006-01-02"),
			line.GrandTotal,
			line.TotalPaid,
			line.Balance,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, headerRow+1+i)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	return f, nil
}
