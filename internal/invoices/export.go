package invoices

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

var exportHeadings = []string{
	"Doc Number", "Client", "Status", "Invoice Date", "Due Date",
	"Sub Total", "Discount", "VAT", "Grand Total", "Paid", "Balance", "Currency",
}

// BuildWorkbook renders the invoice list into a single-sheet XLSX workbook.
// The caller owns the returned file and must Close it.
func BuildWorkbook(items []Invoice) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Invoices"
	f.SetSheetName("Sheet1", sheet)

	for i, heading := range exportHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, heading); err != nil {
			return nil, err
		}
	}

	for row, inv := range items {
		values := []interface{}{
			inv.DocNumber,
			inv.ClientName,
			string(inv.Status),
			inv.InvoiceDate.Format("2006-01-02"),
			inv.DueDate.Format("2006-01-02"),
			inv.SubTotal,
			inv.Discount,
			inv.VATAmount,
			inv.GrandTotal,
			inv.TotalPaid,
			inv.Balance(),
			inv.Currency,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
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
