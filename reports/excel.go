package reports

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func renderXLSX(title string, rows []row, total decimal.Decimal) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Sheet1"
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, err
	}

	f.SetCellValue(sheet, "A1", title)

	// Add headers
	f.SetCellValue(sheet, "A2", "InvoiceNo")
	f.SetCellValue(sheet, "B2", "Date")
	f.SetCellValue(sheet, "C2", "Party")
	f.SetCellValue(sheet, "D2", "Store")
	f.SetCellValue(sheet, "E2", "Payment")
	f.SetCellValue(sheet, "F2", "Amount")

	// Add data
	for i, r := range rows {
		f.SetCellValue(sheet, "A"+fmt.Sprint(i+3), r.InvoiceNo)
		f.SetCellValue(sheet, "B"+fmt.Sprint(i+3), r.Date)
		f.SetCellValue(sheet, "C"+fmt.Sprint(i+3), r.Party)
		f.SetCellValue(sheet, "D"+fmt.Sprint(i+3), r.Store)
		f.SetCellValue(sheet, "E"+fmt.Sprint(i+3), r.Payment)
		f.SetCellValue(sheet, "F"+fmt.Sprint(i+3), r.Amount.StringFixed(2))
	}

	totalRow := len(rows) + 3
	f.SetCellValue(sheet, "E"+fmt.Sprint(totalRow), "Total")
	f.SetCellValue(sheet, "F"+fmt.Sprint(totalRow), total.StringFixed(2))

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
