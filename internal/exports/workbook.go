package exports

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/gerai-erp/gerai-erp/internal/orders"
	"github.com/gerai-erp/gerai-erp/internal/shared"
)

// buildOrdersWorkbook renders the order book into a single-sheet workbook.
func buildOrdersWorkbook(items []orders.Order) *excelize.File {
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Nomor")
	f.SetCellValue("Sheet1", "B1", "Pelanggan")
	f.SetCellValue("Sheet1", "C1", "Status")
	f.SetCellValue("Sheet1", "D1", "Total")
	f.SetCellValue("Sheet1", "E1", "Kanal")
	f.SetCellValue("Sheet1", "F1", "Dibuat")

	for i, o := range items {
		row := fmt.Sprint(i + 2)
		f.SetCellValue("Sheet1", "A"+row, o.Number)
		f.SetCellValue("Sheet1", "B"+row, o.CustomerName)
		f.SetCellValue("Sheet1", "C"+row, string(o.Status))
		f.SetCellValue("Sheet1", "D"+row, shared.FormatRupiah(o.Total))
		f.SetCellValue("Sheet1", "E"+row, o.Channel)
		f.SetCellValue("Sheet1", "F"+row, o.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return f
}
