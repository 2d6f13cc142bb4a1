package reports

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const exportSheet = "Penjualan"

var rupiah = message.NewPrinter(language.Indonesian)

func formatRupiah(v float64) string {
	return rupiah.Sprintf("Rp%.0f", v)
}

// buildWorkbook writes one row per sold item, currency columns
// formatted for Indonesian readers.
func buildWorkbook(rows []ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("reports: rename sheet: %w", err)
	}

	headers := []any{"Kode", "Tanggal", "Kasir", "Produk", "Jumlah", "Harga Jual", "Subtotal", "Total Transaksi"}
	if err := f.SetSheetRow(exportSheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("reports: header row: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("reports: cell name: %w", err)
		}
		values := []any{
			row.Code,
			row.SoldAt.Format("2006-01-02 15:04"),
			row.Cashier,
			row.ProductName,
			row.Quantity,
			formatRupiah(row.SellPrice),
			formatRupiah(row.LineTotal),
			formatRupiah(row.Total),
		}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("reports: data row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("reports: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
