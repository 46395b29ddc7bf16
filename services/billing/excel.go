package billing

import (
	"context"
	"io"

	"github.com/junaidrashid-git/storefront-api/apperrors"
	"github.com/tealeg/xlsx"
)

// ExportBills writes one row per bill line to the "Bills" sheet.
func (s *Service) ExportBills(ctx context.Context, w io.Writer) error {
	bills, err := s.ListAll(ctx, "")
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Bills")
	if err != nil {
		return apperrors.Internal(err, "Failed to create Excel sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"BillID", "UserID", "Status", "CreatedAt", "ProductID", "ProductName", "Quantity", "Price", "Subtotal", "Total"} {
		header.AddCell().SetString(h)
	}
	for _, b := range bills {
		for _, l := range b.Lines {
			row := sheet.AddRow()
			row.AddCell().SetString(b.ID)
			row.AddCell().SetString(b.UserID)
			row.AddCell().SetString(string(b.Status))
			row.AddCell().SetString(b.CreatedAt.Format("2006-01-02 15:04:05"))
			row.AddCell().SetString(l.ProductID)
			row.AddCell().SetString(l.ProductName)
			row.AddCell().SetInt(l.Quantity)
			row.AddCell().SetFloat(l.Price.InexactFloat64())
			row.AddCell().SetFloat(l.Subtotal.InexactFloat64())
			row.AddCell().SetFloat(b.Total.InexactFloat64())
		}
	}

	if err := file.Write(w); err != nil {
		return apperrors.Internal(err, "Failed to write Excel file")
	}
	return nil
}
