package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/junaidrashid-git/storefront-api/apperrors"
	"github.com/junaidrashid-git/storefront-api/logging"
	"github.com/junaidrashid-git/storefront-api/store"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
)

const timeLayout = "2006-01-02 15:04:05"

var productHeaders = []string{"ID", "Name", "Description", "Price", "Stock", "CategoryID", "CreatedAt", "UpdatedAt"}

type ImportResult struct {
	Created int `json:"created_count"`
	Updated int `json:"updated_count"`
	Skipped int `json:"skipped_count"`
}

// ExportProducts writes every active product to a single-sheet workbook.
func (s *Service) ExportProducts(ctx context.Context, w io.Writer) error {
	products, err := s.store.ListProducts(ctx, store.ProductFilter{SortBy: store.SortByName})
	if err != nil {
		return translate(err, "Products")
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return apperrors.Internal(err, "Failed to create Excel sheet")
	}

	header := sheet.AddRow()
	for _, h := range productHeaders {
		header.AddCell().SetString(h)
	}
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Description)
		row.AddCell().SetFloat(p.Price.InexactFloat64())
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetString(p.CategoryID)
		row.AddCell().SetString(p.CreatedAt.Format(timeLayout))
		row.AddCell().SetString(p.UpdatedAt.Format(timeLayout))
	}

	if err := file.Write(w); err != nil {
		return apperrors.Internal(err, "Failed to write Excel file")
	}
	return nil
}

type importRow struct {
	id          string
	name        string
	description string
	price       decimal.Decimal
	stock       int
	category    string
}

func parseImportRow(row *xlsx.Row) (importRow, bool) {
	get := func(index int) string {
		if index < len(row.Cells) {
			return strings.TrimSpace(row.Cells[index].String())
		}
		return ""
	}

	price, err := decimal.NewFromString(get(3))
	if err != nil || price.IsNegative() {
		return importRow{}, false
	}
	stock, err := decimal.NewFromString(get(4))
	if err != nil || !stock.IsInteger() || stock.IsNegative() {
		return importRow{}, false
	}
	r := importRow{
		id:          get(0),
		name:        get(1),
		description: get(2),
		price:       price,
		stock:       int(stock.IntPart()),
		category:    get(5),
	}
	if r.name == "" || r.category == "" {
		return importRow{}, false
	}
	return r, true
}

// ImportProducts reads a workbook laid out like ExportProducts. Rows with the id of an
// active product update it, moving its stock to the sheet value through AdjustStock;
// other rows create products. The category column takes an id or a category name.
func (s *Service) ImportProducts(ctx context.Context, r io.ReaderAt, size int64) (ImportResult, error) {
	var result ImportResult

	file, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return result, apperrors.Validation("Failed to parse Excel file")
	}
	if len(file.Sheets) == 0 || file.Sheets[0].MaxRow < 2 {
		return result, apperrors.Validation("Excel file is empty or missing header row")
	}

	sheet := file.Sheets[0]
	for i := 1; i < sheet.MaxRow && i < len(sheet.Rows); i++ {
		row, ok := parseImportRow(sheet.Rows[i])
		if !ok {
			result.Skipped++
			continue
		}
		created, err := s.importRow(ctx, row)
		switch {
		case err != nil:
			logging.Log(logging.Fields{Service: "catalog", Step: "import_row", Status: "skipped", ProductID: row.id, Error: err.Error()})
			result.Skipped++
		case created:
			result.Created++
		default:
			result.Updated++
		}
	}

	logging.Log(logging.Fields{Service: "catalog", Step: "import", Status: "ok",
		Message: fmt.Sprintf("created %d updated %d skipped %d", result.Created, result.Updated, result.Skipped)})
	return result, nil
}

func (s *Service) resolveCategory(ctx context.Context, ref string) (string, error) {
	if id, err := ParseID("category", ref); err == nil {
		return s.activeCategory(ctx, id)
	}
	c, err := s.store.FindCategoryByName(ctx, ref)
	if err != nil {
		return "", translate(err, "Category")
	}
	return c.ID, nil
}

func (s *Service) importRow(ctx context.Context, row importRow) (bool, error) {
	categoryID, err := s.resolveCategory(ctx, row.category)
	if err != nil {
		return false, err
	}

	if row.id != "" {
		if id, err := ParseID("product id", row.id); err == nil {
			existing, err := s.store.FindProduct(ctx, id)
			if err == nil {
				return false, s.store.Atomic(ctx, func(tx store.Store) error {
					existing.Name = row.name
					existing.Description = row.description
					existing.Price = row.price
					existing.CategoryID = categoryID
					if err := tx.UpdateProduct(ctx, existing); err != nil {
						return err
					}
					if delta := row.stock - existing.Stock; delta != 0 {
						return tx.AdjustStock(ctx, id, delta)
					}
					return nil
				})
			}
			if !errors.Is(err, store.ErrNotFound) {
				return false, err
			}
		}
	}

	_, err = s.CreateProduct(ctx, ProductInput{
		Name:        row.name,
		Description: row.description,
		Price:       row.price,
		Stock:       row.stock,
		CategoryID:  categoryID,
	})
	return err == nil, err
}
