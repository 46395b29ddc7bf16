package catalog_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/junaidrashid-git/storefront-api/apperrors"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
	"github.com/junaidrashid-git/storefront-api/store"
	"github.com/junaidrashid-git/storefront-api/store/storetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func TestDeleteCategoryReassignsProducts(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	svc := catalog.New(s)

	c := storetest.Category(t, s, "Shoes")
	p1 := storetest.Product(t, s, c.ID, "Runner", "10.00", 3)
	p2 := storetest.Product(t, s, c.ID, "Boot", "20.00", 4)

	moved, err := svc.DeleteCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, moved)

	fallback, err := s.FindCategoryByName(ctx, models.FallbackCategoryName)
	require.NoError(t, err)

	for _, id := range []string{p1.ID, p2.ID} {
		p, err := svc.GetProduct(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, fallback.ID, p.CategoryID)
		assert.Equal(t, models.LifecycleActive, p.Lifecycle)
	}

	_, err = svc.GetCategory(ctx, c.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	// second delete: the category is already gone
	_, err = svc.DeleteCategory(ctx, c.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestDeleteCategoryReusesFallback(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	svc := catalog.New(s)

	a := storetest.Category(t, s, "Hats")
	b := storetest.Category(t, s, "Gloves")
	storetest.Product(t, s, a.ID, "Cap", "5.00", 1)
	storetest.Product(t, s, b.ID, "Mitten", "7.00", 1)

	_, err := svc.DeleteCategory(ctx, a.ID)
	require.NoError(t, err)
	_, err = svc.DeleteCategory(ctx, b.ID)
	require.NoError(t, err)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, models.FallbackCategoryName, categories[0].Name)

	products, err := svc.ListProducts(ctx, store.ProductFilter{CategoryID: categories[0].ID})
	require.NoError(t, err)
	assert.Len(t, products, 2)

	_, err = svc.DeleteCategory(ctx, categories[0].ID)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
}

func TestCreateProductRequiresActiveCategory(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	svc := catalog.New(s)

	in := catalog.ProductInput{Name: "Lamp", Description: "A desk lamp", Price: decimal.NewFromInt(12), Stock: 2}

	in.CategoryID = "not-a-uuid"
	_, err := svc.CreateProduct(ctx, in)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidReference))

	in.CategoryID = uuid.NewString()
	_, err = svc.CreateProduct(ctx, in)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	c := storetest.Category(t, s, "Lighting")
	in.CategoryID = c.ID
	p, err := svc.CreateProduct(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stock)

	_, err = svc.CreateProduct(ctx, in)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict), "duplicate name")

	in.Name = "Negative"
	in.Stock = -1
	_, err = svc.CreateProduct(ctx, in)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestUpdateProductKeepsStock(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	svc := catalog.New(s)

	c := storetest.Category(t, s, "Kitchen")
	p := storetest.Product(t, s, c.ID, "Kettle", "30.00", 6)

	price := decimal.RequireFromString("0")
	name := "Electric kettle"
	updated, err := svc.UpdateProduct(ctx, p.ID, catalog.ProductPatch{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Electric kettle", updated.Name)
	assert.True(t, updated.Price.IsZero())
	assert.Equal(t, 6, updated.Stock)
	assert.Equal(t, "Product used by tests", updated.Description)

	missing := uuid.NewString()
	_, err = svc.UpdateProduct(ctx, p.ID, catalog.ProductPatch{CategoryID: &missing})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestAdjustStock(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	svc := catalog.New(s)

	c := storetest.Category(t, s, "Garden")
	p := storetest.Product(t, s, c.ID, "Shovel", "15.00", 2)

	got, err := svc.AdjustStock(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)

	_, err = svc.AdjustStock(ctx, p.ID, -8)
	require.True(t, apperrors.Is(err, apperrors.KindInsufficientStock))
	assert.Contains(t, err.Error(), "Available: 7, Requested: 8")
	assert.Equal(t, 7, storetest.Stock(t, s, p.ID))

	_, err = svc.AdjustStock(ctx, p.ID, 0)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	_, err = svc.AdjustStock(ctx, p.ID, 1)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.True(t, apperrors.Is(svc.DeleteProduct(ctx, p.ID), apperrors.KindNotFound))
}

func TestLowStock(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	svc := catalog.New(s)

	c := storetest.Category(t, s, "Office")
	storetest.Product(t, s, c.ID, "Stapler", "4.00", 1)
	storetest.Product(t, s, c.ID, "Paper", "6.00", 50)
	storetest.Product(t, s, c.ID, "Pen", "1.00", 5)

	low, err := svc.LowStock(ctx, 5)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Stapler", low[0].Name)
	assert.Equal(t, "Pen", low[1].Name)
}

func TestExportImportProducts(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	svc := catalog.New(s)

	c := storetest.Category(t, s, "Books")
	p := storetest.Product(t, s, c.ID, "Atlas", "25.50", 4)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportProducts(ctx, &buf))

	exported, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet := exported.Sheets[0]
	require.Equal(t, 2, sheet.MaxRow)
	assert.Equal(t, "ID", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, p.ID, sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "Atlas", sheet.Rows[1].Cells[1].String())

	file := xlsx.NewFile()
	in, err := file.AddSheet("Products")
	require.NoError(t, err)
	for _, cells := range [][]string{
		{"ID", "Name", "Description", "Price", "Stock", "CategoryID"},
		{p.ID, "Atlas", "World atlas, revised", "30", "9", c.ID},
		{"", "Novel", "A long story", "12.5", "3", "Books"},
		{"", "Broken", "Bad price", "abc", "1", c.ID},
		{"", "Orphan", "Unknown category", "1", "1", "Nowhere"},
	} {
		row := in.AddRow()
		for _, v := range cells {
			row.AddCell().SetString(v)
		}
	}
	var upload bytes.Buffer
	require.NoError(t, file.Write(&upload))

	result, err := svc.ImportProducts(ctx, bytes.NewReader(upload.Bytes()), int64(upload.Len()))
	require.NoError(t, err)
	assert.Equal(t, catalog.ImportResult{Created: 1, Updated: 1, Skipped: 2}, result)

	atlas, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, atlas.Stock)
	assert.True(t, decimal.NewFromInt(30).Equal(atlas.Price))
	assert.Equal(t, "World atlas, revised", atlas.Description)

	products, err := svc.ListProducts(ctx, store.ProductFilter{Search: "novel"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, c.ID, products[0].CategoryID)
}

func TestImportRejectsGarbage(t *testing.T) {
	svc := catalog.New(storetest.New(t))
	data := []byte("not a workbook")
	_, err := svc.ImportProducts(context.Background(), bytes.NewReader(data), int64(len(data)))
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

// vanishingStore soft-deletes a product right after each write, so the service's
// re-read finds nothing.
type vanishingStore struct {
	store.Store
}

func (v vanishingStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	if err := v.Store.UpdateProduct(ctx, p); err != nil {
		return err
	}
	return v.Store.DeleteProduct(ctx, p.ID)
}

func (v vanishingStore) AdjustStock(ctx context.Context, id string, delta int) error {
	if err := v.Store.AdjustStock(ctx, id, delta); err != nil {
		return err
	}
	return v.Store.DeleteProduct(ctx, id)
}

func TestProductDeletedBeforeReread(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	c := storetest.Category(t, s, "Garden")
	svc := catalog.New(vanishingStore{s})

	p := storetest.Product(t, s, c.ID, "Rake", "9.00", 4)
	name := "Leaf rake"
	_, err := svc.UpdateProduct(ctx, p.ID, catalog.ProductPatch{Name: &name})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	q := storetest.Product(t, s, c.ID, "Hoe", "7.00", 4)
	_, err = svc.AdjustStock(ctx, q.ID, 2)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
