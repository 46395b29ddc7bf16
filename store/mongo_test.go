package store_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/store"
	"github.com/junaidrashid-git/storefront-api/store/storetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMongo(t *testing.T) *store.MongoStore {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := store.OpenMongo(ctx, uri, "storefront_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	require.NoError(t, s.EnsureIndexes(ctx))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMongoAtomicCompensates(t *testing.T) {
	s := openMongo(t)
	ctx := context.Background()
	cat := storetest.Category(t, s, "Books")
	p := storetest.Product(t, s, cat.ID, "Go in Action", "10.00", 5)
	boom := errors.New("boom")

	err := s.Atomic(ctx, func(tx store.Store) error {
		if err := tx.AdjustStock(ctx, p.ID, -3); err != nil {
			return err
		}
		bill := &models.Bill{UserID: "u", Total: decimal.NewFromInt(30)}
		if err := tx.CreateBill(ctx, bill); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 5, storetest.Stock(t, s, p.ID))

	bills, err := s.ListBills(ctx, store.BillFilter{UserID: "u"})
	require.NoError(t, err)
	assert.Empty(t, bills)
}

func TestMongoAdjustStock(t *testing.T) {
	s := openMongo(t)
	ctx := context.Background()
	cat := storetest.Category(t, s, "Games")
	p := storetest.Product(t, s, cat.ID, "Chess", "25.00", 2)

	require.NoError(t, s.AdjustStock(ctx, p.ID, -2))
	assert.ErrorIs(t, s.AdjustStock(ctx, p.ID, -1), store.ErrInsufficientStock)
	assert.Equal(t, 0, storetest.Stock(t, s, p.ID))
}

func TestMongoAtomicRestoresUpdates(t *testing.T) {
	s := openMongo(t)
	ctx := context.Background()
	cat := storetest.Category(t, s, "Tools")
	p := storetest.Product(t, s, cat.ID, "Hammer", "12.00", 1)

	err := s.Atomic(ctx, func(tx store.Store) error {
		renamed := *p
		renamed.Name = "Sledgehammer"
		renamed.Price = decimal.RequireFromString("40.00")
		if err := tx.UpdateProduct(ctx, &renamed); err != nil {
			return err
		}
		if err := tx.DeleteCategory(ctx, cat.ID); err != nil {
			return err
		}
		return tx.AdjustStock(ctx, p.ID, -2)
	})
	assert.ErrorIs(t, err, store.ErrInsufficientStock)

	got, err := s.FindProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hammer", got.Name)
	assert.True(t, decimal.RequireFromString("12.00").Equal(got.Price), got.Price.String())
	assert.Equal(t, 1, got.Stock)

	_, err = s.FindCategory(ctx, cat.ID)
	assert.NoError(t, err, "category delete rolled back")
}

func TestMongoEmptyListsAreNotNil(t *testing.T) {
	s := openMongo(t)
	ctx := context.Background()

	bills, err := s.ListBills(ctx, store.BillFilter{UserID: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, bills)
	assert.Empty(t, bills)

	products, err := s.ListProducts(ctx, store.ProductFilter{Search: "nothing matches"})
	require.NoError(t, err)
	assert.NotNil(t, products)

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.NotNil(t, categories)
}
