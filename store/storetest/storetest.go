// Package storetest provides an in-memory SQLite store and fixtures for tests.
package storetest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// New opens a private in-memory database with the schema migrated.
func New(t *testing.T) *store.GormStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	s, err := store.OpenSQLite(dsn)
	require.NoError(t, err, "open sqlite")

	sqlDB, err := s.DB().DB()
	require.NoError(t, err)
	// One connection keeps the shared-cache database alive and serializes writers, so
	// tests against this store never overlap two transactions. Use Postgres for that.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, s.Migrate(), "migrate")
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s
}

// Postgres opens a throwaway schema on the server named by POSTGRES_TEST_DSN, a
// key=value DSN. Transactions on it run concurrently. The test is skipped when the
// variable is unset.
func Postgres(t *testing.T) *store.GormStore {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	admin, err := store.OpenPostgres(dsn)
	require.NoError(t, err, "open postgres")
	schema := "storefront_test_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	require.NoError(t, admin.DB().Exec("CREATE SCHEMA "+schema).Error)

	s, err := store.OpenPostgres(dsn + " search_path=" + schema)
	require.NoError(t, err, "open postgres schema")
	require.NoError(t, s.Migrate(), "migrate")
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
		if err := admin.DB().Exec("DROP SCHEMA " + schema + " CASCADE").Error; err != nil {
			t.Errorf("drop schema: %v", err)
		}
		if err := admin.Close(); err != nil {
			t.Errorf("close admin store: %v", err)
		}
	})
	return s
}

func Category(t *testing.T, s store.Store, name string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name, Description: "Category used by tests"}
	require.NoError(t, s.CreateCategory(context.Background(), c))
	return c
}

func Product(t *testing.T, s store.Store, categoryID, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:        name,
		Description: "Product used by tests",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		CategoryID:  categoryID,
	}
	require.NoError(t, s.CreateProduct(context.Background(), p))
	return p
}

func User(t *testing.T, s store.Store, username string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Name:         "Test",
		Surname:      "User",
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		Role:         role,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

// Stock reads a product's stock regardless of its lifecycle.
func Stock(t *testing.T, s store.Store, productID string) int {
	t.Helper()
	products, err := s.ProductsByID(context.Background(), []string{productID})
	require.NoError(t, err)
	p, ok := products[productID]
	require.True(t, ok, "product %s not found", productID)
	return p.Stock
}
