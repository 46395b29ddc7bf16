package billing_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/junaidrashid-git/storefront-api/apperrors"
	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/services/billing"
	"github.com/junaidrashid-git/storefront-api/services/cart"
	"github.com/junaidrashid-git/storefront-api/store"
	"github.com/junaidrashid-git/storefront-api/store/storetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	store    store.Store
	svc      *billing.Service
	carts    *cart.Service
	events   *recorder
	user     *models.User
	category *models.Category
}

func setup(t *testing.T) *fixture {
	t.Helper()
	s := storetest.New(t)
	rec := &recorder{}
	return &fixture{
		store:    s,
		svc:      billing.New(s, rec),
		carts:    cart.New(s),
		events:   rec,
		user:     storetest.User(t, s, "buyer", models.RoleClient),
		category: storetest.Category(t, s, "General"),
	}
}

func explicit(lines ...billing.Line) billing.OrderSource {
	return billing.ExplicitItems(lines)
}

func TestCheckoutScenario(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := storetest.Product(t, f.store, f.category.ID, "Product A", "10.00", 5)

	first, err := f.svc.Checkout(ctx, f.user.ID, explicit(billing.Line{ProductID: a.ID, Quantity: 3}))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("30.00").Equal(first.Total))
	assert.Equal(t, models.BillStatusPending, first.Status)
	assert.Equal(t, 2, storetest.Stock(t, f.store, a.ID))

	_, err = f.svc.Checkout(ctx, f.user.ID, explicit(billing.Line{ProductID: a.ID, Quantity: 3}))
	require.True(t, apperrors.Is(err, apperrors.KindInsufficientStock))
	assert.Contains(t, err.Error(), "Available: 2, Requested: 3")
	assert.Equal(t, 2, storetest.Stock(t, f.store, a.ID))

	_, err = f.svc.UpdateStatus(ctx, first.ID, "CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, 5, storetest.Stock(t, f.store, a.ID))

	assert.Equal(t, []string{events.BillCreated, events.BillStatusChanged}, f.events.types())
}

func TestCheckoutTotalsAndSnapshots(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := storetest.Product(t, f.store, f.category.ID, "Pencil", "1.25", 10)
	b := storetest.Product(t, f.store, f.category.ID, "Notebook", "3.40", 10)

	bill, err := f.svc.Checkout(ctx, f.user.ID, explicit(
		billing.Line{ProductID: a.ID, Quantity: 4},
		billing.Line{ProductID: b.ID, Quantity: 3},
	))
	require.NoError(t, err)

	stored, err := f.svc.GetBill(ctx, auth.Principal{ID: f.user.ID, Role: models.RoleClient}, bill.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 2)
	assert.Equal(t, "Pencil", stored.Lines[0].ProductName)
	assert.True(t, decimal.RequireFromString("5.00").Equal(stored.Lines[0].Subtotal))
	assert.True(t, decimal.RequireFromString("10.20").Equal(stored.Lines[1].Subtotal))
	assert.True(t, stored.SumSubtotals().Equal(stored.Total))
	for _, l := range stored.Lines {
		assert.True(t, l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))).Equal(l.Subtotal))
	}

	// later price changes do not touch the bill
	price := decimal.NewFromInt(99)
	require.NoError(t, f.store.UpdateProduct(ctx, &models.Product{ID: a.ID, Name: "Pencil", Description: "x", Price: price, CategoryID: f.category.ID}))
	again, err := f.svc.GetBill(ctx, auth.Principal{ID: f.user.ID}, bill.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1.25").Equal(again.Lines[0].Price))
}

func TestCheckoutFailureLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := storetest.Product(t, f.store, f.category.ID, "Plenty", "2.00", 10)
	b := storetest.Product(t, f.store, f.category.ID, "Scarce", "2.00", 1)

	_, err := f.svc.Checkout(ctx, f.user.ID, explicit(
		billing.Line{ProductID: a.ID, Quantity: 4},
		billing.Line{ProductID: b.ID, Quantity: 2},
	))
	require.True(t, apperrors.Is(err, apperrors.KindInsufficientStock))
	assert.Contains(t, err.Error(), "Scarce")

	assert.Equal(t, 10, storetest.Stock(t, f.store, a.ID))
	assert.Equal(t, 1, storetest.Stock(t, f.store, b.ID))
	bills, err := f.svc.ListMine(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, bills)
	assert.Empty(t, f.events.types())
}

func TestCheckoutErrors(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := storetest.Product(t, f.store, f.category.ID, "Item", "2.00", 10)
	gone := storetest.Product(t, f.store, f.category.ID, "Gone", "2.00", 10)
	require.NoError(t, f.store.DeleteProduct(ctx, gone.ID))

	tests := []struct {
		name string
		src  billing.OrderSource
		kind apperrors.Kind
	}{
		{"empty explicit list and no cart", billing.ExplicitItems(nil), apperrors.KindEmptyOrder},
		{"cart without a cart", billing.FromCart(), apperrors.KindEmptyOrder},
		{"malformed id", explicit(billing.Line{ProductID: "123", Quantity: 1}), apperrors.KindInvalidReference},
		{"missing id", explicit(billing.Line{Quantity: 1}), apperrors.KindInvalidReference},
		{"unknown product", explicit(billing.Line{ProductID: uuid.NewString(), Quantity: 1}), apperrors.KindNotFound},
		{"deleted product", explicit(billing.Line{ProductID: gone.ID, Quantity: 1}), apperrors.KindNotFound},
		{"zero quantity", explicit(billing.Line{ProductID: a.ID, Quantity: 0}), apperrors.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Checkout(ctx, f.user.ID, tt.src)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
		})
	}
	assert.Equal(t, 10, storetest.Stock(t, f.store, a.ID))
}

func TestCheckoutFromCart(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := storetest.Product(t, f.store, f.category.ID, "Mug", "6.00", 5)

	_, err := f.carts.AddItem(ctx, f.user.ID, a.ID, 2)
	require.NoError(t, err)

	bill, err := f.svc.Checkout(ctx, f.user.ID, billing.SourceFor(nil))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(12).Equal(bill.Total))
	assert.Equal(t, 3, storetest.Stock(t, f.store, a.ID))

	v, err := f.carts.GetCart(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.NotEmpty(t, v.ID, "cart record survives checkout")

	_, err = f.svc.Checkout(ctx, f.user.ID, billing.FromCart())
	assert.True(t, apperrors.Is(err, apperrors.KindEmptyOrder))
}

func TestExplicitItemsLeaveCartAlone(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := storetest.Product(t, f.store, f.category.ID, "Mug", "6.00", 5)

	_, err := f.carts.AddItem(ctx, f.user.ID, a.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, f.user.ID, billing.SourceFor([]billing.Line{{ProductID: a.ID, Quantity: 2}}))
	require.NoError(t, err)

	v, err := f.carts.GetCart(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, v.Items, 1)
}

func TestDuplicateLinesShareStock(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := storetest.Product(t, f.store, f.category.ID, "Bolt", "0.10", 5)

	_, err := f.svc.Checkout(ctx, f.user.ID, explicit(
		billing.Line{ProductID: a.ID, Quantity: 3},
		billing.Line{ProductID: a.ID, Quantity: 3},
	))
	require.True(t, apperrors.Is(err, apperrors.KindInsufficientStock))
	assert.Contains(t, err.Error(), "Available: 2, Requested: 3")
	assert.Equal(t, 5, storetest.Stock(t, f.store, a.ID))
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		// the in-memory store has one connection, so this checks the totals only
		concurrentCheckouts(t, storetest.New(t))
	})
	t.Run("postgres", func(t *testing.T) {
		concurrentCheckouts(t, storetest.Postgres(t))
	})
}

func concurrentCheckouts(t *testing.T, s store.Store) {
	ctx := context.Background()
	svc := billing.New(s, nil)
	user := storetest.User(t, s, "buyer", models.RoleClient)
	category := storetest.Category(t, s, "General")
	a := storetest.Product(t, s, category.ID, "Limited", "1.00", 10)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Checkout(ctx, user.ID, explicit(billing.Line{ProductID: a.ID, Quantity: 1}))
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			assert.True(t, apperrors.Is(err, apperrors.KindInsufficientStock), "unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, success)
	assert.Equal(t, 0, storetest.Stock(t, s, a.ID))

	bills, err := svc.ListMine(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, bills, 10)
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := storetest.Product(t, f.store, f.category.ID, "Lamp", "5.00", 10)

	checkout := func() *models.Bill {
		b, err := f.svc.Checkout(ctx, f.user.ID, explicit(billing.Line{ProductID: a.ID, Quantity: 2}))
		require.NoError(t, err)
		return b
	}

	t.Run("completed then cancelled restocks once", func(t *testing.T) {
		b := checkout()
		before := storetest.Stock(t, f.store, a.ID)

		got, err := f.svc.UpdateStatus(ctx, b.ID, "COMPLETED")
		require.NoError(t, err)
		assert.Equal(t, models.BillStatusCompleted, got.Status)
		assert.Equal(t, before, storetest.Stock(t, f.store, a.ID))

		_, err = f.svc.UpdateStatus(ctx, b.ID, "CANCELLED")
		require.NoError(t, err)
		assert.Equal(t, before+2, storetest.Stock(t, f.store, a.ID))

		got, err = f.svc.UpdateStatus(ctx, b.ID, "CANCELLED")
		require.NoError(t, err, "repeating the current status is a no-op")
		assert.Equal(t, models.BillStatusCancelled, got.Status)
		assert.Equal(t, before+2, storetest.Stock(t, f.store, a.ID), "no double restock")
	})

	t.Run("cancelled is final", func(t *testing.T) {
		b := checkout()
		_, err := f.svc.UpdateStatus(ctx, b.ID, "CANCELLED")
		require.NoError(t, err)
		_, err = f.svc.UpdateStatus(ctx, b.ID, "PENDING")
		assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition))
		_, err = f.svc.UpdateStatus(ctx, b.ID, "COMPLETED")
		assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition))
	})

	t.Run("completed cannot go back to pending", func(t *testing.T) {
		b := checkout()
		_, err := f.svc.UpdateStatus(ctx, b.ID, "COMPLETED")
		require.NoError(t, err)
		_, err = f.svc.UpdateStatus(ctx, b.ID, "PENDING")
		assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition))
	})

	t.Run("unknown status", func(t *testing.T) {
		b := checkout()
		_, err := f.svc.UpdateStatus(ctx, b.ID, "shipped")
		assert.True(t, apperrors.Is(err, apperrors.KindInvalidStatus))
		_, err = f.svc.UpdateStatus(ctx, b.ID, "cancelled")
		assert.True(t, apperrors.Is(err, apperrors.KindInvalidStatus), "status names are case-sensitive")
	})

	t.Run("unknown bill", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, uuid.NewString(), "COMPLETED")
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	})
}

func TestCancelRestocksDeletedProduct(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := storetest.Product(t, f.store, f.category.ID, "Vase", "5.00", 3)

	b, err := f.svc.Checkout(ctx, f.user.ID, explicit(billing.Line{ProductID: a.ID, Quantity: 3}))
	require.NoError(t, err)
	require.NoError(t, f.store.DeleteProduct(ctx, a.ID))

	_, err = f.svc.UpdateStatus(ctx, b.ID, "CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, 3, storetest.Stock(t, f.store, a.ID))
}

func TestBillVisibilityAndDelete(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	other := storetest.User(t, f.store, "someone", models.RoleClient)
	a := storetest.Product(t, f.store, f.category.ID, "Rug", "40.00", 5)

	b, err := f.svc.Checkout(ctx, f.user.ID, explicit(billing.Line{ProductID: a.ID, Quantity: 1}))
	require.NoError(t, err)

	_, err = f.svc.GetBill(ctx, auth.Principal{ID: other.ID, Role: models.RoleClient}, b.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	_, err = f.svc.GetBill(ctx, auth.Principal{ID: other.ID, Role: models.RoleAdmin}, b.ID)
	assert.NoError(t, err)
	_, err = f.svc.GetBill(ctx, auth.Principal{ID: f.user.ID}, "nope")
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidReference))

	mine, err := f.svc.ListMine(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	require.NoError(t, f.svc.Delete(ctx, b.ID))
	assert.Equal(t, 4, storetest.Stock(t, f.store, a.ID), "delete does not restock")

	_, err = f.svc.GetBill(ctx, auth.Principal{ID: f.user.ID}, b.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.True(t, apperrors.Is(f.svc.Delete(ctx, b.ID), apperrors.KindNotFound))

	all, err := f.svc.ListAll(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
	_, err = f.svc.ListAll(ctx, "LOST")
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidStatus))
}

func TestListStale(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := storetest.Product(t, f.store, f.category.ID, "Chair", "40.00", 5)

	b, err := f.svc.Checkout(ctx, f.user.ID, explicit(billing.Line{ProductID: a.ID, Quantity: 1}))
	require.NoError(t, err)

	stale, err := f.svc.ListStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, stale)

	stale, err = f.svc.ListStale(ctx, -time.Hour)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, b.ID, stale[0].ID)
}

func TestExportBills(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := storetest.Product(t, f.store, f.category.ID, "Desk", "100.00", 5)
	b, err := f.svc.Checkout(ctx, f.user.ID, explicit(billing.Line{ProductID: a.ID, Quantity: 2}))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportBills(ctx, &buf))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet := file.Sheet["Bills"]
	require.NotNil(t, sheet)
	require.Equal(t, 2, sheet.MaxRow)
	assert.Equal(t, b.ID, sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "Desk", sheet.Rows[1].Cells[5].String())
}
