package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/junaidrashid-git/storefront-api/jobs"
	"github.com/junaidrashid-git/storefront-api/metrics"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/services/billing"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
	"github.com/junaidrashid-git/storefront-api/store/storetest"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReports(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	c := storetest.Category(t, s, "Hardware")
	hammer := storetest.Product(t, s, c.ID, "Hammer", "12.00", 2)
	storetest.Product(t, s, c.ID, "Saw", "30.00", 5)
	storetest.Product(t, s, c.ID, "Drill", "80.00", 40)
	user := storetest.User(t, s, "alice", models.RoleClient)

	m := metrics.NewServerMetrics()
	bills := billing.New(s, nil)
	r := &jobs.Reporter{
		Catalog:           catalog.New(s),
		Billing:           bills,
		Metrics:           m,
		LowStockThreshold: 5,
		PendingBillAge:    -time.Hour,
	}

	n, err := r.LowStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LowStockProducts))

	n, err = r.StalePending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = bills.Checkout(ctx, user.ID, billing.ExplicitItems([]billing.Line{{ProductID: hammer.ID, Quantity: 1}}))
	require.NoError(t, err)

	n, err = r.StalePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StalePendingBills))
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	r := &jobs.Reporter{}

	_, err := jobs.Schedule(r, "not a schedule", "@daily")
	assert.Error(t, err)

	c, err := jobs.Schedule(r, "@daily", "@midnight")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 2)
}
