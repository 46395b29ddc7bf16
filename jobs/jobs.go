// Package jobs runs the periodic inventory and bill reports.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/junaidrashid-git/storefront-api/logging"
	"github.com/junaidrashid-git/storefront-api/metrics"
	"github.com/junaidrashid-git/storefront-api/services/billing"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
	"github.com/robfig/cron"
)

const runTimeout = time.Minute

type Reporter struct {
	Catalog *catalog.Service
	Billing *billing.Service
	Metrics *metrics.ServerMetrics

	LowStockThreshold int
	PendingBillAge    time.Duration
}

// LowStock logs every active product at or below the threshold and returns how many there were.
func (r *Reporter) LowStock(ctx context.Context) (int, error) {
	start := time.Now()
	products, err := r.Catalog.LowStock(ctx, r.LowStockThreshold)
	if err != nil {
		logging.Log(logging.Fields{Service: "jobs", Step: "low_stock", Status: "failed", Error: err.Error()})
		return 0, err
	}
	for _, p := range products {
		logging.Log(logging.Fields{
			Service:   "jobs",
			Step:      "low_stock",
			Status:    "flagged",
			ProductID: p.ID,
			Message:   fmt.Sprintf("%s has %d left", p.Name, p.Stock),
		})
	}
	if r.Metrics != nil {
		r.Metrics.LowStockProducts.Set(float64(len(products)))
	}
	logging.Log(logging.Fields{
		Service:    "jobs",
		Step:       "low_stock",
		Status:     "done",
		DurationMS: logging.Since(start),
		Message:    fmt.Sprintf("%d products at or below %d", len(products), r.LowStockThreshold),
	})
	return len(products), nil
}

// StalePending logs PENDING bills older than PendingBillAge and returns how many there were.
func (r *Reporter) StalePending(ctx context.Context) (int, error) {
	start := time.Now()
	bills, err := r.Billing.ListStale(ctx, r.PendingBillAge)
	if err != nil {
		logging.Log(logging.Fields{Service: "jobs", Step: "stale_pending", Status: "failed", Error: err.Error()})
		return 0, err
	}
	for _, b := range bills {
		logging.Log(logging.Fields{
			Service: "jobs",
			Step:    "stale_pending",
			Status:  "flagged",
			BillID:  b.ID,
			UserID:  b.UserID,
			Message: "pending since " + b.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	if r.Metrics != nil {
		r.Metrics.StalePendingBills.Set(float64(len(bills)))
	}
	logging.Log(logging.Fields{
		Service:    "jobs",
		Step:       "stale_pending",
		Status:     "done",
		DurationMS: logging.Since(start),
		Message:    fmt.Sprintf("%d bills pending longer than %s", len(bills), r.PendingBillAge),
	})
	return len(bills), nil
}

// Schedule registers both reports on a new cron. The caller starts and stops it.
func Schedule(r *Reporter, lowStockSpec, pendingSpec string) (*cron.Cron, error) {
	c := cron.New()
	if err := c.AddFunc(lowStockSpec, run(r.LowStock)); err != nil {
		return nil, fmt.Errorf("low stock schedule %q: %w", lowStockSpec, err)
	}
	if err := c.AddFunc(pendingSpec, run(r.StalePending)); err != nil {
		return nil, fmt.Errorf("pending bills schedule %q: %w", pendingSpec, err)
	}
	return c, nil
}

func run(report func(context.Context) (int, error)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		// failures are already logged by the report
		_, _ = report(ctx)
	}
}
