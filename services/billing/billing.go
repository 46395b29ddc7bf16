// Package billing turns carts and explicit item lists into bills and runs the bill
// status machine. Stock is decremented at checkout and returned on cancellation, each
// inside one store transaction with the bill write.
package billing

import (
	"context"
	"errors"
	"time"

	"github.com/junaidrashid-git/storefront-api/apperrors"
	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/logging"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
	"github.com/junaidrashid-git/storefront-api/store"
)

const publishTimeout = 5 * time.Second

type Service struct {
	store  store.Store
	events events.Publisher
	now    func() time.Time
}

func New(s store.Store, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Discard
	}
	return &Service{store: s, events: pub, now: time.Now}
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound("%s not found", what)
	case errors.Is(err, store.ErrConflict):
		return apperrors.Conflict("%s was modified concurrently, try again", what)
	default:
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return err
		}
		return apperrors.Internal(err, "Error processing %s", what)
	}
}

// Checkout places an order for userID. Lines are processed in order; the first failing
// line aborts the whole order, leaving stock, bills and the cart untouched.
func (s *Service) Checkout(ctx context.Context, userID string, src OrderSource) (*models.Bill, error) {
	start := s.now()

	var bill *models.Bill
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		lines, cart, err := resolve(ctx, tx, userID, src)
		if err != nil {
			return err
		}

		b := &models.Bill{UserID: userID, Status: models.BillStatusPending, Lines: make([]models.BillLine, 0, len(lines))}
		for _, l := range lines {
			line, err := take(ctx, tx, l)
			if err != nil {
				return err
			}
			b.Lines = append(b.Lines, line)
		}
		b.Total = b.SumSubtotals()

		if err := tx.CreateBill(ctx, b); err != nil {
			return err
		}
		if cart != nil {
			cart.Clear()
			if err := tx.SaveCart(ctx, cart); err != nil {
				return err
			}
		}
		bill = b
		return nil
	})
	if err != nil {
		err = translate(err, "purchase")
		logging.Log(logging.Fields{Service: "billing", Step: "checkout", Status: string(apperrors.KindOf(err)),
			UserID: userID, DurationMS: logging.Since(start), Error: err.Error()})
		return nil, err
	}

	logging.Log(logging.Fields{Service: "billing", Step: "checkout", Status: "committed",
		UserID: userID, BillID: bill.ID, DurationMS: logging.Since(start), Message: "total " + bill.Total.StringFixed(2)})
	s.publish(ctx, events.NewBillEvent(events.BillCreated, bill))
	return bill, nil
}

// resolve returns the lines to check out, plus the cart when the lines came from it.
// An empty explicit list falls back to the cart.
func resolve(ctx context.Context, tx store.Carts, userID string, src OrderSource) ([]Line, *models.Cart, error) {
	if !src.IsCart() && len(src.Lines()) > 0 {
		return src.Lines(), nil, nil
	}

	cart, err := tx.FindCart(ctx, userID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && cart.IsEmpty()) {
		return nil, nil, apperrors.EmptyOrder()
	}
	if err != nil {
		return nil, nil, err
	}

	lines := make([]Line, len(cart.Items))
	for i, item := range cart.Items {
		lines[i] = Line{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return lines, cart, nil
}

// take checks one line against the product's current stock, snapshots its price and
// decrements the stock.
func take(ctx context.Context, tx store.Catalog, l Line) (models.BillLine, error) {
	if l.Quantity < 1 {
		return models.BillLine{}, apperrors.Validation("Quantity must be at least 1")
	}
	id, err := catalog.ParseID("productId", l.ProductID)
	if err != nil {
		return models.BillLine{}, err
	}

	p, err := tx.FindProduct(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.BillLine{}, apperrors.NotFound("Product with ID %s not found or inactive", id)
	}
	if err != nil {
		return models.BillLine{}, err
	}
	if p.Stock < l.Quantity {
		return models.BillLine{}, apperrors.InsufficientStock(p.Name, p.Stock, l.Quantity)
	}

	line := models.NewBillLine(p, l.Quantity)
	if err := tx.AdjustStock(ctx, id, -l.Quantity); err != nil {
		switch {
		case errors.Is(err, store.ErrInsufficientStock):
			// another checkout took the units between the read and the write
			available := 0
			if fresh, ferr := tx.FindProduct(ctx, id); ferr == nil {
				available = fresh.Stock
			}
			return models.BillLine{}, apperrors.InsufficientStock(p.Name, available, l.Quantity)
		case errors.Is(err, store.ErrNotFound):
			return models.BillLine{}, apperrors.NotFound("Product with ID %s not found or inactive", id)
		}
		return models.BillLine{}, err
	}
	return line, nil
}

// UpdateStatus moves a bill to status. Asking for the current status changes nothing.
// Cancelling returns every line's quantity to stock in the same transaction as the
// status change, so a bill is restocked at most once.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*models.Bill, error) {
	to, err := models.ParseBillStatus(status)
	if err != nil {
		return nil, apperrors.InvalidStatus(status)
	}
	id, err = catalog.ParseID("bill id", id)
	if err != nil {
		return nil, err
	}

	var from models.BillStatus
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		b, err := tx.FindBill(ctx, id)
		if err != nil {
			return err
		}
		from = b.Status
		if from == to {
			return nil
		}
		if !models.CanTransition(from, to) {
			return apperrors.New(apperrors.KindInvalidTransition, "Bill cannot move from %s to %s", from, to)
		}
		if err := tx.TransitionBill(ctx, id, from, to); err != nil {
			return err
		}
		if to != models.BillStatusCancelled {
			return nil
		}
		for _, l := range b.Lines {
			if err := tx.AdjustStock(ctx, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "Bill")
	}

	b, err := s.store.FindBill(ctx, id)
	if err != nil {
		return nil, translate(err, "Bill")
	}
	if from != to {
		logging.Log(logging.Fields{Service: "billing", Step: "update_status", Status: string(to), BillID: id,
			UserID: b.UserID, Message: string(from) + " -> " + string(to)})
		e := events.NewBillEvent(events.BillStatusChanged, b)
		e.PreviousStatus = from
		s.publish(ctx, e)
	}
	return b, nil
}

// GetBill returns a bill its owner or an admin may see. Other callers get NotFound.
func (s *Service) GetBill(ctx context.Context, p auth.Principal, id string) (*models.Bill, error) {
	id, err := catalog.ParseID("bill id", id)
	if err != nil {
		return nil, err
	}
	b, err := s.store.FindBill(ctx, id)
	if err != nil {
		return nil, translate(err, "Bill")
	}
	if !p.IsAdmin() && b.UserID != p.ID {
		return nil, apperrors.NotFound("Bill not found")
	}
	return b, nil
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]models.Bill, error) {
	bills, err := s.store.ListBills(ctx, store.BillFilter{UserID: userID})
	return bills, translate(err, "bills")
}

func (s *Service) ListAll(ctx context.Context, status string) ([]models.Bill, error) {
	f := store.BillFilter{}
	if status != "" {
		st, err := models.ParseBillStatus(status)
		if err != nil {
			return nil, apperrors.InvalidStatus(status)
		}
		f.Status = st
	}
	bills, err := s.store.ListBills(ctx, f)
	return bills, translate(err, "bills")
}

// ListStale returns PENDING bills older than age.
func (s *Service) ListStale(ctx context.Context, age time.Duration) ([]models.Bill, error) {
	bills, err := s.store.ListBills(ctx, store.BillFilter{
		Status:        models.BillStatusPending,
		CreatedBefore: s.now().Add(-age),
	})
	return bills, translate(err, "bills")
}

// Delete hides a bill. Its status and the stock it took are left as they are.
func (s *Service) Delete(ctx context.Context, id string) error {
	id, err := catalog.ParseID("bill id", id)
	if err != nil {
		return err
	}
	b, err := s.store.FindBill(ctx, id)
	if err != nil {
		return translate(err, "Bill")
	}
	if err := s.store.DeleteBill(ctx, id); err != nil {
		return translate(err, "Bill")
	}
	b.Lifecycle = models.LifecycleDeleted
	s.publish(ctx, events.NewBillEvent(events.BillDeleted, b))
	return nil
}

// publish never fails the caller; delivery problems are logged.
func (s *Service) publish(ctx context.Context, e events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, e); err != nil {
		logging.Log(logging.Fields{Service: "billing", Step: "publish", Status: "failed", BillID: e.BillID,
			Message: e.Type, Error: err.Error()})
	}
}
