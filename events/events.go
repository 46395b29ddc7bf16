// Package events carries bill lifecycle notifications to the admin live feed and Kafka.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/junaidrashid-git/storefront-api/models"
)

const (
	BillCreated       = "bill.created"
	BillStatusChanged = "bill.status_changed"
	BillDeleted       = "bill.deleted"
)

type Event struct {
	EventID        string            `json:"event_id"`
	Type           string            `json:"type"`
	BillID         string            `json:"bill_id"`
	UserID         string            `json:"user_id"`
	PreviousStatus models.BillStatus `json:"previous_status,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	Bill           *models.Bill      `json:"bill,omitempty"`
}

func NewBillEvent(eventType string, b *models.Bill) Event {
	return Event{
		EventID:   uuid.NewString(),
		Type:      eventType,
		BillID:    b.ID,
		UserID:    b.UserID,
		CreatedAt: time.Now().UTC(),
		Bill:      b,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Fanout delivers each event to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nop struct{}

func (nop) Publish(context.Context, Event) error { return nil }

// Discard drops every event.
var Discard Publisher = nop{}
