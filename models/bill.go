package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type BillStatus string

const (
	BillStatusPending   BillStatus = "PENDING"   // created by checkout
	BillStatusCompleted BillStatus = "COMPLETED" // fulfilled
	BillStatusCancelled BillStatus = "CANCELLED" // stock returned to the catalog
)

// ParseBillStatus accepts only the exact upper-case status names.
func ParseBillStatus(s string) (BillStatus, error) {
	switch BillStatus(s) {
	case BillStatusPending, BillStatusCompleted, BillStatusCancelled:
		return BillStatus(s), nil
	default:
		return "", fmt.Errorf("invalid bill status %q", s)
	}
}

// CanTransition reports whether a bill may move from one status to another.
// Requesting the current status is always allowed and changes nothing.
func CanTransition(from, to BillStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case BillStatusPending:
		return to == BillStatusCompleted || to == BillStatusCancelled
	case BillStatusCompleted:
		return to == BillStatusCancelled
	default:
		return false
	}
}

type Bill struct {
	ID        string          `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	UserID    string          `gorm:"index;type:varchar(36);not null" bson:"user" json:"user"`
	Lines     []BillLine      `gorm:"foreignKey:BillID;constraint:OnDelete:CASCADE" bson:"products" json:"products"`
	Total     decimal.Decimal `gorm:"type:numeric(14,2);not null" bson:"total" json:"total"`
	Status    BillStatus      `gorm:"type:varchar(20);index;not null;default:PENDING" bson:"status" json:"status"`
	Lifecycle Lifecycle       `gorm:"type:varchar(10);index;not null;default:ACTIVE" bson:"lifecycle" json:"lifecycle"`
	CreatedAt time.Time       `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// BillLine is a frozen snapshot taken at checkout. Price and Subtotal never follow later
// product price changes.
type BillLine struct {
	ID          uint            `gorm:"primaryKey" bson:"-" json:"-"`
	BillID      string          `gorm:"index;type:varchar(36);not null" bson:"-" json:"-"`
	Position    int             `gorm:"not null" bson:"-" json:"-"`
	ProductID   string          `gorm:"type:varchar(36);not null" bson:"product" json:"productId"`
	ProductName string          `bson:"productName" json:"productName"`
	Quantity    int             `gorm:"not null" bson:"quantity" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" bson:"price" json:"price"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(14,2);not null" bson:"subtotal" json:"subtotal"`
}

func NewBillLine(p *Product, qty int) BillLine {
	return BillLine{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    qty,
		Price:       p.Price,
		Subtotal:    p.Price.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func (b *Bill) SumSubtotals() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range b.Lines {
		sum = sum.Add(l.Subtotal)
	}
	return sum
}
