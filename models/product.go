package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Name        string          `gorm:"uniqueIndex;not null" bson:"name" json:"name"`
	Description string          `gorm:"not null" bson:"description" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" bson:"price" json:"price"`
	Stock       int             `gorm:"not null;check:chk_products_stock,stock >= 0" bson:"stock" json:"stock"`
	CategoryID  string          `gorm:"index;type:varchar(36);not null" bson:"category" json:"category"`
	Lifecycle   Lifecycle       `gorm:"type:varchar(10);index;not null;default:ACTIVE" bson:"lifecycle" json:"lifecycle"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// ProductSummary is the reduced product view embedded in carts and bills.
type ProductSummary struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Available   bool            `json:"available"`
}

func (p *Product) Summary() *ProductSummary {
	return &ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Available:   p.Lifecycle.IsActive(),
	}
}
