package models

import "time"

type Cart struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	UserID    string     `gorm:"uniqueIndex;type:varchar(36);not null" bson:"user" json:"user"` // one cart per user
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" bson:"items" json:"items"`
	Lifecycle Lifecycle  `gorm:"type:varchar(10);not null;default:ACTIVE" bson:"lifecycle" json:"lifecycle"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}

type CartItem struct {
	ID        uint   `gorm:"primaryKey" bson:"-" json:"-"`
	CartID    string `gorm:"index;type:varchar(36);not null" bson:"-" json:"-"`
	Position  int    `gorm:"not null" bson:"-" json:"-"`
	ProductID string `gorm:"type:varchar(36);not null" bson:"product" json:"productId"`
	Quantity  int    `gorm:"not null" bson:"quantity" json:"quantity"`
}

// indexOf returns the position of productID in the cart or -1.
func (c *Cart) indexOf(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) Quantity(productID string) (int, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i].Quantity, true
	}
	return 0, false
}

// Add increments an existing line or appends a new one.
func (c *Cart) Add(productID string, qty int) {
	if i := c.indexOf(productID); i >= 0 {
		c.Items[i].Quantity += qty
		return
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: qty})
}

// Set overwrites the quantity of an existing line. It reports false if the line is absent.
func (c *Cart) Set(productID string, qty int) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Items[i].Quantity = qty
	return true
}

func (c *Cart) Remove(productID string) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
