package models

import "time"

// Products of a deleted category are moved to this one.
const (
	FallbackCategoryName        = "Uncategorized"
	FallbackCategoryDescription = "Default category for products without a category"
)

type Category struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" bson:"name" json:"name"`
	Description string    `gorm:"not null" bson:"description" json:"description"`
	Lifecycle   Lifecycle `gorm:"type:varchar(10);index;not null;default:ACTIVE" bson:"lifecycle" json:"lifecycle"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
