package models

import "time"

type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Name         string    `gorm:"not null" bson:"name" json:"name"`
	Surname      string    `gorm:"not null" bson:"surname" json:"surname"`
	Username     string    `gorm:"uniqueIndex;not null" bson:"username" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" bson:"email" json:"email"`
	PasswordHash string    `gorm:"not null" bson:"password" json:"-"`
	Phone        string    `bson:"phone" json:"phone"`
	Role         Role      `gorm:"type:varchar(10);not null;default:CLIENT" bson:"role" json:"role"`
	Lifecycle    Lifecycle `gorm:"type:varchar(10);index;not null;default:ACTIVE" bson:"lifecycle" json:"lifecycle"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
