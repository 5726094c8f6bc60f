package models

import "time"

type Notification struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID string    `gorm:"type:uuid;index;not null" json:"customerId"`
	Title      string    `gorm:"size:200;not null" json:"title"`
	Message    string    `gorm:"type:text" json:"message"`
	Read       bool      `gorm:"not null" json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (Notification) TableName() string { return "lib_notifications" }
