// models/catalog.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const BookTable = "lib_books"
const CustomerTable = "lib_customers"

type Book struct {
	ID            string          `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string          `gorm:"size:255;not null" json:"title"`
	Author        string          `gorm:"size:255" json:"author"`
	ISBN          string          `gorm:"size:32;index" json:"isbn"`
	Category      string          `gorm:"size:100;index" json:"category"`
	PublishedYear int             `json:"publishedYear,omitempty"`
	Description   string          `gorm:"type:text" json:"description,omitempty"`
	Price         decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"` // 丢失赔偿的默认依据

	// 只允许 lending 的库存账本写入这两列
	TotalCopies     int `gorm:"not null" json:"totalCopies"`
	CopiesAvailable int `gorm:"not null" json:"copiesAvailable"`

	Version   int64     `gorm:"not null" json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Customer struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Email     string    `gorm:"size:255;index" json:"email"`
	Phone     string    `gorm:"size:40" json:"phone,omitempty"`
	Role      Role      `gorm:"size:20;not null" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Book) TableName() string     { return BookTable }
func (Customer) TableName() string { return CustomerTable }
