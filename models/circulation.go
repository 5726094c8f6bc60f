// models/circulation.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const BorrowTable = "lib_borrows"
const ReservationTable = "lib_reservations"
const PenaltyTable = "lib_penalties"

type BorrowRecord struct {
	ID         string     `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID string     `gorm:"type:uuid;index;not null" json:"customerId"`
	BookID     string     `gorm:"type:uuid;index;not null" json:"bookId"`
	BorrowDate time.Time  `gorm:"index;not null" json:"borrowDate"`
	DueDate    time.Time  `gorm:"index;not null" json:"dueDate"`
	Returned   bool       `gorm:"not null" json:"returned"`
	ReturnedAt *time.Time `json:"returnedAt,omitempty"`

	// 罚款输入：损坏页数、是否丢失、丢失赔偿价（为零时回退到书价）
	BrokenPages int             `gorm:"not null" json:"brokenPages"`
	Lost        bool            `gorm:"not null" json:"lost"`
	LostPrice   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"lostPrice"`

	Version   int64     `gorm:"not null" json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationFulfilled ReservationStatus = "FULFILLED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationExpired   ReservationStatus = "EXPIRED"
)

// Terminal reports whether no further transition is allowed.
func (s ReservationStatus) Terminal() bool { return s != ReservationPending }

type Reservation struct {
	ID              string            `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID      string            `gorm:"type:uuid;index;not null" json:"customerId"`
	BookID          string            `gorm:"type:uuid;index;not null" json:"bookId"`
	ReservationDate time.Time         `gorm:"not null" json:"reservationDate"`
	Status          ReservationStatus `gorm:"size:20;not null" json:"status"`
	ExpiryDate      *time.Time        `json:"expiryDate,omitempty"`
	BorrowID        *string           `gorm:"type:uuid" json:"borrowId,omitempty"` // 兑现后生成的借阅记录
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

type Penalty struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID string `gorm:"type:uuid;index;not null" json:"customerId"`
	BookID     string `gorm:"type:uuid;index;not null" json:"bookId"`
	BorrowID   string `gorm:"type:uuid;uniqueIndex;not null" json:"borrowId"`

	BrokenPages int  `gorm:"not null" json:"brokenPages"`
	Lost        bool `gorm:"not null" json:"lost"`
	OverdueDays int  `gorm:"not null" json:"overdueDays"`
	// 归还时自动计入的逾期天数；撤销归还只撤回这部分，人工改过则为 0
	ReturnLateDays int `gorm:"not null;default:0" json:"returnLateDays"`

	// 计算字段，每次写入前重算
	BrokenPenalty decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"brokenPenalty"`
	LostPenalty   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"lostPenalty"`
	LatePenalty   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"latePenalty"`
	TotalPenalty  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"totalPenalty"`

	Paid      bool      `gorm:"not null" json:"paid"`
	Resolved  bool      `gorm:"not null" json:"resolved"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (BorrowRecord) TableName() string { return BorrowTable }
func (Reservation) TableName() string  { return ReservationTable }
func (Penalty) TableName() string      { return PenaltyTable }
