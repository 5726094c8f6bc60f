// db/repo_circulation.go
package db

import (
	"context"
	"time"

	"Gin_postgres_redis_library/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Borrow records

func (r *Repo) CreateBorrow(ctx context.Context, b *models.BorrowRecord) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

func (r *Repo) FindBorrowByID(ctx context.Context, id string) (*models.BorrowRecord, error) {
	var b models.BorrowRecord
	if err := r.DB.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repo) LockBorrow(ctx context.Context, id string) (*models.BorrowRecord, error) {
	var b models.BorrowRecord
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// SaveBorrow persists the mutable columns of a borrow record, guarded by version.
func (r *Repo) SaveBorrow(ctx context.Context, b *models.BorrowRecord) error {
	res := r.DB.WithContext(ctx).Model(&models.BorrowRecord{}).
		Where("id = ? AND version = ?", b.ID, b.Version).
		Updates(map[string]any{
			"returned":     b.Returned,
			"returned_at":  b.ReturnedAt,
			"broken_pages": b.BrokenPages,
			"lost":         b.Lost,
			"lost_price":   b.LostPrice,
			"version":      b.Version + 1,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	b.Version++
	return nil
}

// HasActiveBorrow reports whether the customer holds an unreturned loan;
// an empty bookID means any book.
func (r *Repo) HasActiveBorrow(ctx context.Context, customerID, bookID string) (bool, error) {
	if bookID == "" {
		return r.exists(ctx, &models.BorrowRecord{}, "customer_id = ? AND returned = ?", customerID, false)
	}
	return r.exists(ctx, &models.BorrowRecord{}, "customer_id = ? AND book_id = ? AND returned = ?", customerID, bookID, false)
}

func (r *Repo) BookHasActiveBorrow(ctx context.Context, bookID string) (bool, error) {
	return r.exists(ctx, &models.BorrowRecord{}, "book_id = ? AND returned = ?", bookID, false)
}

type BorrowQuery struct {
	CustomerID string
	BookID     string
	Status     string // "", "active", "returned", "overdue"
	Now        time.Time
}

func (r *Repo) ListBorrows(ctx context.Context, q BorrowQuery) ([]models.BorrowRecord, error) {
	tx := r.DB.WithContext(ctx).Model(&models.BorrowRecord{}).Order("borrow_date DESC")
	if q.CustomerID != "" {
		tx = tx.Where("customer_id = ?", q.CustomerID)
	}
	if q.BookID != "" {
		tx = tx.Where("book_id = ?", q.BookID)
	}
	switch q.Status {
	case "active":
		tx = tx.Where("returned = ?", false)
	case "returned":
		tx = tx.Where("returned = ?", true)
	case "overdue":
		tx = tx.Where("returned = ? AND due_date < ?", false, q.Now)
	}
	var out []models.BorrowRecord
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Reservations

func (r *Repo) CreateReservation(ctx context.Context, res *models.Reservation) error {
	return r.DB.WithContext(ctx).Create(res).Error
}

func (r *Repo) FindReservationByID(ctx context.Context, id string) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.DB.WithContext(ctx).First(&res, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *Repo) LockReservation(ctx context.Context, id string) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&res, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

// PendingReservations returns the queue for a book, oldest first.
func (r *Repo) PendingReservations(ctx context.Context, bookID string) ([]models.Reservation, error) {
	var out []models.Reservation
	err := r.DB.WithContext(ctx).
		Where("book_id = ? AND status = ?", bookID, models.ReservationPending).
		Order("reservation_date ASC, created_at ASC").
		Find(&out).Error
	return out, err
}

// FindPendingReservation returns the customer's open reservation for a book.
func (r *Repo) FindPendingReservation(ctx context.Context, customerID, bookID string) (*models.Reservation, error) {
	var res models.Reservation
	err := r.DB.WithContext(ctx).
		Where("customer_id = ? AND book_id = ? AND status = ?", customerID, bookID, models.ReservationPending).
		First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *Repo) HasPendingReservation(ctx context.Context, customerID, bookID string) (bool, error) {
	return r.exists(ctx, &models.Reservation{},
		"customer_id = ? AND book_id = ? AND status = ?", customerID, bookID, models.ReservationPending)
}

func (r *Repo) SaveReservation(ctx context.Context, res *models.Reservation) error {
	return r.DB.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ?", res.ID).
		Updates(map[string]any{
			"status":      res.Status,
			"expiry_date": res.ExpiryDate,
			"borrow_id":   res.BorrowID,
			"updated_at":  time.Now().UTC(),
		}).Error
}

type ReservationQuery struct {
	CustomerID string
	BookID     string
	Status     models.ReservationStatus
}

func (r *Repo) ListReservations(ctx context.Context, q ReservationQuery) ([]models.Reservation, error) {
	tx := r.DB.WithContext(ctx).Model(&models.Reservation{}).Order("reservation_date ASC")
	if q.CustomerID != "" {
		tx = tx.Where("customer_id = ?", q.CustomerID)
	}
	if q.BookID != "" {
		tx = tx.Where("book_id = ?", q.BookID)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	var out []models.Reservation
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Penalties

func (r *Repo) FindPenaltyByID(ctx context.Context, id string) (*models.Penalty, error) {
	var p models.Penalty
	if err := r.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) FindPenaltyByBorrowID(ctx context.Context, borrowID string) (*models.Penalty, error) {
	var p models.Penalty
	if err := r.DB.WithContext(ctx).First(&p, "borrow_id = ?", borrowID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) CreatePenalty(ctx context.Context, p *models.Penalty) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *Repo) SavePenalty(ctx context.Context, p *models.Penalty) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *Repo) DeletePenalty(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Delete(&models.Penalty{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type PenaltyQuery struct {
	CustomerID string
	UnpaidOnly bool
}

func (r *Repo) ListPenalties(ctx context.Context, q PenaltyQuery) ([]models.Penalty, error) {
	tx := r.DB.WithContext(ctx).Model(&models.Penalty{}).Order("created_at DESC")
	if q.CustomerID != "" {
		tx = tx.Where("customer_id = ?", q.CustomerID)
	}
	if q.UnpaidOnly {
		tx = tx.Where("paid = ?", false)
	}
	var out []models.Penalty
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
