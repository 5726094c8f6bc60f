package lending

import (
	"context"
	"errors"

	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Borrow lends one copy of bookID to customerID for the given number of days.
func (s *Service) Borrow(ctx context.Context, customerID, bookID string, days int) (*models.BorrowRecord, error) {
	if days <= 0 {
		return nil, invalid("days must be positive, got %d", days)
	}
	var rec *models.BorrowRecord
	err := s.inTx(ctx, func(tx *db.Repo, _ *outbox) error {
		if _, err := tx.FindCustomerByID(ctx, customerID); err != nil {
			return missing(err, "customer")
		}
		book, err := tx.LockBook(ctx, bookID)
		if err != nil {
			return missing(err, "book")
		}
		if book.CopiesAvailable <= 0 {
			return ErrOutOfStock
		}
		held, err := tx.HasActiveBorrow(ctx, customerID, bookID)
		if err != nil {
			return err
		}
		if held {
			return ErrDuplicateLoan
		}
		if err := s.reserveCopy(ctx, tx, book); err != nil {
			return err
		}
		rec, err = s.openLoan(ctx, tx, customerID, bookID, days)
		if err != nil {
			return err
		}
		return s.settleReservation(ctx, tx, rec)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("book borrowed",
		zap.String("borrow_id", rec.ID), zap.String("customer_id", customerID),
		zap.String("book_id", bookID), zap.Time("due", rec.DueDate))
	return rec, nil
}

// openLoan writes the record only; the copy must already be reserved by the caller.
func (s *Service) openLoan(ctx context.Context, tx *db.Repo, customerID, bookID string, days int) (*models.BorrowRecord, error) {
	now := s.clock()
	rec := &models.BorrowRecord{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		BookID:     bookID,
		BorrowDate: now,
		DueDate:    now.AddDate(0, 0, days),
		LostPrice:  decimal.Zero,
		Version:    1,
	}
	if err := tx.CreateBorrow(ctx, rec); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateLoan
		}
		return nil, err
	}
	return rec, nil
}

// settleReservation marks the borrower's own pending reservation for the book
// as fulfilled by the loan just opened.
func (s *Service) settleReservation(ctx context.Context, tx *db.Repo, loan *models.BorrowRecord) error {
	res, err := tx.FindPendingReservation(ctx, loan.CustomerID, loan.BookID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	exp := loan.DueDate
	res.Status = models.ReservationFulfilled
	res.ExpiryDate = &exp
	res.BorrowID = &loan.ID
	return tx.SaveReservation(ctx, res)
}

// ReturnBook closes an active loan, puts the copy back, charges late days
// and hands the copy to the oldest eligible reservation.
func (s *Service) ReturnBook(ctx context.Context, borrowID string) (*models.BorrowRecord, error) {
	var rec *models.BorrowRecord
	err := s.inTx(ctx, func(tx *db.Repo, out *outbox) error {
		var err error
		rec, err = tx.LockBorrow(ctx, borrowID)
		if err != nil {
			return missing(err, "borrow record")
		}
		if rec.Returned {
			return ErrAlreadyReturned
		}
		book, err := tx.LockBook(ctx, rec.BookID)
		if err != nil {
			return missing(err, "book")
		}

		now := s.clock()
		rec.Returned = true
		rec.ReturnedAt = &now
		if err := tx.SaveBorrow(ctx, rec); err != nil {
			return err
		}
		if err := s.releaseCopy(ctx, tx, book); err != nil {
			return err
		}

		if late := OverdueDays(rec.DueDate, now); late > 0 {
			p, _, err := s.upsertPenalty(ctx, tx, rec, book, func(p *models.Penalty) {
				p.OverdueDays = late
				p.ReturnLateDays = late
			})
			if err != nil {
				return err
			}
			out.add(penaltyNotice(p))
		}
		return s.tryFulfill(ctx, tx, book, rec.CustomerID, out)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("book returned", zap.String("borrow_id", rec.ID), zap.String("book_id", rec.BookID))
	return rec, nil
}

// UndoReturn reopens a returned loan. It is rejected when the freed copy has
// already gone to someone else.
func (s *Service) UndoReturn(ctx context.Context, borrowID string) (*models.BorrowRecord, error) {
	var rec *models.BorrowRecord
	err := s.inTx(ctx, func(tx *db.Repo, _ *outbox) error {
		var err error
		rec, err = tx.LockBorrow(ctx, borrowID)
		if err != nil {
			return missing(err, "borrow record")
		}
		if !rec.Returned {
			return ErrNotReturned
		}
		book, err := tx.LockBook(ctx, rec.BookID)
		if err != nil {
			return missing(err, "book")
		}
		if book.CopiesAvailable <= 0 {
			return ErrOutOfStock
		}
		held, err := tx.HasActiveBorrow(ctx, rec.CustomerID, rec.BookID)
		if err != nil {
			return err
		}
		if held {
			return ErrDuplicateLoan
		}
		if err := s.reserveCopy(ctx, tx, book); err != nil {
			return err
		}

		rec.Returned = false
		rec.ReturnedAt = nil
		if err := tx.SaveBorrow(ctx, rec); err != nil {
			return err
		}
		return s.clearLateCharge(ctx, tx, rec, book)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("return undone", zap.String("borrow_id", rec.ID), zap.String("book_id", rec.BookID))
	return rec, nil
}

// clearLateCharge drops the late days charged at return time from an unpaid
// penalty, and the penalty itself when nothing else is owed.
func (s *Service) clearLateCharge(ctx context.Context, tx *db.Repo, rec *models.BorrowRecord, book *models.Book) error {
	p, err := tx.FindPenaltyByBorrowID(ctx, rec.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if p.Paid || p.ReturnLateDays == 0 {
		return nil
	}
	p.OverdueDays = max(p.OverdueDays-p.ReturnLateDays, 0)
	p.ReturnLateDays = 0
	Recompute(p, rec, book, s.pol)
	if p.TotalPenalty.IsZero() && !p.Resolved {
		return tx.DeletePenalty(ctx, p.ID)
	}
	return tx.SavePenalty(ctx, p)
}

var borrowStatuses = map[string]bool{"": true, "active": true, "returned": true, "overdue": true}

func (s *Service) ListBorrows(ctx context.Context, q db.BorrowQuery) ([]models.BorrowRecord, error) {
	if !borrowStatuses[q.Status] {
		return nil, invalid("unknown status %q", q.Status)
	}
	q.Now = s.clock()
	out, err := s.repo.ListBorrows(ctx, q)
	return out, translate(err)
}

func (s *Service) GetBorrow(ctx context.Context, id string) (*models.BorrowRecord, error) {
	rec, err := s.repo.FindBorrowByID(ctx, id)
	if err != nil {
		return nil, translate(missing(err, "borrow record"))
	}
	return rec, nil
}
