package lending

import (
	"context"
	"errors"
	"time"

	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateReservation queues customerID for bookID. With no expiry given the
// reservation lapses after the hold window. It is fulfilled at once when a
// copy is free and the customer is eligible.
func (s *Service) CreateReservation(ctx context.Context, customerID, bookID string, expiry *time.Time) (*models.Reservation, error) {
	var res *models.Reservation
	err := s.inTx(ctx, func(tx *db.Repo, out *outbox) error {
		if _, err := tx.FindCustomerByID(ctx, customerID); err != nil {
			return missing(err, "customer")
		}
		book, err := tx.LockBook(ctx, bookID)
		if err != nil {
			return missing(err, "book")
		}
		held, err := tx.HasActiveBorrow(ctx, customerID, bookID)
		if err != nil {
			return err
		}
		if held {
			return ErrDuplicateLoan
		}
		queued, err := tx.HasPendingReservation(ctx, customerID, bookID)
		if err != nil {
			return err
		}
		if queued {
			return ErrDuplicateReservation
		}

		now := s.clock()
		exp := now.AddDate(0, 0, s.pol.HoldDays)
		if expiry != nil {
			if !expiry.After(now) {
				return invalid("expiryDate must be in the future")
			}
			exp = expiry.UTC()
		}
		res = &models.Reservation{
			ID:              uuid.NewString(),
			CustomerID:      customerID,
			BookID:          bookID,
			ReservationDate: now,
			Status:          models.ReservationPending,
			ExpiryDate:      &exp,
		}
		if err := tx.CreateReservation(ctx, res); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateReservation
			}
			return err
		}
		if err := s.tryFulfill(ctx, tx, book, "", out); err != nil {
			return err
		}
		res, err = tx.FindReservationByID(ctx, res.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("reservation created",
		zap.String("reservation_id", res.ID), zap.String("status", string(res.Status)))
	return res, nil
}

func (s *Service) CancelReservation(ctx context.Context, id string) (*models.Reservation, error) {
	var res *models.Reservation
	err := s.inTx(ctx, func(tx *db.Repo, _ *outbox) error {
		var err error
		res, err = tx.LockReservation(ctx, id)
		if err != nil {
			return missing(err, "reservation")
		}
		if res.Status.Terminal() {
			return ErrReservationClosed
		}
		res.Status = models.ReservationCancelled
		return tx.SaveReservation(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	res, err := s.repo.FindReservationByID(ctx, id)
	if err != nil {
		return nil, translate(missing(err, "reservation"))
	}
	return res, nil
}

func (s *Service) ListReservations(ctx context.Context, q db.ReservationQuery) ([]models.Reservation, error) {
	switch q.Status {
	case "", models.ReservationPending, models.ReservationFulfilled,
		models.ReservationCancelled, models.ReservationExpired:
	default:
		return nil, invalid("unknown status %q", q.Status)
	}
	out, err := s.repo.ListReservations(ctx, q)
	return out, translate(err)
}

// tryFulfill walks the pending queue oldest first. Lapsed reservations are
// expired on the way; while copies remain, each customer with no active loan
// gets one. skip is the customer handing the copy back, who never gets it
// again in the same step. The caller holds the book row lock.
func (s *Service) tryFulfill(ctx context.Context, tx *db.Repo, book *models.Book, skip string, out *outbox) error {
	queue, err := tx.PendingReservations(ctx, book.ID)
	if err != nil {
		return err
	}
	now := s.clock()
	for i := range queue {
		r := &queue[i]
		if r.ExpiryDate != nil && r.ExpiryDate.Before(now) {
			r.Status = models.ReservationExpired
			if err := tx.SaveReservation(ctx, r); err != nil {
				return err
			}
			continue
		}
		if book.CopiesAvailable <= 0 || r.CustomerID == skip {
			continue
		}
		// 锁住顾客行，避免两本书同时归还时同一顾客被兑现两次
		if _, err := tx.LockCustomer(ctx, r.CustomerID); err != nil {
			return err
		}
		busy, err := tx.HasActiveBorrow(ctx, r.CustomerID, "")
		if err != nil {
			return err
		}
		if busy {
			continue
		}

		if err := s.reserveCopy(ctx, tx, book); err != nil {
			return err
		}
		loan, err := s.openLoan(ctx, tx, r.CustomerID, book.ID, s.pol.HoldDays)
		if err != nil {
			return err
		}
		exp := loan.DueDate
		r.Status = models.ReservationFulfilled
		r.ExpiryDate = &exp
		r.BorrowID = &loan.ID
		if err := tx.SaveReservation(ctx, r); err != nil {
			return err
		}
		out.add(fulfilledNotice(r, book, loan))
		s.log.Info("reservation fulfilled",
			zap.String("reservation_id", r.ID), zap.String("borrow_id", loan.ID))
	}
	return nil
}
