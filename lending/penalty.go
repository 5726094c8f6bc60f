package lending

import (
	"context"
	"errors"
	"time"

	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const day = 24 * time.Hour

// OverdueDays counts started days past due; zero when returned on time.
func OverdueDays(due, at time.Time) int {
	late := at.Sub(due)
	if late <= 0 {
		return 0
	}
	n := int(late / day)
	if late%day != 0 {
		n++
	}
	return n
}

// Recompute derives every monetary field of p from its raw inputs.
// Calling it again on the same inputs gives the same totals.
func Recompute(p *models.Penalty, rec *models.BorrowRecord, book *models.Book, pol Policy) {
	p.BrokenPenalty = pol.PageFee.Mul(decimal.NewFromInt(int64(p.BrokenPages))).Round(2)
	p.LostPenalty = decimal.Zero
	if p.Lost {
		p.LostPenalty = lostFee(rec, book, pol).Round(2)
	}
	p.LatePenalty = pol.DailyLateFee.Mul(decimal.NewFromInt(int64(p.OverdueDays))).Round(2)
	p.TotalPenalty = p.BrokenPenalty.Add(p.LostPenalty).Add(p.LatePenalty)
	if p.Paid {
		p.Resolved = true
	}
}

// 丢失赔偿：借阅记录上的赔偿价 > 书价 > 默认值
func lostFee(rec *models.BorrowRecord, book *models.Book, pol Policy) decimal.Decimal {
	if rec != nil && rec.LostPrice.IsPositive() {
		return rec.LostPrice
	}
	if book != nil && book.Price.IsPositive() {
		return book.Price
	}
	return pol.DefaultLostFee
}

// PenaltyPatch lists the penalty inputs staff may change. Nil leaves a field as is.
type PenaltyPatch struct {
	BrokenPages *int             `json:"brokenPages" validate:"omitempty,gte=0,lte=100000"`
	Lost        *bool            `json:"lost"`
	LostPrice   *decimal.Decimal `json:"lostPrice"`
	OverdueDays *int             `json:"overdueDays" validate:"omitempty,gte=0,lte=36500"`
	Paid        *bool            `json:"paid"`
	Resolved    *bool            `json:"resolved"`
}

func (s *Service) checkPatch(p PenaltyPatch) error {
	if err := s.validate.Struct(p); err != nil {
		return invalid("%v", err)
	}
	if p.LostPrice != nil && p.LostPrice.IsNegative() {
		return invalid("lostPrice must not be negative")
	}
	return nil
}

// UpdatePenalty applies patch to the borrow record's penalty inputs and
// upserts its penalty, recomputed.
func (s *Service) UpdatePenalty(ctx context.Context, borrowID string, patch PenaltyPatch) (*models.Penalty, error) {
	if err := s.checkPatch(patch); err != nil {
		return nil, err
	}
	var p *models.Penalty
	err := s.inTx(ctx, func(tx *db.Repo, out *outbox) error {
		rec, err := tx.LockBorrow(ctx, borrowID)
		if err != nil {
			return missing(err, "borrow record")
		}
		book, err := tx.FindBookByID(ctx, rec.BookID)
		if err != nil {
			return missing(err, "book")
		}

		dirty := false
		if patch.BrokenPages != nil {
			rec.BrokenPages, dirty = *patch.BrokenPages, true
		}
		if patch.Lost != nil {
			rec.Lost, dirty = *patch.Lost, true
		}
		if patch.LostPrice != nil {
			rec.LostPrice, dirty = *patch.LostPrice, true
		}
		if dirty {
			if err := tx.SaveBorrow(ctx, rec); err != nil {
				return err
			}
		}

		var created bool
		p, created, err = s.upsertPenalty(ctx, tx, rec, book, func(p *models.Penalty) {
			if p.CreatedAt.IsZero() {
				at := s.clock()
				if rec.ReturnedAt != nil {
					at = *rec.ReturnedAt
				}
				p.OverdueDays = OverdueDays(rec.DueDate, at)
				if rec.ReturnedAt != nil {
					p.ReturnLateDays = p.OverdueDays
				}
			}
			if patch.OverdueDays != nil {
				p.OverdueDays = *patch.OverdueDays
				p.ReturnLateDays = 0
			}
			if patch.Resolved != nil {
				p.Resolved = *patch.Resolved
			}
			if patch.Paid != nil {
				p.Paid = *patch.Paid
			}
		})
		if err != nil {
			return err
		}
		if created && p.TotalPenalty.IsPositive() {
			out.add(penaltyNotice(p))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("penalty updated",
		zap.String("penalty_id", p.ID), zap.String("borrow_id", borrowID),
		zap.String("total", p.TotalPenalty.StringFixed(2)))
	return p, nil
}

// upsertPenalty loads or starts the penalty of rec, copies the record's inputs
// onto it, lets mutate adjust the rest, recomputes and writes it.
func (s *Service) upsertPenalty(ctx context.Context, tx *db.Repo, rec *models.BorrowRecord, book *models.Book,
	mutate func(p *models.Penalty)) (*models.Penalty, bool, error) {

	p, err := tx.FindPenaltyByBorrowID(ctx, rec.ID)
	created := false
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		p = &models.Penalty{
			ID:         uuid.NewString(),
			CustomerID: rec.CustomerID,
			BookID:     rec.BookID,
			BorrowID:   rec.ID,
		}
		created = true
	case err != nil:
		return nil, false, err
	}

	p.BrokenPages = rec.BrokenPages
	p.Lost = rec.Lost
	mutate(p)
	Recompute(p, rec, book, s.pol)

	if created {
		err = tx.CreatePenalty(ctx, p)
	} else {
		err = tx.SavePenalty(ctx, p)
	}
	if err != nil {
		return nil, false, err
	}
	return p, created, nil
}

// SetPenaltyStatus records payment or resolution; paid implies resolved.
func (s *Service) SetPenaltyStatus(ctx context.Context, penaltyID string, paid, resolved bool) (*models.Penalty, error) {
	var p *models.Penalty
	err := s.inTx(ctx, func(tx *db.Repo, _ *outbox) error {
		var err error
		p, err = tx.FindPenaltyByID(ctx, penaltyID)
		if err != nil {
			return missing(err, "penalty")
		}
		rec, err := tx.FindBorrowByID(ctx, p.BorrowID)
		if err != nil {
			return missing(err, "borrow record")
		}
		book, err := tx.FindBookByID(ctx, p.BookID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		p.Paid = paid
		p.Resolved = resolved
		Recompute(p, rec, book, s.pol)
		return tx.SavePenalty(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPenalty(ctx context.Context, id string) (*models.Penalty, error) {
	p, err := s.repo.FindPenaltyByID(ctx, id)
	if err != nil {
		return nil, translate(missing(err, "penalty"))
	}
	return p, nil
}

func (s *Service) ListPenalties(ctx context.Context, q db.PenaltyQuery) ([]models.Penalty, error) {
	out, err := s.repo.ListPenalties(ctx, q)
	return out, translate(err)
}

func (s *Service) DeletePenalty(ctx context.Context, id string) error {
	if err := s.repo.DeletePenalty(ctx, id); err != nil {
		return translate(missing(err, "penalty"))
	}
	return nil
}
