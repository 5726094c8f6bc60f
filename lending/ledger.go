package lending

import (
	"context"
	"strings"

	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 库存账本：copies_available 只在这里被修改，调用方必须已经锁住书的行

func (s *Service) reserveCopy(ctx context.Context, tx *db.Repo, b *models.Book) error {
	if b.CopiesAvailable <= 0 {
		return ErrOutOfStock
	}
	b.CopiesAvailable--
	return tx.SaveBookCounts(ctx, b)
}

func (s *Service) releaseCopy(ctx context.Context, tx *db.Repo, b *models.Book) error {
	if b.CopiesAvailable >= b.TotalCopies {
		s.log.Warn("release would exceed total copies, clamped",
			zap.String("book_id", b.ID), zap.Int("total", b.TotalCopies))
		return nil
	}
	b.CopiesAvailable++
	return tx.SaveBookCounts(ctx, b)
}

type NewBook struct {
	Title         string          `json:"title" validate:"required,max=255"`
	Author        string          `json:"author" validate:"max=255"`
	ISBN          string          `json:"isbn" validate:"max=32"`
	Category      string          `json:"category" validate:"max=100"`
	PublishedYear int             `json:"publishedYear" validate:"gte=0"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	TotalCopies   int             `json:"totalCopies" validate:"gte=0"`
}

func (s *Service) AddBook(ctx context.Context, in NewBook) (*models.Book, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validate.Struct(in); err != nil {
		return nil, invalid("%v", err)
	}
	if in.Price.IsNegative() {
		return nil, invalid("price must not be negative")
	}
	b := &models.Book{
		ID:              uuid.NewString(),
		Title:           in.Title,
		Author:          in.Author,
		ISBN:            in.ISBN,
		Category:        in.Category,
		PublishedYear:   in.PublishedYear,
		Description:     in.Description,
		Price:           in.Price,
		TotalCopies:     in.TotalCopies,
		CopiesAvailable: in.TotalCopies,
		Version:         1,
	}
	if err := s.repo.CreateBook(ctx, b); err != nil {
		return nil, translate(err)
	}
	return b, nil
}

// SetTotalCopies changes the stock size. The delta moves availability with it,
// so copies on loan stay accounted for; added copies may fulfil queued reservations.
func (s *Service) SetTotalCopies(ctx context.Context, bookID string, total int) (*models.Book, error) {
	if total < 0 {
		return nil, invalid("totalCopies must not be negative")
	}
	var book *models.Book
	err := s.inTx(ctx, func(tx *db.Repo, out *outbox) error {
		var err error
		book, err = tx.LockBook(ctx, bookID)
		if err != nil {
			return missing(err, "book")
		}
		delta := total - book.TotalCopies
		if book.CopiesAvailable+delta < 0 {
			return invalid("%d copies are on loan, total cannot drop to %d",
				book.TotalCopies-book.CopiesAvailable, total)
		}
		book.TotalCopies = total
		book.CopiesAvailable += delta
		if err := tx.SaveBookCounts(ctx, book); err != nil {
			return err
		}
		if delta > 0 {
			return s.tryFulfill(ctx, tx, book, "", out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (s *Service) UpdateBook(ctx context.Context, bookID string, d db.BookDetails) (*models.Book, error) {
	if d.Title != nil && strings.TrimSpace(*d.Title) == "" {
		return nil, invalid("title must not be empty")
	}
	if d.Price != nil && d.Price.IsNegative() {
		return nil, invalid("price must not be negative")
	}
	b, err := s.repo.UpdateBookDetails(ctx, bookID, d)
	if err != nil {
		return nil, translate(missing(err, "book"))
	}
	return b, nil
}

// DeleteBook refuses while any copy is still on loan.
func (s *Service) DeleteBook(ctx context.Context, bookID string) error {
	return s.inTx(ctx, func(tx *db.Repo, _ *outbox) error {
		if _, err := tx.LockBook(ctx, bookID); err != nil {
			return missing(err, "book")
		}
		busy, err := tx.BookHasActiveBorrow(ctx, bookID)
		if err != nil {
			return err
		}
		if busy {
			return &Error{KindConflict, ErrConflict.Code, "book has copies on loan"}
		}
		queue, err := tx.PendingReservations(ctx, bookID)
		if err != nil {
			return err
		}
		for i := range queue {
			queue[i].Status = models.ReservationCancelled
			if err := tx.SaveReservation(ctx, &queue[i]); err != nil {
				return err
			}
		}
		return tx.DeleteBook(ctx, bookID)
	})
}
