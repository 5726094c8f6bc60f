package lending

import (
	"fmt"

	"Gin_postgres_redis_library/models"

	"github.com/google/uuid"
)

func penaltyNotice(p *models.Penalty) *models.Notification {
	return &models.Notification{
		ID:         uuid.NewString(),
		CustomerID: p.CustomerID,
		Title:      "Penalty assessed",
		Message: fmt.Sprintf("A penalty of %s has been assessed on loan %s (%d day(s) overdue).",
			p.TotalPenalty.StringFixed(2), p.BorrowID, p.OverdueDays),
	}
}

func fulfilledNotice(r *models.Reservation, book *models.Book, loan *models.BorrowRecord) *models.Notification {
	return &models.Notification{
		ID:         uuid.NewString(),
		CustomerID: r.CustomerID,
		Title:      "Reservation fulfilled",
		Message: fmt.Sprintf("Your reservation for %q is ready and has been checked out to you, due %s.",
			book.Title, loan.DueDate.Format("2006-01-02")),
	}
}
