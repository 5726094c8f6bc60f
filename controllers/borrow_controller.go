package controllers

import (
	"net/http"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/db"

	"github.com/gin-gonic/gin"
)

type BorrowController struct{ *Srv }

func NewBorrowController(s *Srv) *BorrowController { return &BorrowController{Srv: s} }

// POST /api/borrows
// 顾客省略 customerId 时借给自己；days 省略时用默认借期
func (bc *BorrowController) Borrow(c *gin.Context) {
	var in struct {
		CustomerID string `json:"customerId"`
		BookID     string `json:"bookId" binding:"required"`
		Days       *int   `json:"days"`
	}
	if !bindJSON(c, &in) {
		return
	}
	who := app.CallerOf(c)
	if in.CustomerID == "" {
		in.CustomerID = who.CustomerID
	}
	if in.CustomerID == "" {
		app.BadRequest(c, "customerId is required")
		return
	}
	if !who.CanActFor(in.CustomerID) {
		forbidden(c)
		return
	}
	days := bc.Lending.Policy().LoanDays
	if in.Days != nil {
		days = *in.Days
	}

	rec, err := bc.Lending.Borrow(c.Request.Context(), in.CustomerID, in.BookID, days)
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// GET /api/borrows?customerId=&bookId=&status=active|returned|overdue
func (bc *BorrowController) ListBorrows(c *gin.Context) {
	customerID, ok := app.CallerOf(c).ScopeCustomer(c.Query("customerId"))
	if !ok {
		forbidden(c)
		return
	}
	recs, err := bc.Lending.ListBorrows(c.Request.Context(), db.BorrowQuery{
		CustomerID: customerID,
		BookID:     c.Query("bookId"),
		Status:     c.Query("status"),
	})
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": recs})
}

func (bc *BorrowController) GetBorrow(c *gin.Context) {
	rec, err := bc.Lending.GetBorrow(c.Request.Context(), c.Param("id"))
	if err != nil {
		app.Fail(c, err)
		return
	}
	if !app.CallerOf(c).CanActFor(rec.CustomerID) {
		forbidden(c)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// PUT /api/borrows/:id/return
func (bc *BorrowController) Return(c *gin.Context) {
	rec, err := bc.Lending.ReturnBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// PUT /api/borrows/:id/undo-return
func (bc *BorrowController) UndoReturn(c *gin.Context) {
	rec, err := bc.Lending.UndoReturn(c.Request.Context(), c.Param("id"))
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
