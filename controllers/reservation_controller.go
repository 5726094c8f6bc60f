package controllers

import (
	"net/http"
	"time"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/gin-gonic/gin"
)

type ReservationController struct{ *Srv }

func NewReservationController(s *Srv) *ReservationController {
	return &ReservationController{Srv: s}
}

// POST /api/reservations
func (rc *ReservationController) Create(c *gin.Context) {
	var in struct {
		CustomerID string     `json:"customerId"`
		BookID     string     `json:"bookId" binding:"required"`
		ExpiryDate *time.Time `json:"expiryDate"`
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
	res, err := rc.Lending.CreateReservation(c.Request.Context(), in.CustomerID, in.BookID, in.ExpiryDate)
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GET /api/reservations?customerId=&bookId=&status=
func (rc *ReservationController) List(c *gin.Context) {
	customerID, ok := app.CallerOf(c).ScopeCustomer(c.Query("customerId"))
	if !ok {
		forbidden(c)
		return
	}
	out, err := rc.Lending.ListReservations(c.Request.Context(), db.ReservationQuery{
		CustomerID: customerID,
		BookID:     c.Query("bookId"),
		Status:     models.ReservationStatus(c.Query("status")),
	})
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": out})
}

func (rc *ReservationController) Get(c *gin.Context) {
	res, err := rc.Lending.GetReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		app.Fail(c, err)
		return
	}
	if !app.CallerOf(c).CanActFor(res.CustomerID) {
		forbidden(c)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PUT /api/reservations/:id/cancel
func (rc *ReservationController) Cancel(c *gin.Context) {
	ctx := c.Request.Context()
	res, err := rc.Lending.GetReservation(ctx, c.Param("id"))
	if err != nil {
		app.Fail(c, err)
		return
	}
	if !app.CallerOf(c).CanActFor(res.CustomerID) {
		forbidden(c)
		return
	}
	res, err = rc.Lending.CancelReservation(ctx, res.ID)
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
