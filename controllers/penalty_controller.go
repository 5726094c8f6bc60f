package controllers

import (
	"net/http"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/lending"

	"github.com/gin-gonic/gin"
)

type PenaltyController struct{ *Srv }

func NewPenaltyController(s *Srv) *PenaltyController { return &PenaltyController{Srv: s} }

// GET /api/penalties?customerId=&unpaid=true
func (pc *PenaltyController) List(c *gin.Context) {
	customerID, ok := app.CallerOf(c).ScopeCustomer(c.Query("customerId"))
	if !ok {
		forbidden(c)
		return
	}
	out, err := pc.Lending.ListPenalties(c.Request.Context(), db.PenaltyQuery{
		CustomerID: customerID,
		UnpaidOnly: c.Query("unpaid") == "true",
	})
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": out})
}

func (pc *PenaltyController) Get(c *gin.Context) {
	p, err := pc.Lending.GetPenalty(c.Request.Context(), c.Param("id"))
	if err != nil {
		app.Fail(c, err)
		return
	}
	if !app.CallerOf(c).CanActFor(p.CustomerID) {
		forbidden(c)
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /api/penalties/borrow/:borrowId 按借阅记录 upsert
func (pc *PenaltyController) Upsert(c *gin.Context) {
	var patch lending.PenaltyPatch
	if !bindJSON(c, &patch) {
		return
	}
	p, err := pc.Lending.UpdatePenalty(c.Request.Context(), c.Param("borrowId"), patch)
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PUT /api/penalties/:id/status
func (pc *PenaltyController) SetStatus(c *gin.Context) {
	var in struct {
		Paid     bool `json:"paid"`
		Resolved bool `json:"resolved"`
	}
	if !bindJSON(c, &in) {
		return
	}
	p, err := pc.Lending.SetPenaltyStatus(c.Request.Context(), c.Param("id"), in.Paid, in.Resolved)
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (pc *PenaltyController) Delete(c *gin.Context) {
	if err := pc.Lending.DeletePenalty(c.Request.Context(), c.Param("id")); err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
