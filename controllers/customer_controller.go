package controllers

import (
	"net/http"
	"strings"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CustomerController struct{ *Srv }

func NewCustomerController(s *Srv) *CustomerController { return &CustomerController{Srv: s} }

func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	var in struct {
		Name  string `json:"name" binding:"required,max=200"`
		Email string `json:"email" binding:"omitempty,email"`
		Phone string `json:"phone" binding:"max=40"`
	}
	if !bindJSON(c, &in) {
		return
	}
	cust := &models.Customer{
		ID:    uuid.NewString(),
		Name:  strings.TrimSpace(in.Name),
		Email: strings.ToLower(in.Email),
		Phone: in.Phone,
		Role:  models.RoleCustomer,
	}
	if err := cc.Repo.CreateCustomer(c.Request.Context(), cust); err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cust)
}

// GET /api/customers?q=&page=&size=
func (cc *CustomerController) ListCustomers(c *gin.Context) {
	res, err := cc.Repo.ListCustomers(c.Request.Context(), c.Query("q"), pageOf(c))
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/customers/:id 顾客只能看自己
func (cc *CustomerController) GetCustomer(c *gin.Context) {
	id := c.Param("id")
	if !app.CallerOf(c).CanActFor(id) {
		forbidden(c)
		return
	}
	cust, err := cc.Repo.FindCustomerByID(c.Request.Context(), id)
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (cc *CustomerController) UpdateCustomer(c *gin.Context) {
	id := c.Param("id")
	if !app.CallerOf(c).CanActFor(id) {
		forbidden(c)
		return
	}
	var in struct {
		Name  *string `json:"name" binding:"omitempty,min=1,max=200"`
		Email *string `json:"email" binding:"omitempty,email"`
		Phone *string `json:"phone" binding:"omitempty,max=40"`
	}
	if !bindJSON(c, &in) {
		return
	}
	cust, err := cc.Repo.UpdateCustomer(c.Request.Context(), id, in.Name, in.Email, in.Phone)
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

// DELETE /api/customers/:id 有未还的书时拒绝
func (cc *CustomerController) DeleteCustomer(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := cc.Repo.FindCustomerByID(ctx, id); err != nil {
		app.Fail(c, err)
		return
	}
	busy, err := cc.Repo.HasActiveBorrow(ctx, id, "")
	if err != nil {
		app.Fail(c, err)
		return
	}
	if busy {
		app.Abort(c, http.StatusConflict, "CONFLICT", "customer still has books on loan")
		return
	}
	if err := cc.Repo.DeleteCustomer(ctx, id); err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
