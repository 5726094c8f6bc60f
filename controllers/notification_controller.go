package controllers

import (
	"net/http"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/models"

	"github.com/gin-gonic/gin"
)

type NotificationController struct{ *Srv }

func NewNotificationController(s *Srv) *NotificationController {
	return &NotificationController{Srv: s}
}

// GET /api/notifications?customerId=&unread=true
func (nc *NotificationController) List(c *gin.Context) {
	customerID, ok := app.CallerOf(c).ScopeCustomer(c.Query("customerId"))
	if !ok {
		forbidden(c)
		return
	}
	if customerID == "" {
		app.BadRequest(c, "customerId is required")
		return
	}
	out, err := nc.Repo.ListNotifications(c.Request.Context(), customerID, c.Query("unread") == "true", pageOf(c))
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": out})
}

// PUT /api/notifications/:id/read
func (nc *NotificationController) MarkRead(c *gin.Context) {
	ctx := c.Request.Context()
	n, err := nc.Repo.FindNotificationByID(ctx, c.Param("id"))
	if err != nil {
		app.Fail(c, err)
		return
	}
	if !app.CallerOf(c).CanActFor(n.CustomerID) {
		forbidden(c)
		return
	}
	if err := nc.Repo.MarkNotificationRead(ctx, n.ID); err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// POST /api/notifications/send 馆员手动通知
func (nc *NotificationController) Send(c *gin.Context) {
	var in struct {
		CustomerID string `json:"customerId" binding:"required"`
		Title      string `json:"title" binding:"required,max=200"`
		Message    string `json:"message"`
	}
	if !bindJSON(c, &in) {
		return
	}
	ctx := c.Request.Context()
	if _, err := nc.Repo.FindCustomerByID(ctx, in.CustomerID); err != nil {
		app.Fail(c, err)
		return
	}
	n := &models.Notification{CustomerID: in.CustomerID, Title: in.Title, Message: in.Message}
	if err := nc.Notify.Send(ctx, n); err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}
