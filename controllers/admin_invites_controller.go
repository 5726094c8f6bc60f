package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type InviteController struct{ *Srv }

func GetInviteController(s *Srv) *InviteController { return &InviteController{Srv: s} }

// POST /admin/invites
// CUSTOMER 邀请可以带 customerId；不带时按邮箱新建一个 Customer
func (ic *InviteController) CreateInvite(c *gin.Context) {
	var in struct {
		Email      string      `json:"email" binding:"required,email"`
		Role       models.Role `json:"role"`
		CustomerID string      `json:"customerId"`
		Name       string      `json:"name"`
		Expires    int         `json:"expiresDays"` // 默认 1 天
	}
	if !bindJSON(c, &in) {
		return
	}
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	if !in.Role.Valid() {
		app.BadRequest(c, "unknown role "+string(in.Role))
		return
	}
	if in.Expires <= 0 {
		in.Expires = 1
	}
	email := strings.ToLower(in.Email)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	var customerID *string
	if in.Role == models.RoleCustomer {
		if in.CustomerID != "" {
			if _, err := ic.Repo.FindCustomerByID(ctx, in.CustomerID); err != nil {
				app.Fail(c, err)
				return
			}
		} else {
			name := in.Name
			if name == "" {
				name = email
			}
			cust := &models.Customer{ID: uuid.NewString(), Name: name, Email: email, Role: models.RoleCustomer}
			if err := ic.Repo.CreateCustomer(ctx, cust); err != nil {
				app.Fail(c, err)
				return
			}
			in.CustomerID = cust.ID
		}
		customerID = &in.CustomerID
	}

	token, err := app.NewInviteToken()
	if err != nil {
		app.Fail(c, err)
		return
	}
	inv := &models.Invite{
		Email:      email,
		Token:      token,
		Role:       in.Role,
		CustomerID: customerID,
		ExpiresAt:  time.Now().UTC().AddDate(0, 0, in.Expires),
		CreatedBy:  app.CallerOf(c).Username,
	}
	if err := ic.Repo.CreateInvite(ctx, inv); err != nil {
		app.Fail(c, err)
		return
	}

	// 邀请链接只写日志并返回给管理员，由管理员转交
	link := app.InviteLink(ic.Cfg.WebOrigin, token)
	ic.Log.Info("invite created",
		zap.String("email", email), zap.String("role", string(in.Role)), zap.Int("expires_days", in.Expires))

	c.JSON(http.StatusCreated, app.H{
		"token":  token,
		"link":   link,
		"invite": inv,
	})
}
