package controllers

import (
	"net/http"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AccountController struct{ *Srv }

func GetAccountController(s *Srv) *AccountController { return &AccountController{Srv: s} }

// GET /admin/dashboard 管理后台汇总
func (ac *AccountController) Dashboard(c *gin.Context) {
	counts, err := ac.Repo.DashboardCounts(c.Request.Context())
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// GET /api/accounts?q=alice&role=LIBRARIAN&page=1&size=20
func (ac *AccountController) ListAccounts(c *gin.Context) {
	role := models.Role(c.Query("role"))
	if role != "" && !role.Valid() {
		app.BadRequest(c, "unknown role")
		return
	}
	res, err := ac.Repo.ListAccounts(c.Request.Context(), c.Query("q"), role, pageOf(c))
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/accounts/:id
func (ac *AccountController) GetAccount(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil { // 校验 UUID 格式
		app.BadRequest(c, "invalid uuid")
		return
	}
	acc, err := ac.Repo.FindAccountByID(c.Request.Context(), id)
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"account": acc})
}

// PUT /api/accounts/:id/role
func (ac *AccountController) SetRole(c *gin.Context) {
	id := c.Param("id")
	var in struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if !bindJSON(c, &in) {
		return
	}
	if !in.Role.Valid() {
		app.BadRequest(c, "unknown role")
		return
	}
	if id == app.CallerOf(c).AccountID {
		app.BadRequest(c, "cannot change your own role")
		return
	}
	acc, err := ac.Repo.SetAccountRole(c.Request.Context(), id, in.Role)
	if err != nil {
		app.Fail(c, err)
		return
	}
	// 角色变化后旧会话作废
	_ = ac.AppSess.RevokeAllForAccount(c.Request.Context(), id)
	c.JSON(http.StatusOK, app.H{"account": acc})
}

// DELETE /api/accounts/:id
func (ac *AccountController) DeleteAccount(c *gin.Context) {
	id := c.Param("id")

	// 不允许删除自己，避免锁死
	if id == app.CallerOf(c).AccountID {
		app.BadRequest(c, "cannot delete yourself")
		return
	}
	if err := ac.Repo.DeleteAccountByID(c.Request.Context(), id); err != nil {
		app.Fail(c, err)
		return
	}
	// 撤销该账号的所有登录会话
	_ = ac.AppSess.RevokeAllForAccount(c.Request.Context(), id)
	c.JSON(http.StatusOK, app.H{"ok": true})
}
