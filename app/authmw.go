package app

import (
	"net/http"
	"strings"

	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"
	"Gin_postgres_redis_library/session"

	"github.com/gin-gonic/gin"
)

const AppSessionCookie = "app_session"

const (
	ctxAccountID  = "accountID"
	ctxUsername   = "username"
	ctxRole       = "role"
	ctxCustomerID = "customerID"
)

func AuthRequired(appSess *session.AppSessionStore, repo *db.Repo, adminEmails []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ck, err := c.Request.Cookie(AppSessionCookie)
		if err != nil || ck.Value == "" {
			Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
			return
		}
		as, err := appSess.Get(c.Request.Context(), ck.Value)
		if err != nil {
			Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session")
			return
		}

		// 确认账号仍存在；角色以数据库为准
		acc, err := repo.FindAccountByID(c.Request.Context(), as.AccountID)
		if err != nil {
			_ = appSess.Delete(c.Request.Context(), ck.Value)
			Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "account no longer exists")
			return
		}
		role := acc.Role
		for _, admin := range adminEmails {
			if strings.EqualFold(acc.Username, admin) {
				role = models.RoleAdmin
			}
		}

		c.Set(ctxAccountID, acc.ID)
		c.Set(ctxUsername, acc.Username)
		c.Set(ctxRole, role)
		if acc.CustomerID != nil {
			c.Set(ctxCustomerID, *acc.CustomerID)
		}
		c.Next()
	}
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		who := CallerOf(c)
		if who.AccountID == "" {
			Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
			return
		}
		for _, r := range roles {
			if who.Role == r {
				c.Next()
				return
			}
		}
		Abort(c, http.StatusForbidden, "FORBIDDEN", "role "+string(who.Role)+" may not do this")
	}
}

// Caller is the authenticated identity AuthRequired put on the context.
type Caller struct {
	AccountID  string
	Username   string
	Role       models.Role
	CustomerID string
}

func CallerOf(c *gin.Context) Caller {
	role, _ := c.Get(ctxRole)
	r, _ := role.(models.Role)
	return Caller{
		AccountID:  c.GetString(ctxAccountID),
		Username:   c.GetString(ctxUsername),
		Role:       r,
		CustomerID: c.GetString(ctxCustomerID),
	}
}

// CanActFor: staff may act for any customer, a customer only for itself.
func (w Caller) CanActFor(customerID string) bool {
	if w.Role.Staff() {
		return true
	}
	return w.CustomerID != "" && w.CustomerID == customerID
}

// ScopeCustomer resolves the customer filter of a list request: customers are
// pinned to themselves, staff may pass any id or none.
func (w Caller) ScopeCustomer(requested string) (string, bool) {
	if w.Role.Staff() {
		return requested, true
	}
	if requested != "" && requested != w.CustomerID {
		return "", false
	}
	return w.CustomerID, w.CustomerID != ""
}
