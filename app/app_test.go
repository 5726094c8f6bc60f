package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"Gin_postgres_redis_library/config"
	"Gin_postgres_redis_library/db/dbtest"
	"Gin_postgres_redis_library/lending"
	"Gin_postgres_redis_library/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func init() { gin.SetMode(gin.TestMode) }

func TestFail_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{lending.ErrOutOfStock, http.StatusConflict, "OUT_OF_STOCK"},
		{fmt.Errorf("wrapped: %w", lending.ErrDuplicateLoan), http.StatusConflict, "DUPLICATE_LOAN"},
		{lending.ErrInvalidArgument, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{lending.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{gorm.ErrRecordNotFound, http.StatusNotFound, "NOT_FOUND"},
		{gorm.ErrDuplicatedKey, http.StatusConflict, "CONFLICT"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

			Fail(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body["error"])
			assert.Equal(t, "/x", body["path"])
		})
	}
}

func withCaller(role models.Role, customerID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxAccountID, "acc-1")
		c.Set(ctxRole, role)
		if customerID != "" {
			c.Set(ctxCustomerID, customerID)
		}
	}
}

func TestRequireRole(t *testing.T) {
	for _, tc := range []struct {
		role models.Role
		want int
	}{
		{models.RoleAdmin, http.StatusOK},
		{models.RoleLibrarian, http.StatusOK},
		{models.RoleCustomer, http.StatusForbidden},
	} {
		r := gin.New()
		r.GET("/", withCaller(tc.role, ""), RequireRole(models.RoleAdmin, models.RoleLibrarian),
			func(c *gin.Context) { c.Status(http.StatusOK) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, tc.want, w.Code, tc.role)
	}

	r := gin.New()
	r.GET("/", RequireRole(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCallerScope(t *testing.T) {
	staff := Caller{AccountID: "a", Role: models.RoleLibrarian}
	id, ok := staff.ScopeCustomer("")
	assert.True(t, ok)
	assert.Empty(t, id)
	id, ok = staff.ScopeCustomer("c-9")
	assert.True(t, ok)
	assert.Equal(t, "c-9", id)
	assert.True(t, staff.CanActFor("c-9"))

	cust := Caller{AccountID: "b", Role: models.RoleCustomer, CustomerID: "c-1"}
	id, ok = cust.ScopeCustomer("")
	assert.True(t, ok)
	assert.Equal(t, "c-1", id)
	_, ok = cust.ScopeCustomer("c-2")
	assert.False(t, ok)
	assert.True(t, cust.CanActFor("c-1"))
	assert.False(t, cust.CanActFor("c-2"))

	orphan := Caller{AccountID: "c", Role: models.RoleCustomer}
	_, ok = orphan.ScopeCustomer("")
	assert.False(t, ok)
	assert.False(t, orphan.CanActFor(""))
}

func TestBootstrapFirstAdmin(t *testing.T) {
	ctx := context.Background()
	repo := dbtest.Repo(t)
	core, logs := observer.New(zap.InfoLevel)
	cfg := config.Config{WebOrigin: "http://localhost:5173/", BootstrapEmail: "root@example.com"}

	link, err := BootstrapFirstAdmin(ctx, cfg, repo, zap.New(core))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "http://localhost:5173/login?inviteToken="), link)
	assert.Equal(t, 1, logs.FilterMessage("no admin found, created an admin invite").Len())

	token := strings.TrimPrefix(link, "http://localhost:5173/login?inviteToken=")
	inv, err := repo.GetInviteByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, inv.Role)
	assert.Equal(t, "root@example.com", inv.Email)

	// once an admin exists nothing more is issued
	_, err = repo.FindOrCreateAccount(ctx, inv, "3f1c1f1e-9a43-4a55-8f33-3e4a3a6b7c01")
	require.NoError(t, err)
	link, err = BootstrapFirstAdmin(ctx, cfg, repo, zap.New(core))
	require.NoError(t, err)
	assert.Empty(t, link)

	link, err = BootstrapFirstAdmin(ctx, config.Config{}, repo, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, link)
}
