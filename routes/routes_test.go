package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/config"
	"Gin_postgres_redis_library/db/dbtest"
	"Gin_postgres_redis_library/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	a *app.App
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.Config{
		Env:        "test",
		WebOrigin:  "http://localhost:5173",
		RPID:       "localhost",
		RPOrigins:  []string{"http://localhost:5173"},
		SessionTTL: time.Minute,
		Lending: config.Lending{
			LoanDays:       14,
			HoldDays:       14,
			PageFee:        decimal.RequireFromString("2"),
			DailyLateFee:   decimal.RequireFromString("1"),
			DefaultLostFee: decimal.RequireFromString("50"),
		},
	}
	a, err := app.New(cfg, zap.NewNop(), dbtest.Open(t), rdb)
	require.NoError(t, err)
	RegisterRoutes(a.Router, a)
	return &harness{a: a}
}

// login creates an account with a live session and returns its cookie.
func (h *harness) login(t *testing.T, role models.Role, customerID string) *http.Cookie {
	t.Helper()
	ctx := context.Background()
	acc := &models.Account{ID: uuid.NewString(), Username: uuid.NewString() + "@example.com", DisplayName: "t", Role: role}
	if customerID != "" {
		acc.CustomerID = &customerID
	}
	require.NoError(t, h.a.DB.WithContext(ctx).Create(acc).Error)
	sid := uuid.NewString()
	require.NoError(t, h.a.AppSessions().Create(ctx, sid, acc))
	return &http.Cookie{Name: app.AppSessionCookie, Value: sid}
}

func (h *harness) customer(t *testing.T, name string) string {
	t.Helper()
	c := &models.Customer{ID: uuid.NewString(), Name: name, Role: models.RoleCustomer}
	require.NoError(t, h.a.Repo.CreateCustomer(context.Background(), c))
	return c.ID
}

func (h *harness) do(t *testing.T, ck *http.Cookie, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if ck != nil {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	h.a.Router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func TestHealthAndAuth(t *testing.T) {
	h := newHarness(t)

	w, _ := h.do(t, nil, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(app.RequestIDHeader))

	w, body := h.do(t, nil, http.MethodGet, "/api/books", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", body["error"])

	cust := h.login(t, models.RoleCustomer, h.customer(t, "ann"))
	w, _ = h.do(t, cust, http.MethodGet, "/api/books", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = h.do(t, cust, http.MethodPost, "/api/books", map[string]any{"title": "Dune", "totalCopies": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", body["error"])

	w, _ = h.do(t, cust, http.MethodGet, "/api/accounts", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCirculationOverHTTP(t *testing.T) {
	h := newHarness(t)
	staff := h.login(t, models.RoleLibrarian, "")
	annID, bobID := h.customer(t, "ann"), h.customer(t, "bob")
	ann := h.login(t, models.RoleCustomer, annID)
	bob := h.login(t, models.RoleCustomer, bobID)

	w, book := h.do(t, staff, http.MethodPost, "/api/books",
		map[string]any{"title": "Dune", "price": "25.00", "totalCopies": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bookID := book["id"].(string)

	w, loan := h.do(t, ann, http.MethodPost, "/api/borrows", map[string]any{"bookId": bookID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	loanID := loan["id"].(string)
	assert.Equal(t, annID, loan["customerId"])

	w, body := h.do(t, bob, http.MethodPost, "/api/borrows", map[string]any{"bookId": bookID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "OUT_OF_STOCK", body["error"])

	w, _ = h.do(t, bob, http.MethodPost, "/api/borrows", map[string]any{"bookId": bookID, "customerId": annID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = h.do(t, bob, http.MethodGet, "/api/borrows/"+loanID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, res := h.do(t, bob, http.MethodPost, "/api/reservations", map[string]any{"bookId": bookID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "PENDING", res["status"])
	resID := res["id"].(string)

	w, _ = h.do(t, ann, http.MethodPut, "/api/borrows/"+loanID+"/return", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = h.do(t, staff, http.MethodPut, "/api/borrows/"+loanID+"/return", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body = h.do(t, staff, http.MethodPut, "/api/borrows/"+loanID+"/return", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_RETURNED", body["error"])

	w, res = h.do(t, bob, http.MethodGet, "/api/reservations/"+resID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FULFILLED", res["status"])

	w, body = h.do(t, staff, http.MethodPut, "/api/borrows/"+loanID+"/undo-return", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "OUT_OF_STOCK", body["error"])

	w, body = h.do(t, bob, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Reservation fulfilled", items[0].(map[string]any)["title"])

	w, body = h.do(t, bob, http.MethodGet, "/api/borrows?status=active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["items"].([]any), 1)

	w, _ = h.do(t, bob, http.MethodGet, "/api/borrows?customerId="+annID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPenaltyOverHTTP(t *testing.T) {
	h := newHarness(t)
	staff := h.login(t, models.RoleLibrarian, "")
	admin := h.login(t, models.RoleAdmin, "")
	annID := h.customer(t, "ann")
	ann := h.login(t, models.RoleCustomer, annID)

	_, book := h.do(t, staff, http.MethodPost, "/api/books",
		map[string]any{"title": "SICP", "price": "40", "totalCopies": 2})
	_, loan := h.do(t, staff, http.MethodPost, "/api/borrows",
		map[string]any{"bookId": book["id"], "customerId": annID, "days": 7})
	loanID := loan["id"].(string)

	w, _ := h.do(t, ann, http.MethodPost, "/api/penalties/borrow/"+loanID, map[string]any{"brokenPages": 3})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := h.do(t, staff, http.MethodPost, "/api/penalties/borrow/"+loanID, map[string]any{"brokenPages": -2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ARGUMENT", body["error"])

	w, p := h.do(t, staff, http.MethodPost, "/api/penalties/borrow/"+loanID,
		map[string]any{"brokenPages": 3, "overdueDays": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	total, err := decimal.NewFromString(p["totalPenalty"].(string))
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(11)), total.String())
	penaltyID := p["id"].(string)

	w, body = h.do(t, ann, http.MethodGet, "/api/penalties?unpaid=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["items"].([]any), 1)

	w, p = h.do(t, staff, http.MethodPut, "/api/penalties/"+penaltyID+"/status", map[string]any{"paid": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, p["resolved"])

	w, _ = h.do(t, staff, http.MethodDelete, "/api/penalties/"+penaltyID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = h.do(t, admin, http.MethodDelete, "/api/penalties/"+penaltyID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, body = h.do(t, admin, http.MethodGet, "/api/penalties/"+penaltyID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", body["error"])
}

func TestAdminDashboard(t *testing.T) {
	h := newHarness(t)
	admin := h.login(t, models.RoleAdmin, "")
	staff := h.login(t, models.RoleLibrarian, "")
	annID := h.customer(t, "ann")

	_, book := h.do(t, staff, http.MethodPost, "/api/books", map[string]any{"title": "Dune", "totalCopies": 2})
	_, first := h.do(t, staff, http.MethodPost, "/api/borrows", map[string]any{"bookId": book["id"], "customerId": annID})
	w, _ := h.do(t, staff, http.MethodPut, "/api/borrows/"+first["id"].(string)+"/return", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = h.do(t, staff, http.MethodPost, "/api/borrows", map[string]any{"bookId": book["id"], "customerId": annID})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = h.do(t, staff, http.MethodGet, "/admin/dashboard", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := h.do(t, admin, http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["accounts"])
	assert.Equal(t, float64(1), body["customers"])
	assert.Equal(t, float64(1), body["books"])
	assert.Equal(t, float64(1), body["borrowed"])
	assert.Equal(t, float64(1), body["returned"])
}

func TestNotifications_OtherCustomerIsForbidden(t *testing.T) {
	h := newHarness(t)
	annID, bobID := h.customer(t, "ann"), h.customer(t, "bob")
	bob := h.login(t, models.RoleCustomer, bobID)

	w, body := h.do(t, bob, http.MethodGet, "/api/notifications?customerId="+annID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", body["error"])

	w, _ = h.do(t, bob, http.MethodGet, "/api/notifications", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
