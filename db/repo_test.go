package db_test

import (
	"context"
	"testing"

	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/db/dbtest"
	"Gin_postgres_redis_library/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newBook(t *testing.T, repo *db.Repo, total int) *models.Book {
	t.Helper()
	b := &models.Book{ID: uuid.NewString(), Title: "Go in Action", Price: decimal.NewFromInt(25),
		TotalCopies: total, CopiesAvailable: total, Version: 1}
	require.NoError(t, repo.CreateBook(context.Background(), b))
	return b
}

func TestSaveBookCounts_StaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := dbtest.Repo(t)
	b := newBook(t, repo, 3)

	a, err := repo.FindBookByID(ctx, b.ID)
	require.NoError(t, err)
	c, err := repo.FindBookByID(ctx, b.ID)
	require.NoError(t, err)

	a.CopiesAvailable--
	require.NoError(t, repo.SaveBookCounts(ctx, a))
	assert.Equal(t, int64(2), a.Version)

	c.CopiesAvailable--
	assert.ErrorIs(t, repo.SaveBookCounts(ctx, c), db.ErrStaleVersion)

	got, err := repo.FindBookByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CopiesAvailable)
}

func TestOneOpenBorrowPerCustomerAndBook(t *testing.T) {
	ctx := context.Background()
	repo := dbtest.Repo(t)
	b := newBook(t, repo, 2)
	cust := uuid.NewString()

	open := func() *models.BorrowRecord {
		return &models.BorrowRecord{ID: uuid.NewString(), CustomerID: cust, BookID: b.ID, Version: 1}
	}
	first := open()
	require.NoError(t, repo.CreateBorrow(ctx, first))
	assert.ErrorIs(t, repo.CreateBorrow(ctx, open()), gorm.ErrDuplicatedKey)

	first.Returned = true
	require.NoError(t, repo.SaveBorrow(ctx, first))
	require.NoError(t, repo.CreateBorrow(ctx, open()))

	held, err := repo.HasActiveBorrow(ctx, cust, b.ID)
	require.NoError(t, err)
	assert.True(t, held)
	held, err = repo.HasActiveBorrow(ctx, cust, "")
	require.NoError(t, err)
	assert.True(t, held)
	held, err = repo.HasActiveBorrow(ctx, uuid.NewString(), "")
	require.NoError(t, err)
	assert.False(t, held)
}

func TestListBooks_SearchAndPaging(t *testing.T) {
	ctx := context.Background()
	repo := dbtest.Repo(t)
	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		b := &models.Book{ID: uuid.NewString(), Title: title, Category: "fiction", Version: 1}
		require.NoError(t, repo.CreateBook(ctx, b))
	}

	page, err := repo.ListBooks(ctx, db.BookQuery{Q: "a", Page: db.Page{Page: 1, Size: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Books, 2)
	assert.Equal(t, "Alpha", page.Books[0].Title)

	page, err = repo.ListBooks(ctx, db.BookQuery{Q: "bet"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestSaveBorrow_StaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := dbtest.Repo(t)
	b := newBook(t, repo, 1)
	rec := &models.BorrowRecord{ID: uuid.NewString(), CustomerID: uuid.NewString(), BookID: b.ID, Version: 1}
	require.NoError(t, repo.CreateBorrow(ctx, rec))

	a, err := repo.FindBorrowByID(ctx, rec.ID)
	require.NoError(t, err)
	c, err := repo.FindBorrowByID(ctx, rec.ID)
	require.NoError(t, err)

	a.Returned = true
	require.NoError(t, repo.SaveBorrow(ctx, a))
	assert.Equal(t, int64(2), a.Version)

	c.BrokenPages = 4
	assert.ErrorIs(t, repo.SaveBorrow(ctx, c), db.ErrStaleVersion)

	got, err := repo.FindBorrowByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.Returned)
	assert.Equal(t, 0, got.BrokenPages)
}

func TestDashboardCounts(t *testing.T) {
	ctx := context.Background()
	repo := dbtest.Repo(t)
	b := newBook(t, repo, 3)
	newBook(t, repo, 1)
	require.NoError(t, repo.CreateCustomer(ctx, &models.Customer{ID: uuid.NewString(), Name: "ann", Role: models.RoleCustomer}))

	for i, returned := range []bool{false, false, true} {
		rec := &models.BorrowRecord{ID: uuid.NewString(), CustomerID: uuid.NewString(), BookID: b.ID, Version: 1}
		require.NoError(t, repo.CreateBorrow(ctx, rec), i)
		if returned {
			rec.Returned = true
			require.NoError(t, repo.SaveBorrow(ctx, rec))
		}
	}

	got, err := repo.DashboardCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, db.DashboardCounts{Accounts: 0, Customers: 1, Books: 2, Borrowed: 2, Returned: 1}, *got)
}
