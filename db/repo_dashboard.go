package db

import (
	"context"

	"Gin_postgres_redis_library/models"
)

// DashboardCounts 管理后台首页的汇总数字
type DashboardCounts struct {
	Accounts  int64 `json:"accounts"`
	Customers int64 `json:"customers"`
	Books     int64 `json:"books"`
	Borrowed  int64 `json:"borrowed"`
	Returned  int64 `json:"returned"`
}

func (r *Repo) DashboardCounts(ctx context.Context) (*DashboardCounts, error) {
	var out DashboardCounts
	q := r.DB.WithContext(ctx)
	counts := []struct {
		model any
		where string
		args  []any
		dst   *int64
	}{
		{&models.Account{}, "", nil, &out.Accounts},
		{&models.Customer{}, "", nil, &out.Customers},
		{&models.Book{}, "", nil, &out.Books},
		{&models.BorrowRecord{}, "returned = ?", []any{false}, &out.Borrowed},
		{&models.BorrowRecord{}, "returned = ?", []any{true}, &out.Returned},
	}
	for _, c := range counts {
		tx := q.Model(c.model)
		if c.where != "" {
			tx = tx.Where(c.where, c.args...)
		}
		if err := tx.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return &out, nil
}
