package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrStaleVersion 乐观锁：版本号已被其他事务推进
var ErrStaleVersion = errors.New("row version is stale")

type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

// InTx runs fn against a Repo bound to a single transaction; any error rolls it back.
func (r *Repo) InTx(ctx context.Context, fn func(tx *Repo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repo{DB: tx})
	})
}

// Page normalises 1-based paging input.
type Page struct {
	Page int
	Size int
}

func (p Page) clamp(max int) (offset, limit int) {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Size <= 0 || p.Size > max {
		p.Size = 20
	}
	return (p.Page - 1) * p.Size, p.Size
}

func (r *Repo) exists(ctx context.Context, model any, where string, args ...any) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(model).Where(where, args...).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
