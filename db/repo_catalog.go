// db/repo_catalog.go
package db

import (
	"context"
	"strings"
	"time"

	"Gin_postgres_redis_library/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Books

func (r *Repo) CreateBook(ctx context.Context, b *models.Book) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

func (r *Repo) FindBookByID(ctx context.Context, id string) (*models.Book, error) {
	var b models.Book
	if err := r.DB.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// LockBook 锁住该书的行（SELECT ... FOR UPDATE），只能在事务里用
func (r *Repo) LockBook(ctx context.Context, id string) (*models.Book, error) {
	var b models.Book
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// SaveBookCounts writes the copy counters guarded by the row version.
func (r *Repo) SaveBookCounts(ctx context.Context, b *models.Book) error {
	res := r.DB.WithContext(ctx).Model(&models.Book{}).
		Where("id = ? AND version = ?", b.ID, b.Version).
		Updates(map[string]any{
			"total_copies":     b.TotalCopies,
			"copies_available": b.CopiesAvailable,
			"version":          b.Version + 1,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	b.Version++
	return nil
}

// BookDetails lists the descriptive columns an admin may edit directly.
type BookDetails struct {
	Title         *string
	Author        *string
	ISBN          *string
	Category      *string
	PublishedYear *int
	Description   *string
	Price         *decimal.Decimal
}

func (d BookDetails) columns() map[string]any {
	m := map[string]any{}
	if d.Title != nil {
		m["title"] = *d.Title
	}
	if d.Author != nil {
		m["author"] = *d.Author
	}
	if d.ISBN != nil {
		m["isbn"] = *d.ISBN
	}
	if d.Category != nil {
		m["category"] = *d.Category
	}
	if d.PublishedYear != nil {
		m["published_year"] = *d.PublishedYear
	}
	if d.Description != nil {
		m["description"] = *d.Description
	}
	if d.Price != nil {
		m["price"] = *d.Price
	}
	return m
}

func (r *Repo) UpdateBookDetails(ctx context.Context, id string, d BookDetails) (*models.Book, error) {
	cols := d.columns()
	if len(cols) > 0 {
		cols["updated_at"] = time.Now().UTC()
		cols["version"] = gorm.Expr("version + 1")
		if err := r.DB.WithContext(ctx).Model(&models.Book{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return nil, err
		}
	}
	return r.FindBookByID(ctx, id)
}

type BookQuery struct {
	Q        string // 模糊搜索：title/author/isbn
	Category string
	Page
}

type PagedBooks struct {
	Total int64         `json:"total"`
	Books []models.Book `json:"books"`
}

func (r *Repo) ListBooks(ctx context.Context, q BookQuery) (*PagedBooks, error) {
	offset, limit := q.Page.clamp(200)

	tx := r.DB.WithContext(ctx).Model(&models.Book{})
	if s := strings.TrimSpace(q.Q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(isbn) LIKE ?", pat, pat, pat)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}
	var books []models.Book
	if err := tx.Order("title ASC").Offset(offset).Limit(limit).Find(&books).Error; err != nil {
		return nil, err
	}
	return &PagedBooks{Total: total, Books: books}, nil
}

func (r *Repo) DeleteBook(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Delete(&models.Book{ID: id}).Error
}

// Customers

func (r *Repo) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *Repo) FindCustomerByID(ctx context.Context, id string) (*models.Customer, error) {
	var c models.Customer
	if err := r.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// LockCustomer 锁住顾客行，串行化同一顾客的借阅资格检查
func (r *Repo) LockCustomer(ctx context.Context, id string) (*models.Customer, error) {
	var c models.Customer
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

type PagedCustomers struct {
	Total     int64             `json:"total"`
	Customers []models.Customer `json:"customers"`
}

func (r *Repo) ListCustomers(ctx context.Context, q string, p Page) (*PagedCustomers, error) {
	offset, limit := p.clamp(100)

	tx := r.DB.WithContext(ctx).Model(&models.Customer{})
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}
	var cs []models.Customer
	if err := tx.Order("name ASC").Offset(offset).Limit(limit).Find(&cs).Error; err != nil {
		return nil, err
	}
	return &PagedCustomers{Total: total, Customers: cs}, nil
}

func (r *Repo) UpdateCustomer(ctx context.Context, id string, name, email, phone *string) (*models.Customer, error) {
	cols := map[string]any{}
	if name != nil {
		cols["name"] = *name
	}
	if email != nil {
		cols["email"] = strings.ToLower(*email)
	}
	if phone != nil {
		cols["phone"] = *phone
	}
	if len(cols) > 0 {
		cols["updated_at"] = time.Now().UTC()
		if err := r.DB.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return nil, err
		}
	}
	return r.FindCustomerByID(ctx, id)
}

func (r *Repo) DeleteCustomer(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Delete(&models.Customer{ID: id}).Error
}
