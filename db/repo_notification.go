package db

import (
	"context"

	"Gin_postgres_redis_library/models"

	"gorm.io/gorm"
)

func (r *Repo) CreateNotification(ctx context.Context, n *models.Notification) error {
	return r.DB.WithContext(ctx).Create(n).Error
}

// ListNotifications returns the newest first; unreadOnly drops those already read.
func (r *Repo) ListNotifications(ctx context.Context, customerID string, unreadOnly bool, p Page) ([]models.Notification, error) {
	offset, limit := p.clamp(100)
	tx := r.DB.WithContext(ctx).Where("customer_id = ?", customerID)
	if unreadOnly {
		tx = tx.Where("read = ?", false)
	}
	var out []models.Notification
	if err := tx.Order("created_at DESC").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) FindNotificationByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := r.DB.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *Repo) MarkNotificationRead(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
