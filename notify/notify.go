// Package notify stores customer notifications and fans them out over redis pub/sub.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func Channel(customerID string) string { return fmt.Sprintf("notifications:customer:%s", customerID) }

type Sink struct {
	repo *db.Repo
	rdb  *redis.Client
	log  *zap.Logger
}

func NewSink(repo *db.Repo, rdb *redis.Client, log *zap.Logger) *Sink {
	return &Sink{repo: repo, rdb: rdb, log: log}
}

// Send persists n and publishes it to the customer's channel.
func (s *Sink) Send(ctx context.Context, n *models.Notification) error {
	n.Title = strings.TrimSpace(n.Title)
	if n.CustomerID == "" || n.Title == "" {
		return fmt.Errorf("notification needs a customer and a title")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	if err := s.rdb.Publish(ctx, Channel(n.CustomerID), b).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Notify is the fire-and-forget form used by the lending service; failures are only logged.
func (s *Sink) Notify(ctx context.Context, n *models.Notification) {
	if err := s.Send(ctx, n); err != nil {
		s.log.Warn("notification not delivered",
			zap.String("customer_id", n.CustomerID), zap.String("title", n.Title), zap.Error(err))
	}
}
