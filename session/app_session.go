package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"Gin_postgres_redis_library/models"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when the cookie points at nothing in redis.
var ErrNoSession = errors.New("session not found or expired")

type AppSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAppSessionStore(rdb *redis.Client, ttl time.Duration) *AppSessionStore {
	return &AppSessionStore{rdb: rdb, ttl: ttl}
}

func (s *AppSessionStore) TTL() time.Duration { return s.ttl }

type AppSession struct {
	AccountID  string      `json:"aid"`
	Role       models.Role `json:"role"`
	CustomerID string      `json:"cid,omitempty"`
	IssuedAt   int64       `json:"iat"`
	ExpiresAt  int64       `json:"exp"`
}

func key(id string) string            { return fmt.Sprintf("lib:sess:%s", id) }
func accountSetKey(aid string) string { return fmt.Sprintf("lib:account_sessions:%s", aid) }

func (s *AppSessionStore) Create(ctx context.Context, id string, acc *models.Account) error {
	now := time.Now()
	as := AppSession{
		AccountID: acc.ID,
		Role:      acc.Role,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}
	if acc.CustomerID != nil {
		as.CustomerID = *acc.CustomerID
	}
	b, err := json.Marshal(as)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key(id), b, s.ttl)
	pipe.SAdd(ctx, accountSetKey(acc.ID), id)
	pipe.Expire(ctx, accountSetKey(acc.ID), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *AppSessionStore) Get(ctx context.Context, id string) (*AppSession, error) {
	b, err := s.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var as AppSession
	if err := json.Unmarshal(b, &as); err != nil {
		return nil, err
	}
	return &as, nil
}

func (s *AppSessionStore) Delete(ctx context.Context, id string) error {
	as, _ := s.Get(ctx, id) // 忽略失败
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key(id))
	if as != nil {
		pipe.SRem(ctx, accountSetKey(as.AccountID), id)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// RevokeAllForAccount 删除账号或改角色时，撤销该账号的所有会话
func (s *AppSessionStore) RevokeAllForAccount(ctx context.Context, accountID string) error {
	ids, err := s.rdb.SMembers(ctx, accountSetKey(accountID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := s.rdb.TxPipeline()
	for _, sid := range ids {
		pipe.Del(ctx, key(sid))
	}
	pipe.Del(ctx, accountSetKey(accountID))
	_, err = pipe.Exec(ctx)
	return err
}
