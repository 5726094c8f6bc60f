// app/bootstrap.go
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"Gin_postgres_redis_library/config"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"go.uber.org/zap"
)

// NewInviteToken returns 32 hex chars of crypto randomness.
func NewInviteToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func InviteLink(webOrigin, token string) string {
	return strings.TrimRight(webOrigin, "/") + "/login?inviteToken=" + token
}

// BootstrapFirstAdmin issues an ADMIN invite to cfg.BootstrapEmail while no admin
// account exists, and logs the registration link. It returns the link, or "" when skipped.
func BootstrapFirstAdmin(ctx context.Context, cfg config.Config, repo *db.Repo, log *zap.Logger) (string, error) {
	if cfg.BootstrapEmail == "" {
		return "", nil
	}
	n, err := repo.CountAdmins(ctx)
	if err != nil {
		return "", fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return "", nil // 已经有管理员，跳过
	}

	token, err := NewInviteToken()
	if err != nil {
		return "", err
	}
	inv := &models.Invite{
		Email:     cfg.BootstrapEmail,
		Token:     token,
		Role:      models.RoleAdmin,
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
		CreatedBy: "bootstrap",
	}
	if err := repo.CreateInvite(ctx, inv); err != nil {
		return "", fmt.Errorf("bootstrap invite: %w", err)
	}

	link := InviteLink(cfg.WebOrigin, token)
	log.Info("no admin found, created an admin invite",
		zap.String("email", cfg.BootstrapEmail), zap.String("link", link))
	return link, nil
}
