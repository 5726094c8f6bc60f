package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"Gin_postgres_redis_library/models"

	"gorm.io/gorm"
)

// Accounts

func (r *Repo) TouchAccountLogin(ctx context.Context, accountID, ip, ua string) error {
	now := time.Now().UTC()
	return r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]any{
			"last_login_at": now,
			"last_seen_at":  now,
			"login_count":   gorm.Expr("COALESCE(login_count, 0) + 1"),
			"last_login_ip": ip,
			"last_login_ua": ua,
		}).Error
}

func (r *Repo) TouchAccountSeen(ctx context.Context, accountID string) error {
	return r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("last_seen_at", time.Now().UTC()).Error
}

func (r *Repo) FindAccountByID(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	if err := r.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repo) FindAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	var a models.Account
	if err := r.DB.WithContext(ctx).Where("username = ?", strings.ToLower(username)).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

type ListAccountsResult struct {
	Accounts []models.Account `json:"accounts"`
	Total    int64            `json:"total"`
}

// 列表（分页 + 关键词，匹配用户名/显示名）
func (r *Repo) ListAccounts(ctx context.Context, q string, role models.Role, p Page) (ListAccountsResult, error) {
	offset, limit := p.clamp(100)

	tx := r.DB.WithContext(ctx).Model(&models.Account{})
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("LOWER(username) LIKE ? OR LOWER(display_name) LIKE ?", like, like)
	}
	if role != "" {
		tx = tx.Where("role = ?", role)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return ListAccountsResult{}, err
	}
	var accounts []models.Account
	if err := tx.Order("created_at DESC").Offset(offset).Limit(limit).Find(&accounts).Error; err != nil {
		return ListAccountsResult{}, err
	}
	return ListAccountsResult{Accounts: accounts, Total: total}, nil
}

// 删除账号：先删凭据再删账号，同一事务
func (r *Repo) DeleteAccountByID(ctx context.Context, id string) error {
	return r.InTx(ctx, func(tx *Repo) error {
		if err := tx.DB.Where("account_id = ?", id).Delete(&models.Credential{}).Error; err != nil {
			return err
		}
		res := tx.DB.Delete(&models.Account{ID: id})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// FindOrCreateAccount 按邀请邮箱查找账号，不存在则按邀请的角色创建
func (r *Repo) FindOrCreateAccount(ctx context.Context, inv *models.Invite, newID string) (*models.Account, error) {
	var a models.Account
	err := r.DB.WithContext(ctx).Where("username = ?", inv.Email).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		a = models.Account{
			ID:          newID,
			Username:    inv.Email,
			DisplayName: inv.Email,
			Role:        inv.Role,
			CustomerID:  inv.CustomerID,
		}
		if err := r.DB.WithContext(ctx).Create(&a).Error; err != nil {
			return nil, err
		}
		return &a, nil
	}
	return &a, err
}

func (r *Repo) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&models.Account{}).
		Where("role = ?", models.RoleAdmin).
		Count(&n).Error
	return n, err
}

// Credentials

func (r *Repo) AddCredential(ctx context.Context, c *models.Credential) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *Repo) LoadAccountCredentials(ctx context.Context, accountID string) ([]models.Credential, error) {
	var cs []models.Credential
	if err := r.DB.WithContext(ctx).Where("account_id = ?", accountID).Find(&cs).Error; err != nil {
		return nil, err
	}
	return cs, nil
}

// RecordCredentialUse stores the authenticator counter after a successful assertion.
func (r *Repo) RecordCredentialUse(ctx context.Context, credID []byte, signCount uint32, cloneWarn bool) error {
	return r.DB.WithContext(ctx).Model(&models.Credential{}).
		Where("credential_id = ?", credID).
		Updates(map[string]any{
			"sign_count":    signCount,
			"clone_warning": cloneWarn,
			"last_used_at":  time.Now().UTC(),
		}).Error
}

func (r *Repo) FindAccountByCredentialID(ctx context.Context, credID []byte) (*models.Account, error) {
	var c models.Credential
	if err := r.DB.WithContext(ctx).Where("credential_id = ?", credID).First(&c).Error; err != nil {
		return nil, err
	}
	return r.FindAccountByID(ctx, c.AccountID)
}

func (r *Repo) SetAccountRole(ctx context.Context, id string, role models.Role) (*models.Account, error) {
	res := r.DB.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).
		Updates(map[string]any{"role": role, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindAccountByID(ctx, id)
}
