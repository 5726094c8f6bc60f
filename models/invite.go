package models

import "time"

// Invite 一次性注册邀请，注册时决定账号角色
type Invite struct {
	ID         uint      `gorm:"primaryKey"`
	Email      string    `gorm:"index;size:255;not null"`
	Token      string    `gorm:"uniqueIndex;size:64;not null"`
	Role       Role      `gorm:"size:20;not null"`
	CustomerID *string   `gorm:"type:uuid"`
	ExpiresAt  time.Time `gorm:"index;not null"`
	UsedAt     *time.Time
	CreatedBy  string `gorm:"size:255"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Invite) TableName() string { return "lib_invites" }
