package models

import (
	"time"
)

type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleLibrarian Role = "LIBRARIAN"
	RoleCustomer  Role = "CUSTOMER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLibrarian, RoleCustomer:
		return true
	}
	return false
}

// Staff covers everyone allowed to run the circulation desk.
func (r Role) Staff() bool { return r == RoleAdmin || r == RoleLibrarian }

// Account 使用 UUID 字节作为 WebAuthn userHandle（存字符串即可，用时转 []byte）
type Account struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Username    string `gorm:"uniqueIndex;size:255;not null" json:"username"`
	DisplayName string `gorm:"size:255;not null" json:"displayName"`
	Role        Role   `gorm:"size:20;not null" json:"role"`

	// 顾客账号绑定到一个 Customer
	CustomerID *string `gorm:"type:uuid;index" json:"customerId,omitempty"`

	LastLoginAt *time.Time `gorm:"index" json:"lastLoginAt,omitempty"`
	LastSeenAt  *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`
	LoginCount  int64      `gorm:"not null;default:0" json:"loginCount"`
	LastLoginIP string     `gorm:"size:45" json:"-"`
	LastLoginUA string     `gorm:"size:255" json:"-"`

	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Credentials []Credential `gorm:"foreignKey:AccountID" json:"-"`
}

func (Account) TableName() string {
	return "lib_accounts"
}

// Credential 为每个注册的 Passkey 存档
type Credential struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	AccountID       string    `gorm:"type:uuid;index" json:"accountId"`
	CredentialID    []byte    `gorm:"uniqueIndex" json:"credentialId"`
	PublicKey       []byte    `json:"publicKey"`
	AttestationType string    `gorm:"size:64" json:"attestationType"`
	AAGUID          []byte    `json:"aaguid"`
	SignCount       uint32    `json:"signCount"`
	CloneWarning    bool      `json:"cloneWarning"`
	BackupEligible  bool      `json:"backupEligible"`
	BackupState     bool      `json:"backupState"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	LastUsedAt *time.Time `gorm:"index" json:"lastUsedAt,omitempty"`
}

func (Credential) TableName() string { return "lib_credentials" }
