package models

import "time"

// Payment status values for tenant owner accounts.
const (
	AccountStatusTrial    = "trial"
	AccountStatusPaid     = "paid"
	AccountStatusPastDue  = "past_due"
	AccountStatusCanceled = "canceled"
)

// User is a tenant owner. Every other tenant-scoped row carries its ID
// as UserID; that column is the row-level isolation boundary.
type User struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	Name          string `gorm:"not null"`
	Email         string `gorm:"uniqueIndex;not null"`
	Password      string `gorm:"not null"`
	Phone         string
	Address       string     `gorm:"type:text"`
	PaymentStatus string     `gorm:"type:varchar(32);not null;default:'trial'"`
	TrialEndsAt   *time.Time
	CreatedAt     *time.Time `gorm:"autoCreateTime"`
	UpdatedAt     *time.Time `gorm:"autoUpdateTime"`
}

type Employee struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	UserID     int64  `gorm:"index;not null"` // employing owner
	Name       string `gorm:"not null"`
	Email      string `gorm:"uniqueIndex;not null"`
	Password   string // empty until the owner assigns one
	Role       string `gorm:"type:varchar(32);not null"`
	Active     bool   `gorm:"default:true"`
	LastAccess *time.Time
	CreatedAt  *time.Time `gorm:"autoCreateTime"`
	UpdatedAt  *time.Time `gorm:"autoUpdateTime"`
}

// ActivityLog rows are best-effort: a failed insert is logged and never
// blocks the operation that produced it.
type ActivityLog struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	UserID      int64  `gorm:"index;not null"`
	ActionType  string `gorm:"type:varchar(32);not null"`
	Description string `gorm:"type:text"`
	IPAddress   string `gorm:"type:varchar(64)"`
	CreatedAt   time.Time
}
