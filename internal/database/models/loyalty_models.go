package models

import "time"

// Loyalty history entry kinds.
const (
	LoyaltyKindEarn   = "earn"
	LoyaltyKindRedeem = "redeem"
	LoyaltyKindExpire = "expire"
	LoyaltyKindAdjust = "adjust"
)

// Reward kinds.
const (
	RewardPercentDiscount = "percent_discount"
	RewardFixedDiscount   = "fixed_discount"
	RewardProduct         = "product"
	RewardService         = "service"
)

// LoyaltyConfig holds the per-tenant program settings, lazily created with
// defaults on first read.
type LoyaltyConfig struct {
	ID                 int64  `gorm:"primaryKey;autoIncrement"`
	UserID             int64  `gorm:"uniqueIndex;not null"`
	Active             bool   `gorm:"default:true"`
	PointsPerCurrency  string `gorm:"type:varchar(32);not null;default:'1'"`
	RedeemMinimum      int64  `gorm:"not null;default:100"`
	PointsValidityDays int64  `gorm:"not null;default:365"`
	BirthdayBonus      int64  `gorm:"not null;default:0"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LoyaltyAccount keeps two monotone counters per client. The invariant
// PointsRedeemed <= PointsEarned holds after every ledger operation.
type LoyaltyAccount struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	UserID         int64  `gorm:"not null;uniqueIndex:idx_loyalty_accounts_user_client"`
	ClientID       int64  `gorm:"not null;uniqueIndex:idx_loyalty_accounts_user_client"`
	PointsEarned   int64  `gorm:"not null;default:0"`
	PointsRedeemed int64  `gorm:"not null;default:0"`
	Tier           string `gorm:"type:varchar(16);not null;default:'bronze'"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LoyaltyHistory is the append-only audit trail; rows are never mutated.
type LoyaltyHistory struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	UserID         int64  `gorm:"index;not null"`
	ClientID       int64  `gorm:"index;not null"`
	Kind           string `gorm:"type:varchar(16);not null"`
	Points         int64  `gorm:"not null"` // signed delta as applied
	Description    *string `gorm:"type:text"`
	SaleID         *int64
	ServiceOrderID *int64
	RewardID       *int64
	CreatedAt      time.Time
}

type Reward struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	UserID         int64  `gorm:"index;not null"`
	Name           string `gorm:"not null"`
	Description    *string `gorm:"type:text"`
	PointsRequired int64  `gorm:"not null"`
	Kind           string `gorm:"type:varchar(32);not null"`
	DiscountValue  *string `gorm:"type:varchar(32)"`
	ProductID      *int64
	Active         bool `gorm:"default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
