package models

import "time"

type Client struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	UserID    int64  `gorm:"index;not null"`
	Name      string `gorm:"not null"`
	Email     *string
	Phone     *string
	TaxID     *string `gorm:"type:varchar(32)"`
	Address   *string `gorm:"type:text"`
	City      *string
	State     *string `gorm:"type:varchar(2)"`
	ZipCode   *string `gorm:"type:varchar(16)"`
	BirthDate *string `gorm:"type:varchar(10)"` // YYYY-MM-DD
	Notes     *string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
