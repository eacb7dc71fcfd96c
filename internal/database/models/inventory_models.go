package models

import "time"

// Categories form a shared tree; products reference them per tenant.
type Category struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"not null"`
	Description *string
	ParentID    *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Parent   *Category  `gorm:"foreignKey:ParentID"`
	Children []Category `gorm:"foreignKey:ParentID"`
}

type Product struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	UserID       int64  `gorm:"index;not null"`
	Name         string `gorm:"not null"`
	Description  *string `gorm:"type:text"`
	CategoryID   *int64
	Quantity     int64  `gorm:"not null;default:0"`
	UnitCost     string `gorm:"type:varchar(32);not null"`
	SalePrice    string `gorm:"type:varchar(32);not null"`
	Barcode      *string `gorm:"type:varchar(64)"`
	SerialNumber *string `gorm:"type:varchar(64)"`
	Color        *string `gorm:"type:varchar(32)"`
	Storage      *string `gorm:"type:varchar(32)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
}

type Supplier struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	UserID    int64  `gorm:"index;not null"`
	Name      string `gorm:"not null"`
	Contact   *string
	Email     *string
	Phone     *string
	TaxID     *string `gorm:"type:varchar(32)"`
	Address   *string `gorm:"type:text"`
	City      *string
	State     *string `gorm:"type:varchar(2)"`
	Notes     *string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
