package models

import "time"

const (
	PayableStatusPending = "pending"
	PayableStatusPaid    = "paid"
	PayableStatusOverdue = "overdue"
)

type Payable struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	UserID      int64  `gorm:"index;not null"`
	Description string `gorm:"not null"`
	SupplierID  *int64
	Amount      string `gorm:"type:varchar(32);not null"`
	DueDate     *time.Time
	Status      string `gorm:"type:varchar(16);not null;default:'pending'"`
	PaidAt      *time.Time
	Notes       *string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Supplier *Supplier `gorm:"foreignKey:SupplierID"`
}

type Payment struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	UserID      int64   `gorm:"index;not null"`
	Description *string `gorm:"type:text"`
	Amount      string  `gorm:"type:varchar(32);not null"`
	MethodID    *int64
	Status      string `gorm:"type:varchar(16);not null;default:'paid'"`
	CreatedAt   time.Time

	Method *PaymentMethod `gorm:"foreignKey:MethodID"`
}

type StoreSettings struct {
	ID            int64 `gorm:"primaryKey;autoIncrement"`
	UserID        int64 `gorm:"uniqueIndex;not null"`
	StoreName     *string
	Phone         *string
	Email         *string
	Address       *string `gorm:"type:text"`
	City          *string
	State         *string `gorm:"type:varchar(2)"`
	ZipCode       *string `gorm:"type:varchar(16)"`
	ReceiptFooter *string `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
