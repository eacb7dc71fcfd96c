package models

import "time"

// Service order lifecycle states.
const (
	ServiceOrderOpen       = "open"
	ServiceOrderInProgress = "in_progress"
	ServiceOrderWaiting    = "waiting_parts"
	ServiceOrderDone       = "done"
	ServiceOrderDelivered  = "delivered"
	ServiceOrderCanceled   = "canceled"
)

type ServiceOrder struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	UserID        int64  `gorm:"not null;uniqueIndex:idx_service_orders_user_number"`
	OrderNumber   string `gorm:"not null;uniqueIndex:idx_service_orders_user_number"`
	ClientID      *int64
	EmployeeID    *int64
	Equipment     string  `gorm:"not null"`
	Brand         *string
	Model         *string
	SerialNumber  *string `gorm:"type:varchar(64)"`
	Color         *string `gorm:"type:varchar(32)"`
	Accessories   *string `gorm:"type:text"`
	ReportedIssue string  `gorm:"type:text;not null"`
	Diagnosis     *string `gorm:"type:text"`
	Status        string  `gorm:"type:varchar(32);not null;default:'open'"`
	Priority      string  `gorm:"type:varchar(16);not null;default:'normal'"`
	DueDate       *time.Time
	DeliveredAt   *time.Time
	Notes         *string `gorm:"type:text"`
	ServiceValue  string  `gorm:"type:varchar(32);not null;default:'0.00'"`
	PartsValue    string  `gorm:"type:varchar(32);not null;default:'0.00'"`
	TotalValue    string  `gorm:"type:varchar(32);not null;default:'0.00'"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Client   *Client   `gorm:"foreignKey:ClientID"`
	Employee *Employee `gorm:"foreignKey:EmployeeID"`
}
