package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SaleItem is one line of a sale's immutable snapshot.
type SaleItem struct {
	ProductID int64  `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

// SaleItems serializes line items to a JSON text column.
type SaleItems []SaleItem

func (s *SaleItems) Scan(value interface{}) error {
	if value == nil {
		*s = SaleItems{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("failed to scan SaleItems: %v", value)
	}
}

func (s SaleItems) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

// Sale rows are never mutated by the sale flow; admin edits go through the
// sales handler's guarded update.
type Sale struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	UserID     int64  `gorm:"index;not null"`
	ClientID   *int64
	TotalValue string    `gorm:"type:varchar(32);not null"`
	Items      SaleItems `gorm:"type:text;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Client *Client `gorm:"foreignKey:ClientID"`
}

type PaymentMethod struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	UserID    int64  `gorm:"index;not null"`
	Name      string `gorm:"not null"`
	Kind      string `gorm:"type:varchar(32)"`
	Active    bool   `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
