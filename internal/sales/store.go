package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"vendora-system/internal/database/models"
	"vendora-system/internal/domain"
)

// Store runs the sale transaction against the shared relational store.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

type SaleInput struct {
	ClientID   *int64
	Items      []models.SaleItem
	TotalValue string
}

// Create registers a sale atomically: client ownership check, per-item stock
// check and decrement, then one immutable sale row. Any failure rolls the
// whole unit back, so inventory is never left partially decremented.
//
// The decrement is a guarded UPDATE (quantity >= requested in the WHERE
// clause); a concurrent sale that drained the stock first makes RowsAffected
// zero, which surfaces as InsufficientStock instead of overselling.
func (s *Store) Create(ctx context.Context, tenantID int64, in SaleInput) (int64, error) {
	total, err := saleTotal(in)
	if err != nil {
		return 0, err
	}

	var saleID int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.ClientID != nil {
			var count int64
			if err := tx.Model(&models.Client{}).
				Where("id = ? AND user_id = ?", *in.ClientID, tenantID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("client %d: %w", *in.ClientID, domain.ErrNotFound)
			}
		}

		for _, item := range in.Items {
			var product models.Product
			if err := tx.Select("id", "user_id", "quantity").
				First(&product, item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("product %d: %w", item.ProductID, domain.ErrNotFound)
				}
				return err
			}
			if product.UserID != tenantID {
				return fmt.Errorf("product %d: %w", item.ProductID, domain.ErrForbidden)
			}

			res := tx.Model(&models.Product{}).
				Where("id = ? AND user_id = ? AND quantity >= ?", item.ProductID, tenantID, item.Quantity).
				Update("quantity", gorm.Expr("quantity - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &domain.InsufficientStockError{ProductID: item.ProductID}
			}
		}

		sale := models.Sale{
			UserID:     tenantID,
			ClientID:   in.ClientID,
			TotalValue: total,
			Items:      in.Items,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}
		saleID = sale.ID
		return nil
	})

	return saleID, err
}

// saleTotal validates the declared total, or derives it from the line items
// when the caller omits it.
func saleTotal(in SaleInput) (string, error) {
	if len(in.Items) == 0 {
		return "", fmt.Errorf("sale needs at least one line item")
	}

	if in.TotalValue != "" {
		total, err := decimal.NewFromString(in.TotalValue)
		if err != nil {
			return "", fmt.Errorf("invalid total value %q", in.TotalValue)
		}
		return total.StringFixed(2), nil
	}

	total := decimal.Zero
	for _, item := range in.Items {
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return "", fmt.Errorf("invalid unit price %q for product %d", item.UnitPrice, item.ProductID)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(item.Quantity)))
	}
	return total.StringFixed(2), nil
}
