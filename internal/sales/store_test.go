package sales

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vendora-system/internal/database/models"
	"vendora-system/internal/domain"
)

func setupStoreDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Client{},
		&models.Product{},
		&models.Sale{},
	))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, tenantID, quantity int64, salePrice string) int64 {
	t.Helper()

	product := models.Product{
		UserID:    tenantID,
		Name:      "Tempered glass",
		Quantity:  quantity,
		UnitCost:  "20.00",
		SalePrice: salePrice,
	}
	require.NoError(t, db.Create(&product).Error)
	return product.ID
}

func TestCreateSaleDecrementsStock(t *testing.T) {
	db := setupStoreDB(t)
	store := NewStore(db)
	productID := seedProduct(t, db, 1, 10, "50.00")

	saleID, err := store.Create(context.Background(), 1, SaleInput{
		Items: []models.SaleItem{{ProductID: productID, Quantity: 2, UnitPrice: "50.00"}},
	})
	require.NoError(t, err)
	require.NotZero(t, saleID)

	var product models.Product
	require.NoError(t, db.First(&product, productID).Error)
	assert.Equal(t, int64(8), product.Quantity)

	var sale models.Sale
	require.NoError(t, db.First(&sale, saleID).Error)
	assert.Equal(t, "100.00", sale.TotalValue)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, productID, sale.Items[0].ProductID)
}

func TestCreateSaleDeclaredTotalWins(t *testing.T) {
	db := setupStoreDB(t)
	store := NewStore(db)
	productID := seedProduct(t, db, 1, 10, "50.00")

	saleID, err := store.Create(context.Background(), 1, SaleInput{
		Items:      []models.SaleItem{{ProductID: productID, Quantity: 1, UnitPrice: "50.00"}},
		TotalValue: "45.90",
	})
	require.NoError(t, err)

	var sale models.Sale
	require.NoError(t, db.First(&sale, saleID).Error)
	assert.Equal(t, "45.90", sale.TotalValue)
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	db := setupStoreDB(t)
	store := NewStore(db)
	productID := seedProduct(t, db, 1, 1, "50.00")

	_, err := store.Create(context.Background(), 1, SaleInput{
		Items: []models.SaleItem{{ProductID: productID, Quantity: 2, UnitPrice: "50.00"}},
	})
	var stock *domain.InsufficientStockError
	require.ErrorAs(t, err, &stock)
	assert.Equal(t, productID, stock.ProductID)

	var product models.Product
	require.NoError(t, db.First(&product, productID).Error)
	assert.Equal(t, int64(1), product.Quantity)

	var sales int64
	db.Model(&models.Sale{}).Count(&sales)
	assert.Equal(t, int64(0), sales)
}

func TestCreateSaleRollsBackEarlierDecrements(t *testing.T) {
	db := setupStoreDB(t)
	store := NewStore(db)
	first := seedProduct(t, db, 1, 10, "50.00")
	second := seedProduct(t, db, 1, 1, "30.00")

	_, err := store.Create(context.Background(), 1, SaleInput{
		Items: []models.SaleItem{
			{ProductID: first, Quantity: 3, UnitPrice: "50.00"},
			{ProductID: second, Quantity: 5, UnitPrice: "30.00"},
		},
	})
	var stock *domain.InsufficientStockError
	require.ErrorAs(t, err, &stock)
	assert.Equal(t, second, stock.ProductID)

	// The first item's decrement rolled back with the transaction.
	var product models.Product
	require.NoError(t, db.First(&product, first).Error)
	assert.Equal(t, int64(10), product.Quantity)

	var sales int64
	db.Model(&models.Sale{}).Count(&sales)
	assert.Equal(t, int64(0), sales)
}

func TestCreateSaleCrossTenantClient(t *testing.T) {
	db := setupStoreDB(t)
	store := NewStore(db)
	productID := seedProduct(t, db, 1, 10, "50.00")

	client := models.Client{UserID: 2, Name: "Foreign client"}
	require.NoError(t, db.Create(&client).Error)

	_, err := store.Create(context.Background(), 1, SaleInput{
		ClientID: &client.ID,
		Items:    []models.SaleItem{{ProductID: productID, Quantity: 1, UnitPrice: "50.00"}},
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	var product models.Product
	require.NoError(t, db.First(&product, productID).Error)
	assert.Equal(t, int64(10), product.Quantity)
}

func TestCreateSaleForeignProduct(t *testing.T) {
	db := setupStoreDB(t)
	store := NewStore(db)
	productID := seedProduct(t, db, 2, 10, "50.00")

	_, err := store.Create(context.Background(), 1, SaleInput{
		Items: []models.SaleItem{{ProductID: productID, Quantity: 1, UnitPrice: "50.00"}},
	})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestCreateSaleMissingProduct(t *testing.T) {
	db := setupStoreDB(t)
	store := NewStore(db)

	_, err := store.Create(context.Background(), 1, SaleInput{
		Items: []models.SaleItem{{ProductID: 9999, Quantity: 1, UnitPrice: "50.00"}},
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	// Shared file-backed store so every goroutine's transaction hits the same
	// data; the in-memory DSN is per-connection.
	dsn := filepath.Join(t.TempDir(), "sales.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Client{}, &models.Product{}, &models.Sale{}))

	store := NewStore(db)
	const initial = 5
	productID := seedProduct(t, db, 1, initial, "50.00")

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Create(context.Background(), 1, SaleInput{
				Items: []models.SaleItem{{ProductID: productID, Quantity: 1, UnitPrice: "50.00"}},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	// Driver busy errors count as failed attempts; only clean commits sold.
	successes := int64(0)
	for err := range results {
		if err == nil {
			successes++
		}
	}
	assert.LessOrEqual(t, successes, int64(initial))

	var product models.Product
	require.NoError(t, db.First(&product, productID).Error)
	assert.GreaterOrEqual(t, product.Quantity, int64(0))
	assert.Equal(t, int64(initial)-successes, product.Quantity)

	var sales int64
	db.Model(&models.Sale{}).Count(&sales)
	assert.Equal(t, successes, sales)
}

func TestCreateSaleRejectsEmptyAndBadInput(t *testing.T) {
	db := setupStoreDB(t)
	store := NewStore(db)
	productID := seedProduct(t, db, 1, 10, "50.00")

	_, err := store.Create(context.Background(), 1, SaleInput{})
	assert.Error(t, err)

	_, err = store.Create(context.Background(), 1, SaleInput{
		Items: []models.SaleItem{{ProductID: productID, Quantity: 1, UnitPrice: "fifty"}},
	})
	assert.Error(t, err)

	_, err = store.Create(context.Background(), 1, SaleInput{
		Items:      []models.SaleItem{{ProductID: productID, Quantity: 1, UnitPrice: "50.00"}},
		TotalValue: "abc",
	})
	assert.Error(t, err)
}
