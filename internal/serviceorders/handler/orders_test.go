package handler

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vendora-system/internal/database/models"
)

func setupOrdersDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ServiceOrder{}))
	return db
}

func TestNextOrderNumberSequencesPerTenant(t *testing.T) {
	db := setupOrdersDB(t)
	year := time.Now().Year()

	first, err := nextOrderNumber(db, 1)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("OS%d00001", year), first)

	require.NoError(t, db.Create(&models.ServiceOrder{
		UserID:        1,
		OrderNumber:   first,
		Equipment:     "Notebook",
		ReportedIssue: "Does not power on",
	}).Error)

	second, err := nextOrderNumber(db, 1)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("OS%d00002", year), second)

	// Another tenant starts its own sequence.
	other, err := nextOrderNumber(db, 2)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("OS%d00001", year), other)
}

func TestNextOrderNumberSurvivesDeletes(t *testing.T) {
	db := setupOrdersDB(t)
	year := time.Now().Year()

	for i := 1; i <= 2; i++ {
		require.NoError(t, db.Create(&models.ServiceOrder{
			UserID:        1,
			OrderNumber:   fmt.Sprintf("OS%d%05d", year, i),
			Equipment:     "Phone",
			ReportedIssue: "Cracked screen",
		}).Error)
	}

	// Removing an earlier order must not shrink the sequence back onto a
	// number that is still in use.
	require.NoError(t, db.Where("order_number = ?", fmt.Sprintf("OS%d00001", year)).
		Delete(&models.ServiceOrder{}).Error)

	next, err := nextOrderNumber(db, 1)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("OS%d00003", year), next)

	require.NoError(t, db.Create(&models.ServiceOrder{
		UserID:        1,
		OrderNumber:   next,
		Equipment:     "Phone",
		ReportedIssue: "Cracked screen",
	}).Error)
}
