package loyalty

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

func setupLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Client{},
		&models.LoyaltyAccount{},
		&models.LoyaltyHistory{},
		&models.Reward{},
	))
	return db
}

func seedClient(t *testing.T, db *gorm.DB, tenantID int64) int64 {
	t.Helper()

	client := models.Client{UserID: tenantID, Name: "Maria Souza"}
	require.NoError(t, db.Create(&client).Error)
	return client.ID
}

func TestApplyPointsEarnCreatesAccountAndRetiers(t *testing.T) {
	db := setupLedgerDB(t)
	ledger := NewLedger(db)
	clientID := seedClient(t, db, 1)

	account, err := ledger.ApplyPoints(context.Background(), 1, clientID, PointsChange{
		Kind:   models.LoyaltyKindEarn,
		Points: 1200,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1200), account.PointsEarned)
	assert.Equal(t, int64(0), account.PointsRedeemed)
	assert.Equal(t, TierSilver, account.Tier)

	var history []models.LoyaltyHistory
	require.NoError(t, db.Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, models.LoyaltyKindEarn, history[0].Kind)
	assert.Equal(t, int64(1200), history[0].Points)
}

func TestApplyPointsRedeemGuardsAvailableBalance(t *testing.T) {
	db := setupLedgerDB(t)
	ledger := NewLedger(db)
	clientID := seedClient(t, db, 1)
	ctx := context.Background()

	_, err := ledger.ApplyPoints(ctx, 1, clientID, PointsChange{Kind: models.LoyaltyKindEarn, Points: 1200})
	require.NoError(t, err)

	// Over-redeem fails and leaves the counters untouched.
	_, err = ledger.ApplyPoints(ctx, 1, clientID, PointsChange{Kind: models.LoyaltyKindRedeem, Points: 1300})
	var insufficient *domain.InsufficientPointsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(1200), insufficient.Available)
	assert.Equal(t, int64(1300), insufficient.Required)

	var account models.LoyaltyAccount
	require.NoError(t, db.First(&account).Error)
	assert.Equal(t, int64(1200), account.PointsEarned)
	assert.Equal(t, int64(0), account.PointsRedeemed)

	var historyCount int64
	db.Model(&models.LoyaltyHistory{}).Where("kind = ?", models.LoyaltyKindRedeem).Count(&historyCount)
	assert.Equal(t, int64(0), historyCount)

	// Exact-balance redeem passes; tier stays tied to lifetime earnings.
	account2, err := ledger.ApplyPoints(ctx, 1, clientID, PointsChange{Kind: models.LoyaltyKindRedeem, Points: 1000})
	require.NoError(t, err)
	assert.Equal(t, int64(1200), account2.PointsEarned)
	assert.Equal(t, int64(1000), account2.PointsRedeemed)
	assert.Equal(t, TierSilver, account2.Tier)
}

func TestApplyPointsExpireSharesRedeemGuard(t *testing.T) {
	db := setupLedgerDB(t)
	ledger := NewLedger(db)
	clientID := seedClient(t, db, 1)
	ctx := context.Background()

	_, err := ledger.ApplyPoints(ctx, 1, clientID, PointsChange{Kind: models.LoyaltyKindEarn, Points: 500})
	require.NoError(t, err)

	account, err := ledger.ApplyPoints(ctx, 1, clientID, PointsChange{Kind: models.LoyaltyKindExpire, Points: 200})
	require.NoError(t, err)
	assert.Equal(t, int64(200), account.PointsRedeemed)

	var entry models.LoyaltyHistory
	require.NoError(t, db.Where("kind = ?", models.LoyaltyKindExpire).First(&entry).Error)
	assert.Equal(t, int64(-200), entry.Points)

	_, err = ledger.ApplyPoints(ctx, 1, clientID, PointsChange{Kind: models.LoyaltyKindExpire, Points: 400})
	var insufficient *domain.InsufficientPointsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(300), insufficient.Available)
}

func TestApplyPointsNegativeInputUsesAbsoluteValue(t *testing.T) {
	db := setupLedgerDB(t)
	ledger := NewLedger(db)
	clientID := seedClient(t, db, 1)

	account, err := ledger.ApplyPoints(context.Background(), 1, clientID, PointsChange{
		Kind:   models.LoyaltyKindAdjust,
		Points: -300,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(300), account.PointsEarned)
}

func TestApplyPointsRejectsForeignClient(t *testing.T) {
	db := setupLedgerDB(t)
	ledger := NewLedger(db)
	clientID := seedClient(t, db, 2) // belongs to another tenant

	_, err := ledger.ApplyPoints(context.Background(), 1, clientID, PointsChange{
		Kind:   models.LoyaltyKindEarn,
		Points: 100,
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	var accounts int64
	db.Model(&models.LoyaltyAccount{}).Count(&accounts)
	assert.Equal(t, int64(0), accounts)
}

func TestApplyPointsUnknownKind(t *testing.T) {
	db := setupLedgerDB(t)
	ledger := NewLedger(db)
	clientID := seedClient(t, db, 1)

	_, err := ledger.ApplyPoints(context.Background(), 1, clientID, PointsChange{
		Kind:   "transfer",
		Points: 100,
	})
	assert.Error(t, err)
}

func TestRedeemRewardSpendsPointsAndLogsHistory(t *testing.T) {
	db := setupLedgerDB(t)
	ledger := NewLedger(db)
	clientID := seedClient(t, db, 1)
	ctx := context.Background()

	reward := models.Reward{UserID: 1, Name: "Free screen protector", PointsRequired: 500, Kind: models.RewardProduct, Active: true}
	require.NoError(t, db.Create(&reward).Error)

	_, err := ledger.ApplyPoints(ctx, 1, clientID, PointsChange{Kind: models.LoyaltyKindEarn, Points: 800})
	require.NoError(t, err)

	result, err := ledger.RedeemReward(ctx, 1, clientID, reward.ID)
	require.NoError(t, err)
	assert.Equal(t, "Free screen protector", result.RewardName)
	assert.Equal(t, int64(500), result.PointsUsed)

	var account models.LoyaltyAccount
	require.NoError(t, db.First(&account).Error)
	assert.Equal(t, int64(500), account.PointsRedeemed)

	var entry models.LoyaltyHistory
	require.NoError(t, db.Where("reward_id = ?", reward.ID).First(&entry).Error)
	assert.Equal(t, int64(-500), entry.Points)
	require.NotNil(t, entry.Description)
	assert.Equal(t, "Reward redeemed: Free screen protector", *entry.Description)
}

func TestRedeemRewardInsufficientBalance(t *testing.T) {
	db := setupLedgerDB(t)
	ledger := NewLedger(db)
	clientID := seedClient(t, db, 1)
	ctx := context.Background()

	reward := models.Reward{UserID: 1, Name: "Discount voucher", PointsRequired: 500, Kind: models.RewardFixedDiscount, Active: true}
	require.NoError(t, db.Create(&reward).Error)

	_, err := ledger.ApplyPoints(ctx, 1, clientID, PointsChange{Kind: models.LoyaltyKindEarn, Points: 200})
	require.NoError(t, err)

	_, err = ledger.RedeemReward(ctx, 1, clientID, reward.ID)
	var insufficient *domain.InsufficientPointsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(200), insufficient.Available)
	assert.Equal(t, int64(500), insufficient.Required)

	// Failed redemption leaves no trace in the audit trail.
	var historyCount int64
	db.Model(&models.LoyaltyHistory{}).Where("reward_id = ?", reward.ID).Count(&historyCount)
	assert.Equal(t, int64(0), historyCount)
}

func TestRedeemRewardInactiveOrForeignReward(t *testing.T) {
	db := setupLedgerDB(t)
	ledger := NewLedger(db)
	clientID := seedClient(t, db, 1)
	ctx := context.Background()

	inactive := models.Reward{UserID: 1, Name: "Retired reward", PointsRequired: 100, Kind: models.RewardService, Active: false}
	require.NoError(t, db.Create(&inactive).Error)
	foreign := models.Reward{UserID: 2, Name: "Other store reward", PointsRequired: 100, Kind: models.RewardService, Active: true}
	require.NoError(t, db.Create(&foreign).Error)

	_, err := ledger.RedeemReward(ctx, 1, clientID, inactive.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = ledger.RedeemReward(ctx, 1, clientID, foreign.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRedeemWithoutAccountFailsAgainstZeroBalance(t *testing.T) {
	db := setupLedgerDB(t)
	ledger := NewLedger(db)
	clientID := seedClient(t, db, 1)

	reward := models.Reward{UserID: 1, Name: "Voucher", PointsRequired: 50, Kind: models.RewardFixedDiscount, Active: true}
	require.NoError(t, db.Create(&reward).Error)

	_, err := ledger.RedeemReward(context.Background(), 1, clientID, reward.ID)
	var insufficient *domain.InsufficientPointsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(0), insufficient.Available)
	assert.Equal(t, int64(50), insufficient.Required)
}

func TestConcurrentRedeemsKeepInvariant(t *testing.T) {
	// Shared file-backed store so every goroutine's transaction hits the same
	// data; the in-memory DSN is per-connection.
	dsn := filepath.Join(t.TempDir(), "loyalty.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Client{},
		&models.LoyaltyAccount{},
		&models.LoyaltyHistory{},
		&models.Reward{},
	))

	ledger := NewLedger(db)
	clientID := seedClient(t, db, 1)
	ctx := context.Background()

	_, err = ledger.ApplyPoints(ctx, 1, clientID, PointsChange{Kind: models.LoyaltyKindEarn, Points: 500})
	require.NoError(t, err)

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.ApplyPoints(ctx, 1, clientID, PointsChange{Kind: models.LoyaltyKindRedeem, Points: 100})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	// Driver busy errors count as failed attempts; only clean commits spent.
	successes := int64(0)
	for err := range results {
		if err == nil {
			successes++
		}
	}
	assert.LessOrEqual(t, successes, int64(5))

	var account models.LoyaltyAccount
	require.NoError(t, db.First(&account).Error)
	assert.Equal(t, int64(500), account.PointsEarned)
	assert.Equal(t, successes*100, account.PointsRedeemed)
	assert.LessOrEqual(t, account.PointsRedeemed, account.PointsEarned)

	var redeems int64
	db.Model(&models.LoyaltyHistory{}).Where("kind = ?", models.LoyaltyKindRedeem).Count(&redeems)
	assert.Equal(t, successes, redeems)
}

func TestTierUpgradesAcrossThresholds(t *testing.T) {
	db := setupLedgerDB(t)
	ledger := NewLedger(db)
	clientID := seedClient(t, db, 1)
	ctx := context.Background()

	account, err := ledger.ApplyPoints(ctx, 1, clientID, PointsChange{Kind: models.LoyaltyKindEarn, Points: 4500})
	require.NoError(t, err)
	assert.Equal(t, TierSilver, account.Tier)

	account, err = ledger.ApplyPoints(ctx, 1, clientID, PointsChange{Kind: models.LoyaltyKindEarn, Points: 600})
	require.NoError(t, err)
	assert.Equal(t, TierGold, account.Tier)

	account, err = ledger.ApplyPoints(ctx, 1, clientID, PointsChange{Kind: models.LoyaltyKindEarn, Points: 5000})
	require.NoError(t, err)
	assert.Equal(t, TierDiamond, account.Tier)

	// Redeeming everything never drops the tier.
	account, err = ledger.ApplyPoints(ctx, 1, clientID, PointsChange{Kind: models.LoyaltyKindRedeem, Points: 10100})
	require.NoError(t, err)
	assert.Equal(t, TierDiamond, account.Tier)
	assert.LessOrEqual(t, account.PointsRedeemed, account.PointsEarned)
}
