package loyalty

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"vendora-system/internal/database/models"
	"vendora-system/internal/domain"
)

// Ledger owns all balance mutations for loyalty accounts. Each call is one
// transaction: account upsert, counter mutation, history append and tier
// recompute commit or roll back together.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

type PointsChange struct {
	Kind           string
	Points         int64
	Description    *string
	SaleID         *int64
	ServiceOrderID *int64
}

type RedeemResult struct {
	RewardName string
	PointsUsed int64
}

// ApplyPoints mutates a client's balance. earn and adjust add to the earned
// counter; redeem and expire add to the redeemed counter after an available
// balance check. The check and the increment are a single guarded UPDATE so
// two concurrent redemptions cannot both pass against the same balance.
func (l *Ledger) ApplyPoints(ctx context.Context, tenantID, clientID int64, change PointsChange) (*models.LoyaltyAccount, error) {
	pts := change.Points
	if pts < 0 {
		pts = -pts
	}

	var account models.LoyaltyAccount
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clientOwned(tx, tenantID, clientID); err != nil {
			return err
		}

		if err := tx.Where(models.LoyaltyAccount{UserID: tenantID, ClientID: clientID}).
			FirstOrCreate(&account).Error; err != nil {
			return err
		}

		var applied int64
		switch change.Kind {
		case models.LoyaltyKindEarn, models.LoyaltyKindAdjust:
			if err := tx.Model(&models.LoyaltyAccount{}).Where("id = ?", account.ID).
				Update("points_earned", gorm.Expr("points_earned + ?", pts)).Error; err != nil {
				return err
			}
			applied = pts

		case models.LoyaltyKindRedeem, models.LoyaltyKindExpire:
			res := tx.Model(&models.LoyaltyAccount{}).
				Where("id = ? AND points_earned - points_redeemed >= ?", account.ID, pts).
				Update("points_redeemed", gorm.Expr("points_redeemed + ?", pts))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				if err := tx.First(&account, account.ID).Error; err != nil {
					return err
				}
				return &domain.InsufficientPointsError{
					Available: account.PointsEarned - account.PointsRedeemed,
					Required:  pts,
				}
			}
			applied = -pts

		default:
			return fmt.Errorf("unsupported points change kind %q", change.Kind)
		}

		entry := models.LoyaltyHistory{
			UserID:         tenantID,
			ClientID:       clientID,
			Kind:           change.Kind,
			Points:         applied,
			Description:    change.Description,
			SaleID:         change.SaleID,
			ServiceOrderID: change.ServiceOrderID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		return retier(tx, &account)
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// RedeemReward spends a reward's point cost against the client's balance.
// A client without an account redeems against a zero balance and fails the
// same way as one with too few points.
func (l *Ledger) RedeemReward(ctx context.Context, tenantID, clientID, rewardID int64) (*RedeemResult, error) {
	var result RedeemResult
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clientOwned(tx, tenantID, clientID); err != nil {
			return err
		}

		var reward models.Reward
		if err := tx.Where("id = ? AND user_id = ? AND active = ?", rewardID, tenantID, true).
			First(&reward).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("reward %d: %w", rewardID, domain.ErrNotFound)
			}
			return err
		}

		var account models.LoyaltyAccount
		if err := tx.Where(models.LoyaltyAccount{UserID: tenantID, ClientID: clientID}).
			FirstOrCreate(&account).Error; err != nil {
			return err
		}

		res := tx.Model(&models.LoyaltyAccount{}).
			Where("id = ? AND points_earned - points_redeemed >= ?", account.ID, reward.PointsRequired).
			Update("points_redeemed", gorm.Expr("points_redeemed + ?", reward.PointsRequired))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.First(&account, account.ID).Error; err != nil {
				return err
			}
			return &domain.InsufficientPointsError{
				Available: account.PointsEarned - account.PointsRedeemed,
				Required:  reward.PointsRequired,
			}
		}

		desc := fmt.Sprintf("Reward redeemed: %s", reward.Name)
		entry := models.LoyaltyHistory{
			UserID:      tenantID,
			ClientID:    clientID,
			Kind:        models.LoyaltyKindRedeem,
			Points:      -reward.PointsRequired,
			Description: &desc,
			RewardID:    &reward.ID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		result = RedeemResult{RewardName: reward.Name, PointsUsed: reward.PointsRequired}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func clientOwned(tx *gorm.DB, tenantID, clientID int64) error {
	var count int64
	if err := tx.Model(&models.Client{}).
		Where("id = ? AND user_id = ?", clientID, tenantID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("client %d: %w", clientID, domain.ErrNotFound)
	}
	return nil
}

// retier reloads the account and rewrites its tier from the post-mutation
// earned counter.
func retier(tx *gorm.DB, account *models.LoyaltyAccount) error {
	if err := tx.First(account, account.ID).Error; err != nil {
		return err
	}
	tier := TierFor(account.PointsEarned)
	if tier == account.Tier {
		return nil
	}
	account.Tier = tier
	return tx.Model(&models.LoyaltyAccount{}).Where("id = ?", account.ID).
		Update("tier", tier).Error
}
