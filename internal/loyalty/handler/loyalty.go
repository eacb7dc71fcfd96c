package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"vendora-system/internal/auth"
	"vendora-system/internal/database/models"
	"vendora-system/internal/domain"
	"vendora-system/internal/loyalty"
)

const (
	CONFIG_CACHE_PREFIX = "loyalty:config:"
	CACHE_TTL_MEDIUM    = 30 * time.Minute
)

type LoyaltyHandler struct {
	ledger *loyalty.Ledger
	db     *gorm.DB
	redis  *redis.Client
}

func NewLoyaltyHandler(db *gorm.DB, redisClient *redis.Client) *LoyaltyHandler {
	return &LoyaltyHandler{
		ledger: loyalty.NewLedger(db),
		db:     db,
		redis:  redisClient,
	}
}

func (h *LoyaltyHandler) invalidateConfigCache(ctx context.Context, tenantID int64) {
	if h.redis == nil {
		return
	}
	_ = h.redis.Del(ctx, fmt.Sprintf("%s%d", CONFIG_CACHE_PREFIX, tenantID))
}

// --- Program config ---

// GetConfig lazily creates the tenant's program config with defaults.
func (h *LoyaltyHandler) GetConfig(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	tenantID := principal.TenantID()
	ctx := c.Request.Context()

	cacheKey := fmt.Sprintf("%s%d", CONFIG_CACHE_PREFIX, tenantID)
	if h.redis != nil {
		if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			var config models.LoyaltyConfig
			if json.Unmarshal([]byte(cached), &config) == nil {
				c.JSON(http.StatusOK, successResponse("Loyalty config retrieved", config))
				return
			}
		}
	}

	var config models.LoyaltyConfig
	if err := h.db.Where(models.LoyaltyConfig{UserID: tenantID}).
		FirstOrCreate(&config).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to load loyalty config"))
		return
	}

	if h.redis != nil {
		if payload, err := json.Marshal(config); err == nil {
			_ = h.redis.Set(ctx, cacheKey, payload, CACHE_TTL_MEDIUM)
		}
	}

	c.JSON(http.StatusOK, successResponse("Loyalty config retrieved", config))
}

type ConfigUpdate struct {
	Active             *bool   `json:"active"`
	PointsPerCurrency  *string `json:"points_per_currency"`
	RedeemMinimum      *int64  `json:"redeem_minimum"`
	PointsValidityDays *int64  `json:"points_validity_days"`
	BirthdayBonus      *int64  `json:"birthday_bonus"`
}

func (h *LoyaltyHandler) UpdateConfig(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	tenantID := principal.TenantID()

	var config models.LoyaltyConfig
	if err := h.db.Where(models.LoyaltyConfig{UserID: tenantID}).
		FirstOrCreate(&config).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to load loyalty config"))
		return
	}

	var req ConfigUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	updates := map[string]interface{}{}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if req.PointsPerCurrency != nil {
		updates["points_per_currency"] = *req.PointsPerCurrency
	}
	if req.RedeemMinimum != nil {
		updates["redeem_minimum"] = *req.RedeemMinimum
	}
	if req.PointsValidityDays != nil {
		updates["points_validity_days"] = *req.PointsValidityDays
	}
	if req.BirthdayBonus != nil {
		updates["birthday_bonus"] = *req.BirthdayBonus
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("No fields to update"))
		return
	}

	if err := h.db.Model(&config).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update loyalty config"))
		return
	}

	h.invalidateConfigCache(c.Request.Context(), tenantID)

	c.JSON(http.StatusOK, successResponse("Loyalty config updated", nil))
}

// --- Rewards catalog ---

var validRewardKinds = map[string]bool{
	models.RewardPercentDiscount: true,
	models.RewardFixedDiscount:   true,
	models.RewardProduct:         true,
	models.RewardService:         true,
}

type CreateRewardRequest struct {
	Name           string  `json:"name" binding:"required"`
	Description    *string `json:"description"`
	PointsRequired int64   `json:"points_required" binding:"required,min=1"`
	Kind           string  `json:"kind" binding:"required"`
	DiscountValue  *string `json:"discount_value"`
	ProductID      *int64  `json:"product_id"`
}

func (h *LoyaltyHandler) CreateReward(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var req CreateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Name, points required and kind are required"))
		return
	}
	if !validRewardKinds[req.Kind] {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid kind, use: percent_discount, fixed_discount, product or service"))
		return
	}

	reward := models.Reward{
		UserID:         principal.TenantID(),
		Name:           req.Name,
		Description:    req.Description,
		PointsRequired: req.PointsRequired,
		Kind:           req.Kind,
		DiscountValue:  req.DiscountValue,
		ProductID:      req.ProductID,
		Active:         true,
	}
	if err := h.db.Create(&reward).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to create reward"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Reward created", gin.H{"reward_id": reward.ID}))
}

func (h *LoyaltyHandler) ListRewards(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var rewards []models.Reward
	if err := h.db.Where("user_id = ?", principal.TenantID()).
		Order("points_required ASC").Find(&rewards).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list rewards"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Rewards retrieved", rewards))
}

type RewardUpdate struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	PointsRequired *int64  `json:"points_required"`
	Kind           *string `json:"kind"`
	DiscountValue  *string `json:"discount_value"`
	ProductID      *int64  `json:"product_id"`
	Active         *bool   `json:"active"`
}

func (h *LoyaltyHandler) UpdateReward(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var reward models.Reward
	if err := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		First(&reward).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Reward not found"))
		return
	}

	var req RewardUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.PointsRequired != nil {
		if *req.PointsRequired < 1 {
			c.JSON(http.StatusBadRequest, errorResponse("Points required must be positive"))
			return
		}
		updates["points_required"] = *req.PointsRequired
	}
	if req.Kind != nil {
		if !validRewardKinds[*req.Kind] {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid kind, use: percent_discount, fixed_discount, product or service"))
			return
		}
		updates["kind"] = *req.Kind
	}
	if req.DiscountValue != nil {
		updates["discount_value"] = *req.DiscountValue
	}
	if req.ProductID != nil {
		updates["product_id"] = *req.ProductID
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("No fields to update"))
		return
	}

	if err := h.db.Model(&reward).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update reward"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Reward updated", nil))
}

// DeleteReward deactivates rewards already referenced by history instead of
// removing them, keeping the audit trail resolvable.
func (h *LoyaltyHandler) DeleteReward(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var reward models.Reward
	if err := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		First(&reward).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Reward not found"))
		return
	}

	var referenced int64
	h.db.Model(&models.LoyaltyHistory{}).Where("reward_id = ?", reward.ID).Count(&referenced)
	if referenced > 0 {
		if err := h.db.Model(&reward).Update("active", false).Error; err != nil {
			c.JSON(http.StatusInternalServerError, errorResponse("Failed to deactivate reward"))
			return
		}
		c.JSON(http.StatusOK, successResponse("Reward deactivated (already redeemed at least once)", nil))
		return
	}

	if err := h.db.Delete(&reward).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to delete reward"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Reward deleted", nil))
}

// --- Customers & points ---

type customerRow struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	PointsEarned    int64  `json:"points_earned"`
	PointsRedeemed  int64  `json:"points_redeemed"`
	PointsAvailable int64  `json:"points_available"`
	Tier            string `json:"tier"`
}

func (h *LoyaltyHandler) ListCustomers(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	tenantID := principal.TenantID()

	var rows []customerRow
	err := h.db.Model(&models.Client{}).
		Select(`clients.id, clients.name, clients.email, clients.phone,
			COALESCE(la.points_earned, 0) AS points_earned,
			COALESCE(la.points_redeemed, 0) AS points_redeemed,
			COALESCE(la.points_earned, 0) - COALESCE(la.points_redeemed, 0) AS points_available,
			COALESCE(la.tier, 'bronze') AS tier`).
		Joins("LEFT JOIN loyalty_accounts la ON la.client_id = clients.id AND la.user_id = ?", tenantID).
		Where("clients.user_id = ?", tenantID).
		Order("points_available DESC").
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list loyalty customers"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Loyalty customers retrieved", rows))
}

func (h *LoyaltyHandler) GetCustomer(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid client ID"))
		return
	}

	tenantID := principal.TenantID()

	var row customerRow
	res := h.db.Model(&models.Client{}).
		Select(`clients.id, clients.name, clients.email, clients.phone,
			COALESCE(la.points_earned, 0) AS points_earned,
			COALESCE(la.points_redeemed, 0) AS points_redeemed,
			COALESCE(la.points_earned, 0) - COALESCE(la.points_redeemed, 0) AS points_available,
			COALESCE(la.tier, 'bronze') AS tier`).
		Joins("LEFT JOIN loyalty_accounts la ON la.client_id = clients.id AND la.user_id = ?", tenantID).
		Where("clients.id = ? AND clients.user_id = ?", id, tenantID).
		Scan(&row)
	if res.Error != nil || res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Client not found"))
		return
	}

	var history []models.LoyaltyHistory
	if err := h.db.Where("client_id = ? AND user_id = ?", id, tenantID).
		Order("created_at DESC").Limit(50).Find(&history).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to load loyalty history"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Loyalty customer retrieved", gin.H{
		"customer": row,
		"history":  history,
	}))
}

type ApplyPointsRequest struct {
	Points         int64   `json:"points" binding:"required"`
	Kind           string  `json:"kind" binding:"required,oneof=earn redeem expire adjust"`
	Description    *string `json:"description"`
	SaleID         *int64  `json:"sale_id"`
	ServiceOrderID *int64  `json:"service_order_id"`
}

func (h *LoyaltyHandler) ApplyPoints(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	clientID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid client ID"))
		return
	}

	var req ApplyPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Points and kind are required"))
		return
	}

	account, err := h.ledger.ApplyPoints(c.Request.Context(), principal.TenantID(), clientID, loyalty.PointsChange{
		Kind:           req.Kind,
		Points:         req.Points,
		Description:    req.Description,
		SaleID:         req.SaleID,
		ServiceOrderID: req.ServiceOrderID,
	})
	if err != nil {
		respondError(c, err, "Failed to update points")
		return
	}

	c.JSON(http.StatusOK, successResponse("Points updated", gin.H{
		"points_earned":    account.PointsEarned,
		"points_redeemed":  account.PointsRedeemed,
		"points_available": account.PointsEarned - account.PointsRedeemed,
		"tier":             account.Tier,
	}))
}

type RedeemRewardRequest struct {
	RewardID int64 `json:"reward_id" binding:"required"`
}

func (h *LoyaltyHandler) RedeemReward(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	clientID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid client ID"))
		return
	}

	var req RedeemRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Reward ID is required"))
		return
	}

	result, err := h.ledger.RedeemReward(c.Request.Context(), principal.TenantID(), clientID, req.RewardID)
	if err != nil {
		respondError(c, err, "Failed to redeem reward")
		return
	}

	c.JSON(http.StatusOK, successResponse("Reward redeemed", gin.H{
		"reward":      result.RewardName,
		"points_used": result.PointsUsed,
	}))
}

// respondError maps ledger failures to status codes; insufficient balance
// responses carry both sides of the failed check.
func respondError(c *gin.Context, err error, fallback string) {
	status := domain.StatusCode(err)
	msg := fallback
	if status != http.StatusInternalServerError {
		msg = err.Error()
	}

	payload := gin.H{"success": false, "message": msg}
	var points *domain.InsufficientPointsError
	if errors.As(err, &points) {
		payload["points_available"] = points.Available
		payload["points_required"] = points.Required
	}
	c.JSON(status, payload)
}

// --- Response helpers ---

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func errorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}
