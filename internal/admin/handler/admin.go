package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"vendora-system/internal/database/models"
)

// AdminHandler serves the platform operator surface. Routes mounting it sit
// behind the AdminOnly middleware.
type AdminHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewAdminHandler(db *gorm.DB, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, logger: logger}
}

type accountView struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	PaymentStatus string  `json:"payment_status"`
	TrialEndsAt   *string `json:"trial_ends_at"`
	CreatedAt     *string `json:"created_at"`
}

func (h *AdminHandler) ListAccounts(c *gin.Context) {
	var users []models.User
	if err := h.db.Order("created_at DESC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list accounts"))
		return
	}

	accounts := make([]accountView, 0, len(users))
	for _, u := range users {
		view := accountView{
			ID:            u.ID,
			Name:          u.Name,
			Email:         u.Email,
			PaymentStatus: u.PaymentStatus,
		}
		if u.TrialEndsAt != nil {
			s := u.TrialEndsAt.Format("2006-01-02")
			view.TrialEndsAt = &s
		}
		if u.CreatedAt != nil {
			s := u.CreatedAt.Format("2006-01-02")
			view.CreatedAt = &s
		}
		accounts = append(accounts, view)
	}

	c.JSON(http.StatusOK, successResponse("Accounts retrieved", accounts))
}

func (h *AdminHandler) AccountOverview(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid account ID"))
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Account not found"))
		return
	}

	counts := gin.H{}
	for name, model := range map[string]interface{}{
		"clients":        &models.Client{},
		"products":       &models.Product{},
		"sales":          &models.Sale{},
		"service_orders": &models.ServiceOrder{},
		"employees":      &models.Employee{},
		"payables":       &models.Payable{},
	} {
		var n int64
		if err := h.db.Model(model).Where("user_id = ?", id).Count(&n).Error; err != nil {
			c.JSON(http.StatusInternalServerError, errorResponse("Failed to build account overview"))
			return
		}
		counts[name] = n
	}

	c.JSON(http.StatusOK, successResponse("Account overview", gin.H{
		"account": accountView{
			ID:            user.ID,
			Name:          user.Name,
			Email:         user.Email,
			PaymentStatus: user.PaymentStatus,
		},
		"counts": counts,
	}))
}

// DeleteAccount removes the owner and every tenant-scoped row in one
// transaction.
func (h *AdminHandler) DeleteAccount(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid account ID"))
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Account not found"))
		return
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.LoyaltyHistory{},
			&models.LoyaltyAccount{},
			&models.LoyaltyConfig{},
			&models.Reward{},
			&models.Sale{},
			&models.ServiceOrder{},
			&models.Payment{},
			&models.Payable{},
			&models.PaymentMethod{},
			&models.Product{},
			&models.Supplier{},
			&models.Client{},
			&models.Employee{},
			&models.StoreSettings{},
			&models.ActivityLog{},
		} {
			if err := tx.Where("user_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to delete account"))
		return
	}

	h.logger.Info("account deleted",
		zap.Int64("account_id", id),
		zap.String("email", user.Email))

	c.JSON(http.StatusOK, successResponse("Account deleted", nil))
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
