package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vendora-system/internal/auth"
	"vendora-system/internal/database/models"
)

type SettingsHandler struct {
	db *gorm.DB
}

func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// Get lazily creates an empty settings row for the tenant.
func (h *SettingsHandler) Get(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var settings models.StoreSettings
	if err := h.db.Where(models.StoreSettings{UserID: principal.TenantID()}).
		FirstOrCreate(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to load store settings"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Store settings retrieved", settings))
}

type SettingsUpdate struct {
	StoreName     *string `json:"store_name"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	State         *string `json:"state"`
	ZipCode       *string `json:"zip_code"`
	ReceiptFooter *string `json:"receipt_footer"`
}

func (u SettingsUpdate) changes() map[string]interface{} {
	updates := map[string]interface{}{}
	if u.StoreName != nil {
		updates["store_name"] = *u.StoreName
	}
	if u.Phone != nil {
		updates["phone"] = *u.Phone
	}
	if u.Email != nil {
		updates["email"] = *u.Email
	}
	if u.Address != nil {
		updates["address"] = *u.Address
	}
	if u.City != nil {
		updates["city"] = *u.City
	}
	if u.State != nil {
		updates["state"] = *u.State
	}
	if u.ZipCode != nil {
		updates["zip_code"] = *u.ZipCode
	}
	if u.ReceiptFooter != nil {
		updates["receipt_footer"] = *u.ReceiptFooter
	}
	return updates
}

func (h *SettingsHandler) Update(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var settings models.StoreSettings
	if err := h.db.Where(models.StoreSettings{UserID: principal.TenantID()}).
		FirstOrCreate(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to load store settings"))
		return
	}

	var req SettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	updates := req.changes()
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("No fields to update"))
		return
	}

	if err := h.db.Model(&settings).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update store settings"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Store settings updated", nil))
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
