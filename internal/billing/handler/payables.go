package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"vendora-system/internal/auth"
	"vendora-system/internal/database/models"
)

type BillingHandler struct {
	db *gorm.DB
}

func NewBillingHandler(db *gorm.DB) *BillingHandler {
	return &BillingHandler{db: db}
}

type CreatePayableRequest struct {
	Description string  `json:"description" binding:"required"`
	SupplierID  *int64  `json:"supplier_id"`
	Amount      string  `json:"amount" binding:"required"`
	DueDate     *string `json:"due_date"`
	Notes       *string `json:"notes"`
}

func (h *BillingHandler) CreatePayable(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var req CreatePayableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Description and amount are required"))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid amount"))
		return
	}

	var dueDate *time.Time
	if req.DueDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid due date, use YYYY-MM-DD"))
			return
		}
		dueDate = &parsed
	}

	payable := models.Payable{
		UserID:      principal.TenantID(),
		Description: req.Description,
		SupplierID:  req.SupplierID,
		Amount:      amount.StringFixed(2),
		DueDate:     dueDate,
		Status:      models.PayableStatusPending,
		Notes:       req.Notes,
	}
	if err := h.db.Create(&payable).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to register payable"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Payable registered", gin.H{"payable_id": payable.ID}))
}

type ListPayablesQuery struct {
	Status string `form:"status"`
}

func (h *BillingHandler) ListPayables(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var query ListPayablesQuery
	_ = c.ShouldBindQuery(&query)

	scope := h.db.Preload("Supplier").Where("user_id = ?", principal.TenantID())
	if query.Status != "" {
		scope = scope.Where("status = ?", query.Status)
	}

	var payables []models.Payable
	if err := scope.Order("due_date ASC").Find(&payables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list payables"))
		return
	}

	// Pending bills past their due date surface as overdue without a writer
	// having to sweep them.
	now := time.Now()
	for i := range payables {
		p := &payables[i]
		if p.Status == models.PayableStatusPending && p.DueDate != nil && p.DueDate.Before(now) {
			p.Status = models.PayableStatusOverdue
		}
	}

	c.JSON(http.StatusOK, successResponse("Payables retrieved", payables))
}

type PayableUpdate struct {
	Description *string `json:"description"`
	SupplierID  *int64  `json:"supplier_id"`
	Amount      *string `json:"amount"`
	DueDate     *string `json:"due_date"`
	Notes       *string `json:"notes"`
}

func (h *BillingHandler) UpdatePayable(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var payable models.Payable
	if err := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		First(&payable).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Payable not found"))
		return
	}

	var req PayableUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	updates := map[string]interface{}{}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.SupplierID != nil {
		updates["supplier_id"] = *req.SupplierID
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil || amount.IsNegative() {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid amount"))
			return
		}
		updates["amount"] = amount.StringFixed(2)
	}
	if req.DueDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid due date, use YYYY-MM-DD"))
			return
		}
		updates["due_date"] = &parsed
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("No fields to update"))
		return
	}

	if err := h.db.Model(&payable).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update payable"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Payable updated", nil))
}

// PayPayable marks the bill paid and stamps the payment date. Paying twice is
// a no-op rejected with 409.
func (h *BillingHandler) PayPayable(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var payable models.Payable
	if err := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		First(&payable).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Payable not found"))
		return
	}

	if payable.Status == models.PayableStatusPaid {
		c.JSON(http.StatusConflict, errorResponse("Payable already paid"))
		return
	}

	now := time.Now()
	if err := h.db.Model(&payable).Updates(map[string]interface{}{
		"status":  models.PayableStatusPaid,
		"paid_at": &now,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to pay payable"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Payable paid", gin.H{"paid_at": now}))
}

func (h *BillingHandler) DeletePayable(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	res := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		Delete(&models.Payable{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to delete payable"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Payable not found"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Payable deleted", nil))
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
