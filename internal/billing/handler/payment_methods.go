package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vendora-system/internal/auth"
	"vendora-system/internal/database/models"
)

type CreatePaymentMethodRequest struct {
	Name string `json:"name" binding:"required"`
	Kind string `json:"kind"`
}

func (h *BillingHandler) CreatePaymentMethod(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var req CreatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Name is required"))
		return
	}

	method := models.PaymentMethod{
		UserID: principal.TenantID(),
		Name:   req.Name,
		Kind:   req.Kind,
		Active: true,
	}
	if err := h.db.Create(&method).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to create payment method"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Payment method created", gin.H{"method_id": method.ID}))
}

func (h *BillingHandler) ListPaymentMethods(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var methods []models.PaymentMethod
	if err := h.db.Where("user_id = ?", principal.TenantID()).
		Order("name").Find(&methods).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list payment methods"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Payment methods retrieved", methods))
}

type PaymentMethodUpdate struct {
	Name   *string `json:"name"`
	Kind   *string `json:"kind"`
	Active *bool   `json:"active"`
}

func (h *BillingHandler) UpdatePaymentMethod(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var method models.PaymentMethod
	if err := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		First(&method).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Payment method not found"))
		return
	}

	var req PaymentMethodUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Kind != nil {
		updates["kind"] = *req.Kind
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("No fields to update"))
		return
	}

	if err := h.db.Model(&method).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update payment method"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Payment method updated", nil))
}

// DeletePaymentMethod deactivates methods referenced by payments instead of
// removing them.
func (h *BillingHandler) DeletePaymentMethod(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var method models.PaymentMethod
	if err := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		First(&method).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Payment method not found"))
		return
	}

	var referenced int64
	h.db.Model(&models.Payment{}).Where("method_id = ?", method.ID).Count(&referenced)
	if referenced > 0 {
		if err := h.db.Model(&method).Update("active", false).Error; err != nil {
			c.JSON(http.StatusInternalServerError, errorResponse("Failed to deactivate payment method"))
			return
		}
		c.JSON(http.StatusOK, successResponse("Payment method deactivated (referenced by payments)", nil))
		return
	}

	if err := h.db.Delete(&method).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to delete payment method"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Payment method deleted", nil))
}
