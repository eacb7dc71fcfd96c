package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vendora-system/internal/auth"
	"vendora-system/internal/database/models"
)

type CreateSupplierRequest struct {
	Name    string  `json:"name" binding:"required"`
	Contact *string `json:"contact"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	TaxID   *string `json:"tax_id"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Notes   *string `json:"notes"`
}

func (h *InventoryHandler) CreateSupplier(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var req CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Name is required"))
		return
	}

	supplier := models.Supplier{
		UserID:  principal.TenantID(),
		Name:    req.Name,
		Contact: req.Contact,
		Email:   req.Email,
		Phone:   req.Phone,
		TaxID:   req.TaxID,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Notes:   req.Notes,
	}
	if err := h.db.Create(&supplier).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to register supplier"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Supplier registered", gin.H{"supplier_id": supplier.ID}))
}

func (h *InventoryHandler) ListSuppliers(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var suppliers []models.Supplier
	if err := h.db.Where("user_id = ?", principal.TenantID()).
		Order("name").Find(&suppliers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list suppliers"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Suppliers retrieved", suppliers))
}

func (h *InventoryHandler) GetSupplier(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var supplier models.Supplier
	if err := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		First(&supplier).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Supplier not found"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Supplier retrieved", supplier))
}

type SupplierUpdate struct {
	Name    *string `json:"name"`
	Contact *string `json:"contact"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	TaxID   *string `json:"tax_id"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Notes   *string `json:"notes"`
}

func (u SupplierUpdate) changes() map[string]interface{} {
	updates := map[string]interface{}{}
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.Contact != nil {
		updates["contact"] = *u.Contact
	}
	if u.Email != nil {
		updates["email"] = *u.Email
	}
	if u.Phone != nil {
		updates["phone"] = *u.Phone
	}
	if u.TaxID != nil {
		updates["tax_id"] = *u.TaxID
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
	if u.Notes != nil {
		updates["notes"] = *u.Notes
	}
	return updates
}

func (h *InventoryHandler) UpdateSupplier(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var supplier models.Supplier
	if err := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		First(&supplier).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Supplier not found"))
		return
	}

	var req SupplierUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	updates := req.changes()
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("No fields to update"))
		return
	}

	if err := h.db.Model(&supplier).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update supplier"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Supplier updated", nil))
}

func (h *InventoryHandler) DeleteSupplier(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	res := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		Delete(&models.Supplier{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to delete supplier"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Supplier not found"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Supplier deleted", nil))
}
