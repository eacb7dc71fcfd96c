package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vendora-system/internal/auth"
	"vendora-system/internal/database/models"
)

type ClientHandler struct {
	db *gorm.DB
}

func NewClientHandler(db *gorm.DB) *ClientHandler {
	return &ClientHandler{db: db}
}

type CreateClientRequest struct {
	Name      string  `json:"name" binding:"required"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	TaxID     *string `json:"tax_id"`
	Address   *string `json:"address"`
	City      *string `json:"city"`
	State     *string `json:"state"`
	ZipCode   *string `json:"zip_code"`
	BirthDate *string `json:"birth_date"`
	Notes     *string `json:"notes"`
}

func (h *ClientHandler) Create(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Name is required"))
		return
	}

	client := models.Client{
		UserID:    principal.TenantID(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		TaxID:     req.TaxID,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
		BirthDate: req.BirthDate,
		Notes:     req.Notes,
	}
	if err := h.db.Create(&client).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to register client"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Client registered", gin.H{"client_id": client.ID}))
}

type ListQuery struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=20"`
}

func (h *ClientHandler) List(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var query ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 || query.Limit > 100 {
		query.Limit = 20
	}

	tenantID := principal.TenantID()

	var total int64
	if err := h.db.Model(&models.Client{}).Where("user_id = ?", tenantID).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list clients"))
		return
	}

	var clients []models.Client
	if err := h.db.Where("user_id = ?", tenantID).
		Order("name").
		Limit(query.Limit).
		Offset((query.Page - 1) * query.Limit).
		Find(&clients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list clients"))
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Clients retrieved", clients, gin.H{
		"page":        query.Page,
		"limit":       query.Limit,
		"total":       total,
		"total_pages": (total + int64(query.Limit) - 1) / int64(query.Limit),
	}))
}

// Get returns the client plus its sale history, both filtered by tenant.
func (h *ClientHandler) Get(c *gin.Context) {
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

	var client models.Client
	if err := h.db.Where("id = ? AND user_id = ?", id, tenantID).First(&client).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Client not found"))
		return
	}

	var sales []models.Sale
	if err := h.db.Where("client_id = ? AND user_id = ?", id, tenantID).
		Order("created_at DESC").Find(&sales).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to load sale history"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Client retrieved", gin.H{
		"client":       client,
		"sale_history": sales,
	}))
}

// ClientUpdate enumerates every updatable field; absent fields are left
// untouched.
type ClientUpdate struct {
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	TaxID     *string `json:"tax_id"`
	Address   *string `json:"address"`
	City      *string `json:"city"`
	State     *string `json:"state"`
	ZipCode   *string `json:"zip_code"`
	BirthDate *string `json:"birth_date"`
	Notes     *string `json:"notes"`
}

func (u ClientUpdate) changes() map[string]interface{} {
	updates := map[string]interface{}{}
	if u.Name != nil {
		updates["name"] = *u.Name
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
	if u.ZipCode != nil {
		updates["zip_code"] = *u.ZipCode
	}
	if u.BirthDate != nil {
		updates["birth_date"] = *u.BirthDate
	}
	if u.Notes != nil {
		updates["notes"] = *u.Notes
	}
	return updates
}

func (h *ClientHandler) Update(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var client models.Client
	if err := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		First(&client).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Client not found"))
		return
	}

	var req ClientUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	updates := req.changes()
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("No fields to update"))
		return
	}

	if err := h.db.Model(&client).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update client"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Client updated", nil))
}

func (h *ClientHandler) Delete(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	res := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		Delete(&models.Client{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to delete client"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Client not found"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Client deleted", nil))
}

// --- Response helpers ---

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func successWithMetaResponse(message string, data interface{}, meta interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	}
}

func errorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}
