package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"vendora-system/internal/auth"
	"vendora-system/internal/database/models"
)

const (
	PRODUCT_CACHE_PREFIX = "inventory:products:"
	CACHE_TTL_SHORT      = 5 * time.Minute
)

type InventoryHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewInventoryHandler(db *gorm.DB, redisClient *redis.Client) *InventoryHandler {
	return &InventoryHandler{db: db, redis: redisClient}
}

func (h *InventoryHandler) invalidateProductCache(ctx context.Context, tenantID int64) {
	if h.redis == nil {
		return
	}
	_ = h.redis.Del(ctx, fmt.Sprintf("%s%d", PRODUCT_CACHE_PREFIX, tenantID))
}

type CreateProductRequest struct {
	Name         string  `json:"name" binding:"required"`
	Description  *string `json:"description"`
	CategoryID   *int64  `json:"category_id"`
	Quantity     *int64  `json:"quantity" binding:"required"`
	UnitCost     string  `json:"unit_cost" binding:"required"`
	SalePrice    string  `json:"sale_price"`
	Barcode      *string `json:"barcode"`
	SerialNumber *string `json:"serial_number"`
	Color        *string `json:"color"`
	Storage      *string `json:"storage"`
}

func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Name, quantity and unit cost are required"))
		return
	}
	if *req.Quantity < 0 {
		c.JSON(http.StatusBadRequest, errorResponse("Quantity cannot be negative"))
		return
	}

	unitCost, err := decimal.NewFromString(req.UnitCost)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid unit cost"))
		return
	}
	salePrice := unitCost
	if req.SalePrice != "" {
		salePrice, err = decimal.NewFromString(req.SalePrice)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid sale price"))
			return
		}
	}

	product := models.Product{
		UserID:       principal.TenantID(),
		Name:         req.Name,
		Description:  req.Description,
		CategoryID:   req.CategoryID,
		Quantity:     *req.Quantity,
		UnitCost:     unitCost.StringFixed(2),
		SalePrice:    salePrice.StringFixed(2),
		Barcode:      req.Barcode,
		SerialNumber: req.SerialNumber,
		Color:        req.Color,
		Storage:      req.Storage,
	}
	if err := h.db.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to add product"))
		return
	}

	h.invalidateProductCache(c.Request.Context(), principal.TenantID())

	c.JSON(http.StatusCreated, successResponse("Product added to stock", gin.H{"product_id": product.ID}))
}

type ListProductsQuery struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=20"`
}

func (h *InventoryHandler) ListProducts(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var query ListProductsQuery
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
	ctx := c.Request.Context()

	// First page is the hot path for the POS screen; serve it from cache.
	cacheKey := fmt.Sprintf("%s%d", PRODUCT_CACHE_PREFIX, tenantID)
	if h.redis != nil && query.Page == 1 {
		if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			var resp APIResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	var total int64
	if err := h.db.Model(&models.Product{}).Where("user_id = ?", tenantID).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list stock"))
		return
	}

	var products []models.Product
	if err := h.db.Preload("Category").
		Where("user_id = ?", tenantID).
		Order("name").
		Limit(query.Limit).
		Offset((query.Page - 1) * query.Limit).
		Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list stock"))
		return
	}

	resp := successWithMetaResponse("Stock retrieved", products, gin.H{
		"page":        query.Page,
		"limit":       query.Limit,
		"total":       total,
		"total_pages": (total + int64(query.Limit) - 1) / int64(query.Limit),
	})

	if h.redis != nil && query.Page == 1 {
		if payload, err := json.Marshal(resp); err == nil {
			_ = h.redis.Set(ctx, cacheKey, payload, CACHE_TTL_SHORT)
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) GetProduct(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid product ID"))
		return
	}

	var product models.Product
	if err := h.db.Preload("Category").
		Where("id = ? AND user_id = ?", id, principal.TenantID()).
		First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Product not found"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Product retrieved", product))
}

// ProductUpdate enumerates every updatable field; absent fields are left
// untouched. Manual quantity edits go through here; sales use the guarded
// decrement in the sales store instead.
type ProductUpdate struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	CategoryID   *int64  `json:"category_id"`
	Quantity     *int64  `json:"quantity"`
	UnitCost     *string `json:"unit_cost"`
	SalePrice    *string `json:"sale_price"`
	Barcode      *string `json:"barcode"`
	SerialNumber *string `json:"serial_number"`
	Color        *string `json:"color"`
	Storage      *string `json:"storage"`
}

func (u ProductUpdate) changes() (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.Description != nil {
		updates["description"] = *u.Description
	}
	if u.CategoryID != nil {
		updates["category_id"] = *u.CategoryID
	}
	if u.Quantity != nil {
		if *u.Quantity < 0 {
			return nil, fmt.Errorf("quantity cannot be negative")
		}
		updates["quantity"] = *u.Quantity
	}
	if u.UnitCost != nil {
		v, err := decimal.NewFromString(*u.UnitCost)
		if err != nil {
			return nil, fmt.Errorf("invalid unit cost")
		}
		updates["unit_cost"] = v.StringFixed(2)
	}
	if u.SalePrice != nil {
		v, err := decimal.NewFromString(*u.SalePrice)
		if err != nil {
			return nil, fmt.Errorf("invalid sale price")
		}
		updates["sale_price"] = v.StringFixed(2)
	}
	if u.Barcode != nil {
		updates["barcode"] = *u.Barcode
	}
	if u.SerialNumber != nil {
		updates["serial_number"] = *u.SerialNumber
	}
	if u.Color != nil {
		updates["color"] = *u.Color
	}
	if u.Storage != nil {
		updates["storage"] = *u.Storage
	}
	return updates, nil
}

func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var product models.Product
	if err := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Product not found"))
		return
	}

	var req ProductUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	updates, err := req.changes()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("No fields to update"))
		return
	}

	if err := h.db.Model(&product).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update product"))
		return
	}

	h.invalidateProductCache(c.Request.Context(), principal.TenantID())

	c.JSON(http.StatusOK, successResponse("Product updated", nil))
}

func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	res := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		Delete(&models.Product{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to delete product"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Product not found"))
		return
	}

	h.invalidateProductCache(c.Request.Context(), principal.TenantID())

	c.JSON(http.StatusOK, successResponse("Product deleted", nil))
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
