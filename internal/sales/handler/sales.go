package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"vendora-system/internal/auth"
	"vendora-system/internal/database/models"
	"vendora-system/internal/domain"
	"vendora-system/internal/sales"
)

// Caches invalidated when a sale mutates stock or revenue figures.
const (
	PRODUCT_CACHE_PREFIX = "inventory:products:"
	SALES_CACHE_PREFIX   = "analytics:sales:"
)

type SalesHandler struct {
	store *sales.Store
	db    *gorm.DB
	redis *redis.Client
}

func NewSalesHandler(db *gorm.DB, redisClient *redis.Client) *SalesHandler {
	return &SalesHandler{
		store: sales.NewStore(db),
		db:    db,
		redis: redisClient,
	}
}

func (h *SalesHandler) invalidateCaches(ctx context.Context, tenantID int64) {
	if h.redis == nil {
		return
	}
	_ = h.redis.Del(ctx,
		fmt.Sprintf("%s%d", PRODUCT_CACHE_PREFIX, tenantID),
		fmt.Sprintf("%s%d", SALES_CACHE_PREFIX, tenantID),
	)
}

type SaleItemRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
	UnitPrice string `json:"unit_price" binding:"required"`
}

type CreateSaleRequest struct {
	ClientID   *int64            `json:"client_id"`
	Items      []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	TotalValue string            `json:"total_value"`
}

func (h *SalesHandler) Create(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Items are required"))
		return
	}

	items := make([]models.SaleItem, 0, len(req.Items))
	for _, item := range req.Items {
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse(
				fmt.Sprintf("Invalid unit price for product %d", item.ProductID)))
			return
		}
		items = append(items, models.SaleItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: price.StringFixed(2),
		})
	}

	saleID, err := h.store.Create(c.Request.Context(), principal.TenantID(), sales.SaleInput{
		ClientID:   req.ClientID,
		Items:      items,
		TotalValue: req.TotalValue,
	})
	if err != nil {
		respondError(c, err, "Failed to register sale")
		return
	}

	h.invalidateCaches(c.Request.Context(), principal.TenantID())

	c.JSON(http.StatusCreated, successResponse("Sale registered", gin.H{"sale_id": saleID}))
}

type ListSalesQuery struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=20"`
}

func (h *SalesHandler) List(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var query ListSalesQuery
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
	if err := h.db.Model(&models.Sale{}).Where("user_id = ?", tenantID).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list sales"))
		return
	}

	var salesRows []models.Sale
	if err := h.db.Preload("Client").
		Where("user_id = ?", tenantID).
		Order("created_at DESC").
		Limit(query.Limit).
		Offset((query.Page - 1) * query.Limit).
		Find(&salesRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list sales"))
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Sales retrieved", salesRows, gin.H{
		"page":        query.Page,
		"limit":       query.Limit,
		"total":       total,
		"total_pages": (total + int64(query.Limit) - 1) / int64(query.Limit),
	}))
}

func (h *SalesHandler) Get(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid sale ID"))
		return
	}

	var sale models.Sale
	if err := h.db.Preload("Client").
		Where("id = ? AND user_id = ?", id, principal.TenantID()).
		First(&sale).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Sale not found"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Sale retrieved", sale))
}

// SaleUpdate is the admin-only correction path; regular flows never mutate a
// registered sale.
type SaleUpdate struct {
	ClientID   *int64             `json:"client_id"`
	Items      *[]SaleItemRequest `json:"items"`
	TotalValue *string            `json:"total_value"`
}

func (h *SalesHandler) Update(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var sale models.Sale
	if err := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		First(&sale).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Sale not found"))
		return
	}

	var req SaleUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	updates := map[string]interface{}{}
	if req.ClientID != nil {
		updates["client_id"] = *req.ClientID
	}
	if req.Items != nil {
		items := make(models.SaleItems, 0, len(*req.Items))
		for _, item := range *req.Items {
			items = append(items, models.SaleItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		}
		updates["items"] = items
	}
	if req.TotalValue != nil {
		total, err := decimal.NewFromString(*req.TotalValue)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid total value"))
			return
		}
		updates["total_value"] = total.StringFixed(2)
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("No fields to update"))
		return
	}

	if err := h.db.Model(&sale).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update sale"))
		return
	}

	h.invalidateCaches(c.Request.Context(), principal.TenantID())

	c.JSON(http.StatusOK, successResponse("Sale updated", nil))
}

func (h *SalesHandler) Delete(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	res := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		Delete(&models.Sale{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to delete sale"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Sale not found"))
		return
	}

	h.invalidateCaches(c.Request.Context(), principal.TenantID())

	c.JSON(http.StatusOK, successResponse("Sale deleted", nil))
}

// respondError maps store failures to status codes without rewriting their
// meaning.
func respondError(c *gin.Context, err error, fallback string) {
	status := domain.StatusCode(err)
	msg := fallback
	if status != http.StatusInternalServerError {
		msg = err.Error()
	}

	payload := gin.H{"success": false, "message": msg}
	var stock *domain.InsufficientStockError
	if errors.As(err, &stock) {
		payload["product_id"] = stock.ProductID
	}
	c.JSON(status, payload)
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
