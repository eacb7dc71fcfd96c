package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"vendora-system/internal/auth"
	"vendora-system/internal/database/models"
)

type ServiceOrderHandler struct {
	db *gorm.DB
}

func NewServiceOrderHandler(db *gorm.DB) *ServiceOrderHandler {
	return &ServiceOrderHandler{db: db}
}

var validStatuses = map[string]bool{
	models.ServiceOrderOpen:       true,
	models.ServiceOrderInProgress: true,
	models.ServiceOrderWaiting:    true,
	models.ServiceOrderDone:       true,
	models.ServiceOrderDelivered:  true,
	models.ServiceOrderCanceled:   true,
}

var validPriorities = map[string]bool{
	"low":    true,
	"normal": true,
	"high":   true,
	"urgent": true,
}

// nextOrderNumber issues OS<year><5-digit-seq>, sequence restarting each year
// per tenant. The next number comes from the highest issued one, not a row
// count, so deleted orders never cause a reissue. Runs inside the create
// transaction so two concurrent creates cannot take the same number.
func nextOrderNumber(tx *gorm.DB, tenantID int64) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("OS%d", year)

	var last models.ServiceOrder
	err := tx.Select("order_number").
		Where("user_id = ? AND order_number LIKE ?", tenantID, prefix+"%").
		Order("order_number DESC").
		First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return prefix + "00001", nil
	}
	if err != nil {
		return "", err
	}

	seq, err := strconv.ParseInt(strings.TrimPrefix(last.OrderNumber, prefix), 10, 64)
	if err != nil {
		return "", fmt.Errorf("malformed order number %q", last.OrderNumber)
	}
	return fmt.Sprintf("%s%05d", prefix, seq+1), nil
}

type CreateServiceOrderRequest struct {
	ClientID      *int64  `json:"client_id"`
	EmployeeID    *int64  `json:"employee_id"`
	Equipment     string  `json:"equipment" binding:"required"`
	Brand         *string `json:"brand"`
	Model         *string `json:"model"`
	SerialNumber  *string `json:"serial_number"`
	Color         *string `json:"color"`
	Accessories   *string `json:"accessories"`
	ReportedIssue string  `json:"reported_issue" binding:"required"`
	Diagnosis     *string `json:"diagnosis"`
	Priority      *string `json:"priority"`
	DueDate       *string `json:"due_date"`
	Notes         *string `json:"notes"`
	ServiceValue  *string `json:"service_value"`
	PartsValue    *string `json:"parts_value"`
}

func (h *ServiceOrderHandler) Create(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var req CreateServiceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Equipment and reported issue are required"))
		return
	}

	priority := "normal"
	if req.Priority != nil {
		if !validPriorities[*req.Priority] {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid priority, use: low, normal, high or urgent"))
			return
		}
		priority = *req.Priority
	}

	serviceValue := decimal.Zero
	if req.ServiceValue != nil {
		v, err := decimal.NewFromString(*req.ServiceValue)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid service value"))
			return
		}
		serviceValue = v
	}
	partsValue := decimal.Zero
	if req.PartsValue != nil {
		v, err := decimal.NewFromString(*req.PartsValue)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid parts value"))
			return
		}
		partsValue = v
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

	tenantID := principal.TenantID()

	if req.ClientID != nil {
		var count int64
		h.db.Model(&models.Client{}).
			Where("id = ? AND user_id = ?", *req.ClientID, tenantID).Count(&count)
		if count == 0 {
			c.JSON(http.StatusNotFound, errorResponse("Client not found"))
			return
		}
	}

	var order models.ServiceOrder
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		number, err := nextOrderNumber(tx, tenantID)
		if err != nil {
			return err
		}

		order = models.ServiceOrder{
			UserID:        tenantID,
			OrderNumber:   number,
			ClientID:      req.ClientID,
			EmployeeID:    req.EmployeeID,
			Equipment:     req.Equipment,
			Brand:         req.Brand,
			Model:         req.Model,
			SerialNumber:  req.SerialNumber,
			Color:         req.Color,
			Accessories:   req.Accessories,
			ReportedIssue: req.ReportedIssue,
			Diagnosis:     req.Diagnosis,
			Status:        models.ServiceOrderOpen,
			Priority:      priority,
			DueDate:       dueDate,
			Notes:         req.Notes,
			ServiceValue:  serviceValue.StringFixed(2),
			PartsValue:    partsValue.StringFixed(2),
			TotalValue:    serviceValue.Add(partsValue).StringFixed(2),
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to open service order"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Service order opened", gin.H{
		"service_order_id": order.ID,
		"order_number":     order.OrderNumber,
	}))
}

type ListServiceOrdersQuery struct {
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
	Status   string `form:"status"`
	ClientID int64  `form:"client_id"`
	From     string `form:"from"`
	To       string `form:"to"`
}

func (h *ServiceOrderHandler) List(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var query ListServiceOrdersQuery
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

	scope := h.db.Model(&models.ServiceOrder{}).Where("user_id = ?", principal.TenantID())
	if query.Status != "" {
		if !validStatuses[query.Status] {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid status filter"))
			return
		}
		scope = scope.Where("status = ?", query.Status)
	}
	if query.ClientID > 0 {
		scope = scope.Where("client_id = ?", query.ClientID)
	}
	if query.From != "" {
		from, err := time.Parse("2006-01-02", query.From)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid from date, use YYYY-MM-DD"))
			return
		}
		scope = scope.Where("created_at >= ?", from)
	}
	if query.To != "" {
		to, err := time.Parse("2006-01-02", query.To)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid to date, use YYYY-MM-DD"))
			return
		}
		scope = scope.Where("created_at < ?", to.AddDate(0, 0, 1))
	}

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list service orders"))
		return
	}

	var orders []models.ServiceOrder
	if err := scope.Preload("Client").
		Order("created_at DESC").
		Limit(query.Limit).
		Offset((query.Page - 1) * query.Limit).
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list service orders"))
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Service orders retrieved", orders, gin.H{
		"page":        query.Page,
		"limit":       query.Limit,
		"total":       total,
		"total_pages": (total + int64(query.Limit) - 1) / int64(query.Limit),
	}))
}

func (h *ServiceOrderHandler) Get(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid service order ID"))
		return
	}

	var order models.ServiceOrder
	if err := h.db.Preload("Client").Preload("Employee").
		Where("id = ? AND user_id = ?", id, principal.TenantID()).
		First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Service order not found"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Service order retrieved", order))
}

type ServiceOrderUpdate struct {
	ClientID      *int64  `json:"client_id"`
	EmployeeID    *int64  `json:"employee_id"`
	Equipment     *string `json:"equipment"`
	Brand         *string `json:"brand"`
	Model         *string `json:"model"`
	SerialNumber  *string `json:"serial_number"`
	Color         *string `json:"color"`
	Accessories   *string `json:"accessories"`
	ReportedIssue *string `json:"reported_issue"`
	Diagnosis     *string `json:"diagnosis"`
	Status        *string `json:"status"`
	Priority      *string `json:"priority"`
	DueDate       *string `json:"due_date"`
	Notes         *string `json:"notes"`
	ServiceValue  *string `json:"service_value"`
	PartsValue    *string `json:"parts_value"`
}

func (h *ServiceOrderHandler) Update(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var order models.ServiceOrder
	if err := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Service order not found"))
		return
	}

	var req ServiceOrderUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	updates := map[string]interface{}{}
	if req.ClientID != nil {
		updates["client_id"] = *req.ClientID
	}
	if req.EmployeeID != nil {
		updates["employee_id"] = *req.EmployeeID
	}
	if req.Equipment != nil {
		updates["equipment"] = *req.Equipment
	}
	if req.Brand != nil {
		updates["brand"] = *req.Brand
	}
	if req.Model != nil {
		updates["model"] = *req.Model
	}
	if req.SerialNumber != nil {
		updates["serial_number"] = *req.SerialNumber
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if req.Accessories != nil {
		updates["accessories"] = *req.Accessories
	}
	if req.ReportedIssue != nil {
		updates["reported_issue"] = *req.ReportedIssue
	}
	if req.Diagnosis != nil {
		updates["diagnosis"] = *req.Diagnosis
	}
	if req.Status != nil {
		if !validStatuses[*req.Status] {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid status"))
			return
		}
		updates["status"] = *req.Status
		if *req.Status == models.ServiceOrderDelivered && order.DeliveredAt == nil {
			now := time.Now()
			updates["delivered_at"] = &now
		}
	}
	if req.Priority != nil {
		if !validPriorities[*req.Priority] {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid priority, use: low, normal, high or urgent"))
			return
		}
		updates["priority"] = *req.Priority
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

	// Totals stay consistent when either value changes.
	if req.ServiceValue != nil || req.PartsValue != nil {
		serviceValue, err := decimal.NewFromString(order.ServiceValue)
		if err != nil {
			serviceValue = decimal.Zero
		}
		partsValue, err := decimal.NewFromString(order.PartsValue)
		if err != nil {
			partsValue = decimal.Zero
		}
		if req.ServiceValue != nil {
			serviceValue, err = decimal.NewFromString(*req.ServiceValue)
			if err != nil {
				c.JSON(http.StatusBadRequest, errorResponse("Invalid service value"))
				return
			}
			updates["service_value"] = serviceValue.StringFixed(2)
		}
		if req.PartsValue != nil {
			partsValue, err = decimal.NewFromString(*req.PartsValue)
			if err != nil {
				c.JSON(http.StatusBadRequest, errorResponse("Invalid parts value"))
				return
			}
			updates["parts_value"] = partsValue.StringFixed(2)
		}
		updates["total_value"] = serviceValue.Add(partsValue).StringFixed(2)
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("No fields to update"))
		return
	}

	if err := h.db.Model(&order).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update service order"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Service order updated", nil))
}

func (h *ServiceOrderHandler) Delete(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	res := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		Delete(&models.ServiceOrder{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to delete service order"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Service order not found"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Service order deleted", nil))
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
