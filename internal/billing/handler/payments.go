package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"vendora-system/internal/auth"
	"vendora-system/internal/database/models"
)

type CreatePaymentRequest struct {
	Description *string `json:"description"`
	Amount      string  `json:"amount" binding:"required"`
	MethodID    *int64  `json:"method_id"`
	Status      *string `json:"status"`
}

func (h *BillingHandler) CreatePayment(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Amount is required"))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid amount"))
		return
	}

	status := "paid"
	if req.Status != nil {
		if *req.Status != "paid" && *req.Status != "pending" && *req.Status != "canceled" {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid status, use: paid, pending or canceled"))
			return
		}
		status = *req.Status
	}

	if req.MethodID != nil {
		var count int64
		h.db.Model(&models.PaymentMethod{}).
			Where("id = ? AND user_id = ?", *req.MethodID, principal.TenantID()).Count(&count)
		if count == 0 {
			c.JSON(http.StatusNotFound, errorResponse("Payment method not found"))
			return
		}
	}

	payment := models.Payment{
		UserID:      principal.TenantID(),
		Description: req.Description,
		Amount:      amount.StringFixed(2),
		MethodID:    req.MethodID,
		Status:      status,
	}
	if err := h.db.Create(&payment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to register payment"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Payment registered", gin.H{"payment_id": payment.ID}))
}

type ListPaymentsQuery struct {
	Status string `form:"status"`
	From   string `form:"from"`
	To     string `form:"to"`
}

func (h *BillingHandler) ListPayments(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var query ListPaymentsQuery
	_ = c.ShouldBindQuery(&query)

	scope := h.db.Preload("Method").Where("user_id = ?", principal.TenantID())
	if query.Status != "" {
		scope = scope.Where("status = ?", query.Status)
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

	var payments []models.Payment
	if err := scope.Order("created_at DESC").Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list payments"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Payments retrieved", payments))
}

// PaymentsReport aggregates the ledger by status and by day. Sums run through
// decimal; amounts are stored as strings.
func (h *BillingHandler) PaymentsReport(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var payments []models.Payment
	if err := h.db.Where("user_id = ?", principal.TenantID()).
		Order("created_at ASC").Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to build payments report"))
		return
	}

	type bucket struct {
		Count int64
		Total decimal.Decimal
	}
	byStatus := map[string]*bucket{}
	byDay := map[string]*bucket{}
	dayOrder := []string{}

	for _, p := range payments {
		amount, err := decimal.NewFromString(p.Amount)
		if err != nil {
			continue
		}

		if byStatus[p.Status] == nil {
			byStatus[p.Status] = &bucket{}
		}
		byStatus[p.Status].Count++
		byStatus[p.Status].Total = byStatus[p.Status].Total.Add(amount)

		day := p.CreatedAt.Format("2006-01-02")
		if byDay[day] == nil {
			byDay[day] = &bucket{}
			dayOrder = append(dayOrder, day)
		}
		byDay[day].Count++
		byDay[day].Total = byDay[day].Total.Add(amount)
	}

	statusOut := map[string]gin.H{}
	for status, b := range byStatus {
		statusOut[status] = gin.H{"count": b.Count, "total": b.Total.StringFixed(2)}
	}

	daysOut := make([]gin.H, 0, len(dayOrder))
	for _, day := range dayOrder {
		b := byDay[day]
		daysOut = append(daysOut, gin.H{"date": day, "count": b.Count, "total": b.Total.StringFixed(2)})
	}

	c.JSON(http.StatusOK, successResponse("Payments report", gin.H{
		"by_status": statusOut,
		"by_day":    daysOut,
	}))
}
