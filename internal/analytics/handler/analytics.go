package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"vendora-system/internal/auth"
	"vendora-system/internal/database/models"
)

const (
	SALES_CACHE_PREFIX = "analytics:sales:"
	CACHE_TTL_SHORT    = 5 * time.Minute
)

// Products below this quantity show up in the low-stock report.
const lowStockThreshold = 5

type AnalyticsHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewAnalyticsHandler(db *gorm.DB, redisClient *redis.Client) *AnalyticsHandler {
	return &AnalyticsHandler{db: db, redis: redisClient}
}

type SalesReportQuery struct {
	Period string `form:"period,default=daily"`
	From   string `form:"from"`
	To     string `form:"to"`
}

// bucketKey folds a timestamp into its reporting bucket. Weekly buckets are
// keyed by the Monday of the week.
func bucketKey(t time.Time, period string) string {
	switch period {
	case "weekly":
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		monday := t.AddDate(0, 0, -(weekday - 1))
		return monday.Format("2006-01-02")
	case "monthly":
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

func (h *AnalyticsHandler) SalesReport(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var query SalesReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}
	if query.Period != "daily" && query.Period != "weekly" && query.Period != "monthly" {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid period, use: daily, weekly or monthly"))
		return
	}

	tenantID := principal.TenantID()
	ctx := c.Request.Context()

	// Unfiltered default view is the dashboard hot path.
	cacheKey := fmt.Sprintf("%s%d", SALES_CACHE_PREFIX, tenantID)
	cacheable := query.Period == "daily" && query.From == "" && query.To == ""
	if h.redis != nil && cacheable {
		if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			var resp APIResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	scope := h.db.Where("user_id = ?", tenantID)
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

	var sales []models.Sale
	if err := scope.Order("created_at ASC").Find(&sales).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to build sales report"))
		return
	}

	type bucket struct {
		Count   int64
		Revenue decimal.Decimal
	}
	buckets := map[string]*bucket{}
	order := []string{}

	totalCount := int64(0)
	totalRevenue := decimal.Zero

	for _, sale := range sales {
		value, err := decimal.NewFromString(sale.TotalValue)
		if err != nil {
			continue
		}

		key := bucketKey(sale.CreatedAt, query.Period)
		if buckets[key] == nil {
			buckets[key] = &bucket{}
			order = append(order, key)
		}
		buckets[key].Count++
		buckets[key].Revenue = buckets[key].Revenue.Add(value)

		totalCount++
		totalRevenue = totalRevenue.Add(value)
	}

	periods := make([]gin.H, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		avg := decimal.Zero
		if b.Count > 0 {
			avg = b.Revenue.Div(decimal.NewFromInt(b.Count)).Round(2)
		}
		periods = append(periods, gin.H{
			"period":         key,
			"count":          b.Count,
			"revenue":        b.Revenue.StringFixed(2),
			"average_ticket": avg.StringFixed(2),
		})
	}

	totalAvg := decimal.Zero
	if totalCount > 0 {
		totalAvg = totalRevenue.Div(decimal.NewFromInt(totalCount)).Round(2)
	}

	resp := successResponse("Sales report", gin.H{
		"period_kind": query.Period,
		"periods":     periods,
		"totals": gin.H{
			"count":          totalCount,
			"revenue":        totalRevenue.StringFixed(2),
			"average_ticket": totalAvg.StringFixed(2),
		},
	})

	if h.redis != nil && cacheable {
		if payload, err := json.Marshal(resp); err == nil {
			_ = h.redis.Set(ctx, cacheKey, payload, CACHE_TTL_SHORT)
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AnalyticsHandler) StockReport(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var products []models.Product
	if err := h.db.Where("user_id = ?", principal.TenantID()).
		Order("name").Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to build stock report"))
		return
	}

	totalUnits := int64(0)
	totalCost := decimal.Zero
	totalSaleValue := decimal.Zero
	valuation := make([]gin.H, 0, len(products))
	lowStock := []gin.H{}

	for _, p := range products {
		unitCost, err := decimal.NewFromString(p.UnitCost)
		if err != nil {
			unitCost = decimal.Zero
		}
		salePrice, err := decimal.NewFromString(p.SalePrice)
		if err != nil {
			salePrice = decimal.Zero
		}

		qty := decimal.NewFromInt(p.Quantity)
		costValue := unitCost.Mul(qty)
		saleValue := salePrice.Mul(qty)

		totalUnits += p.Quantity
		totalCost = totalCost.Add(costValue)
		totalSaleValue = totalSaleValue.Add(saleValue)

		valuation = append(valuation, gin.H{
			"product_id": p.ID,
			"name":       p.Name,
			"quantity":   p.Quantity,
			"cost_value": costValue.StringFixed(2),
			"sale_value": saleValue.StringFixed(2),
		})

		if p.Quantity < lowStockThreshold {
			lowStock = append(lowStock, gin.H{
				"product_id": p.ID,
				"name":       p.Name,
				"quantity":   p.Quantity,
			})
		}
	}

	c.JSON(http.StatusOK, successResponse("Stock report", gin.H{
		"products":  valuation,
		"low_stock": lowStock,
		"totals": gin.H{
			"distinct_products": len(products),
			"units":             totalUnits,
			"cost_value":        totalCost.StringFixed(2),
			"sale_value":        totalSaleValue.StringFixed(2),
		},
	}))
}

func (h *AnalyticsHandler) FinancialReport(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var payments []models.Payment
	if err := h.db.Where("user_id = ?", principal.TenantID()).
		Order("created_at ASC").Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to build financial report"))
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

	evolution := make([]gin.H, 0, len(dayOrder))
	for _, day := range dayOrder {
		b := byDay[day]
		evolution = append(evolution, gin.H{"date": day, "count": b.Count, "total": b.Total.StringFixed(2)})
	}

	c.JSON(http.StatusOK, successResponse("Financial report", gin.H{
		"by_status": statusOut,
		"evolution": evolution,
	}))
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
