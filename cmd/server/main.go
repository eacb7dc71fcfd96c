package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vendora-system/config"
	adminhandler "vendora-system/internal/admin/handler"
	analyticshandler "vendora-system/internal/analytics/handler"
	billinghandler "vendora-system/internal/billing/handler"
	clientshandler "vendora-system/internal/clients/handler"
	"vendora-system/internal/database"
	inventoryhandler "vendora-system/internal/inventory/handler"
	loyaltyhandler "vendora-system/internal/loyalty/handler"
	"vendora-system/internal/middleware"
	saleshandler "vendora-system/internal/sales/handler"
	serviceordershandler "vendora-system/internal/serviceorders/handler"
	settingshandler "vendora-system/internal/settings/handler"
	userhandler "vendora-system/internal/user/handler"
	"vendora-system/internal/utils"
)

func buildDSN(cfg config.DBConfig) string {
	if cfg.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
	}
	return cfg.Path
}

func main() {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	utils.JwtSecret = []byte(cfg.Auth.JWTSecret)

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewConnection(cfg.DB.Driver, buildDSN(cfg.DB))
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	redisClient := config.NewRedisClient(cfg.Redis)
	defer redisClient.Close()

	users := userhandler.NewUserHandler(db, logger)
	clients := clientshandler.NewClientHandler(db)
	inventory := inventoryhandler.NewInventoryHandler(db, redisClient)
	sales := saleshandler.NewSalesHandler(db, redisClient)
	loyalty := loyaltyhandler.NewLoyaltyHandler(db, redisClient)
	serviceOrders := serviceordershandler.NewServiceOrderHandler(db)
	billing := billinghandler.NewBillingHandler(db)
	analytics := analyticshandler.NewAnalyticsHandler(db, redisClient)
	settings := settingshandler.NewSettingsHandler(db)
	admin := adminhandler.NewAdminHandler(db, logger)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit("100-M"))

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		authGroup := public.Group("/auth")
		authGroup.Use(middleware.RateLimit("10-M"))
		{
			authGroup.POST("/register", users.Register)
			authGroup.POST("/login", users.Login)
			authGroup.POST("/employee-login", users.EmployeeLogin)
		}
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth())
	{
		authGroup := protected.Group("/auth")
		{
			authGroup.GET("/verify", users.Verify)
			authGroup.GET("/trial-status", users.TrialStatus)
		}

		active := protected.Group("")
		active.Use(middleware.ActiveAccount(db))
		{
			employees := active.Group("/employees")
			{
				employees.POST("", users.CreateEmployee)
				employees.GET("", users.ListEmployees)
				employees.PUT("/:id", users.UpdateEmployee)
			}

			clientsGroup := active.Group("/clients")
			{
				clientsGroup.POST("", clients.Create)
				clientsGroup.GET("", clients.List)
				clientsGroup.GET("/:id", clients.Get)
				clientsGroup.PUT("/:id", clients.Update)
				clientsGroup.DELETE("/:id", clients.Delete)
			}

			inventoryGroup := active.Group("/inventory")
			{
				inventoryGroup.POST("/products", inventory.CreateProduct)
				inventoryGroup.GET("/products", inventory.ListProducts)
				inventoryGroup.GET("/products/:id", inventory.GetProduct)
				inventoryGroup.PUT("/products/:id", inventory.UpdateProduct)
				inventoryGroup.DELETE("/products/:id", inventory.DeleteProduct)

				inventoryGroup.POST("/categories", inventory.CreateCategory)
				inventoryGroup.GET("/categories", inventory.ListCategories)
				inventoryGroup.GET("/categories/:id", inventory.GetCategory)
				inventoryGroup.PUT("/categories/:id", inventory.UpdateCategory)
				inventoryGroup.DELETE("/categories/:id", inventory.DeleteCategory)

				inventoryGroup.POST("/suppliers", inventory.CreateSupplier)
				inventoryGroup.GET("/suppliers", inventory.ListSuppliers)
				inventoryGroup.GET("/suppliers/:id", inventory.GetSupplier)
				inventoryGroup.PUT("/suppliers/:id", inventory.UpdateSupplier)
				inventoryGroup.DELETE("/suppliers/:id", inventory.DeleteSupplier)
			}

			salesGroup := active.Group("/sales")
			{
				salesGroup.POST("", sales.Create)
				salesGroup.GET("", sales.List)
				salesGroup.GET("/:id", sales.Get)
				salesGroup.PUT("/:id", middleware.OwnerOnly(), sales.Update)
				salesGroup.DELETE("/:id", middleware.OwnerOnly(), sales.Delete)
			}

			loyaltyGroup := active.Group("/loyalty")
			{
				loyaltyGroup.GET("/config", loyalty.GetConfig)
				loyaltyGroup.PUT("/config", loyalty.UpdateConfig)

				loyaltyGroup.POST("/rewards", loyalty.CreateReward)
				loyaltyGroup.GET("/rewards", loyalty.ListRewards)
				loyaltyGroup.PUT("/rewards/:id", loyalty.UpdateReward)
				loyaltyGroup.DELETE("/rewards/:id", loyalty.DeleteReward)

				loyaltyGroup.GET("/customers", loyalty.ListCustomers)
				loyaltyGroup.GET("/customers/:id", loyalty.GetCustomer)
				loyaltyGroup.POST("/customers/:id/points", loyalty.ApplyPoints)
				loyaltyGroup.POST("/customers/:id/redeem", loyalty.RedeemReward)
			}

			ordersGroup := active.Group("/service-orders")
			{
				ordersGroup.POST("", serviceOrders.Create)
				ordersGroup.GET("", serviceOrders.List)
				ordersGroup.GET("/:id", serviceOrders.Get)
				ordersGroup.PUT("/:id", serviceOrders.Update)
				ordersGroup.DELETE("/:id", serviceOrders.Delete)
			}

			billingGroup := active.Group("/billing")
			{
				billingGroup.POST("/payables", billing.CreatePayable)
				billingGroup.GET("/payables", billing.ListPayables)
				billingGroup.PUT("/payables/:id", billing.UpdatePayable)
				billingGroup.POST("/payables/:id/pay", billing.PayPayable)
				billingGroup.DELETE("/payables/:id", billing.DeletePayable)

				billingGroup.POST("/payments", billing.CreatePayment)
				billingGroup.GET("/payments", billing.ListPayments)
				billingGroup.GET("/payments/report", billing.PaymentsReport)

				billingGroup.POST("/payment-methods", billing.CreatePaymentMethod)
				billingGroup.GET("/payment-methods", billing.ListPaymentMethods)
				billingGroup.PUT("/payment-methods/:id", billing.UpdatePaymentMethod)
				billingGroup.DELETE("/payment-methods/:id", billing.DeletePaymentMethod)
			}

			analyticsGroup := active.Group("/analytics")
			{
				analyticsGroup.GET("/sales", analytics.SalesReport)
				analyticsGroup.GET("/stock", analytics.StockReport)
				analyticsGroup.GET("/financial", analytics.FinancialReport)
			}

			settingsGroup := active.Group("/settings")
			{
				settingsGroup.GET("", settings.Get)
				settingsGroup.PUT("", settings.Update)
			}
		}

		adminGroup := protected.Group("/admin")
		adminGroup.Use(middleware.AdminOnly(cfg.Auth.AdminEmail))
		{
			adminGroup.GET("/accounts", admin.ListAccounts)
			adminGroup.GET("/accounts/:id", admin.AccountOverview)
			adminGroup.DELETE("/accounts/:id", admin.DeleteAccount)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"message":   "Server is running",
			"timestamp": time.Now(),
		})
	})

	addr := ":" + cfg.Server.Port
	logger.Info("Starting server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
