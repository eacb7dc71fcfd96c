package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"vendora-system/internal/auth"
	"vendora-system/internal/database/models"
	"vendora-system/internal/utils"
)

const (
	ownerTokenTTL    = 24 * time.Hour
	employeeTokenTTL = 8 * time.Hour
	trialDays        = 14
)

type UserHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewUserHandler(db *gorm.DB, logger *zap.Logger) *UserHandler {
	return &UserHandler{db: db, logger: logger}
}

// logActivity is best-effort: a failed write is logged and never blocks the
// operation that produced it.
func (h *UserHandler) logActivity(userID int64, actionType, description, ip string) {
	entry := models.ActivityLog{
		UserID:      userID,
		ActionType:  actionType,
		Description: description,
		IPAddress:   ip,
	}
	if err := h.db.Create(&entry).Error; err != nil {
		h.logger.Warn("activity log write failed",
			zap.Int64("user_id", userID),
			zap.String("action", actionType),
			zap.Error(err))
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Name, email and password are required"))
		return
	}

	var existing models.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, errorResponse("Email already registered"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to register user"))
		return
	}

	trialEndsAt := time.Now().AddDate(0, 0, trialDays)
	user := models.User{
		Name:          req.Name,
		Email:         req.Email,
		Password:      string(hashed),
		Phone:         req.Phone,
		Address:       req.Address,
		PaymentStatus: models.AccountStatusTrial,
		TrialEndsAt:   &trialEndsAt,
	}
	if err := h.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to register user"))
		return
	}

	h.logActivity(user.ID, "REGISTER", "New account registered: "+req.Email, c.ClientIP())

	c.JSON(http.StatusCreated, successResponse("Account created, trial period started", gin.H{
		"user_id":       user.ID,
		"trial_ends_at": trialEndsAt,
	}))
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Email and password are required"))
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse("Invalid email or password"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse("Invalid email or password"))
		return
	}

	token, exp, err := utils.GenerateOwnerToken(user.ID, user.Email, user.Name, ownerTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to generate token"))
		return
	}

	h.logActivity(user.ID, "LOGIN", "Login: "+req.Email, c.ClientIP())

	c.JSON(http.StatusOK, successResponse("Login successful", gin.H{
		"token":      token,
		"expires_at": exp,
		"user":       userView(user),
	}))
}

// Verify re-resolves the principal against the store so revoked accounts and
// deactivated employees fail even with a live token.
func (h *UserHandler) Verify(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	if emp, isEmployee := principal.(auth.Employee); isEmployee {
		var employee models.Employee
		if err := h.db.Where("id = ? AND active = ?", emp.ID, true).First(&employee).Error; err != nil {
			c.JSON(http.StatusNotFound, errorResponse("Employee not found"))
			return
		}
		c.JSON(http.StatusOK, successResponse("Token valid", gin.H{
			"valid": true,
			"user":  employeeView(employee),
		}))
		return
	}

	var user models.User
	if err := h.db.First(&user, principal.TenantID()).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("User not found"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Token valid", gin.H{
		"valid": true,
		"user":  userView(user),
	}))
}

func (h *UserHandler) TrialStatus(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var user models.User
	if err := h.db.Select("payment_status", "trial_ends_at").
		First(&user, principal.TenantID()).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("User not found"))
		return
	}

	resp := gin.H{
		"status":     user.PaymentStatus,
		"is_paid":    user.PaymentStatus == models.AccountStatusPaid,
		"is_blocked": user.PaymentStatus == models.AccountStatusPastDue || user.PaymentStatus == models.AccountStatusCanceled,
	}

	if user.PaymentStatus == models.AccountStatusTrial && user.TrialEndsAt != nil {
		daysLeft := int(time.Until(*user.TrialEndsAt).Hours() / 24)
		if daysLeft < 0 {
			daysLeft = 0
		}
		resp["trial"] = gin.H{
			"is_active":  true,
			"days_left":  daysLeft,
			"ends_at":    user.TrialEndsAt,
			"is_expired": time.Now().After(*user.TrialEndsAt),
		}
	}

	c.JSON(http.StatusOK, successResponse("Trial status", resp))
}

func userView(u models.User) gin.H {
	return gin.H{
		"id":             u.ID,
		"name":           u.Name,
		"email":          u.Email,
		"phone":          u.Phone,
		"address":        u.Address,
		"payment_status": u.PaymentStatus,
		"trial_ends_at":  u.TrialEndsAt,
		"created_at":     u.CreatedAt,
	}
}

func employeeView(e models.Employee) gin.H {
	return gin.H{
		"id":          e.ID,
		"user_id":     e.UserID,
		"name":        e.Name,
		"email":       e.Email,
		"role":        e.Role,
		"active":      e.Active,
		"last_access": e.LastAccess,
		"is_employee": true,
	}
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
