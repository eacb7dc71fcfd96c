package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"vendora-system/internal/auth"
	"vendora-system/internal/database/models"
	"vendora-system/internal/utils"
)

var validRoles = map[string]bool{
	"sales":   true,
	"stock":   true,
	"support": true,
	"manager": true,
	"admin":   true,
}

type EmployeeLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) EmployeeLogin(c *gin.Context) {
	var req EmployeeLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Email and password are required"))
		return
	}

	var employee models.Employee
	if err := h.db.Where("email = ? AND active = ?", req.Email, true).First(&employee).Error; err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse("Invalid email or password"))
		return
	}

	if employee.Password == "" {
		c.JSON(http.StatusUnauthorized, errorResponse("Employee account has no password yet, ask the owner to set one"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(employee.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse("Invalid email or password"))
		return
	}

	var owner models.User
	if err := h.db.Select("id", "payment_status").First(&owner, employee.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse("Employer account not found"))
		return
	}
	if owner.PaymentStatus == models.AccountStatusPastDue || owner.PaymentStatus == models.AccountStatusCanceled {
		c.JSON(http.StatusForbidden, errorResponse("Employer account is blocked"))
		return
	}

	now := time.Now()
	h.db.Model(&models.Employee{}).Where("id = ?", employee.ID).Update("last_access", now)

	token, exp, err := utils.GenerateEmployeeToken(employee.ID, employee.UserID, employee.Email, employee.Name, employee.Role, employeeTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to generate token"))
		return
	}

	h.logActivity(employee.UserID, "EMPLOYEE_LOGIN", "Employee login: "+req.Email, c.ClientIP())

	c.JSON(http.StatusOK, successResponse("Login successful", gin.H{
		"token":      token,
		"expires_at": exp,
		"user":       employeeView(employee),
	}))
}

type CreateEmployeeRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role" binding:"required"`
	Password string `json:"password"`
}

// CreateEmployee is owner-only: employees cannot mint peers.
func (h *UserHandler) CreateEmployee(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}
	if !auth.IsOwner(principal) {
		c.JSON(http.StatusForbidden, errorResponse("Only the owner can register employees"))
		return
	}

	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Name, email and role are required"))
		return
	}

	if !validRoles[req.Role] {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid role, use: sales, stock, support, manager or admin"))
		return
	}
	if req.Password != "" && len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, errorResponse("Password must be at least 6 characters"))
		return
	}

	var existing models.Employee
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, errorResponse("Email already registered"))
		return
	}

	employee := models.Employee{
		UserID: principal.TenantID(),
		Name:   req.Name,
		Email:  req.Email,
		Role:   req.Role,
		Active: true,
	}
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errorResponse("Failed to register employee"))
			return
		}
		employee.Password = string(hashed)
	}

	if err := h.db.Create(&employee).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to register employee"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Employee registered", gin.H{"employee_id": employee.ID}))
}

func (h *UserHandler) ListEmployees(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var employees []models.Employee
	if err := h.db.Where("user_id = ?", principal.TenantID()).
		Order("name").Find(&employees).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list employees"))
		return
	}

	views := make([]gin.H, 0, len(employees))
	for _, e := range employees {
		views = append(views, employeeView(e))
	}
	c.JSON(http.StatusOK, successResponse("Employees retrieved", views))
}

// EmployeeUpdate enumerates every updatable field; absent fields are left
// untouched.
type EmployeeUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	Password *string `json:"password"`
	Active   *bool   `json:"active"`
}

func (u EmployeeUpdate) changes() (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.Email != nil {
		updates["email"] = *u.Email
	}
	if u.Role != nil {
		if !validRoles[*u.Role] {
			return nil, errors.New("invalid role, use: sales, stock, support, manager or admin")
		}
		updates["role"] = *u.Role
	}
	if u.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*u.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		updates["password"] = string(hashed)
	}
	if u.Active != nil {
		updates["active"] = *u.Active
	}
	return updates, nil
}

func (h *UserHandler) UpdateEmployee(c *gin.Context) {
	principal, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}
	if !auth.IsOwner(principal) {
		c.JSON(http.StatusForbidden, errorResponse("Only the owner can update employees"))
		return
	}

	var employee models.Employee
	if err := h.db.Where("id = ? AND user_id = ?", c.Param("id"), principal.TenantID()).
		First(&employee).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Employee not found"))
		return
	}

	var req EmployeeUpdate
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

	if err := h.db.Model(&employee).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update employee"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Employee updated", nil))
}
