package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vendora-system/internal/auth"
	"vendora-system/internal/database/models"
)

// ActiveAccount blocks write routes while the tenant's account is not in
// good standing. Expired trials are flipped to past_due on first hit.
func ActiveAccount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.FromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Not authenticated",
			})
			return
		}

		var user models.User
		if err := db.Select("id", "payment_status", "trial_ends_at").
			First(&user, principal.TenantID()).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Account not found",
			})
			return
		}

		if user.PaymentStatus == models.AccountStatusTrial {
			if user.TrialEndsAt != nil && time.Now().After(*user.TrialEndsAt) {
				db.Model(&models.User{}).Where("id = ?", user.ID).
					Update("payment_status", models.AccountStatusPastDue)
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"success":       false,
					"message":       "Trial period has expired",
					"trial_expired": true,
				})
				return
			}
		}

		if user.PaymentStatus == models.AccountStatusPastDue || user.PaymentStatus == models.AccountStatusCanceled {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Account is blocked, contact support to reactivate",
				"status":  user.PaymentStatus,
			})
			return
		}

		c.Next()
	}
}

// OwnerOnly rejects employee tokens; the route belongs to the account owner.
func OwnerOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.FromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Not authenticated",
			})
			return
		}

		if !auth.IsOwner(principal) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Owner access required",
			})
			return
		}

		c.Next()
	}
}

// AdminOnly restricts a route to the configured platform admin account.
func AdminOnly(adminEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.FromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Not authenticated",
			})
			return
		}

		owner, isOwner := principal.(auth.Owner)
		if !isOwner || adminEmail == "" || owner.Email != adminEmail {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Admin access required",
			})
			return
		}

		c.Next()
	}
}
