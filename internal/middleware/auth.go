package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vendora-system/internal/auth"
	"vendora-system/internal/utils"
)

// JWTAuth resolves the bearer token into a principal and stores it in the
// request context. Employee tokens must name their employing owner; that
// owner id becomes the tenant id for every query downstream.
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Token not provided",
			})
			return
		}

		claims, err := utils.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Invalid or expired token",
			})
			return
		}

		var principal auth.Principal
		if claims.IsEmployee {
			if claims.OwnerID == 0 {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"success": false,
					"message": "Invalid employee token",
				})
				return
			}
			principal = auth.Employee{
				ID:      claims.UserID,
				OwnerID: claims.OwnerID,
				Email:   claims.Email,
				Name:    claims.Name,
				Role:    claims.Role,
			}
		} else {
			principal = auth.Owner{
				ID:    claims.UserID,
				Email: claims.Email,
				Name:  claims.Name,
			}
		}

		c.Set(auth.ContextKey, principal)
		c.Next()
	}
}
