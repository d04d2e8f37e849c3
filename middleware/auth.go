package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	userKey = "userID"
	roleKey = "userRole"
)

// Roles carried in the token's role claim.
const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
)

// AuthMiddleware resolves the caller's identity from a signed bearer
// token. Only a resolved id and role are needed downstream; full session
// mechanics live outside this service.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		sub, _ := claims["sub"].(string)
		if _, err := uuid.Parse(sub); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		role, _ := claims["role"].(string)

		c.Set(userKey, sub)
		c.Set(roleKey, role)
		c.Next()
	}
}

// GetUserID returns the resolved identity, or uuid.Nil when absent.
func GetUserID(c *gin.Context) uuid.UUID {
	if val, exists := c.Get(userKey); exists {
		if id, err := uuid.Parse(val.(string)); err == nil {
			return id
		}
	}
	return uuid.Nil
}

// GetUserRole returns the resolved role (RoleCustomer or RoleVendor).
func GetUserRole(c *gin.Context) string {
	if val, exists := c.Get(roleKey); exists {
		return val.(string)
	}
	return ""
}
