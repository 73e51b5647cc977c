package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tenco_back_end/internal/authz"
)

// RequireAdmin vérifie que l'utilisateur a le rôle "admin"
func RequireAdmin(c *gin.Context) {
	role, exists := c.Get("role")
	roleStr, _ := role.(string)
	if !exists || !authz.IsAdmin(roleStr) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé aux administrateurs"})
		c.Abort()
		return
	}
	c.Next()
}
