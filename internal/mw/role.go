package mw

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"medflow-backend/internal/model"
)

// RoleSource reports the active role. *shell.Shell satisfies it.
type RoleSource interface {
	Role() model.Role
}

// FromForm reports whether the request came from an HTML form. Those
// clients are sent back to the page instead of receiving JSON.
func FromForm(c *gin.Context) bool {
	ct := c.ContentType()
	return ct == gin.MIMEPOSTForm || strings.HasPrefix(ct, gin.MIMEMultipartPOSTForm)
}

// RequireRole rejects requests unless one of roles is active. This gates
// which view's intents are exposed; it is not authentication.
func RequireRole(src RoleSource, roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		active := src.Role()
		for _, r := range roles {
			if r == active {
				c.Next()
				return
			}
		}
		msg := fmt.Sprintf("not available while the %s role is active", active)
		if FromForm(c) {
			c.Redirect(http.StatusSeeOther, "/?error="+url.QueryEscape(msg))
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msg})
	}
}
