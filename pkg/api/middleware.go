package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TenantHeader is the multi-tenant isolation header.
const TenantHeader = "X-Team-Id"

const tenantKey = "tenant_id"

// requireTenant rejects any request without the tenant header and stores
// the tenant id in the request context.
func requireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := c.GetHeader(TenantHeader)
		if tenant == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": TenantHeader + " header is required",
			})
			return
		}
		c.Set(tenantKey, tenant)
		c.Next()
	}
}

// tenantID returns the tenant bound to this request.
func tenantID(c *gin.Context) string {
	return c.GetString(tenantKey)
}

// securityHeaders sets standard security response headers.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
