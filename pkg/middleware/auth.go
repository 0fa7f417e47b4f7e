package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys populated by Auth.
const (
	CtxUserID   = "user_id"
	CtxTenantID = "tenant_id"
	CtxRole     = "role"
)

// Claims carried by the session token. Issuance happens elsewhere; this
// service only verifies. Linked cashier accounts carry their admin's tenant
// id so tenant-scoped configuration resolves to the owning admin.
type Claims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Auth verifies the bearer token and stashes the principal into the request
// context. Every mutating route except the provider webhook sits behind it.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if claims.Role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing role"})
			return
		}

		tenant := claims.TenantID
		if tenant == "" {
			// Admin tokens are their own tenant.
			tenant = claims.Subject
		}

		c.Set(CtxUserID, claims.Subject)
		c.Set(CtxTenantID, tenant)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	// The admin UI keeps the token in a cookie.
	if tok, err := c.Cookie("session_token"); err == nil {
		return tok
	}
	return ""
}
