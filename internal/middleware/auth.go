package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rockflint-backend/internal/models"
	"rockflint-backend/internal/services"
)

// AuthMiddleware validates JWT tokens and resolves the caller's identity
type AuthMiddleware struct {
	authService *services.AuthService
	userService *services.UserService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authService *services.AuthService, userService *services.UserService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userService: userService,
	}
}

// AuthRequired is a middleware that checks for a valid JWT token
func (m *AuthMiddleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Authorization header required",
			})
			c.Abort()
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid token",
			})
			c.Abort()
			return
		}

		// Staff flag and vendor association are read fresh so a revoked
		// vendor account loses access without waiting for token expiry.
		identity, err := m.userService.Identity(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Account no longer exists",
			})
			c.Abort()
			return
		}

		c.Set("userID", identity.UserID)
		c.Set("identity", identity)

		c.Next()
	}
}

// OptionalAuth resolves the identity when a valid token is present and
// continues anonymously otherwise
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			c.Next()
			return
		}

		identity, err := m.userService.Identity(claims.UserID)
		if err != nil {
			c.Next()
			return
		}

		c.Set("userID", identity.UserID)
		c.Set("identity", identity)

		c.Next()
	}
}

// StaffRequired rejects callers whose account does not carry the staff flag.
// It must run after AuthRequired.
func (m *AuthMiddleware) StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := IdentityFromContext(c)
		if identity == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "User not authenticated",
			})
			c.Abort()
			return
		}

		if !identity.IsStaff {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Staff access required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// VendorRequired rejects callers without a vendor account. It must run after
// AuthRequired.
func (m *AuthMiddleware) VendorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := IdentityFromContext(c)
		if identity == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "User not authenticated",
			})
			c.Abort()
			return
		}

		if !identity.HasVendor() {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Vendor account required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// IdentityFromContext returns the resolved identity, or nil for anonymous
// requests
func IdentityFromContext(c *gin.Context) *models.Identity {
	value, exists := c.Get("identity")
	if !exists {
		return nil
	}
	identity, ok := value.(*models.Identity)
	if !ok {
		return nil
	}
	return identity
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", false
	}
	return token, true
}
