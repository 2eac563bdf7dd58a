package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/models"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/utils"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	KeyUserID = "userID"
	KeyRole   = "userRole"
	KeyClaims = "claims"
)

const unauthorizedRoute = "/unauthorized"

// Error codes sent with 401 and 403 responses.
const (
	CodeMissingToken     = "auth/missing-token"
	CodeInvalidToken     = "auth/invalid-token"
	CodeTokenExpired     = "auth/token-expired"
	CodePermissionDenied = "permission-denied"
)

// TokenValidator is satisfied by *utils.TokenManager.
type TokenValidator interface {
	ValidateJWT(token string) (*utils.Claims, error)
}

// RevocationChecker reports logged-out token IDs.
type RevocationChecker interface {
	IsRevoked(tokenID string) bool
}

func AuthMiddleware(tokens TokenValidator, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required", "code": CodeMissingToken})
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format", "code": CodeInvalidToken})
			return
		}

		claims, err := tokens.ValidateJWT(tokenString)
		if errors.Is(err, utils.ErrTokenExpired) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired", "code": CodeTokenExpired})
			return
		}
		if err != nil || revoked.IsRevoked(claims.ID) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "code": CodeInvalidToken})
			return
		}

		// Set user info in the context for handlers to use
		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyRole, claims.Role)
		c.Set(KeyClaims, claims)

		c.Next()
	}
}

// RequireRole lets only the given role through; everyone else is pointed
// at the unauthorized page.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if Role(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "Permission denied.",
				"code":     CodePermissionDenied,
				"redirect": unauthorizedRoute,
			})
			return
		}
		c.Next()
	}
}

// Role returns the authenticated role, or "" outside AuthMiddleware.
func Role(c *gin.Context) models.Role {
	v, _ := c.Get(KeyRole)
	role, _ := v.(models.Role)
	return role
}

// Claims returns the validated token claims, or nil outside AuthMiddleware.
func Claims(c *gin.Context) *utils.Claims {
	v, _ := c.Get(KeyClaims)
	claims, _ := v.(*utils.Claims)
	return claims
}
