package middleware

import (
	"net/http"
	"strings"

	"quizadmin/models"
	"quizadmin/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const claimsContextKey = "identity_claims"

// identityTokenClaims is the session token the identity provider signs.
// Subject carries the provider's user id; the rest are profile fields.
type identityTokenClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// ParseIdentityToken verifies a session token and extracts the identity claim.
func ParseIdentityToken(tokenString, jwtSecret string) (*services.IdentityClaims, error) {
	var claims identityTokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	return &services.IdentityClaims{
		Subject:  claims.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		ImageURL: claims.Picture,
	}, nil
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// verified identity claims in the request context.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			return
		}

		claims, err := ParseIdentityToken(tokenString, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// GetClaims returns the identity claims stored by AuthMiddleware, or nil when
// the request was not authenticated.
func GetClaims(c *gin.Context) *services.IdentityClaims {
	value, exists := c.Get(claimsContextKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*services.IdentityClaims)
	if !ok {
		return nil
	}
	return claims
}

// RequireAdmin gates a route group to admin users. Must run after
// AuthMiddleware.
func RequireAdmin(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		user, err := users.GetByClerkID(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if user == nil || user.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
