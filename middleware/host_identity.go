package middleware

import (
	"strings"

	apperrors "github.com/NomadCrew/customer-feedback-portal/errors"
	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// HostClaims is the token the hosting page issues for the signed-in user.
type HostClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// HostIdentity reads an optional bearer token signed by the hosting page and
// stores its name claim under DisplayNameKey. Requests without a token pass
// through unchanged. A token that fails verification is rejected.
func HostIdentity(secret string) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if secret == "" || header == "" {
			c.Next()
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			_ = c.Error(apperrors.AuthenticationFailed("Malformed authorization header"))
			c.Abort()
			return
		}

		claims := &HostClaims{}
		_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			logger.GetLogger().Debugw("Host identity token rejected", "error", err)
			_ = c.Error(apperrors.AuthenticationFailed("Invalid identity token"))
			c.Abort()
			return
		}

		if name := strings.TrimSpace(claims.Name); name != "" {
			c.Set(string(DisplayNameKey), name)
		}
		c.Next()
	}
}

// DisplayName returns the host-asserted name, if any.
func DisplayName(c *gin.Context) string {
	return c.GetString(string(DisplayNameKey))
}
