// Operator authentication for the mutating endpoints.
// Checks for a valid bearer token in the Authorization header.
// If valid, sets the operator name in the context.
// If invalid, aborts with 401 Unauthorized.
package routes

import (
	"errors"
	"log/slog"
	"strings"

	"rfid-access-console/internal/jwt"

	"github.com/gin-gonic/gin"
)

const operatorKey = "operator"

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrOperatorNotFound = errors.New("operator not found in context")
)

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireOperator creates middleware that requires an operator token.
// With a nil signer every request passes as the anonymous operator.
func RequireOperator(signer *jwt.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if signer == nil {
			c.Set(operatorKey, "anonymous")
			c.Next()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			slog.Warn("RequireOperator: Missing bearer token", "path", c.FullPath())
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims, err := signer.Decode(token)
		if err != nil {
			// Could be a tampered or expired token
			slog.Warn("RequireOperator: Invalid operator token", "error", err, "ip", c.ClientIP())
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(operatorKey, claims.Operator)
		c.Next()
	}
}

// GetOperator returns the operator set by RequireOperator.
func GetOperator(c *gin.Context) (string, error) {
	value, exists := c.Get(operatorKey)
	if !exists {
		return "", ErrOperatorNotFound
	}
	operator, ok := value.(string)
	if !ok {
		slog.Warn("GetOperator: Operator in context is not a string")
		return "", ErrOperatorNotFound
	}
	return operator, nil
}

// operatorOf is GetOperator for logging, where a missing operator is not fatal.
func operatorOf(c *gin.Context) string {
	operator, err := GetOperator(c)
	if err != nil {
		return "unknown"
	}
	return operator
}
