package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "setrag/internal/errors"
	"setrag/internal/logger"
	"setrag/internal/models"
)

const AnonymousPrincipal = "anonymous"

// JWTAuth accepts HS256 bearer tokens issued by the users service. The subject
// claim becomes the request principal; no other claim is interpreted.
// An empty secret disables verification and every caller is anonymous.
func JWTAuth(secret string) gin.HandlerFunc {
	if secret == "" {
		logger.Get().Warn("USERS_JWT_SECRET is empty, bearer tokens are not verified")
	}

	return func(c *gin.Context) {
		if secret == "" {
			setPrincipal(c, AnonymousPrincipal)
			c.Next()
			return
		}

		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			unauthorized(c, "missing bearer token")
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		claims := &jwt.RegisteredClaims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !tok.Valid {
			unauthorized(c, "invalid token")
			return
		}
		if claims.Subject == "" {
			unauthorized(c, "token has no subject")
			return
		}

		setPrincipal(c, claims.Subject)
		c.Next()
	}
}

// PrincipalFromContext returns the caller set by JWTAuth
func PrincipalFromContext(ctx context.Context) (string, bool) {
	p, ok := ctx.Value(logger.PrincipalKey).(string)
	return p, ok && p != ""
}

func setPrincipal(c *gin.Context, principal string) {
	c.Set("principal", principal)
	c.Request = c.Request.WithContext(logger.ContextWithPrincipal(c.Request.Context(), principal))
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error: msg,
		Code:  apperrors.CodeUnauthorized,
	})
}
