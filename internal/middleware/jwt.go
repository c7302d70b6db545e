package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pinboard/internal/pkg/errcode"
	"github.com/xxxsen/pinboard/internal/pkg/jwt"
	"github.com/xxxsen/pinboard/internal/pkg/response"
)

const ContextUserIDKey = "user_id"

// UserVerifier reports whether the subject of a valid token still exists.
type UserVerifier interface {
	VerifyUser(ctx context.Context, userID int64) error
}

// JWTAuth accepts "Bearer <jwt>" and "Token <jwt>" credentials. verifier may
// be nil.
func JWTAuth(secret []byte, verifier UserVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "missing authorization")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !isTokenScheme(parts[0]) {
			response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "invalid authorization")
			return
		}
		claims, err := jwt.ParseToken(strings.TrimSpace(parts[1]), secret)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "invalid token")
			return
		}
		if verifier != nil {
			if err := verifier.VerifyUser(c.Request.Context(), claims.UserID); err != nil {
				logutil.GetLogger(c.Request.Context()).Info("token subject rejected",
					zap.Int64("user_id", claims.UserID), zap.Error(err))
				response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "invalid token")
				return
			}
		}
		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

func isTokenScheme(scheme string) bool {
	return strings.EqualFold(scheme, "Bearer") || strings.EqualFold(scheme, "Token")
}
