package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/newzify/newzify/internal/auth"
)

// Authenticate validates a bearer session token and stashes the identity on the
// context. No current route mounts it; the SPA keeps the token client-side and
// nothing in the API requires one yet. It exists so a protected route can be
// added without touching the token code.
func Authenticate(jwtManager *auth.Manager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")

		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"code":    "unauthorized",
				"message": "Missing or malformed Authorization header",
			})
			return
		}

		raw := strings.TrimPrefix(header, "Bearer ")

		claims, err := jwtManager.Verify(raw)

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"code":    "unauthorized",
				"message": "Invalid or expired token",
			})
			return
		}

		ctx.Set(CtxUserID, claims.UserID)
		ctx.Set(CtxEmail, claims.Email)

		ctx.Next()
	}
}

func UserIDFromContext(ctx *gin.Context) (string, bool) {
	v, ok := ctx.Get(CtxUserID)

	if !ok {
		return "", false
	}

	s, ok := v.(string)

	return s, ok
}
