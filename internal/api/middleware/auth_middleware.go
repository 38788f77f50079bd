package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobverse/internal/auth"
)

const (
	// SessionCookieName 是保存会话令牌的 Cookie 名。
	SessionCookieName = "token"

	userIDKey = "userID"
	roleKey   = "role"
)

// Session 是通过校验的会话身份。
type Session struct {
	UserID uint
	Role   string
}

type sessionContextKey struct{}

func abortWithMessage(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

// SessionMiddleware 从 Cookie（或 Bearer 头）读取令牌并校验，不访问数据库。
// 校验通过后 userID 与 role 写入 gin 上下文与请求 context。
func SessionMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken := TokenFromRequest(c)
		if rawToken == "" {
			abortWithMessage(c, http.StatusUnauthorized, "User not authenticated")
			return
		}

		claims, err := authService.ValidateToken(rawToken)
		if err != nil {
			LoggerFromContext(c).Info("session rejected", "error", err)
			abortWithMessage(c, http.StatusUnauthorized, "Invalid or expired session")
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(roleKey, claims.Role)
		session := Session{UserID: claims.UserID, Role: claims.Role}
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), sessionContextKey{}, session))
		c.Next()
	}
}

// RequireRole 必须挂在 SessionMiddleware 之后。
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(roleKey)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		abortWithMessage(c, http.StatusForbidden, "You are not allowed to access this resource.")
	}
}

// TokenFromRequest 优先读取 Cookie，其次是 Authorization: Bearer。
func TokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookieName); err == nil && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token)
	}

	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// SessionFromContext 读取 SessionMiddleware 写入请求 context 的身份。
func SessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(Session)
	return session, ok
}
