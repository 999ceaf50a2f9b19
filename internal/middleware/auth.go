package middleware

import (
	"net/http"
	"strings"

	"actionlink-platform/internal/identity"
	auth "actionlink-platform/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// RequireAuth JWT认证中间件，缺少或无效令牌时返回 401
func RequireAuth(jwtManager *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "缺少认证令牌"})
			return
		}

		claims, ok := parseBearer(jwtManager, authHeader)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效的认证令牌"})
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth 有令牌时解析调用者身份，没有时按匿名处理。
// 令牌存在但无效时仍返回 401。
func OptionalAuth(jwtManager *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		claims, ok := parseBearer(jwtManager, authHeader)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效的认证令牌"})
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

func parseBearer(jwtManager *auth.TokenManager, header string) (*auth.Claims, bool) {
	// 提取Bearer token
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}
	claims, err := jwtManager.ValidateToken(parts[1])
	if err != nil || claims.Email == "" {
		return nil, false
	}
	return claims, true
}

// 将用户信息存入 gin 上下文和请求 context
func setIdentity(c *gin.Context, claims *auth.Claims) {
	c.Set("user_id", claims.UserID)
	c.Set("username", claims.Username)
	c.Set("email", claims.Email)
	c.Set("role", claims.Role)
	c.Request = c.Request.WithContext(identity.WithEmail(c.Request.Context(), claims.Email))
}
