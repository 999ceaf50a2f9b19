package handler

import (
	"net/http"

	"actionlink-platform/internal/identity"
	"actionlink-platform/internal/repository"

	"github.com/gin-gonic/gin"
)

// AuthHandler 当前调用者相关接口。登录和注册由外部身份服务负责。
type AuthHandler struct {
	users *repository.UserRepository
}

func NewAuthHandler(users *repository.UserRepository) *AuthHandler {
	return &AuthHandler{users: users}
}

// GetCurrentUser 获取当前已登录用户的信息
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	email, ok := identity.EmailFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未认证"})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询用户失败"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
		return
	}
	c.JSON(http.StatusOK, user)
}
