package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes 注册路由所需的处理器和中间件
type Routes struct {
	Links        *ActionLinkHandler
	ShortLinks   *ShortLinkHandler
	Auth         *AuthHandler
	RequireAuth  gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
}

// Register 注册全部路由
func (r Routes) Register(router *gin.Engine) {
	router.GET("/health", r.ShortLinks.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/:code", r.ShortLinks.RedirectToOriginal)

	public := router.Group("/action-links")
	{
		public.GET("/:id/active", r.Links.AssertActive)
		public.POST("/:id/usage", r.OptionalAuth, r.Links.LogUsage)
	}

	api := router.Group("/api")
	api.Use(r.RequireAuth)
	{
		api.GET("/me", r.Auth.GetCurrentUser)
		api.POST("/action-links", r.Links.Create)
		api.GET("/action-links/:id", r.Links.Get)
		api.GET("/action-links/:id/usages", r.Links.Usages)
		api.GET("/short-links/stats", r.ShortLinks.GetStats)
	}
}
