package handler

import (
	"errors"
	"net/http"

	"actionlink-platform/internal/actionlink"
	"actionlink-platform/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ActionLinkHandler 行动链接接口
type ActionLinkHandler struct {
	svc    *actionlink.Service
	logger *zap.SugaredLogger
}

// NewActionLinkHandler 创建处理器实例
func NewActionLinkHandler(svc *actionlink.Service, logger *zap.SugaredLogger) *ActionLinkHandler {
	return &ActionLinkHandler{svc: svc, logger: logger.Named("action_link_handler")}
}

// ActionLinkResponse 在链接字段之外附带状态名称
type ActionLinkResponse struct {
	*model.ActionLink
	StatusName string `json:"status"`
}

func newActionLinkResponse(link *model.ActionLink) ActionLinkResponse {
	return ActionLinkResponse{ActionLink: link, StatusName: link.Status.String()}
}

// Create 创建行动链接，分享链接重复创建时返回已有链接
func (h *ActionLinkHandler) Create(c *gin.Context) {
	var req actionlink.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}

	link, err := h.svc.Create(c.Request.Context(), req, true)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newActionLinkResponse(link))
}

// Get 查询单个链接
func (h *ActionLinkHandler) Get(c *gin.Context) {
	link, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newActionLinkResponse(link))
}

// Usages 列出链接的使用记录
func (h *ActionLinkHandler) Usages(c *gin.Context) {
	rows, err := h.svc.Usages(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rows, "total": len(rows)})
}

// LogUsage 记录一次使用，匿名调用只做可用性校验
func (h *ActionLinkHandler) LogUsage(c *gin.Context) {
	link, err := h.svc.LogUsage(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newActionLinkResponse(link))
}

// AssertActive 链接可用时返回 200，否则返回具体原因
func (h *ActionLinkHandler) AssertActive(c *gin.Context) {
	if err := h.svc.AssertActive(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": true})
}

func (h *ActionLinkHandler) writeError(c *gin.Context, err error) {
	var bizErr *actionlink.Error
	if !errors.As(err, &bizErr) {
		h.logger.Errorf("%s %s 处理失败: %v", c.Request.Method, c.FullPath(), err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}
	c.JSON(statusForKind(bizErr.Kind), gin.H{"error": bizErr.Message, "code": bizErr.Code})
}

func statusForKind(kind actionlink.Kind) int {
	switch kind {
	case actionlink.KindValidation, actionlink.KindInvalidOperation:
		return http.StatusBadRequest
	case actionlink.KindNotFound:
		return http.StatusNotFound
	case actionlink.KindDataInconsistency:
		return http.StatusConflict
	case actionlink.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
