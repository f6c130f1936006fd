package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperr "oceanai_dev_v1/pkg/errors"
)

// ==================== 响应辅助 ====================

// respondOK 成功响应
func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": message,
		"data":    data,
	})
}

// respondCreated 创建成功响应
func respondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": message,
		"data":    data,
	})
}

// respondError 统一错误响应，HTTP 状态码由错误码决定
func respondError(c *gin.Context, err error) {
	appErr := apperr.AsApp(err, apperr.CodeInternalError)
	c.JSON(appErr.HTTPStatus(), gin.H{
		"code":    string(appErr.Code),
		"message": appErr.Message,
	})
}

// respondBadRequest 参数绑定失败响应
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    string(apperr.CodeInvalidParam),
		"message": "参数错误: " + err.Error(),
	})
}
