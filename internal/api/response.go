package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobverse/internal/api/middleware"
	"jobverse/internal/errcode"
)

const internalErrorMessage = "Internal server error."

// Error 输出统一的失败信封 {success:false, message}。
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "message": msg})
}

// Success 输出成功信封，data 中的键与 success/message 平级。
func Success(c *gin.Context, status int, msg string, data gin.H) {
	body := gin.H{"success": true}
	if msg != "" {
		body["message"] = msg
	}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(status, body)
}

func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func Internal(c *gin.Context)               { Error(c, http.StatusInternalServerError, internalErrorMessage) }

// RespondError 按 errcode.Kind 映射状态码；非预期错误只记录日志，不向客户端透出细节。
func RespondError(c *gin.Context, err error) {
	var coded *errcode.Error
	if !errors.As(err, &coded) || coded.Kind == errcode.KindInternal {
		middleware.LoggerFromContext(c).Error("request failed", slog.Any("error", err))
		Internal(c)
		return
	}
	Error(c, errcode.HTTPStatus(err), errcode.Message(err))
}
