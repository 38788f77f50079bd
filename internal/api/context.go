package api

import (
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"jobverse/internal/api/middleware"
	"jobverse/internal/errcode"
)

var errNotAuthenticated = errcode.Unauthorized("User not authenticated")

func sessionFromContext(c *gin.Context) (middleware.Session, error) {
	session, ok := middleware.SessionFromContext(c.Request.Context())
	if !ok || session.UserID == 0 {
		return middleware.Session{}, errNotAuthenticated
	}
	return session, nil
}

// pathID 解析路径中的数字 id，非法 id 按资源不存在处理。
func pathID(c *gin.Context, notFound error) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		return 0, notFound
	}
	return uint(id), nil
}

// formFile 读取可选的上传文件，缺失或非 multipart 请求时返回 nil。
func formFile(c *gin.Context, field string) *multipart.FileHeader {
	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		return nil
	}
	file, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return file
}

