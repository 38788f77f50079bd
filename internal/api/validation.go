package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"jobverse/internal/account"
	"jobverse/internal/errcode"
)

var errInvalidPayload = errcode.BadRequest("Invalid request payload.")

// registerValidators 在 gin 的校验引擎上注册自定义 tag。
func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	return v.RegisterValidation("jobrole", func(fl validator.FieldLevel) bool {
		return account.ValidRole(strings.TrimSpace(fl.Field().String()))
	})
}

// bindError 把绑定失败转换为对外的业务错误。
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "jobrole" {
				return account.ErrInvalidRole
			}
		}
	}
	return errInvalidPayload.Wrap(err)
}

// bindPartial 用于局部更新：按 Content-Type 绑定 JSON 或表单，空请求体视为没有字段。
func bindPartial(c *gin.Context, obj any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBind(obj); err != nil {
		return bindError(err)
	}
	return nil
}
