package errcode

import (
	"errors"
	"net/http"
)

// 通知消息中的数值码约定：
// - 0：无错误
// - 4xxx：业务可恢复/告警类错误（例如资源缺失但流程可继续）
// - 5xxx：系统错误（需要中断流程）
const (
	OK              = 0
	ResourceMissing = 4004
	SystemError     = 5000
)

// Kind 对应一类可预期的业务失败，API 层据此决定 HTTP 状态码。
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
)

// Error 是领域服务返回的可预期错误。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is 让 errors.Is 按 Kind+Message 匹配具名哨兵错误。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Wrap 返回携带底层原因的副本，保持与哨兵错误的 errors.Is 匹配。
func (e *Error) Wrap(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: err}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func BadRequest(message string) *Error      { return New(KindBadRequest, message) }
func Unauthorized(message string) *Error    { return New(KindUnauthorized, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }
func TooManyRequests(message string) *Error { return New(KindTooManyRequests, message) }

var (
	ErrDuplicateEmail     = Conflict("User already exists with this email.")
	ErrInvalidCredentials = Unauthorized("Incorrect email or password.")
	ErrRoleMismatch       = BadRequest("Account does not exist with the selected role.")
	ErrDuplicateCompany   = Conflict("Company already exists.")
	ErrInvalidSalary      = BadRequest("Salary must be a valid number.")
	ErrAlreadyApplied     = Conflict("You have already applied for this job.")
	ErrInvalidStatus      = BadRequest("Invalid or missing status. Must be one of: pending, accepted, rejected.")
)

// HTTPStatus 将错误映射为 HTTP 状态码，非 *Error 一律视为 500。
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Message 返回可以直接展示给客户端的文案；内部错误返回空串。
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return ""
	}
	return e.Message
}
