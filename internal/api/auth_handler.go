package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobverse/internal/account"
	"jobverse/internal/api/middleware"
	"jobverse/internal/auth"
	"jobverse/internal/errcode"
	"jobverse/internal/metrics"
	"jobverse/internal/storage"
)

// AuthHandler 处理注册、登录、退出与资料更新。
type AuthHandler struct {
	accounts    *account.Service
	authService *auth.AuthService
	limiter     *loginLimiter
	uploader    *storage.Uploader
	present     presenter
}

// NewAuthHandler 构造认证处理器，limiter 为 nil 时不做登录限流。
func NewAuthHandler(accounts *account.Service, authService *auth.AuthService, limiter *loginLimiter, uploader *storage.Uploader, present presenter) *AuthHandler {
	return &AuthHandler{
		accounts:    accounts,
		authService: authService,
		limiter:     limiter,
		uploader:    uploader,
		present:     present,
	}
}

type registerRequest struct {
	FullName    string `form:"fullname" json:"fullname"`
	Email       string `form:"email" json:"email"`
	PhoneNumber string `form:"phoneNumber" json:"phoneNumber"`
	Password    string `form:"password" json:"password"`
	Role        string `form:"role" json:"role" binding:"omitempty,jobrole"`
}

// Register 创建账号，可附带头像文件（字段 file）。
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	var avatarKey string
	if file := formFile(c, "file"); file != nil {
		key, err := h.uploader.Put(ctx, "avatars", file)
		if err != nil {
			RespondError(c, err)
			return
		}
		avatarKey = key
	}

	_, err := h.accounts.Register(ctx, account.RegisterInput{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		Role:        req.Role,
		AvatarKey:   avatarKey,
	})
	if err != nil {
		removeObjects(c, h.uploader, avatarKey)
		RespondError(c, err)
		return
	}

	Success(c, http.StatusCreated, "Account created successfully.", nil)
}

type loginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Role     string `form:"role" json:"role" binding:"omitempty,jobrole"`
}

// Login 校验邮箱、密码与角色，成功后写入会话 Cookie。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	if err := h.limiter.Allow(ctx, c.ClientIP(), req.Email); err != nil {
		metrics.ObserveLogin(metrics.LoginThrottled)
		logger.Info("login throttled", slog.String("email", account.NormalizeEmail(req.Email)))
		RespondError(c, err)
		return
	}

	user, err := h.accounts.Authenticate(ctx, req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, errcode.ErrInvalidCredentials) {
			h.limiter.RecordFailure(ctx, req.Email)
		}
		if errcode.HTTPStatus(err) != http.StatusInternalServerError {
			metrics.ObserveLogin(metrics.LoginFailed)
		}
		RespondError(c, err)
		return
	}
	h.limiter.Reset(ctx, req.Email)

	token, err := h.authService.IssueToken(user.ID, user.Role)
	if err != nil {
		RespondError(c, fmt.Errorf("issue token: %w", err))
		return
	}

	metrics.ObserveLogin(metrics.LoginSucceeded)
	logger.Info("user logged in", slog.Uint64("user_id", uint64(user.ID)))

	setSessionCookie(c, token, int(h.authService.TokenTTL().Seconds()))
	Success(c, http.StatusOK, "Welcome back "+user.FullName, gin.H{
		"user": h.present.user(ctx, user),
	})
}

// Logout 清除会话 Cookie，不要求登录，可重复调用。
func (h *AuthHandler) Logout(c *gin.Context) {
	setSessionCookie(c, "", -1)
	Success(c, http.StatusOK, "Logged out successfully.", nil)
}

// updateProfileRequest 中缺省的字段为 nil，保持原值。
type updateProfileRequest struct {
	FullName    *string `form:"fullname" json:"fullname"`
	Email       *string `form:"email" json:"email"`
	PhoneNumber *string `form:"phoneNumber" json:"phoneNumber"`
	Bio         *string `form:"bio" json:"bio"`
	Skills      *string `form:"skills" json:"skills"`
}

// UpdateProfile 局部更新资料，接受 JSON 或 multipart；file 为简历，profilePhoto 为头像。
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		RespondError(c, err)
		return
	}

	var req updateProfileRequest
	if err := bindPartial(c, &req); err != nil {
		RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	upd := account.ProfileUpdate{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Bio:         req.Bio,
		Skills:      req.Skills,
	}

	var uploaded []string
	if file := formFile(c, "file"); file != nil {
		key, err := h.uploader.Put(ctx, fmt.Sprintf("resumes/%d", session.UserID), file)
		if err != nil {
			RespondError(c, err)
			return
		}
		uploaded = append(uploaded, key)
		originalName := file.Filename
		upd.ResumeKey = &key
		upd.ResumeOriginalName = &originalName
	}
	if file := formFile(c, "profilePhoto"); file != nil {
		key, err := h.uploader.Put(ctx, fmt.Sprintf("avatars/%d", session.UserID), file)
		if err != nil {
			removeObjects(c, h.uploader, uploaded...)
			RespondError(c, err)
			return
		}
		uploaded = append(uploaded, key)
		upd.AvatarKey = &key
	}

	user, replaced, err := h.accounts.UpdateProfile(ctx, session.UserID, upd)
	if err != nil {
		removeObjects(c, h.uploader, uploaded...)
		RespondError(c, err)
		return
	}
	removeObjects(c, h.uploader, replaced...)

	Success(c, http.StatusOK, "Profile updated successfully.", gin.H{
		"user": h.present.user(ctx, user),
	})
}

func setSessionCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// removeObjects 尽力删除对象，失败只记录日志。
func removeObjects(c *gin.Context, uploader *storage.Uploader, keys ...string) {
	for _, key := range keys {
		if err := uploader.Remove(c.Request.Context(), key); err != nil {
			middleware.LoggerFromContext(c).Warn("remove object failed",
				slog.String("object_key", key),
				slog.Any("error", err),
			)
		}
	}
}
