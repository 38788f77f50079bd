package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobverse/internal/account"
	"jobverse/internal/api/middleware"
	"jobverse/internal/application"
	"jobverse/internal/company"
	"jobverse/internal/database"
	"jobverse/internal/job"
)

// RegisterRoutes 注册 /v1 下的业务路由，不包含 /api 前缀。
func RegisterRoutes(router *gin.RouterGroup, deps Dependencies) {
	cfg := deps.Config
	present := presenter{signer: deps.Signer, logger: deps.Logger}

	var limiter *loginLimiter
	if deps.Redis != nil {
		limiter = newLoginLimiter(deps.Redis, cfg.Auth.LoginRateLimitPerHour, cfg.Auth.LoginLockThreshold, cfg.Auth.LoginLockTTL, deps.Logger)
	}

	authHandler := NewAuthHandler(account.NewService(deps.DB, deps.Logger), deps.AuthService, limiter, deps.Uploader, present)
	companyHandler := NewCompanyHandler(company.NewService(deps.DB, deps.Logger), deps.Uploader, deps.Objects, present)
	jobHandler := NewJobHandler(job.NewService(deps.DB, deps.Logger), present)
	applicationHandler := NewApplicationHandler(application.NewService(deps.DB, deps.Logger), deps.Enqueuer, present)

	session := middleware.SessionMiddleware(deps.AuthService)
	recruiter := middleware.RequireRole(database.RoleRecruiter)
	candidate := middleware.RequireRole(database.RoleCandidate)

	v1 := router.Group("/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
		})

		if deps.Redis != nil {
			wsHandler := NewWsHandler(deps.Redis, deps.AuthService, deps.Logger, deps.Origins)
			v1.GET("/ws", wsHandler.HandleConnection)
		}

		userGroup := v1.Group("/user")
		{
			userGroup.POST("/register", authHandler.Register)
			userGroup.POST("/login", authHandler.Login)
			userGroup.GET("/logout", authHandler.Logout)
			userGroup.POST("/profile/update", session, authHandler.UpdateProfile)
		}

		companyGroup := v1.Group("/company")
		companyGroup.Use(session, recruiter)
		{
			companyGroup.POST("/register", companyHandler.Register)
			companyGroup.GET("/get", companyHandler.List)
			companyGroup.GET("/get/:id", companyHandler.Get)
			companyGroup.PUT("/update/:id", companyHandler.Update)
			companyGroup.DELETE("/delete/:id", companyHandler.Delete)
		}

		jobGroup := v1.Group("/job")
		{
			jobGroup.GET("/all-jobs", jobHandler.List)
			jobGroup.GET("/get/:id", jobHandler.Get)
			jobGroup.POST("/post", session, recruiter, jobHandler.Post)
			jobGroup.GET("/getadminjobs", session, recruiter, jobHandler.ListMine)
			jobGroup.PUT("/update/:id", session, recruiter, jobHandler.Update)
			jobGroup.DELETE("/delete/:id", session, recruiter, jobHandler.Delete)
		}

		applicationGroup := v1.Group("/application")
		applicationGroup.Use(session)
		{
			applicationGroup.POST("/apply/:id", candidate, applicationHandler.Apply)
			applicationGroup.GET("/get", candidate, applicationHandler.ListMine)
			applicationGroup.GET("/:id/applicants", recruiter, applicationHandler.Applicants)
			applicationGroup.POST("/status/:id/update", recruiter, applicationHandler.UpdateStatus)
		}
	}
}
