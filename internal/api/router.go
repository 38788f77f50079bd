package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"jobverse/internal/api/middleware"
	"jobverse/internal/auth"
	"jobverse/internal/config"
	"jobverse/internal/metrics"
	"jobverse/internal/storage"
)

// Dependencies 汇总构建路由所需的配置、服务与外部客户端。
// Redis 为 nil 时不启用登录限流和 /ws；Signer、Objects、Enqueuer 均可为 nil。
type Dependencies struct {
	Config      *config.Config
	DB          *gorm.DB
	Logger      *slog.Logger
	AuthService *auth.AuthService
	Redis       *redis.Client
	Uploader    *storage.Uploader
	Signer      URLSigner
	Objects     PrefixRemover
	Enqueuer    TaskEnqueuer
	Origins     *OriginPolicy
}

// NewRouter 构建 Gin 引擎：公共中间件、/metrics 以及 /api 下的业务路由。
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}
	if deps.Origins == nil {
		deps.Origins = NewOriginPolicy(deps.Config.API.AllowedOrigins, deps.Config.API.IsProduction())
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(deps.Logger),
		metrics.GinMiddleware(),
	)
	if deps.Config.API.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = deps.Config.API.MaxUploadBytes
	}

	router.GET("/metrics", middleware.InternalSecretMiddleware(deps.Config.API.MetricsSecret), gin.WrapH(promhttp.Handler()))
	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "Route not found.")
	})

	RegisterRoutes(router.Group("/api"), deps)
	return router, nil
}
