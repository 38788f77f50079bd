package api

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS 包装整个引擎，放行规则与 WebSocket 握手一致；允许携带会话 Cookie。
func CORS(origins *OriginPolicy) *cors.Cors {
	return cors.New(cors.Options{
		AllowOriginFunc: origins.Allowed,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Correlation-ID"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           600,
	})
}
