package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"jobverse/internal/api/middleware"
	"jobverse/internal/auth"
	"jobverse/internal/worker"
)

const (
	wsAuthTimeout  = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 5 * time.Second
)

var errWsAuthRequired = errors.New("auth message required")

// WsHandler 把 worker 发布到 user_notify:<id> 的消息转发给浏览器。
type WsHandler struct {
	redisClient *redis.Client
	authService *auth.AuthService
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

// NewWsHandler 构造 WebSocket 处理器，来源校验与 CORS 使用同一个 OriginPolicy。
func NewWsHandler(redisClient *redis.Client, authService *auth.AuthService, logger *slog.Logger, origins *OriginPolicy) *WsHandler {
	return &WsHandler{
		redisClient: redisClient,
		authService: authService,
		logger:      logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins.Allowed(origin)
			},
		},
	}
}

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HandleConnection 升级连接并完成认证，之后只负责转发该用户频道上的消息。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	log := h.logger.With(slog.String("client_ip", c.ClientIP()))

	userID, err := h.authenticate(c, conn)
	if err != nil {
		log.Warn("websocket authentication failed", slog.Any("error", err))
		writeClose(conn, websocket.ClosePolicyViolation, "unauthorized")
		return
	}
	log = log.With(slog.Uint64("user_id", uint64(userID)))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// 客户端不再发送业务消息，读循环只用来感知断开。
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.forward(ctx, conn, userID, log); err != nil {
		log.Info("websocket connection closed", slog.Any("error", err))
		return
	}
	log.Info("websocket connection closed")
}

// authenticate 优先使用握手时的会话 Cookie，否则等待第一条 auth 消息。
func (h *WsHandler) authenticate(c *gin.Context, conn *websocket.Conn) (uint, error) {
	if token := middleware.TokenFromRequest(c); token != "" {
		if claims, err := h.authService.ValidateToken(token); err == nil {
			return claims.UserID, nil
		}
	}

	if err := conn.SetReadDeadline(time.Now().Add(wsAuthTimeout)); err != nil {
		return 0, fmt.Errorf("set auth deadline: %w", err)
	}
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return 0, fmt.Errorf("read auth message: %w", err)
	}
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return 0, fmt.Errorf("clear auth deadline: %w", err)
	}

	var msg wsAuthMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return 0, fmt.Errorf("decode auth message: %w", err)
	}
	if msg.Type != "auth" || msg.Token == "" {
		return 0, errWsAuthRequired
	}
	claims, err := h.authService.ValidateToken(msg.Token)
	if err != nil {
		return 0, fmt.Errorf("validate token: %w", err)
	}
	return claims.UserID, nil
}

func (h *WsHandler) forward(ctx context.Context, conn *websocket.Conn, userID uint, log *slog.Logger) error {
	channel := worker.NotifyChannel(userID)
	pubsub := h.redisClient.Subscribe(ctx, channel)
	defer pubsub.Close()
	log.Debug("subscribed to notifications", slog.String("channel", channel))

	messages := pubsub.Channel()
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errors.New("notification channel closed")
			}
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
				return fmt.Errorf("set write deadline: %w", err)
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return fmt.Errorf("write notification: %w", err)
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(wsWriteTimeout))
}
