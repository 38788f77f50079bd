package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StatusNotifyMessage 是推送给求职者的状态变更消息，字段名与前端解析保持一致。
type StatusNotifyMessage struct {
	Type          string `json:"type"`
	ApplicationID uint   `json:"application_id"`
	JobID         uint   `json:"job_id"`
	JobTitle      string `json:"job_title"`
	Company       string `json:"company"`
	Status        string `json:"status"`
	CorrelationID string `json:"correlation_id"`
	Code          int    `json:"code"`
}

const statusNotifyType = "application_status"

// NotifyChannel 返回用户的 Pub/Sub 频道名，WebSocket 端按同一规则订阅。
func NotifyChannel(userID uint) string {
	return fmt.Sprintf("user_notify:%d", userID)
}

// Publisher 把消息投递到指定频道。
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisPublisher 基于 Redis Pub/Sub 实现 Publisher。
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func encodeNotify(msg StatusNotifyMessage) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal notification payload: %w", err)
	}
	return data, nil
}
