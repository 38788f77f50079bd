package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，API 与 worker 共用。
const (
	TypeApplicationStatusChanged = "application:status_changed"
)

// ApplicationStatusChangedPayload 只携带申请 ID 与新状态，其余信息由 worker 回表读取。
type ApplicationStatusChangedPayload struct {
	ApplicationID uint   `json:"application_id"`
	Status        string `json:"status"`
	CorrelationID string `json:"correlation_id"`
}

// NewApplicationStatusChangedTask 构造申请状态变更通知任务。
func NewApplicationStatusChangedTask(applicationID uint, status, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ApplicationStatusChangedPayload{
		ApplicationID: applicationID,
		Status:        status,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeApplicationStatusChanged, payload, asynq.MaxRetry(5)), nil
}
