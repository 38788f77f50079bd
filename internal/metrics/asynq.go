package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 任务处理结果标签。
const (
	TaskSucceeded = "success"
	TaskRetried   = "retry"
	TaskDropped   = "dropped"
)

var (
	tasksHandledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "tasks_handled_total",
			Help:      "按任务类型与结果统计的后台任务数量。",
		},
		[]string{"task_type", "outcome"},
	)

	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "task_duration_seconds",
			Help:      "后台任务处理耗时（秒）。",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"task_type"},
	)

	tasksInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "tasks_in_flight",
			Help:      "当前正在处理的任务数量。",
		},
		[]string{"task_type"},
	)
)

// TaskOutcome 把处理结果归类：SkipRetry 视为丢弃，其余错误会被 asynq 重试。
func TaskOutcome(err error) string {
	switch {
	case err == nil:
		return TaskSucceeded
	case errors.Is(err, asynq.SkipRetry):
		return TaskDropped
	default:
		return TaskRetried
	}
}

// AsynqMetricsMiddleware 按任务类型记录处理结果、耗时与并发数。
func AsynqMetricsMiddleware() asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			taskType := task.Type()
			inFlight := tasksInFlight.WithLabelValues(taskType)
			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			err := next.ProcessTask(ctx, task)
			taskDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
			tasksHandledTotal.WithLabelValues(taskType, TaskOutcome(err)).Inc()
			return err
		})
	}
}
