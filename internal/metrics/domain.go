package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "jobverse"

var (
	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "登录尝试次数，按结果区分。",
		},
		[]string{"result"},
	)

	applicationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "created_total",
			Help:      "成功提交的求职申请数量。",
		},
	)

	applicationStatusChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "status_changes_total",
			Help:      "申请状态变更次数，按目标状态区分。",
		},
		[]string{"status"},
	)
)

// 登录结果标签。
const (
	LoginSucceeded = "success"
	LoginFailed    = "failure"
	LoginThrottled = "throttled"
)

func ObserveLogin(result string) {
	loginsTotal.WithLabelValues(result).Inc()
}

func ObserveApplicationCreated() {
	applicationsCreatedTotal.Inc()
}

func ObserveStatusChange(status string) {
	applicationStatusChangesTotal.WithLabelValues(status).Inc()
}
