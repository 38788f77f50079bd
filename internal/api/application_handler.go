package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"jobverse/internal/api/middleware"
	"jobverse/internal/application"
	"jobverse/internal/metrics"
	"jobverse/internal/tasks"
)

// TaskEnqueuer 是 *asynq.Client 的子集。
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ApplicationHandler 处理投递、投递查询与状态变更。
type ApplicationHandler struct {
	applications *application.Service
	enqueuer     TaskEnqueuer
	present      presenter
}

// NewApplicationHandler enqueuer 为 nil 时状态变更不发送通知。
func NewApplicationHandler(applications *application.Service, enqueuer TaskEnqueuer, present presenter) *ApplicationHandler {
	return &ApplicationHandler{
		applications: applications,
		enqueuer:     enqueuer,
		present:      present,
	}
}

// Apply 以调用者身份投递 :id 对应的职位。
func (h *ApplicationHandler) Apply(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	app, err := h.applications.Apply(ctx, session.UserID, c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	metrics.ObserveApplicationCreated()

	Success(c, http.StatusCreated, "Applied to job successfully.", gin.H{
		"application": h.present.application(ctx, app),
	})
}

// ListMine 返回调用者的投递记录。
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	apps, err := h.applications.ListByApplicant(ctx, session.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, http.StatusOK, "", gin.H{
		"applications": h.present.applications(ctx, apps),
	})
}

// Applicants 返回 :id 职位收到的投递，仅职位发布者可查看。
func (h *ApplicationHandler) Applicants(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	jobID, err := pathID(c, application.ErrJobNotFound)
	if err != nil {
		RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	apps, err := h.applications.ListForJob(ctx, session.UserID, jobID)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, http.StatusOK, "Applicants fetched successfully.", gin.H{
		"applicants": h.present.applications(ctx, apps),
	})
}

type updateStatusRequest struct {
	Status string `form:"status" json:"status"`
}

// UpdateStatus 修改投递状态，成功后投递通知任务；入队失败不影响响应。
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	appID, err := pathID(c, application.ErrNotFound)
	if err != nil {
		RespondError(c, err)
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	app, err := h.applications.UpdateStatus(ctx, session.UserID, appID, req.Status)
	if err != nil {
		RespondError(c, err)
		return
	}
	metrics.ObserveStatusChange(app.Status)
	h.enqueueStatusChanged(c, app.ID, app.Status)

	Success(c, http.StatusOK, "Application status updated successfully.", gin.H{
		"application": h.present.application(ctx, app),
	})
}

func (h *ApplicationHandler) enqueueStatusChanged(c *gin.Context, applicationID uint, status string) {
	if h.enqueuer == nil {
		return
	}
	logger := middleware.LoggerFromContext(c).With(slog.Uint64("application_id", uint64(applicationID)))

	task, err := tasks.NewApplicationStatusChangedTask(applicationID, status, middleware.GetCorrelationID(c))
	if err != nil {
		logger.Error("build status task failed", slog.Any("error", err))
		return
	}
	if _, err := h.enqueuer.EnqueueContext(c.Request.Context(), task); err != nil {
		logger.Error("enqueue status task failed", slog.Any("error", err))
		return
	}
	logger.Info("status task enqueued", slog.String("status", status))
}
